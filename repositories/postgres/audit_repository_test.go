package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func auditRows(logs ...*models.AuditLog) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "action", "resource_type", "resource_id", "details",
		"ama_g_validation", "rule_type", "reason", "ip_address", "user_agent",
		"request_id", "created_at",
	})
	for _, l := range logs {
		rows.AddRow(l.ID, l.UserID, l.Action, l.ResourceType, l.ResourceID,
			[]byte(l.Details), l.AMAGValidation, l.RuleType, l.Reason,
			l.IPAddress, l.UserAgent, l.RequestID, l.CreatedAt)
	}
	return rows
}

func sampleAuditLog() *models.AuditLog {
	uid := int64(7)
	return &models.AuditLog{
		ID:             1,
		UserID:         &uid,
		Action:         models.ActionCreateCredential,
		ResourceType:   "credential",
		Details:        json.RawMessage(`{"platform":"cognitive"}`),
		AMAGValidation: models.AMAGValidationPassed,
		RuleType:       models.RuleTypeAggregate,
		Reason:         "All AMA-G rules passed",
		IPAddress:      "10.0.0.5",
		UserAgent:      "governance-cli/1.0",
		RequestID:      "req-123",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestAuditRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	entry := sampleAuditLog()
	entry.ID = 0

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID,
			entry.Details, entry.AMAGValidation, entry.RuleType, entry.Reason,
			entry.IPAddress, entry.UserAgent, entry.RequestID, entry.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	err := repo.Insert(context.Background(), entry)
	require.NoError(t, err)
	assert.Equal(t, int64(11), entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_Insert_StoreDown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	entry := sampleAuditLog()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnError(assert.AnError)

	err := repo.Insert(context.Background(), entry)
	assert.Error(t, err)
}

func TestAuditRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAuditRepository(db, zap.NewNop())
		entry := sampleAuditLog()

		mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs")).
			WithArgs(entry.ID).
			WillReturnRows(auditRows(entry))

		got, err := repo.GetByID(context.Background(), entry.ID)
		require.NoError(t, err)
		assert.Equal(t, entry.Action, got.Action)
		assert.Equal(t, entry.AMAGValidation, got.AMAGValidation)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAuditRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs")).
			WithArgs(int64(404)).
			WillReturnRows(auditRows())

		got, err := repo.GetByID(context.Background(), 404)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestAuditRepository_GetByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	a := sampleAuditLog()
	b := sampleAuditLog()
	b.ID = 2
	b.Action = models.ActionDeleteCredential

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1")).
		WithArgs(int64(7), 50, 0).
		WillReturnRows(auditRows(a, b))

	logs, err := repo.GetByUserID(context.Background(), 7, 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionDeleteCredential, logs[1].Action)
}

func TestAuditRepository_GetByAction(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	entry := sampleAuditLog()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE action = $1")).
		WithArgs(models.ActionCreateCredential, 25, 50).
		WillReturnRows(auditRows(entry))

	logs, err := repo.GetByAction(context.Background(), models.ActionCreateCredential, 25, 50)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestAuditRepository_GetByDateRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE created_at >= $1 AND created_at <= $2")).
		WithArgs(start, end, 50, 0).
		WillReturnRows(auditRows(sampleAuditLog()))

	logs, err := repo.GetByDateRange(context.Background(), start, end, 50, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
}

func TestAuditRepository_GetByRequestID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	entry := sampleAuditLog()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE request_id = $1")).
		WithArgs("req-123").
		WillReturnRows(auditRows(entry))

	logs, err := repo.GetByRequestID(context.Background(), "req-123")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "req-123", logs[0].RequestID)
}
