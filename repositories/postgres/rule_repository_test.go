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

func ruleRows(rules ...*models.AMAGRule) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "description", "rule_type", "condition", "is_active",
		"created_at", "updated_at",
	})
	for _, r := range rules {
		rows.AddRow(r.ID, r.Name, r.Description, r.RuleType, r.Condition,
			r.IsActive, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func sampleRule() *models.AMAGRule {
	now := time.Now().UTC()
	return &models.AMAGRule{
		ID:          1,
		Name:        "Veracity",
		Description: "Only traceable, coherent and verifiable operations are validated",
		RuleType:    models.RuleTypeVerity,
		Condition:   json.RawMessage(`{"requires": ["input_object", "positive_user_id"]}`),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRuleRepository_ListActive(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, zap.NewNop())

	a := sampleRule()
	b := sampleRule()
	b.ID = 4
	b.Name = "Epistemic security"
	b.RuleType = models.RuleTypeEpistemicSecurity

	mock.ExpectQuery(regexp.QuoteMeta("FROM amag_rules")).
		WillReturnRows(ruleRows(a, b))

	rules, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, models.RuleTypeEpistemicSecurity, rules[1].RuleType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRuleRepository_GetByRuleType(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRuleRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE rule_type = $1")).
			WithArgs(models.RuleTypeVerity).
			WillReturnRows(ruleRows(sampleRule()))

		rule, err := repo.GetByRuleType(context.Background(), models.RuleTypeVerity)
		require.NoError(t, err)
		assert.Equal(t, "Veracity", rule.Name)
	})

	t.Run("unknown rule type", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRuleRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("WHERE rule_type = $1")).
			WithArgs(models.RuleType("whimsy")).
			WillReturnRows(ruleRows())

		rule, err := repo.GetByRuleType(context.Background(), models.RuleType("whimsy"))
		assert.Nil(t, rule)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestRuleRepository_Seed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRuleRepository(db, zap.NewNop())

	// One upsert per built-in rule, idempotent via ON CONFLICT.
	for i := 0; i < 4; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO amag_rules")).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	err := repo.Seed(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
