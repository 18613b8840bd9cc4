package postgres

import (
	"context"
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

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return &DB{DB: mockDB, logger: zap.NewNop()}, mock
}

func credentialRows(creds ...*models.Credential) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "platform", "name", "encrypted_value", "encryption_iv",
		"is_active", "last_validated", "created_at", "updated_at",
	})
	for _, c := range creds {
		rows.AddRow(c.ID, c.UserID, c.Platform, c.Name, c.EncryptedValue,
			c.EncryptionIV, c.IsActive, c.LastValidated, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

func sampleCredential() *models.Credential {
	now := time.Now().UTC()
	return &models.Credential{
		ID:             42,
		UserID:         7,
		Platform:       models.PlatformCognitive,
		Name:           "prod key",
		EncryptedValue: "deadbeef",
		EncryptionIV:   "0102030405060708090a0b0c",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestCredentialRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCredentialRepository(db, zap.NewNop())

	cred := sampleCredential()
	cred.ID = 0

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO credentials")).
		WithArgs(cred.UserID, cred.Platform, cred.Name, cred.EncryptedValue,
			cred.EncryptionIV, cred.IsActive, cred.CreatedAt, cred.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	err := repo.Insert(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, int64(42), cred.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())
		cred := sampleCredential()

		mock.ExpectQuery(regexp.QuoteMeta("FROM credentials")).
			WithArgs(cred.ID).
			WillReturnRows(credentialRows(cred))

		got, err := repo.GetByID(context.Background(), cred.ID)
		require.NoError(t, err)
		assert.Equal(t, cred.ID, got.ID)
		assert.Equal(t, cred.EncryptedValue, got.EncryptedValue)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM credentials")).
			WithArgs(int64(999)).
			WillReturnRows(credentialRows())

		got, err := repo.GetByID(context.Background(), 999)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestCredentialRepository_ListByUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCredentialRepository(db, zap.NewNop())

	a := sampleCredential()
	b := sampleCredential()
	b.ID = 43
	b.Platform = models.PlatformOrchestration

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = true")).
		WithArgs(int64(7)).
		WillReturnRows(credentialRows(a, b))

	creds, err := repo.ListByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, int64(43), creds[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_ListByUserAndPlatform(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCredentialRepository(db, zap.NewNop())

	cred := sampleCredential()

	mock.ExpectQuery(regexp.QuoteMeta("AND platform = $2")).
		WithArgs(int64(7), models.PlatformCognitive).
		WillReturnRows(credentialRows(cred))

	creds, err := repo.ListByUserAndPlatform(context.Background(), 7, models.PlatformCognitive)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, models.PlatformCognitive, creds[0].Platform)
}

func TestCredentialRepository_UpdateOwned(t *testing.T) {
	t.Run("owned row updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		name := "renamed"
		mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials")).
			WithArgs(int64(42), int64(7), sqlmock.AnyArg(), name).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateOwned(context.Background(), 42, 7, repositories.CredentialChanges{Name: &name})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rotation writes ciphertext and nonce together", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		value := "cafef00d"
		iv := "0102030405060708090a0b0c"
		mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials")).
			WithArgs(int64(42), int64(7), sqlmock.AnyArg(), value, iv).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.UpdateOwned(context.Background(), 42, 7, repositories.CredentialChanges{
			EncryptedValue: &value,
			EncryptionIV:   &iv,
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign row is not touched", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		name := "renamed"
		mock.ExpectExec(regexp.QuoteMeta("UPDATE credentials")).
			WithArgs(int64(42), int64(9), sqlmock.AnyArg(), name).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.UpdateOwned(context.Background(), 42, 9, repositories.CredentialChanges{Name: &name})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCredentialRepository_SoftDelete(t *testing.T) {
	t.Run("owned active row deactivated", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("SET is_active = false")).
			WithArgs(int64(42), int64(7), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.SoftDelete(context.Background(), 42, 7)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("already inactive row reports false", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewCredentialRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("SET is_active = false")).
			WithArgs(int64(42), int64(7), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.SoftDelete(context.Background(), 42, 7)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
