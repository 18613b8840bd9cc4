package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"go.uber.org/zap"
)

// CredentialRepository implements the repositories.CredentialRepository interface
type CredentialRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB, logger *zap.Logger) repositories.CredentialRepository {
	return &CredentialRepository{
		db:     db,
		logger: logger,
	}
}

const credentialColumns = `id, user_id, platform, name, encrypted_value, encryption_iv,
	       is_active, last_validated, created_at, updated_at`

// Insert persists a new credential and fills in the store-assigned ID
func (r *CredentialRepository) Insert(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO credentials (
			user_id, platform, name, encrypted_value, encryption_iv,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, query,
		cred.UserID,
		cred.Platform,
		cred.Name,
		cred.EncryptedValue,
		cred.EncryptionIV,
		cred.IsActive,
		cred.CreatedAt,
		cred.UpdatedAt,
	).Scan(&cred.ID)

	if err != nil {
		return wrapStoreErr(err, "failed to insert credential")
	}

	r.logger.Debug("credential inserted",
		zap.Int64("id", cred.ID),
		zap.Int64("user_id", cred.UserID),
		zap.String("platform", string(cred.Platform)))
	return nil
}

// GetByID retrieves a credential by ID, still encrypted
func (r *CredentialRepository) GetByID(ctx context.Context, id int64) (*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	cred := &models.Credential{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&cred.ID,
		&cred.UserID,
		&cred.Platform,
		&cred.Name,
		&cred.EncryptedValue,
		&cred.EncryptionIV,
		&cred.IsActive,
		&cred.LastValidated,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: credential %d", repositories.ErrNotFound, id)
		}
		return nil, wrapStoreErr(err, "failed to get credential")
	}

	return cred, nil
}

// ListByUser retrieves a user's active credentials
func (r *CredentialRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC
	`

	return r.queryCredentials(ctx, query, userID)
}

// ListByUserAndPlatform retrieves a user's active credentials for one platform
func (r *CredentialRepository) ListByUserAndPlatform(ctx context.Context, userID int64, platform models.Platform) ([]*models.Credential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM credentials
		WHERE user_id = $1 AND platform = $2 AND is_active = true
		ORDER BY created_at DESC
	`

	return r.queryCredentials(ctx, query, userID, platform)
}

// UpdateOwned applies the set fields of changes to an owned credential row.
// The ownership predicate lives in the WHERE clause, so a mismatched caller
// can never mutate another user's row no matter what the layers above decided.
func (r *CredentialRepository) UpdateOwned(ctx context.Context, id, userID int64, changes repositories.CredentialChanges) (bool, error) {
	set := []string{"updated_at = $3"}
	args := []interface{}{id, userID, time.Now().UTC()}

	if changes.Name != nil {
		args = append(args, *changes.Name)
		set = append(set, "name = $"+strconv.Itoa(len(args)))
	}
	if changes.EncryptedValue != nil {
		args = append(args, *changes.EncryptedValue)
		set = append(set, "encrypted_value = $"+strconv.Itoa(len(args)))
		args = append(args, *changes.EncryptionIV)
		set = append(set, "encryption_iv = $"+strconv.Itoa(len(args)))
	}
	if changes.IsActive != nil {
		args = append(args, *changes.IsActive)
		set = append(set, "is_active = $"+strconv.Itoa(len(args)))
	}

	query := `
		UPDATE credentials
		SET ` + strings.Join(set, ", ") + `
		WHERE id = $1 AND user_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrapStoreErr(err, "failed to update credential")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	r.logger.Debug("credential updated",
		zap.Int64("id", id),
		zap.Int64("user_id", userID),
		zap.Int64("rows", affected))
	return affected > 0, nil
}

// SoftDelete clears the active flag of an owned credential. The row stays in
// place to preserve audit linkage.
func (r *CredentialRepository) SoftDelete(ctx context.Context, id, userID int64) (bool, error) {
	query := `
		UPDATE credentials
		SET is_active = false, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND is_active = true
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id, userID, time.Now().UTC())
	if err != nil {
		return false, wrapStoreErr(err, "failed to soft delete credential")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}

	r.logger.Debug("credential soft deleted",
		zap.Int64("id", id),
		zap.Int64("user_id", userID),
		zap.Bool("deleted", affected > 0))
	return affected > 0, nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *CredentialRepository) WithTx(tx repositories.Transaction) repositories.CredentialRepository {
	return &CredentialRepository{
		db:     r.db,
		logger: r.logger,
	}
}

// queryCredentials is a helper method to query multiple credentials
func (r *CredentialRepository) queryCredentials(ctx context.Context, query string, args ...interface{}) ([]*models.Credential, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to query credentials")
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		cred := &models.Credential{}
		err := rows.Scan(
			&cred.ID,
			&cred.UserID,
			&cred.Platform,
			&cred.Name,
			&cred.EncryptedValue,
			&cred.EncryptionIV,
			&cred.IsActive,
			&cred.LastValidated,
			&cred.CreatedAt,
			&cred.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credential rows: %w", err)
	}

	return creds, nil
}
