package repositories

import (
	"context"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// CredentialRepository handles credential data operations. Deletion is always
// a soft transition: rows are deactivated, never removed, so audit linkage
// survives. Ownership is enforced at the SQL level on every mutation.
type CredentialRepository interface {
	// Insert persists a new credential and fills in the store-assigned ID
	Insert(ctx context.Context, cred *models.Credential) error

	// GetByID retrieves a credential by ID, still encrypted
	GetByID(ctx context.Context, id int64) (*models.Credential, error)

	// ListByUser retrieves a user's active credentials
	ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error)

	// ListByUserAndPlatform retrieves a user's active credentials for one platform
	ListByUserAndPlatform(ctx context.Context, userID int64, platform models.Platform) ([]*models.Credential, error)

	// UpdateOwned applies the set fields of changes to a credential, but only
	// when it is owned by userID. Returns false when no owned row matched.
	UpdateOwned(ctx context.Context, id, userID int64, changes CredentialChanges) (bool, error)

	// SoftDelete clears the active flag of an owned credential. Returns false
	// when no matching active owned row exists.
	SoftDelete(ctx context.Context, id, userID int64) (bool, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) CredentialRepository
}

// CredentialChanges carries the column values an update may set. Nil fields
// are left untouched. EncryptedValue and EncryptionIV are always set together.
type CredentialChanges struct {
	Name           *string
	EncryptedValue *string
	EncryptionIV   *string
	IsActive       *bool
}

// Empty reports whether the update would change nothing
func (c CredentialChanges) Empty() bool {
	return c.Name == nil && c.EncryptedValue == nil && c.IsActive == nil
}

// AuditRepository handles audit log data operations. The interface is
// deliberately append-only on the write side: there is no update or delete.
type AuditRepository interface {
	// Insert appends a new audit log entry and fills in the store-assigned ID
	Insert(ctx context.Context, log *models.AuditLog) error

	// GetByID retrieves an audit log by ID
	GetByID(ctx context.Context, id int64) (*models.AuditLog, error)

	// GetByUserID retrieves audit logs for a user with pagination
	GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]*models.AuditLog, error)

	// GetByAction retrieves audit logs by action with pagination
	GetByAction(ctx context.Context, action models.Action, limit, offset int) ([]*models.AuditLog, error)

	// GetByDateRange retrieves audit logs within a date range
	GetByDateRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*models.AuditLog, error)

	// GetByRequestID retrieves audit logs by request ID
	GetByRequestID(ctx context.Context, requestID string) ([]*models.AuditLog, error)

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) AuditRepository
}

// RuleRepository serves the stored AMA-G rule catalog. The catalog is
// read-mostly: definitions are seeded at schema init and listed for
// inspection; the policy engine evaluates compiled-in predicates and does not
// consult the stored condition payloads.
type RuleRepository interface {
	// ListActive retrieves the active rule definitions
	ListActive(ctx context.Context) ([]*models.AMAGRule, error)

	// GetByRuleType retrieves the definition for one rule kind
	GetByRuleType(ctx context.Context, ruleType models.RuleType) (*models.AMAGRule, error)

	// Seed inserts the built-in rule definitions when the catalog is empty
	Seed(ctx context.Context) error

	// WithTx returns a new repository instance bound to the transaction
	WithTx(tx Transaction) RuleRepository
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Credentials CredentialRepository
	AuditLogs   AuditRepository
	Rules       RuleRepository
}
