package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"go.uber.org/zap"
)

// RuleRepository implements the repositories.RuleRepository interface
type RuleRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(db *DB, logger *zap.Logger) repositories.RuleRepository {
	return &RuleRepository{
		db:     db,
		logger: logger,
	}
}

const ruleColumns = `id, name, description, rule_type, condition, is_active,
	       created_at, updated_at`

// ListActive retrieves the active rule definitions
func (r *RuleRepository) ListActive(ctx context.Context) ([]*models.AMAGRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM amag_rules
		WHERE is_active = true
		ORDER BY id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapStoreErr(err, "failed to query rules")
	}
	defer rows.Close()

	var rules []*models.AMAGRule
	for rows.Next() {
		rule := &models.AMAGRule{}
		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.RuleType,
			&rule.Condition,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule rows: %w", err)
	}

	return rules, nil
}

// GetByRuleType retrieves the definition for one rule kind
func (r *RuleRepository) GetByRuleType(ctx context.Context, ruleType models.RuleType) (*models.AMAGRule, error) {
	query := `
		SELECT ` + ruleColumns + `
		FROM amag_rules
		WHERE rule_type = $1
	`

	executor := GetExecutor(ctx, r.db)
	rule := &models.AMAGRule{}

	err := executor.QueryRowContext(ctx, query, ruleType).Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.RuleType,
		&rule.Condition,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule %s", repositories.ErrNotFound, ruleType)
		}
		return nil, wrapStoreErr(err, "failed to get rule")
	}

	return rule, nil
}

// Seed inserts the built-in rule definitions when they are not already
// present. The conditions are documentation payloads; evaluation runs against
// the compiled-in predicates.
func (r *RuleRepository) Seed(ctx context.Context) error {
	query := `
		INSERT INTO amag_rules (name, description, rule_type, condition, is_active)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (rule_type) DO NOTHING
	`

	seeds := []struct {
		name        string
		description string
		ruleType    models.RuleType
		condition   string
	}{
		{
			name:        "Veracity",
			description: "Only traceable, coherent and verifiable operations are validated",
			ruleType:    models.RuleTypeVerity,
			condition:   `{"requires": ["input_object", "positive_user_id"]}`,
		},
		{
			name:        "Determinism",
			description: "The same input always produces the same result",
			ruleType:    models.RuleTypeDeterminism,
			condition:   `{"requires": ["non_empty_canonical_input"]}`,
		},
		{
			name:        "Non-contamination",
			description: "A module never alters another module's resources without authorization",
			ruleType:    models.RuleTypeNoContamination,
			condition:   `{"requires": ["resource_id_on_mutation", "acting_user_id"]}`,
		},
		{
			name:        "Epistemic security",
			description: "Operations without explicit support are blocked",
			ruleType:    models.RuleTypeEpistemicSecurity,
			condition:   `{"requires": ["action_in_allow_list"]}`,
		},
	}

	executor := GetExecutor(ctx, r.db)
	for _, seed := range seeds {
		if _, err := executor.ExecContext(ctx, query,
			seed.name, seed.description, seed.ruleType, seed.condition); err != nil {
			return wrapStoreErr(err, fmt.Sprintf("failed to seed rule %s", seed.ruleType))
		}
	}

	r.logger.Info("governance rule catalog seeded", zap.Int("rules", len(seeds)))
	return nil
}

// WithTx returns a new repository instance bound to the transaction
func (r *RuleRepository) WithTx(tx repositories.Transaction) repositories.RuleRepository {
	return &RuleRepository{
		db:     r.db,
		logger: r.logger,
	}
}
