package models

import (
	"encoding/json"
	"time"
)

// AMAGRule is a persisted rule definition from the governance catalog. The
// catalog documents the four supreme rules and is served read-only; the
// evaluating predicates themselves are compiled into the policy engine and do
// not consult the Condition payload at run time.
type AMAGRule struct {
	ID          int64           `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	RuleType    RuleType        `json:"rule_type" db:"rule_type"`
	Condition   json.RawMessage `json:"condition" db:"condition"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the AMAGRule model
func (AMAGRule) TableName() string {
	return "amag_rules"
}
