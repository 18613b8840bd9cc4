package models

import (
	"encoding/json"
	"time"
)

// AMAGValidation marks the aggregate governance outcome recorded with an
// audit entry
type AMAGValidation string

const (
	AMAGValidationPassed  AMAGValidation = "passed"
	AMAGValidationFailed  AMAGValidation = "failed"
	AMAGValidationBlocked AMAGValidation = "blocked"
)

// AuditLog represents an immutable audit trail entry. Entries are append-only:
// once written they are never updated or deleted, and every governed operation
// produces exactly one.
type AuditLog struct {
	ID             int64           `json:"id" db:"id"`
	UserID         *int64          `json:"user_id,omitempty" db:"user_id"` // nullable: user may have been deleted
	Action         Action          `json:"action" db:"action"`
	ResourceType   string          `json:"resource_type" db:"resource_type"`
	ResourceID     *int64          `json:"resource_id,omitempty" db:"resource_id"`
	Details        json.RawMessage `json:"details" db:"details"` // input snapshot at call time
	AMAGValidation AMAGValidation  `json:"ama_g_validation" db:"ama_g_validation"`
	RuleType       RuleType        `json:"rule_type" db:"rule_type"`
	Reason         string          `json:"reason" db:"reason"`
	IPAddress      string          `json:"ip_address" db:"ip_address"`
	UserAgent      string          `json:"user_agent" db:"user_agent"`
	RequestID      string          `json:"request_id" db:"request_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog projects an operation context and its verdict into an audit
// entry. The input payload is snapshotted as JSON at call time.
func NewAuditLog(opCtx OperationContext, verdict ValidationResult) *AuditLog {
	entry := &AuditLog{
		Action:       opCtx.Action,
		ResourceType: opCtx.ResourceType,
		ResourceID:   opCtx.ResourceID,
		RuleType:     verdict.RuleType,
		Reason:       verdict.Reason,
		IPAddress:    opCtx.IPAddress,
		UserAgent:    opCtx.UserAgent,
		RequestID:    opCtx.RequestID,
		CreatedAt:    time.Now().UTC(),
	}

	if opCtx.UserID > 0 {
		uid := opCtx.UserID
		entry.UserID = &uid
	}

	if verdict.Passed {
		entry.AMAGValidation = AMAGValidationPassed
	} else {
		entry.AMAGValidation = AMAGValidationFailed
	}

	if data, err := json.Marshal(opCtx.Input); err == nil {
		entry.Details = data
	}

	return entry
}

// WithBlocked marks the entry as blocked by policy rather than failed during
// execution
func (a *AuditLog) WithBlocked() *AuditLog {
	a.AMAGValidation = AMAGValidationBlocked
	return a
}
