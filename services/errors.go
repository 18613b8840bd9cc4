package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeConfiguration  ErrorType = "configuration"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeForbidden      ErrorType = "forbidden"
	ErrorTypeStore          ErrorType = "store_unavailable"
	ErrorTypeDecryption     ErrorType = "decryption"
	ErrorTypePolicyRejected ErrorType = "policy_rejected"
	ErrorTypeInternal       ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail returns a copy of the error carrying the extra detail. The
// receiver is left untouched so the shared sentinels stay immutable.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value

	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     e.Err,
		Details: details,
	}
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Configuration Errors (fatal at startup)
	ErrMissingEncryptionKey   = NewDomainError(ErrorTypeConfiguration, "encryption key is not configured", nil)
	ErrMalformedEncryptionKey = NewDomainError(ErrorTypeConfiguration, "encryption key must be 64 hex characters", nil)

	// Not Found Errors
	ErrCredentialNotFound = NewDomainError(ErrorTypeNotFound, "credential not found", nil)
	ErrRuleNotFound       = NewDomainError(ErrorTypeNotFound, "governance rule not found", nil)
	ErrAuditLogNotFound   = NewDomainError(ErrorTypeNotFound, "audit log not found", nil)

	// Validation Errors
	ErrInvalidInput    = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrInvalidPlatform = NewDomainError(ErrorTypeValidation, "invalid platform specified", nil)
	ErrEmptySecret     = NewDomainError(ErrorTypeValidation, "secret cannot be empty", nil)

	// Ownership / Permission Errors
	ErrOwnershipViolation = NewDomainError(ErrorTypeForbidden, "credential is owned by another user", nil)

	// Store Errors (recoverable by retry/backoff at the caller)
	ErrStoreUnavailable = NewDomainError(ErrorTypeStore, "backing store unreachable", nil)

	// Decryption Errors (never retried automatically)
	ErrCredentialUnreadable = NewDomainError(ErrorTypeDecryption, "credential unreadable", nil)

	// Governance Errors
	ErrPolicyRejected = NewDomainError(ErrorTypePolicyRejected, "operation blocked by governance policy", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal error", nil)
)

// NewPolicyRejectedError creates a policy rejection carrying the failing
// rule's identity and reason, so the caller always sees why it was blocked
func NewPolicyRejectedError(ruleType string, reason string) *DomainError {
	return NewDomainError(ErrorTypePolicyRejected, reason, nil).
		WithDetail("rule_type", ruleType)
}

// Error type checking helper functions

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConfiguration
	}
	return false
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsForbiddenError checks if an error is an ownership/permission error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsStoreUnavailableError checks if an error indicates an unreachable store
func IsStoreUnavailableError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeStore
	}
	return false
}

// IsDecryptionError checks if an error is a decryption failure
func IsDecryptionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeDecryption
	}
	return false
}

// IsPolicyRejectedError checks if an error is a governance rejection
func IsPolicyRejectedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypePolicyRejected
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapStore wraps an error as a store availability error
func WrapStore(message string, err error) error {
	return NewDomainError(ErrorTypeStore, message, err)
}
