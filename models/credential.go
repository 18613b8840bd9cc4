package models

import (
	"encoding/json"
	"time"
)

// Platform identifies the external platform a credential belongs to
type Platform string

const (
	PlatformOrchestration Platform = "orchestration"
	PlatformCognitive     Platform = "cognitive"
	PlatformSourceControl Platform = "source-control"
)

// Valid reports whether the platform is a known member of the closed set
func (p Platform) Valid() bool {
	switch p {
	case PlatformOrchestration, PlatformCognitive, PlatformSourceControl:
		return true
	}
	return false
}

// Credential represents a stored third-party API credential.
// The secret is held only in encrypted form: EncryptedValue carries the
// AES-256-GCM ciphertext plus trailing auth tag, EncryptionIV the per-secret
// nonce, both hex encoded. The two fields are always set together.
type Credential struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	Platform       Platform   `json:"platform" db:"platform"`
	Name           string     `json:"name" db:"name"`
	EncryptedValue string     `json:"-" db:"encrypted_value"`
	EncryptionIV   string     `json:"-" db:"encryption_iv"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	LastValidated  *time.Time `json:"last_validated,omitempty" db:"last_validated"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Credential model
func (Credential) TableName() string {
	return "credentials"
}

// redactedValue is what API responses show in place of ciphertext
const redactedValue = "***REDACTED***"

// MarshalJSON redacts the ciphertext so a credential can never leak its
// stored secret material through an API response
func (c Credential) MarshalJSON() ([]byte, error) {
	type alias Credential
	return json.Marshal(struct {
		alias
		EncryptedValue string `json:"encrypted_value"`
	}{
		alias:          alias(c),
		EncryptedValue: redactedValue,
	})
}

// CredentialUpdate carries the mutable credential fields. Nil pointers are
// left untouched by an update.
type CredentialUpdate struct {
	Name     *string
	Secret   *string
	IsActive *bool
}

// Empty reports whether the update would be a no-op
func (u CredentialUpdate) Empty() bool {
	return u.Name == nil && u.Secret == nil && u.IsActive == nil
}
