// Package credentials implements the credential store adapter: CRUD over
// encrypted credential records. The adapter is mechanism only; AMA-G policy
// lives in the governance layer and is never consulted here. Ownership is
// still enforced at this layer as defense in depth.
package credentials

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/dgr198213-ui/qodeia-arch/services"
	"go.uber.org/zap"
)

// Cipher transforms credential secrets to and from their encrypted form
type Cipher interface {
	Encrypt(plaintext string) (encrypted string, nonce string, err error)
	Decrypt(encrypted string, nonce string) (string, error)
}

// Service handles credential storage. Secrets pass through the cipher on the
// way in and out; a credential row never carries plaintext.
type Service struct {
	credRepo repositories.CredentialRepository
	cipher   Cipher
	logger   *zap.Logger
}

// NewService creates a new credential store adapter
func NewService(credRepo repositories.CredentialRepository, cipher Cipher, logger *zap.Logger) *Service {
	return &Service{
		credRepo: credRepo,
		cipher:   cipher,
		logger:   logger,
	}
}

// Create encrypts the secret and persists a new active credential
func (s *Service) Create(ctx context.Context, userID int64, platform models.Platform, name, secret string) (*models.Credential, error) {
	if !platform.Valid() {
		return nil, services.ErrInvalidPlatform.WithDetail("platform", string(platform))
	}
	if strings.TrimSpace(name) == "" {
		return nil, services.ErrInvalidInput.WithDetail("field", "name")
	}
	if secret == "" {
		return nil, services.ErrEmptySecret
	}

	encrypted, nonce, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, services.WrapInternal("failed to encrypt secret", err)
	}

	now := time.Now().UTC()
	cred := &models.Credential{
		UserID:         userID,
		Platform:       platform,
		Name:           name,
		EncryptedValue: encrypted,
		EncryptionIV:   nonce,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.credRepo.Insert(ctx, cred); err != nil {
		return nil, mapStoreErr(err, "failed to create credential")
	}

	s.logger.Info("credential created",
		zap.Int64("id", cred.ID),
		zap.Int64("user_id", userID),
		zap.String("platform", string(platform)))
	return cred, nil
}

// GetByID returns the raw, still-encrypted credential record
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Credential, error) {
	cred, err := s.credRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err, "failed to load credential")
	}
	return cred, nil
}

// GetDecryptedSecret loads and decrypts a credential's secret. A decryption
// failure is logged here and surfaced as a typed "credential unreadable"
// error: callers never see the raw crypto failure.
func (s *Service) GetDecryptedSecret(ctx context.Context, id int64) (string, error) {
	cred, err := s.credRepo.GetByID(ctx, id)
	if err != nil {
		return "", mapStoreErr(err, "failed to load credential")
	}

	plaintext, err := s.cipher.Decrypt(cred.EncryptedValue, cred.EncryptionIV)
	if err != nil {
		s.logger.Error("failed to decrypt credential",
			zap.Int64("id", id),
			zap.Error(err))
		return "", services.ErrCredentialUnreadable.WithDetail("credential_id", id)
	}

	return plaintext, nil
}

// ListByUser returns the user's active credentials, secrets still encrypted.
// Callers needing plaintext must go through GetDecryptedSecret explicitly.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error) {
	creds, err := s.credRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list credentials")
	}
	return creds, nil
}

// ListByUserAndPlatform returns the user's active credentials for one platform
func (s *Service) ListByUserAndPlatform(ctx context.Context, userID int64, platform models.Platform) ([]*models.Credential, error) {
	if !platform.Valid() {
		return nil, services.ErrInvalidPlatform.WithDetail("platform", string(platform))
	}

	creds, err := s.credRepo.ListByUserAndPlatform(ctx, userID, platform)
	if err != nil {
		return nil, mapStoreErr(err, "failed to list credentials")
	}
	return creds, nil
}

// Update applies the set fields of update to an owned credential. Fields left
// nil are untouched; a new secret is re-encrypted under a fresh nonce. An
// update against another user's credential fails with an ownership error and
// mutates nothing.
func (s *Service) Update(ctx context.Context, id, userID int64, update models.CredentialUpdate) (*models.Credential, error) {
	if update.Empty() {
		// No fields set: behave like an owned read. Foreign credentials
		// surface as not-found so their IDs stay unprobeable.
		cred, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if cred.UserID != userID {
			s.logger.Warn("credential update rejected: ownership mismatch",
				zap.Int64("id", id),
				zap.Int64("caller", userID),
				zap.Int64("owner", cred.UserID))
			return nil, services.ErrCredentialNotFound.WithDetail("credential_id", id)
		}
		return cred, nil
	}

	changes := repositories.CredentialChanges{
		Name:     update.Name,
		IsActive: update.IsActive,
	}

	if update.Secret != nil {
		if *update.Secret == "" {
			return nil, services.ErrEmptySecret
		}
		encrypted, nonce, err := s.cipher.Encrypt(*update.Secret)
		if err != nil {
			return nil, services.WrapInternal("failed to encrypt secret", err)
		}
		changes.EncryptedValue = &encrypted
		changes.EncryptionIV = &nonce
	}

	updated, err := s.credRepo.UpdateOwned(ctx, id, userID, changes)
	if err != nil {
		return nil, mapStoreErr(err, "failed to update credential")
	}

	if !updated {
		// Distinguish a missing credential from one owned by someone else
		cred, err := s.credRepo.GetByID(ctx, id)
		if err != nil {
			return nil, mapStoreErr(err, "failed to load credential")
		}
		if cred.UserID != userID {
			s.logger.Warn("credential update rejected: ownership mismatch",
				zap.Int64("id", id),
				zap.Int64("caller", userID),
				zap.Int64("owner", cred.UserID))
			return nil, services.ErrOwnershipViolation.WithDetail("credential_id", id)
		}
		return nil, services.ErrCredentialNotFound.WithDetail("credential_id", id)
	}

	return s.GetByID(ctx, id)
}

// SoftDelete deactivates an owned credential. The row is never removed, so
// audit entries keep a valid reference. Returns false when no matching active
// owned row exists.
func (s *Service) SoftDelete(ctx context.Context, id, userID int64) (bool, error) {
	deleted, err := s.credRepo.SoftDelete(ctx, id, userID)
	if err != nil {
		return false, mapStoreErr(err, "failed to delete credential")
	}

	if !deleted {
		s.logger.Warn("credential soft delete matched no row",
			zap.Int64("id", id),
			zap.Int64("user_id", userID))
	}
	return deleted, nil
}

// mapStoreErr translates repository-level errors into domain errors
func mapStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrCredentialNotFound
	case errors.Is(err, repositories.ErrStoreUnavailable):
		return services.WrapStore(msg, err)
	default:
		return services.WrapInternal(msg, err)
	}
}
