package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/services"
	"github.com/dgr198213-ui/qodeia-arch/services/governance"
	"github.com/dgr198213-ui/qodeia-arch/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// redactedPlaceholder replaces stored ciphertext in every API response
const redactedPlaceholder = "***REDACTED***"

// CreateCredentialRequest represents a request to store a credential
type CreateCredentialRequest struct {
	Platform string `json:"platform" validate:"required,platform"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Secret   string `json:"secret" validate:"required,min=1"`
}

// UpdateCredentialRequest represents a request to update a credential
type UpdateCredentialRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Secret   *string `json:"secret,omitempty" validate:"omitempty,min=1"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// CredentialResponse represents a credential in API responses. The stored
// secret is never returned; the encrypted value field carries a fixed
// placeholder.
type CredentialResponse struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	Platform       string  `json:"platform"`
	Name           string  `json:"name"`
	EncryptedValue string  `json:"encrypted_value"`
	IsActive       bool    `json:"is_active"`
	LastValidated  *string `json:"last_validated,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// SecretResponse carries a decrypted secret back to its owner
type SecretResponse struct {
	ID     int64  `json:"id"`
	Secret string `json:"secret"`
}

// CredentialService defines the interface for credential operations
type CredentialService interface {
	Create(ctx context.Context, userID int64, platform models.Platform, name, secret string) (*models.Credential, error)
	GetByID(ctx context.Context, id int64) (*models.Credential, error)
	GetDecryptedSecret(ctx context.Context, id int64) (string, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Credential, error)
	ListByUserAndPlatform(ctx context.Context, userID int64, platform models.Platform) ([]*models.Credential, error)
	Update(ctx context.Context, id, userID int64, update models.CredentialUpdate) (*models.Credential, error)
	SoftDelete(ctx context.Context, id, userID int64) (bool, error)
}

// CredentialHandler handles credential-related HTTP requests. Every operation
// runs through the governance guard, so a rejected request never reaches the
// credential service.
type CredentialHandler struct {
	credentialService CredentialService
	guard             *governance.Guard
	logger            *zap.Logger
}

// NewCredentialHandler creates a new CredentialHandler
func NewCredentialHandler(credentialService CredentialService, guard *governance.Guard, logger *zap.Logger) *CredentialHandler {
	return &CredentialHandler{
		credentialService: credentialService,
		guard:             guard,
		logger:            logger,
	}
}

// HandleCreateCredential handles POST /api/v1/credentials
func (h *CredentialHandler) HandleCreateCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	// The plaintext secret never enters the operation input, so it cannot
	// end up in an audit snapshot.
	opCtx := middleware.OperationContext(r, models.ActionCreateCredential, "credential")
	opCtx.Input = map[string]interface{}{
		"platform": req.Platform,
		"name":     req.Name,
	}

	cred, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) (*models.Credential, error) {
		return h.credentialService.Create(ctx, opCtx.UserID, models.Platform(req.Platform), req.Name, req.Secret)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("credential created",
		zap.String("request_id", requestID),
		zap.Int64("credential_id", cred.ID),
		zap.String("platform", string(cred.Platform)))

	_ = utils.WriteCreated(w, credentialToResponse(cred))
}

// HandleListCredentials handles GET /api/v1/credentials
func (h *CredentialHandler) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	platform := r.URL.Query().Get("platform")
	if platform != "" && !models.Platform(platform).Valid() {
		_ = utils.WriteBadRequest(w, "Unsupported platform filter", nil)
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionReadCredential, "credential")
	opCtx.Input = map[string]interface{}{"platform": platform}

	creds, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) ([]*models.Credential, error) {
		if platform != "" {
			return h.credentialService.ListByUserAndPlatform(ctx, opCtx.UserID, models.Platform(platform))
		}
		return h.credentialService.ListByUser(ctx, opCtx.UserID)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]CredentialResponse, len(creds))
	for i, c := range creds {
		responses[i] = credentialToResponse(c)
	}

	h.logger.Debug("listed credentials",
		zap.String("request_id", requestID),
		zap.Int("count", len(responses)))

	_ = utils.WriteOK(w, responses)
}

// HandleGetCredential handles GET /api/v1/credentials/{id}
func (h *CredentialHandler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionReadCredential, "credential").WithResource(id)
	opCtx.Input = map[string]interface{}{"credential_id": id}

	cred, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) (*models.Credential, error) {
		return h.fetchOwned(ctx, id, opCtx.UserID)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, credentialToResponse(cred))
}

// HandleRevealSecret handles GET /api/v1/credentials/{id}/secret
func (h *CredentialHandler) HandleRevealSecret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionReadCredential, "credential").WithResource(id)
	opCtx.Input = map[string]interface{}{"credential_id": id, "reveal": true}

	secret, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) (string, error) {
		if _, err := h.fetchOwned(ctx, id, opCtx.UserID); err != nil {
			return "", err
		}
		return h.credentialService.GetDecryptedSecret(ctx, id)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("credential secret revealed",
		zap.String("request_id", requestID),
		zap.Int64("credential_id", id),
		zap.Int64("user_id", opCtx.UserID))

	_ = utils.WriteOK(w, SecretResponse{ID: id, Secret: secret})
}

// HandleUpdateCredential handles PATCH /api/v1/credentials/{id}
func (h *CredentialHandler) HandleUpdateCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req UpdateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionUpdateCredential, "credential").WithResource(id)
	opCtx.Input = map[string]interface{}{
		"credential_id":  id,
		"name":           req.Name,
		"is_active":      req.IsActive,
		"rotates_secret": req.Secret != nil,
	}

	cred, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) (*models.Credential, error) {
		return h.credentialService.Update(ctx, id, opCtx.UserID, models.CredentialUpdate{
			Name:     req.Name,
			Secret:   req.Secret,
			IsActive: req.IsActive,
		})
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("credential updated",
		zap.String("request_id", requestID),
		zap.Int64("credential_id", cred.ID))

	_ = utils.WriteOK(w, credentialToResponse(cred))
}

// HandleDeleteCredential handles DELETE /api/v1/credentials/{id}
func (h *CredentialHandler) HandleDeleteCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionDeleteCredential, "credential").WithResource(id)
	opCtx.Input = map[string]interface{}{"credential_id": id}

	deleted, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) (bool, error) {
		return h.credentialService.SoftDelete(ctx, id, opCtx.UserID)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if !deleted {
		_ = utils.WriteNotFound(w, "Credential not found")
		return
	}

	h.logger.Info("credential deactivated",
		zap.String("request_id", requestID),
		zap.Int64("credential_id", id))

	utils.WriteNoContent(w)
}

// fetchOwned loads a credential and verifies the caller owns it. A foreign
// credential reads as not found, so IDs cannot be probed across users.
func (h *CredentialHandler) fetchOwned(ctx context.Context, id, userID int64) (*models.Credential, error) {
	cred, err := h.credentialService.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cred.UserID != userID {
		h.logger.Warn("credential access rejected: ownership mismatch",
			zap.Int64("credential_id", id),
			zap.Int64("caller", userID),
			zap.Int64("owner", cred.UserID))
		return nil, services.ErrCredentialNotFound.WithDetail("credential_id", id)
	}
	return cred, nil
}

// parseIDParam parses the {id} URL parameter as a positive integer
func parseIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		_ = utils.WriteBadRequest(w, "Invalid credential ID", nil)
		return 0, false
	}
	return id, true
}

// credentialToResponse converts a Credential model to a CredentialResponse
func credentialToResponse(c *models.Credential) CredentialResponse {
	resp := CredentialResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		Platform:       string(c.Platform),
		Name:           c.Name,
		EncryptedValue: redactedPlaceholder,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:      c.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if c.LastValidated != nil {
		formatted := c.LastValidated.Format("2006-01-02T15:04:05Z07:00")
		resp.LastValidated = &formatted
	}
	return resp
}
