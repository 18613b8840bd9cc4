package handlers

import (
	"context"
	"net/http"

	"github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/services/governance"
	"github.com/dgr198213-ui/qodeia-arch/utils"
	"go.uber.org/zap"
)

// PlatformStatus reports whether a platform has an active credential
type PlatformStatus struct {
	Platform   string  `json:"platform"`
	Configured bool    `json:"configured"`
	Credential *string `json:"credential,omitempty"`
}

// StatusResponse represents the caller's integration status
type StatusResponse struct {
	Platforms []PlatformStatus `json:"platforms"`
}

// StatusHandler reports per-platform integration status for the caller
type StatusHandler struct {
	credentialService CredentialService
	guard             *governance.Guard
	logger            *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(credentialService CredentialService, guard *governance.Guard, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		credentialService: credentialService,
		guard:             guard,
		logger:            logger,
	}
}

// HandleGetStatus handles GET /api/v1/status
func (h *StatusHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	opCtx := middleware.OperationContext(r, models.ActionReadStatus, "status")
	opCtx.Input = map[string]interface{}{}

	creds, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) ([]*models.Credential, error) {
		return h.credentialService.ListByUser(ctx, opCtx.UserID)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	byPlatform := make(map[models.Platform]*models.Credential)
	for _, c := range creds {
		if _, seen := byPlatform[c.Platform]; !seen {
			byPlatform[c.Platform] = c
		}
	}

	platforms := []models.Platform{
		models.PlatformOrchestration,
		models.PlatformCognitive,
		models.PlatformSourceControl,
	}

	statuses := make([]PlatformStatus, len(platforms))
	for i, p := range platforms {
		status := PlatformStatus{Platform: string(p)}
		if c, ok := byPlatform[p]; ok {
			status.Configured = true
			status.Credential = &c.Name
		}
		statuses[i] = status
	}

	_ = utils.WriteOK(w, StatusResponse{Platforms: statuses})
}
