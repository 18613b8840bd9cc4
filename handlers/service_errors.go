package handlers

import (
	"errors"
	"net/http"

	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/dgr198213-ui/qodeia-arch/services"
	"github.com/dgr198213-ui/qodeia-arch/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Raw repository
// sentinels are handled too, for handlers that read a store directly.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	switch {
	case services.IsNotFoundError(err), errors.Is(err, repositories.ErrNotFound):
		if err := utils.WriteNotFound(w, err.Error()); err != nil {
			logger.Error("failed to write not found response", zap.Error(err))
		}

	case services.IsValidationError(err):
		if err := utils.WriteBadRequest(w, err.Error(), details); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsForbiddenError(err):
		if err := utils.WriteForbidden(w, err.Error()); err != nil {
			logger.Error("failed to write forbidden response", zap.Error(err))
		}

	case services.IsPolicyRejectedError(err):
		// Governance rejections are mapped to 403 Forbidden
		if err := utils.WriteForbidden(w, err.Error()); err != nil {
			logger.Error("failed to write policy rejection response", zap.Error(err))
		}

	case services.IsStoreUnavailableError(err), errors.Is(err, repositories.ErrStoreUnavailable):
		logger.Error("credential store unavailable", zap.Error(err))
		if err := utils.WriteServiceUnavailable(w, "Credential store temporarily unavailable"); err != nil {
			logger.Error("failed to write service unavailable response", zap.Error(err))
		}

	case services.IsDecryptionError(err):
		// The stored ciphertext cannot be recovered; never expose crypto detail
		logger.Error("credential unreadable", zap.Error(err))
		if err := utils.WriteError(w, http.StatusInternalServerError, "Credential could not be read", nil); err != nil {
			logger.Error("failed to write decryption error response", zap.Error(err))
		}

	case services.IsConfigurationError(err):
		logger.Error("configuration error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "Service misconfigured"); err != nil {
			logger.Error("failed to write configuration error response", zap.Error(err))
		}

	default:
		// Unknown error type - log and return internal error
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	// Generic validation error
	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
