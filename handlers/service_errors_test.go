package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgr198213-ui/qodeia-arch/services"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHandleServiceError(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "nil error writes nothing",
			err:        nil,
			wantStatus: http.StatusOK, // recorder default
		},
		{
			name:       "not found",
			err:        services.ErrCredentialNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "validation",
			err:        services.ErrInvalidPlatform,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "ownership violation",
			err:        services.ErrOwnershipViolation,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "policy rejection",
			err:        services.NewPolicyRejectedError("epistemicSecurity", `Action "drop_database" is not explicitly allowed`),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "store unavailable",
			err:        services.ErrStoreUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "credential unreadable",
			err:        services.ErrCredentialUnreadable,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "missing encryption key",
			err:        services.ErrMissingEncryptionKey,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "unknown error",
			err:        errors.New("something odd"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleServiceError(w, tt.err, logger)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleServiceError_StoreUnavailableHidesDetail(t *testing.T) {
	w := httptest.NewRecorder()

	HandleServiceError(w, services.WrapStore("failed to load credential", errors.New("dial tcp 10.0.0.5:5432: connection refused")), zap.NewNop())

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}
