package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/google/uuid"
)

// requestIDHeader is honored when the caller supplies its own correlation ID
const requestIDHeader = "X-Request-ID"

// RequestID assigns each request a correlation ID. An incoming X-Request-ID
// header is reused so IDs stay stable across service hops; otherwise a fresh
// UUID is generated. The ID is echoed on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)
		ctx := WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperationContext builds the governed-operation context for a request. The
// handler fills in Action, ResourceID, and Input before evaluation.
func OperationContext(r *http.Request, action models.Action, resourceType string) models.OperationContext {
	ctx := r.Context()
	return models.OperationContext{
		UserID:       GetUserIDFromContext(ctx),
		Action:       action,
		ResourceType: resourceType,
		IPAddress:    clientIP(r),
		UserAgent:    r.UserAgent(),
		RequestID:    GetRequestIDFromContext(ctx),
	}
}

// clientIP resolves the originating client address, preferring proxy headers
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
