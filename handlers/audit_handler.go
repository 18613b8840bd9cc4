package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/dgr198213-ui/qodeia-arch/services/governance"
	"github.com/dgr198213-ui/qodeia-arch/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 500
)

// AuditLogResponse represents an audit log entry in API responses
type AuditLogResponse struct {
	ID             int64           `json:"id"`
	UserID         *int64          `json:"user_id,omitempty"`
	Action         string          `json:"action"`
	ResourceType   string          `json:"resource_type"`
	ResourceID     *int64          `json:"resource_id,omitempty"`
	Details        json.RawMessage `json:"details,omitempty"`
	AMAGValidation string          `json:"amag_validation"`
	RuleType       string          `json:"rule_type,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	IPAddress      string          `json:"ip_address,omitempty"`
	UserAgent      string          `json:"user_agent,omitempty"`
	RequestID      string          `json:"request_id,omitempty"`
	CreatedAt      string          `json:"created_at"`
}

// AuditHandler serves the audit trail. Reading the trail is itself a governed
// operation, so every inspection leaves its own entry.
type AuditHandler struct {
	auditRepo repositories.AuditRepository
	guard     *governance.Guard
	logger    *zap.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditRepo repositories.AuditRepository, guard *governance.Guard, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditRepo: auditRepo,
		guard:     guard,
		logger:    logger,
	}
}

// HandleListAuditLogs handles GET /api/v1/audit/logs
func (h *AuditHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	limit, offset, err := paginationParams(r)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	query := r.URL.Query()
	action := query.Get("action")
	if action != "" && !models.Action(action).Allowed() {
		_ = utils.WriteBadRequest(w, "Unknown action filter", nil)
		return
	}

	var start, end time.Time
	if fromStr := query.Get("from"); fromStr != "" {
		start, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid 'from' timestamp, expected RFC3339", nil)
			return
		}
	}
	if toStr := query.Get("to"); toStr != "" {
		end, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid 'to' timestamp, expected RFC3339", nil)
			return
		}
	}

	opCtx := middleware.OperationContext(r, models.ActionReadLogs, "audit_log")
	opCtx.Input = map[string]interface{}{
		"action": action,
		"limit":  limit,
		"offset": offset,
	}

	logs, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) ([]*models.AuditLog, error) {
		switch {
		case action != "":
			return h.auditRepo.GetByAction(ctx, models.Action(action), limit, offset)
		case !start.IsZero() || !end.IsZero():
			if end.IsZero() {
				end = time.Now().UTC()
			}
			return h.auditRepo.GetByDateRange(ctx, start, end, limit, offset)
		default:
			return h.auditRepo.GetByUserID(ctx, opCtx.UserID, limit, offset)
		}
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = auditLogToResponse(l)
	}

	h.logger.Debug("listed audit logs",
		zap.String("request_id", requestID),
		zap.Int("count", len(responses)))

	_ = utils.WriteOK(w, responses)
}

// HandleGetAuditLogsByRequest handles GET /api/v1/audit/requests/{request_id}
func (h *AuditHandler) HandleGetAuditLogsByRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetRequestID := chi.URLParam(r, "request_id")
	if targetRequestID == "" {
		_ = utils.WriteBadRequest(w, "Missing request ID", nil)
		return
	}

	opCtx := middleware.OperationContext(r, models.ActionReadLogs, "audit_log")
	opCtx.Input = map[string]interface{}{"target_request_id": targetRequestID}

	logs, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) ([]*models.AuditLog, error) {
		return h.auditRepo.GetByRequestID(ctx, targetRequestID)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]AuditLogResponse, len(logs))
	for i, l := range logs {
		responses[i] = auditLogToResponse(l)
	}

	_ = utils.WriteOK(w, responses)
}

// paginationParams parses limit/offset query parameters with bounds
func paginationParams(r *http.Request) (limit, offset int, err error) {
	limit = defaultAuditPageSize
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			return 0, 0, fmt.Errorf("limit must be a positive integer")
		}
		if limit > maxAuditPageSize {
			limit = maxAuditPageSize
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}

// auditLogToResponse converts an AuditLog model to an AuditLogResponse
func auditLogToResponse(l *models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:             l.ID,
		UserID:         l.UserID,
		Action:         string(l.Action),
		ResourceType:   l.ResourceType,
		ResourceID:     l.ResourceID,
		Details:        l.Details,
		AMAGValidation: string(l.AMAGValidation),
		RuleType:       string(l.RuleType),
		Reason:         l.Reason,
		IPAddress:      l.IPAddress,
		UserAgent:      l.UserAgent,
		RequestID:      l.RequestID,
		CreatedAt:      l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
