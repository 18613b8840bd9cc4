package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dgr198213-ui/qodeia-arch/middleware"
	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/dgr198213-ui/qodeia-arch/services/governance"
	"github.com/dgr198213-ui/qodeia-arch/utils"
	"go.uber.org/zap"
)

// RuleResponse represents a governance rule definition in API responses
type RuleResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	RuleType    string          `json:"rule_type"`
	Condition   json.RawMessage `json:"condition"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   string          `json:"created_at"`
}

// RuleHandler serves the stored rule catalog for inspection
type RuleHandler struct {
	ruleRepo repositories.RuleRepository
	guard    *governance.Guard
	logger   *zap.Logger
}

// NewRuleHandler creates a new RuleHandler
func NewRuleHandler(ruleRepo repositories.RuleRepository, guard *governance.Guard, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{
		ruleRepo: ruleRepo,
		guard:    guard,
		logger:   logger,
	}
}

// HandleListRules handles GET /api/v1/rules
func (h *RuleHandler) HandleListRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	opCtx := middleware.OperationContext(r, models.ActionReadStatus, "amag_rule")
	opCtx.Input = map[string]interface{}{"catalog": "rules"}

	rules, err := governance.Run(ctx, h.guard, opCtx, func(ctx context.Context) ([]*models.AMAGRule, error) {
		return h.ruleRepo.ListActive(ctx)
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]RuleResponse, len(rules))
	for i, rule := range rules {
		responses[i] = RuleResponse{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			RuleType:    string(rule.RuleType),
			Condition:   rule.Condition,
			IsActive:    rule.IsActive,
			CreatedAt:   rule.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	h.logger.Debug("listed governance rules",
		zap.String("request_id", requestID),
		zap.Int("count", len(responses)))

	_ = utils.WriteOK(w, responses)
}
