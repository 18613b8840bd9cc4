package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRuleRepository is a mock implementation of repositories.RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) ListActive(ctx context.Context) ([]*models.AMAGRule, error) {
	args := m.Called(ctx)
	if rules := args.Get(0); rules != nil {
		return rules.([]*models.AMAGRule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRuleRepository) GetByRuleType(ctx context.Context, ruleType models.RuleType) (*models.AMAGRule, error) {
	args := m.Called(ctx, ruleType)
	if rule := args.Get(0); rule != nil {
		return rule.(*models.AMAGRule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRuleRepository) Seed(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuleRepository) WithTx(tx repositories.Transaction) repositories.RuleRepository {
	return m
}

func catalogRule(id int64, name string, ruleType models.RuleType) *models.AMAGRule {
	return &models.AMAGRule{
		ID:          id,
		Name:        name,
		RuleType:    ruleType,
		Condition:   json.RawMessage(`{}`),
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
		Description: name + " rule",
	}
}

func TestHandleListRules(t *testing.T) {
	t.Run("returns the active catalog", func(t *testing.T) {
		repo := new(MockRuleRepository)
		guard, auditor := newHandlerGuard()
		h := NewRuleHandler(repo, guard, zap.NewNop())

		repo.On("ListActive", mock.Anything).Return([]*models.AMAGRule{
			catalogRule(1, "Veracity", models.RuleTypeVerity),
			catalogRule(2, "Determinism", models.RuleTypeDeterminism),
			catalogRule(3, "Non-contamination", models.RuleTypeNoContamination),
			catalogRule(4, "Epistemic security", models.RuleTypeEpistemicSecurity),
		}, nil)

		req := authedRequest(http.MethodGet, "/api/v1/rules", nil, 7)
		rec := httptest.NewRecorder()
		h.HandleListRules(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Data []RuleResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Data, 4)
		assert.Equal(t, "verity", body.Data[0].RuleType)
		assert.Equal(t, "epistemicSecurity", body.Data[3].RuleType)
		assert.Equal(t, 1, auditor.count())
	})

	t.Run("unauthenticated caller is blocked", func(t *testing.T) {
		repo := new(MockRuleRepository)
		guard, auditor := newHandlerGuard()
		h := NewRuleHandler(repo, guard, zap.NewNop())

		req := authedRequest(http.MethodGet, "/api/v1/rules", nil, 0)
		rec := httptest.NewRecorder()
		h.HandleListRules(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, 1, auditor.count())
		repo.AssertNotCalled(t, "ListActive", mock.Anything)
	})

	t.Run("store failure maps to 503", func(t *testing.T) {
		repo := new(MockRuleRepository)
		guard, _ := newHandlerGuard()
		h := NewRuleHandler(repo, guard, zap.NewNop())

		repo.On("ListActive", mock.Anything).Return(nil, repositories.ErrStoreUnavailable)

		req := authedRequest(http.MethodGet, "/api/v1/rules", nil, 7)
		rec := httptest.NewRecorder()
		h.HandleListRules(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
