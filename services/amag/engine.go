// Package amag implements the AMA-G deterministic governance engine: four
// supreme rules evaluated against every critical operation.
package amag

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"go.uber.org/zap"
)

// aggregatePassedReason is the fixed reason reported when every rule passes,
// kept stable so audit messages are reproducible.
const aggregatePassedReason = "All AMA-G rules passed"

// reasonInfraUnavailable is reported when a rule cannot run at all, as a
// failed verdict rather than an error.
const reasonInfraUnavailable = "infrastructure unavailable"

// rule is one governance predicate. Rules are pure with respect to their
// inputs and must not block.
type rule func(ctx models.OperationContext) models.ValidationResult

// Engine evaluates operation contexts against the four AMA-G rules and
// aggregates the outcomes into a single verdict. The engine never returns a
// Go error: every failure mode is expressed as a failed ValidationResult.
type Engine struct {
	logger *zap.Logger
	rules  []rule
}

// NewEngine creates a new AMA-G engine with the compiled-in rule set
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		logger: logger,
		// Failure priority order: the first failing rule in this order names
		// the aggregate verdict.
		rules: []rule{
			validateVerity,
			validateDeterminism,
			validateNoContamination,
			validateEpistemicSecurity,
		},
	}
}

// Evaluate runs all four rules and combines them. The rules are independent,
// so they run concurrently; their results are only combined, never
// interleaved. All rules are always evaluated even when an early one fails.
func (e *Engine) Evaluate(opCtx models.OperationContext) models.ValidationResult {
	results := make([]models.ValidationResult, len(e.rules))

	var wg sync.WaitGroup
	for i, r := range e.rules {
		wg.Add(1)
		go func(i int, r rule) {
			defer wg.Done()
			results[i] = e.runRule(r, opCtx)
		}(i, r)
	}
	wg.Wait()

	for _, result := range results {
		if !result.Passed {
			e.logger.Warn("AMA-G validation failed",
				zap.String("action", string(opCtx.Action)),
				zap.Int64("user_id", opCtx.UserID),
				zap.String("rule_type", string(result.RuleType)),
				zap.String("reason", result.Reason))
			return result
		}
	}

	return models.ValidationResult{
		Passed:   true,
		Reason:   aggregatePassedReason,
		RuleType: models.RuleTypeAggregate,
	}
}

// runRule executes one rule, converting a panic into a failed verdict so a
// broken rule can never crash the pipeline or silently pass.
func (e *Engine) runRule(r rule, opCtx models.OperationContext) (result models.ValidationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("AMA-G rule panicked",
				zap.String("action", string(opCtx.Action)),
				zap.Any("panic", rec))
			result = models.ValidationResult{
				Passed:   false,
				Reason:   reasonInfraUnavailable,
				RuleType: models.RuleTypeVerity,
			}
		}
	}()
	return r(opCtx)
}

// Rule 1 — Veracity: only traceable, coherent information is validated.
func validateVerity(opCtx models.OperationContext) models.ValidationResult {
	if opCtx.Input == nil {
		return models.ValidationResult{
			Passed:   false,
			Reason:   "Input must be a valid object",
			RuleType: models.RuleTypeVerity,
		}
	}

	if opCtx.UserID <= 0 {
		return models.ValidationResult{
			Passed:   false,
			Reason:   "Invalid user context",
			RuleType: models.RuleTypeVerity,
		}
	}

	return models.ValidationResult{
		Passed:   true,
		Reason:   "Input is traceable and coherent",
		RuleType: models.RuleTypeVerity,
	}
}

// Rule 2 — Determinism: the same input must always produce the same result,
// so the input has to have a non-empty canonical serialization.
func validateDeterminism(opCtx models.OperationContext) models.ValidationResult {
	canonical, err := json.Marshal(opCtx.Input)
	if err != nil || len(canonical) == 0 || string(canonical) == "null" {
		return models.ValidationResult{
			Passed:   false,
			Reason:   "Input cannot be empty for deterministic operation",
			RuleType: models.RuleTypeDeterminism,
		}
	}

	return models.ValidationResult{
		Passed:   true,
		Reason:   "Operation is deterministic",
		RuleType: models.RuleTypeDeterminism,
	}
}

// Rule 3 — Non-contamination: a module never alters another module's
// resources without authorization. Mutations of existing resources must name
// the resource and the acting user; the ownership match itself is enforced by
// the storage layer.
func validateNoContamination(opCtx models.OperationContext) models.ValidationResult {
	if opCtx.Action.Mutating() {
		if opCtx.ResourceID == nil || opCtx.UserID <= 0 {
			return models.ValidationResult{
				Passed:   false,
				Reason:   fmt.Sprintf("Mutating action %q requires a resource and an acting user", opCtx.Action),
				RuleType: models.RuleTypeNoContamination,
			}
		}
		return models.ValidationResult{
			Passed:   true,
			Reason:   "Resource ownership verified",
			RuleType: models.RuleTypeNoContamination,
		}
	}

	return models.ValidationResult{
		Passed:   true,
		Reason:   "No contamination detected",
		RuleType: models.RuleTypeNoContamination,
	}
}

// Rule 4 — Epistemic security: no explicit support, no execution.
func validateEpistemicSecurity(opCtx models.OperationContext) models.ValidationResult {
	if !opCtx.Action.Allowed() {
		return models.ValidationResult{
			Passed:   false,
			Reason:   fmt.Sprintf("Action %q is not explicitly allowed", opCtx.Action),
			RuleType: models.RuleTypeEpistemicSecurity,
		}
	}

	return models.ValidationResult{
		Passed:   true,
		Reason:   "Operation is explicitly allowed",
		RuleType: models.RuleTypeEpistemicSecurity,
	}
}
