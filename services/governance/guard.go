// Package governance wraps every governed operation with policy evaluation
// and audit recording. An operation only executes after the AMA-G engine has
// passed it, and every invocation leaves exactly one audit entry regardless
// of outcome.
package governance

import (
	"context"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/services"
	"go.uber.org/zap"
)

// Evaluator produces a single verdict for an operation context.
type Evaluator interface {
	Evaluate(opCtx models.OperationContext) models.ValidationResult
}

// Auditor persists audit entries. Implementations must not fail the caller.
type Auditor interface {
	Record(ctx context.Context, opCtx models.OperationContext, verdict models.ValidationResult)
	RecordBlocked(ctx context.Context, opCtx models.OperationContext, verdict models.ValidationResult)
}

// Guard is the enforcement point between handlers and domain services.
type Guard struct {
	engine   Evaluator
	recorder Auditor
	logger   *zap.Logger
}

func NewGuard(engine Evaluator, recorder Auditor, logger *zap.Logger) *Guard {
	return &Guard{
		engine:   engine,
		recorder: recorder,
		logger:   logger,
	}
}

// Check runs the policy engine without executing anything. Rejections are
// audited as blocked.
func (g *Guard) Check(ctx context.Context, opCtx models.OperationContext) error {
	_, err := g.check(ctx, opCtx)
	return err
}

// check returns the engine's verdict alongside the rejection error so Run can
// record the verdict the engine actually produced.
func (g *Guard) check(ctx context.Context, opCtx models.OperationContext) (models.ValidationResult, error) {
	verdict := g.engine.Evaluate(opCtx)
	if !verdict.Passed {
		g.logger.Warn("operation blocked by policy",
			zap.String("action", string(opCtx.Action)),
			zap.Int64("user_id", opCtx.UserID),
			zap.String("rule_type", string(verdict.RuleType)),
			zap.String("reason", verdict.Reason))
		g.recorder.RecordBlocked(ctx, opCtx, verdict)
		return verdict, services.NewPolicyRejectedError(string(verdict.RuleType), verdict.Reason)
	}
	return verdict, nil
}

// Run evaluates opCtx, executes op only on a passing verdict, and records
// exactly one audit entry for the invocation:
//
//   - rejected: a blocked entry, op never runs, ErrPolicyRejected is returned
//   - op fails: a failed entry carrying the error message, the error is
//     returned unchanged
//   - op succeeds: a passed entry with the aggregate verdict
func Run[T any](ctx context.Context, g *Guard, opCtx models.OperationContext, op func(context.Context) (T, error)) (T, error) {
	var zero T

	verdict, err := g.check(ctx, opCtx)
	if err != nil {
		return zero, err
	}

	result, err := op(ctx)
	if err != nil {
		g.recorder.Record(ctx, opCtx, models.ValidationResult{
			Passed:   false,
			Reason:   err.Error(),
			RuleType: models.RuleTypeAggregate,
		})
		return zero, err
	}

	g.recorder.Record(ctx, opCtx, verdict)
	return result, nil
}

// RunVoid is Run for operations without a result value.
func RunVoid(ctx context.Context, g *Guard, opCtx models.OperationContext, op func(context.Context) error) error {
	_, err := Run(ctx, g, opCtx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
