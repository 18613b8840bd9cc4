// Package audit appends immutable records of every validated operation to the
// audit trail.
package audit

import (
	"context"
	"time"

	"github.com/dgr198213-ui/qodeia-arch/models"
	"github.com/dgr198213-ui/qodeia-arch/repositories"
	"go.uber.org/zap"
)

// insertTimeout bounds a single audit write so a stalled store cannot stall
// the governed operation's response.
const insertTimeout = 5 * time.Second

// Recorder writes audit entries. Writes are best-effort by design: a failed
// insert is logged locally and swallowed, because an audit outage must not
// become an availability outage for the primary operation, and the governed
// side effect has often already happened. The entry itself is write-once;
// no update or delete path exists.
type Recorder struct {
	auditRepo repositories.AuditRepository
	logger    *zap.Logger
}

// NewRecorder creates a new audit recorder
func NewRecorder(auditRepo repositories.AuditRepository, logger *zap.Logger) *Recorder {
	return &Recorder{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Record appends one entry capturing the operation and its verdict at call
// time. It never returns an error.
func (r *Recorder) Record(ctx context.Context, opCtx models.OperationContext, verdict models.ValidationResult) {
	r.record(ctx, models.NewAuditLog(opCtx, verdict))
}

// RecordBlocked appends one entry for an operation rejected by policy before
// it executed.
func (r *Recorder) RecordBlocked(ctx context.Context, opCtx models.OperationContext, verdict models.ValidationResult) {
	r.record(ctx, models.NewAuditLog(opCtx, verdict).WithBlocked())
}

func (r *Recorder) record(ctx context.Context, entry *models.AuditLog) {
	// Detach from the caller's deadline: an aborted request should still
	// leave its audit trace.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	if err := r.auditRepo.Insert(writeCtx, entry); err != nil {
		r.logger.Error("failed to write audit log entry",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
			zap.String("resource_type", entry.ResourceType),
			zap.String("outcome", string(entry.AMAGValidation)),
			zap.String("request_id", entry.RequestID))
		return
	}

	r.logger.Debug("audit entry recorded",
		zap.Int64("id", entry.ID),
		zap.String("action", string(entry.Action)),
		zap.String("outcome", string(entry.AMAGValidation)))
}
