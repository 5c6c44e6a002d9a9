package telemetry

import (
	"context"
	"time"

	"go.uber.org/zap"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// emitTimeout is the max time allowed for a single async emit. Used by EmitAsync and by ShutdownDrainDuration.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long to wait after gRPC GracefulStop before closing sinks,
// so in-flight async emits have time to complete. Must be >= emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync runs Emit in a goroutine with emitTimeout so the caller is not blocked.
// emitter and entry may be nil; then it returns without starting a goroutine. The goroutine does
// not inherit cancellation from ctx.
func EmitAsync(ctx context.Context, emitter EventEmitter, entry *auditdomain.AuditLog, log *zap.Logger) {
	if emitter == nil || entry == nil {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, entry); err != nil {
			log.Warn("telemetry: async emit failed", zap.String("audit_id", entry.ID), zap.Error(err))
		}
	}()
}
