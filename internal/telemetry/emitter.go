// Package telemetry fans audit entries out to observability sinks (OTel logs, Kafka) after they
// are persisted. Sinks are best-effort and never fail the audited operation.
package telemetry

import (
	"context"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// EventEmitter publishes one audit entry. Callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, entry *auditdomain.AuditLog) error
}
