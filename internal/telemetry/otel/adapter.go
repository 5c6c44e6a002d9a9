package otel

import (
	"context"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	"github.com/Lorenzzoczn/Aumigo/internal/telemetry"
)

// recordEmitter is the subset of otellog.Logger used by the emitter.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends audit entries as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger("aumigo.audit")}
}

// NewEventEmitterWithLogger returns an emitter writing to logger directly.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *auditdomain.AuditLog) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit converts the audit entry to an OTel log record. Denied and error outcomes are emitted at WARN.
func (e *otelEmitter) Emit(ctx context.Context, entry *auditdomain.AuditLog) error {
	if entry == nil {
		return nil
	}
	rec := otellog.Record{}
	if !entry.CreatedAt.IsZero() {
		rec.SetTimestamp(entry.CreatedAt)
	} else {
		rec.SetTimestamp(time.Now().UTC())
	}
	rec.SetEventName(entry.Action)
	if entry.Outcome == auditdomain.OutcomeSuccess {
		rec.SetSeverity(otellog.SeverityInfo)
	} else {
		rec.SetSeverity(otellog.SeverityWarn)
	}
	if entry.Metadata != "" {
		rec.SetBody(otellog.StringValue(entry.Metadata))
	}
	addString(&rec, "audit.id", entry.ID)
	addString(&rec, "audit.action", entry.Action)
	addString(&rec, "audit.resource", entry.Resource)
	addString(&rec, "audit.outcome", string(entry.Outcome))
	addString(&rec, "actor_id", entry.ActorID)
	addString(&rec, "target_id", entry.TargetID)
	addString(&rec, "client.address", entry.IP)
	e.logger.Emit(ctx, rec)
	return nil
}

func addString(rec *otellog.Record, key, value string) {
	if value != "" {
		rec.AddAttributes(otellog.String(key, value))
	}
}
