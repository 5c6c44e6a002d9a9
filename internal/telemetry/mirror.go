package telemetry

import (
	"context"

	"go.uber.org/zap"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
)

// MirrorRepository is an audit repository that, after each successful Create, emits the entry
// to every sink asynchronously. Reads go to the wrapped repository only.
type MirrorRepository struct {
	next  auditrepo.Repository
	sinks []EventEmitter
	log   *zap.Logger
}

// NewMirrorRepository wraps next. Nil sinks are dropped.
func NewMirrorRepository(next auditrepo.Repository, log *zap.Logger, sinks ...EventEmitter) *MirrorRepository {
	if log == nil {
		log = zap.NewNop()
	}
	m := &MirrorRepository{next: next, log: log}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Create persists entry and then mirrors it. Entries that fail to persist are not mirrored.
func (m *MirrorRepository) Create(ctx context.Context, entry *auditdomain.AuditLog) error {
	if err := m.next.Create(ctx, entry); err != nil {
		return err
	}
	for _, s := range m.sinks {
		c := *entry
		EmitAsync(ctx, s, &c, m.log)
	}
	return nil
}

func (m *MirrorRepository) List(ctx context.Context, f auditrepo.ListFilter) ([]*auditdomain.AuditLog, error) {
	return m.next.List(ctx, f)
}
