package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
	auditrepo "github.com/Lorenzzoczn/Aumigo/internal/audit/repository"
)

// Actions written explicitly by services, in addition to the per-RPC entries.
const (
	ActionRoleChanged           = "role_changed"
	ActionIdentityDeactivated   = "identity_deactivated"
	ActionMasterBootstrap       = "master_bootstrap"
	ActionMasterBootstrapDenied = "master_bootstrap_denied"
	ActionRegistered            = "registered"
	ActionLoginFailure          = "login_failure"

	ResourceIdentity = "identity"
)

// IPExtractor returns the client IP from the request context (e.g. gRPC metadata or peer).
type IPExtractor func(context.Context) string

// Event is a single audit entry as supplied by callers.
type Event struct {
	ActorID  string
	Action   string
	Resource string
	TargetID string
	Outcome  domain.Outcome
	Metadata string
}

// AuditLogger writes a single audit event. LogEvent is best-effort: failures are logged and
// do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, e Event)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
	log         *zap.Logger
	now         func() time.Time
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown". A nil log discards failures.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{repo: repo, ipExtractor: ipExtractor, log: log, now: time.Now}
}

// LogEvent writes one audit log entry. Outcome defaults to success.
func (l *Logger) LogEvent(ctx context.Context, e Event) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		if v := l.ipExtractor(ctx); v != "" {
			ip = v
		}
	}
	if e.Outcome == "" {
		e.Outcome = domain.OutcomeSuccess
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		ActorID:   e.ActorID,
		Action:    e.Action,
		Resource:  e.Resource,
		TargetID:  e.TargetID,
		Outcome:   e.Outcome,
		IP:        ip,
		Metadata:  e.Metadata,
		CreatedAt: l.now().UTC(),
	}
	// The entry outlives a cancelled request.
	if err := l.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		l.log.Warn("audit: failed to log event",
			zap.String("action", e.Action),
			zap.String("resource", e.Resource),
			zap.Error(err),
		)
	}
}
