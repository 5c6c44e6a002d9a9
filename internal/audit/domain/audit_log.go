package domain

import "time"

// Outcome records whether the audited action took effect.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// AuditLog represents an audit event. ActorID is empty for unauthenticated attempts.
type AuditLog struct {
	ID        string
	ActorID   string
	Action    string
	Resource  string
	TargetID  string
	Outcome   Outcome
	IP        string
	Metadata  string
	CreatedAt time.Time
}
