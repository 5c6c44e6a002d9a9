// Package producer publishes audit entries to a message broker for downstream consumers
// (see cmd/worker).
package producer

import (
	"context"
	"time"

	auditdomain "github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

// Producer emits audit entries. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single entry. Implementations may block briefly; call from a goroutine if needed.
	Emit(ctx context.Context, entry *auditdomain.AuditLog) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}

// Event is the wire form of an audit entry on the stream.
type Event struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	TargetID  string    `json:"target_id,omitempty"`
	Outcome   string    `json:"outcome"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEvent converts an audit entry to its wire form.
func NewEvent(e *auditdomain.AuditLog) Event {
	return Event{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Resource:  e.Resource,
		TargetID:  e.TargetID,
		Outcome:   string(e.Outcome),
		IP:        e.IP,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}
