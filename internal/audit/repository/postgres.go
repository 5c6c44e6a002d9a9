package repository

import (
	"context"
	"database/sql"

	"github.com/Lorenzzoczn/Aumigo/internal/audit/domain"
)

const defaultLimit = 50

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create persists the audit log. The audit log must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO audit_logs
		(id, actor_id, action, resource, target_id, outcome, ip, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, nullString(a.ActorID), a.Action, a.Resource, nullString(a.TargetID),
		string(a.Outcome), a.IP, nullString(a.Metadata), a.CreatedAt,
	)
	return err
}

// List returns audit logs matching f, newest first. Returns (nil, error) only on database errors.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*domain.AuditLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, actor_id, action, resource, target_id, outcome, ip, metadata, created_at
		FROM audit_logs
		WHERE ($1 = '' OR actor_id = $1) AND ($2 = '' OR action = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`, f.ActorID, f.Action, limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var a domain.AuditLog
		var actorID, targetID, meta sql.NullString
		var outcome string
		if err := rows.Scan(&a.ID, &actorID, &a.Action, &a.Resource, &targetID, &outcome, &a.IP, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.ActorID = actorID.String
		a.TargetID = targetID.String
		a.Metadata = meta.String
		a.Outcome = domain.Outcome(outcome)
		out = append(out, &a)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
