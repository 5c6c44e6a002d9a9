package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lorenzzoczn/Aumigo/internal/identity/domain"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const identityColumns = `id, email, name, password_hash, federated_id, avatar_url, role, account_type,
	document, phone, city, state, description, active, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the identity for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
}

// GetByEmail returns the identity with the given email (case-insensitive), or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// GetByDocument returns the identity holding the given digits-only document, or nil if not found.
func (r *PostgresRepository) GetByDocument(ctx context.Context, document string) (*domain.Identity, error) {
	if document == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE document = $1`, document)
}

// GetByFederatedID returns the identity linked to the external login subject, or nil if not found.
func (r *PostgresRepository) GetByFederatedID(ctx context.Context, federatedID string) (*domain.Identity, error) {
	if federatedID == "" {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT `+identityColumns+` FROM identities WHERE federated_id = $1`, federatedID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*domain.Identity, error) {
	i, err := scanIdentity(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// Create persists the identity. The identity must have ID set; it is not assigned by this method.
// Returns ErrConflict when email, document or federated id is taken.
func (r *PostgresRepository) Create(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		i.ID, i.Email, i.Name, nullString(i.PasswordHash), nullString(i.FederatedID), nullString(i.AvatarURL),
		i.Role.String(), nullString(string(i.AccountType)), nullString(i.Document), nullString(i.Phone),
		nullString(i.City), nullString(i.State), nullString(i.Description), i.Active, i.CreatedAt, i.UpdatedAt,
	)
	return mapWriteError(err)
}

// Update overwrites the profile fields of an existing identity. Role, active flag and the
// document once set are preserved.
func (r *PostgresRepository) Update(ctx context.Context, i *domain.Identity) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET
		email = $2, name = $3, password_hash = $4, federated_id = $5, avatar_url = $6, account_type = $7,
		document = COALESCE(document, $8), phone = $9, city = $10, state = $11, description = $12, updated_at = $13
		WHERE id = $1`,
		i.ID, i.Email, i.Name, nullString(i.PasswordHash), nullString(i.FederatedID), nullString(i.AvatarURL),
		nullString(string(i.AccountType)), nullString(i.Document), nullString(i.Phone), nullString(i.City),
		nullString(i.State), nullString(i.Description), time.Now().UTC(),
	)
	if err != nil {
		return mapWriteError(err)
	}
	return requireRow(res)
}

// SetRole changes the stored role of identity id.
func (r *PostgresRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET role = $2, updated_at = $3 WHERE id = $1`,
		id, role.String(), time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetActive activates or deactivates identity id. Deactivated identities keep their data.
func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET active = $2, updated_at = $3 WHERE id = $1`,
		id, active, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// List returns a page of identities, newest first.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*domain.Identity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities
		WHERE ($1 = FALSE OR active = TRUE)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, f.ActiveOnly, limit, f.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.Identity, 0, limit)
	for rows.Next() {
		i, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Count returns the number of identities, optionally only active ones.
func (r *PostgresRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities WHERE ($1 = FALSE OR active = TRUE)`, activeOnly).Scan(&n)
	return n, err
}

// CountByRole returns active identity counts per role.
func (r *PostgresRepository) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM identities WHERE active = TRUE GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.Role]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		role, err := domain.ParseRole(name)
		if err != nil {
			continue
		}
		out[role] = n
	}
	return out, rows.Err()
}

// CountByAccountType returns active identity counts per account type; identities without a type are skipped.
func (r *PostgresRepository) CountByAccountType(ctx context.Context) (map[domain.AccountType]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_type, COUNT(*) FROM identities
		WHERE active = TRUE AND account_type IS NOT NULL GROUP BY account_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[domain.AccountType]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[domain.AccountType(t)] = n
	}
	return out, rows.Err()
}

// ExistsWithRole reports whether any identity holds role.
func (r *PostgresRepository) ExistsWithRole(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM identities WHERE role = $1)`, role.String()).Scan(&exists)
	return exists, err
}

// Ping checks database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*domain.Identity, error) {
	var i domain.Identity
	var role string
	var passwordHash, federatedID, avatarURL, accountType sql.NullString
	var document, phone, city, state, description sql.NullString
	err := row.Scan(&i.ID, &i.Email, &i.Name, &passwordHash, &federatedID, &avatarURL, &role, &accountType,
		&document, &phone, &city, &state, &description, &i.Active, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.Role, err = domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	i.PasswordHash = passwordHash.String
	i.FederatedID = federatedID.String
	i.AvatarURL = avatarURL.String
	i.AccountType = domain.AccountType(accountType.String)
	i.Document = document.String
	i.Phone = phone.String
	i.City = city.String
	i.State = state.String
	i.Description = description.String
	return &i, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
