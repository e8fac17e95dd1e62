package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
)

// GrantRepo implements GrantRepository using PostgreSQL.
type GrantRepo struct{ db *DB }

// NewGrantRepo constructs a grant repository.
func NewGrantRepo(db *DB) *GrantRepo { return &GrantRepo{db: db} }

const grantColumns = `id, record_id, recipient_id, recipient_role, scope,
issued_at, expires_at, max_access_count, access_count, status, is_emergency, activation_hash`

// Create inserts a new grant.
func (r *GrantRepo) Create(ctx context.Context, g *model.Grant) error {
	const q = `
INSERT INTO grants (id, record_id, recipient_id, recipient_role, scope,
issued_at, expires_at, max_access_count, access_count, status, is_emergency, activation_hash)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.db.Pool.Exec(ctx, q,
		g.ID, g.RecordID, nullableID(g.RecipientID), nullableRole(g.RecipientRole),
		string(g.Scope), g.IssuedAt, g.ExpiresAt, g.MaxAccessCount,
		g.AccessCount, string(g.Status), g.IsEmergency, g.ActivationHash,
	)
	return err
}

// Get loads a grant by ID.
func (r *GrantRepo) Get(ctx context.Context, grantID uuid.UUID) (*model.Grant, error) {
	const q = `SELECT ` + grantColumns + ` FROM grants WHERE id=$1`
	g, err := scanGrant(r.db.Pool.QueryRow(ctx, q, grantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrGrantNotFound
		}
		return nil, err
	}
	return g, nil
}

// Update persists engine-driven state changes on an existing grant.
func (r *GrantRepo) Update(ctx context.Context, g *model.Grant) error {
	const q = `
UPDATE grants
SET recipient_id=$2, recipient_role=$3, access_count=$4, status=$5, activation_hash=$6
WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q,
		g.ID, nullableID(g.RecipientID), nullableRole(g.RecipientRole),
		g.AccessCount, string(g.Status), g.ActivationHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrGrantNotFound
	}
	return nil
}

// ListByRecord returns all grants referencing a record, newest first.
func (r *GrantRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.Grant, error) {
	const q = `SELECT ` + grantColumns + ` FROM grants WHERE record_id=$1 ORDER BY issued_at DESC`
	return r.list(ctx, q, recordID)
}

// ListByRecipient returns all grants bound to a recipient, newest first.
func (r *GrantRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.Grant, error) {
	const q = `SELECT ` + grantColumns + ` FROM grants WHERE recipient_id=$1 ORDER BY issued_at DESC`
	return r.list(ctx, q, recipientID)
}

// ListByOwner returns grants on all records owned by ownerID, newest first.
func (r *GrantRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Grant, error) {
	const q = `
SELECT g.id, g.record_id, g.recipient_id, g.recipient_role, g.scope,
g.issued_at, g.expires_at, g.max_access_count, g.access_count, g.status, g.is_emergency, g.activation_hash
FROM grants g
JOIN records r ON r.id = g.record_id
WHERE r.owner_id=$1
ORDER BY g.issued_at DESC`
	return r.list(ctx, q, ownerID)
}

func (r *GrantRepo) list(ctx context.Context, q string, arg any) ([]model.Grant, error) {
	rows, err := r.db.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// scanGrant reads one grant row, normalizing NULL recipient columns to zero values.
func scanGrant(row pgx.Row) (*model.Grant, error) {
	var (
		g     model.Grant
		rid   *uuid.UUID
		role  *string
		scope string
		st    string
	)
	if err := row.Scan(
		&g.ID, &g.RecordID, &rid, &role, &scope,
		&g.IssuedAt, &g.ExpiresAt, &g.MaxAccessCount, &g.AccessCount,
		&st, &g.IsEmergency, &g.ActivationHash,
	); err != nil {
		return nil, err
	}
	if rid != nil {
		g.RecipientID = *rid
	}
	if role != nil {
		g.RecipientRole = model.Role(*role)
	}
	g.Scope = model.Scope(scope)
	g.Status = model.GrantStatus(st)
	return &g, nil
}

// nullableID maps uuid.Nil (unbound recipient) to SQL NULL.
func nullableID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// nullableRole maps the empty role to SQL NULL.
func nullableRole(r model.Role) *string {
	if r == "" {
		return nil
	}
	s := string(r)
	return &s
}
