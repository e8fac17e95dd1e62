package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/aryan-madhavi/healthshare/internal/model"
)

// AuditRepo implements AuditRepository using PostgreSQL. The table is
// insert-only; no UPDATE or DELETE statement exists in this package.
type AuditRepo struct{ db *DB }

// NewAuditRepo constructs an audit repository.
func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

// Append stores one audit entry.
func (r *AuditRepo) Append(ctx context.Context, e *model.AuditEntry) error {
	const q = `
INSERT INTO audit_entries (id, grant_id, record_id, actor_id, actor_role, action, ts)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Pool.Exec(ctx, q,
		e.ID, e.GrantID, e.RecordID, e.ActorID, string(e.ActorRole), string(e.Action), e.Timestamp,
	)
	return err
}

// ListByRecord returns entries for a record in ascending timestamp order.
func (r *AuditRepo) ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.AuditEntry, error) {
	const q = `
SELECT id, grant_id, record_id, actor_id, actor_role, action, ts
FROM audit_entries WHERE record_id=$1 ORDER BY ts ASC`
	return r.list(ctx, q, recordID)
}

// ListByActor returns entries for an actor in ascending timestamp order.
func (r *AuditRepo) ListByActor(ctx context.Context, actorID uuid.UUID) ([]model.AuditEntry, error) {
	const q = `
SELECT id, grant_id, record_id, actor_id, actor_role, action, ts
FROM audit_entries WHERE actor_id=$1 ORDER BY ts ASC`
	return r.list(ctx, q, actorID)
}

func (r *AuditRepo) list(ctx context.Context, q string, arg any) ([]model.AuditEntry, error) {
	rows, err := r.db.Pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanAuditEntry(row pgx.Row) (*model.AuditEntry, error) {
	var (
		e      model.AuditEntry
		role   string
		action string
	)
	if err := row.Scan(&e.ID, &e.GrantID, &e.RecordID, &e.ActorID, &role, &action, &e.Timestamp); err != nil {
		return nil, err
	}
	e.ActorRole = model.Role(role)
	e.Action = model.AuditAction(action)
	return &e, nil
}
