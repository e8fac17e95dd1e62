package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
)

// RecordRepo implements RecordRepository using PostgreSQL.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

// Create inserts a new record.
func (r *RecordRepo) Create(ctx context.Context, rec *model.Record) error {
	const q = `
INSERT INTO records (id, owner_id, record_type, title, revoked, created_at)
VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Pool.Exec(ctx, q,
		rec.ID, rec.OwnerID, string(rec.Type), rec.Title, rec.Revoked, rec.CreatedAt,
	)
	return err
}

// Get loads a record by ID.
func (r *RecordRepo) Get(ctx context.Context, recordID uuid.UUID) (*model.Record, error) {
	const q = `
SELECT id, owner_id, record_type, title, revoked, created_at
FROM records WHERE id=$1`
	var (
		rec model.Record
		rt  string
	)
	err := r.db.Pool.QueryRow(ctx, q, recordID).
		Scan(&rec.ID, &rec.OwnerID, &rt, &rec.Title, &rec.Revoked, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrRecordNotFound
		}
		return nil, err
	}
	rec.Type = model.RecordType(rt)
	return &rec, nil
}

// ListByOwner returns all records owned by ownerID, newest first.
func (r *RecordRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Record, error) {
	const q = `
SELECT id, owner_id, record_type, title, revoked, created_at
FROM records WHERE owner_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			rec model.Record
			rt  string
		)
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &rt, &rec.Title, &rec.Revoked, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = model.RecordType(rt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SetRevoked sets the tombstone flag on a record. Idempotent.
func (r *RecordRepo) SetRevoked(ctx context.Context, recordID uuid.UUID) error {
	const q = `UPDATE records SET revoked=true WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, recordID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrRecordNotFound
	}
	return nil
}
