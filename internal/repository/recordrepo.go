package repository

import (
	"context"

	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/gofrs/uuid/v5"
)

// RecordRepository maps record IDs to owners and metadata. Records are
// immutable after creation except for the tombstone flag.
type RecordRepository interface {
	// Create inserts a new record.
	Create(ctx context.Context, r *model.Record) error

	// Get loads a record by ID, errs.ErrRecordNotFound if missing.
	Get(ctx context.Context, recordID uuid.UUID) (*model.Record, error)

	// ListByOwner returns all records owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Record, error)

	// SetRevoked sets the tombstone flag. Idempotent.
	SetRevoked(ctx context.Context, recordID uuid.UUID) error
}
