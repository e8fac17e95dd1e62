package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/aryan-madhavi/healthshare/internal/clock"
	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/aryan-madhavi/healthshare/internal/repository"
)

// RecordService is the thin record registry: it maps records to owners and
// carries the tombstone operation that cascades into grant revocation.
type RecordService interface {
	// Register creates a record owned by ownerID.
	Register(ctx context.Context, ownerID uuid.UUID, rt model.RecordType, title string) (*model.Record, error)
	// Get returns a record to its owner or to a regulator.
	Get(ctx context.Context, callerID uuid.UUID, callerRole model.Role, recordID uuid.UUID) (*model.Record, error)
	// ListByOwner returns the owner's records, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Record, error)
	// RevokeRecord sets the tombstone and revokes every grant referencing the
	// record. Returns the number of grants revoked.
	RevokeRecord(ctx context.Context, ownerID, recordID uuid.UUID) (int, error)
}

type RecordServiceImpl struct {
	records repository.RecordRepository
	engine  GrantService
	clock   clock.Clock
}

// NewRecordService constructs the registry. The engine handles the cascade
// on tombstoning so revocations stay serialized and audited in one place.
func NewRecordService(records repository.RecordRepository, engine GrantService, clk clock.Clock) *RecordServiceImpl {
	if clk == nil {
		clk = clock.System{}
	}
	return &RecordServiceImpl{records: records, engine: engine, clock: clk}
}

// Register creates a record. Records are immutable afterwards except for the
// tombstone flag.
func (s *RecordServiceImpl) Register(
	ctx context.Context, ownerID uuid.UUID, rt model.RecordType, title string,
) (*model.Record, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("validation: empty owner id")
	}
	if !rt.Valid() {
		return nil, fmt.Errorf("validation: unknown record type %q", rt)
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	rec := &model.Record{
		ID:        id,
		OwnerID:   ownerID,
		Type:      rt,
		Title:     title,
		CreatedAt: s.clock.Now(),
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Get returns a record to its owner, or to any regulator.
func (s *RecordServiceImpl) Get(
	ctx context.Context, callerID uuid.UUID, callerRole model.Role, recordID uuid.UUID,
) (*model.Record, error) {
	if callerID == uuid.Nil || recordID == uuid.Nil {
		return nil, errors.New("validation: empty caller/record id")
	}
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if callerRole != model.RoleRegulator && rec.OwnerID != callerID {
		return nil, errs.ErrNotOwner
	}
	return rec, nil
}

// ListByOwner returns the owner's records, newest first.
func (s *RecordServiceImpl) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Record, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("validation: empty owner id")
	}
	return s.records.ListByOwner(ctx, ownerID)
}

// RevokeRecord tombstones the record, then cascades through the engine so
// every remaining active grant on it is revoked and audited. Idempotent:
// re-tombstoning an already-revoked record just revokes whatever is left.
func (s *RecordServiceImpl) RevokeRecord(ctx context.Context, ownerID, recordID uuid.UUID) (int, error) {
	if ownerID == uuid.Nil || recordID == uuid.Nil {
		return 0, errors.New("validation: empty owner/record id")
	}
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return 0, err
	}
	if rec.OwnerID != ownerID {
		return 0, errs.ErrNotOwner
	}
	if err := s.records.SetRevoked(ctx, recordID); err != nil {
		return 0, fmt.Errorf("revoke record: %w", err)
	}
	return s.engine.RevokeAll(ctx, ownerID, recordID)
}
