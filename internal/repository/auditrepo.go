package repository

import (
	"context"

	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/gofrs/uuid/v5"
)

// AuditRepository is an append-only event store. The absence of update or
// delete methods is a contract, not an omission.
type AuditRepository interface {
	// Append stores one entry. A failure here is a storage fault and aborts
	// the surrounding operation.
	Append(ctx context.Context, e *model.AuditEntry) error

	// ListByRecord returns entries for a record in ascending timestamp order.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.AuditEntry, error)

	// ListByActor returns entries for an actor in ascending timestamp order.
	ListByActor(ctx context.Context, actorID uuid.UUID) ([]model.AuditEntry, error)
}
