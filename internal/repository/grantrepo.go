// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/gofrs/uuid/v5"
)

// GrantRepository provides keyed access to grants with secondary lookups by
// record and by recipient. Reads return snapshots; mutation happens only
// through the lifecycle engine, which re-puts via Update.
type GrantRepository interface {
	// Create inserts a new grant.
	Create(ctx context.Context, g *model.Grant) error

	// Get loads a grant by ID, errs.ErrGrantNotFound if missing.
	Get(ctx context.Context, grantID uuid.UUID) (*model.Grant, error)

	// Update persists engine-driven state changes (status, access count,
	// recipient binding). The grant must already exist.
	Update(ctx context.Context, g *model.Grant) error

	// ListByRecord returns all grants referencing a record, newest first.
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]model.Grant, error)

	// ListByRecipient returns all grants bound to a recipient, newest first.
	ListByRecipient(ctx context.Context, recipientID uuid.UUID) ([]model.Grant, error)

	// ListByOwner returns all grants on records owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Grant, error)
}
