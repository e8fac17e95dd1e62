// Package service contains the access-grant lifecycle engine and its facades.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/aryan-madhavi/healthshare/internal/clock"
	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/aryan-madhavi/healthshare/internal/repository"
)

// GrantService is the lifecycle engine governing grant creation, consumption,
// expiry and revocation. It is the sole mutator of the grant store and the
// sole producer of audit entries; collaborators never bypass it.
type GrantService interface {
	// IssueGrant creates an active grant on a record the caller owns.
	IssueGrant(ctx context.Context, ownerID, recordID, recipientID uuid.UUID,
		recipientRole model.Role, scope model.Scope, ttl time.Duration, maxAccessCount *int) (*model.Grant, error)
	// RecordAccess gates one read of a record through a grant.
	RecordAccess(ctx context.Context, grantID, actorID uuid.UUID,
		actorRole model.Role, action model.AuditAction) (model.AccessResult, error)
	// Revoke terminates a grant. Idempotent on already-terminal grants.
	Revoke(ctx context.Context, ownerID, grantID uuid.UUID) error
	// RevokeAll revokes every active grant on a record and returns the count.
	RevokeAll(ctx context.Context, ownerID, recordID uuid.UUID) (int, error)
	// ListActiveShares returns the owner's grants still active after lazy expiry.
	ListActiveShares(ctx context.Context, ownerID uuid.UUID) ([]model.Grant, error)
	// ListReceivedGrants returns the grants bound to a recipient that remain
	// active after lazy expiry, for a "shared with me" view.
	ListReceivedGrants(ctx context.Context, recipientID uuid.UUID) ([]model.Grant, error)
	// AuditByRecord returns a record's audit trail for its owner or a regulator.
	AuditByRecord(ctx context.Context, callerID uuid.UUID, callerRole model.Role, recordID uuid.UUID) ([]model.AuditEntry, error)
	// AuditByActor returns an actor's audit trail for that actor or a regulator.
	AuditByActor(ctx context.Context, callerID uuid.UUID, callerRole model.Role, actorID uuid.UUID) ([]model.AuditEntry, error)
}

type GrantServiceImpl struct {
	grants  repository.GrantRepository
	records repository.RecordRepository
	audit   repository.AuditRepository
	clock   clock.Clock
	locks   *keyedMutex
}

// NewGrantService constructs the engine with explicit store and clock deps.
func NewGrantService(
	grants repository.GrantRepository,
	records repository.RecordRepository,
	audit repository.AuditRepository,
	clk clock.Clock,
) *GrantServiceImpl {
	if clk == nil {
		clk = clock.System{}
	}
	return &GrantServiceImpl{
		grants:  grants,
		records: records,
		audit:   audit,
		clock:   clk,
		locks:   newKeyedMutex(),
	}
}

// IssueGrant creates a grant with status=active, issuedAt=now,
// expiresAt=now+ttl and appends a "granted" audit entry. Emergency-scoped
// grants cannot be issued here; they go through the emergency path.
func (s *GrantServiceImpl) IssueGrant(
	ctx context.Context, ownerID, recordID, recipientID uuid.UUID,
	recipientRole model.Role, scope model.Scope, ttl time.Duration, maxAccessCount *int,
) (*model.Grant, error) {
	if ownerID == uuid.Nil || recordID == uuid.Nil || recipientID == uuid.Nil {
		return nil, errors.New("validation: empty owner/record/recipient id")
	}
	if !recipientRole.Valid() {
		return nil, fmt.Errorf("validation: unknown role %q", recipientRole)
	}
	if !scope.Valid() {
		return nil, fmt.Errorf("validation: unknown scope %q", scope)
	}
	if scope == model.ScopeEmergency {
		return nil, errs.ErrInvalidScope
	}
	if ttl <= 0 {
		return nil, errors.New("validation: non-positive ttl")
	}
	if maxAccessCount != nil && *maxAccessCount <= 0 {
		return nil, errors.New("validation: non-positive max access count")
	}

	if err := s.checkOwnedLive(ctx, ownerID, recordID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	g := &model.Grant{
		ID:             id,
		RecordID:       recordID,
		RecipientID:    recipientID,
		RecipientRole:  recipientRole,
		Scope:          scope,
		IssuedAt:       now,
		ExpiresAt:      now.Add(ttl),
		MaxAccessCount: maxAccessCount,
		AccessCount:    0,
		Status:         model.StatusActive,
	}
	if err := s.grants.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create grant: %w", err)
	}
	if err := s.appendAudit(ctx, g, ownerID, model.RolePatient, model.ActionGranted); err != nil {
		return nil, err
	}
	return g, nil
}

// RecordAccess resolves the grant's effective status (persisting a lazy
// expiry transition first), enforces recipient, role and budget constraints,
// increments the access count and appends the audit entry. The returned
// result carries the permitted scope and field set.
func (s *GrantServiceImpl) RecordAccess(
	ctx context.Context, grantID, actorID uuid.UUID,
	actorRole model.Role, action model.AuditAction,
) (model.AccessResult, error) {
	if grantID == uuid.Nil || actorID == uuid.Nil {
		return model.AccessResult{}, errors.New("validation: empty grant/actor id")
	}
	if !actorRole.Valid() {
		return model.AccessResult{}, fmt.Errorf("validation: unknown role %q", actorRole)
	}
	if !action.AccessAction() {
		return model.AccessResult{}, fmt.Errorf("validation: %q is not an access action", action)
	}

	unlock := s.locks.lock(grantID)
	defer unlock()

	g, err := s.resolveStatus(ctx, grantID)
	if err != nil {
		return model.AccessResult{}, err
	}
	if g.Status != model.StatusActive {
		return model.AccessResult{}, errs.ErrGrantNotActive
	}
	// Recipient binding covers both identity and role; an unactivated
	// emergency grant has no recipient and fails here.
	if g.RecipientID != actorID || g.RecipientRole != actorRole {
		return model.AccessResult{}, errs.ErrRoleMismatch
	}
	if g.MaxAccessCount != nil && g.AccessCount+1 > *g.MaxAccessCount {
		return model.AccessResult{}, errs.ErrAccessExhausted
	}

	g.AccessCount++
	if err := s.grants.Update(ctx, g); err != nil {
		return model.AccessResult{}, fmt.Errorf("record access: %w", err)
	}
	if err := s.appendAudit(ctx, g, actorID, actorRole, action); err != nil {
		return model.AccessResult{}, err
	}

	res := model.AccessResult{
		GrantID:     g.ID,
		RecordID:    g.RecordID,
		Scope:       g.Scope,
		AccessCount: g.AccessCount,
		Fields:      scopeFields(g.Scope),
	}
	if g.MaxAccessCount != nil {
		rem := *g.MaxAccessCount - g.AccessCount
		res.Remaining = &rem
	}
	return res, nil
}

// Revoke moves a grant to status=revoked and audits it. Revoking an
// already-terminal grant is a successful no-op, so a double-tapped revoke
// never surfaces an error and audits at most once.
func (s *GrantServiceImpl) Revoke(ctx context.Context, ownerID, grantID uuid.UUID) error {
	if ownerID == uuid.Nil || grantID == uuid.Nil {
		return errors.New("validation: empty owner/grant id")
	}
	unlock := s.locks.lock(grantID)
	defer unlock()
	return s.revokeLocked(ctx, ownerID, grantID)
}

// revokeLocked is Revoke's body; the caller holds the grant's lock.
func (s *GrantServiceImpl) revokeLocked(ctx context.Context, ownerID, grantID uuid.UUID) error {
	g, err := s.resolveStatus(ctx, grantID)
	if err != nil {
		return err
	}
	rec, err := s.records.Get(ctx, g.RecordID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return errs.ErrNotOwner
	}
	if g.Status.Terminal() {
		return nil
	}
	g.Status = model.StatusRevoked
	if err := s.grants.Update(ctx, g); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	return s.appendAudit(ctx, g, ownerID, model.RolePatient, model.ActionRevoked)
}

// RevokeAll revokes every active grant on a record owned by ownerID and
// returns how many actually transitioned. The read is unsynchronized and
// each revoke is serialized per grant; a grant issued concurrently with the
// call may or may not be included.
func (s *GrantServiceImpl) RevokeAll(ctx context.Context, ownerID, recordID uuid.UUID) (int, error) {
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

	gs, err := s.grants.ListByRecord(ctx, recordID)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range gs {
		if gs[i].Status.Terminal() {
			continue
		}
		unlock := s.locks.lock(gs[i].ID)
		g, err := s.resolveStatus(ctx, gs[i].ID)
		if err != nil {
			unlock()
			return count, err
		}
		if g.Status.Terminal() {
			unlock()
			continue
		}
		g.Status = model.StatusRevoked
		if err := s.grants.Update(ctx, g); err != nil {
			unlock()
			return count, fmt.Errorf("revoke all: %w", err)
		}
		if err := s.appendAudit(ctx, g, ownerID, model.RolePatient, model.ActionRevoked); err != nil {
			unlock()
			return count, err
		}
		unlock()
		count++
	}
	return count, nil
}

// ListActiveShares returns all grants across the owner's records that remain
// active after lazy-expiry evaluation.
func (s *GrantServiceImpl) ListActiveShares(ctx context.Context, ownerID uuid.UUID) ([]model.Grant, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("validation: empty owner id")
	}
	gs, err := s.grants.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.filterActive(ctx, gs)
}

// ListReceivedGrants returns a recipient's still-active grants.
func (s *GrantServiceImpl) ListReceivedGrants(ctx context.Context, recipientID uuid.UUID) ([]model.Grant, error) {
	if recipientID == uuid.Nil {
		return nil, errors.New("validation: empty recipient id")
	}
	gs, err := s.grants.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return s.filterActive(ctx, gs)
}

// filterActive drops terminal grants and persists lazy-expiry transitions on
// the rest, keeping only those still active.
func (s *GrantServiceImpl) filterActive(ctx context.Context, gs []model.Grant) ([]model.Grant, error) {
	out := make([]model.Grant, 0, len(gs))
	now := s.clock.Now()
	for i := range gs {
		g := gs[i]
		if g.Status != model.StatusActive {
			continue
		}
		if !now.Before(g.ExpiresAt) {
			// Persist the expiry transition under the grant's lock; the
			// grant may have moved on since the unsynchronized read.
			unlock := s.locks.lock(g.ID)
			cur, err := s.resolveStatus(ctx, g.ID)
			unlock()
			if err != nil {
				return nil, err
			}
			if cur.Status != model.StatusActive {
				continue
			}
			g = *cur
		}
		out = append(out, g)
	}
	return out, nil
}

// AuditByRecord returns the audit trail of a record for its owner, or for a
// regulator across any record (compliance view).
func (s *GrantServiceImpl) AuditByRecord(
	ctx context.Context, callerID uuid.UUID, callerRole model.Role, recordID uuid.UUID,
) ([]model.AuditEntry, error) {
	if callerID == uuid.Nil || recordID == uuid.Nil {
		return nil, errors.New("validation: empty caller/record id")
	}
	if callerRole != model.RoleRegulator {
		rec, err := s.records.Get(ctx, recordID)
		if err != nil {
			return nil, err
		}
		if rec.OwnerID != callerID {
			return nil, errs.ErrUnauthorized
		}
	}
	return s.audit.ListByRecord(ctx, recordID)
}

// AuditByActor returns an actor's own trail, or any actor's for a regulator.
func (s *GrantServiceImpl) AuditByActor(
	ctx context.Context, callerID uuid.UUID, callerRole model.Role, actorID uuid.UUID,
) ([]model.AuditEntry, error) {
	if callerID == uuid.Nil || actorID == uuid.Nil {
		return nil, errors.New("validation: empty caller/actor id")
	}
	if callerRole != model.RoleRegulator && callerID != actorID {
		return nil, errs.ErrUnauthorized
	}
	return s.audit.ListByActor(ctx, actorID)
}

// resolveStatus loads a grant and applies lazy expiry: an active grant whose
// expiresAt has passed transitions to expired and is persisted before any
// further evaluation. The transition itself is never an error.
func (s *GrantServiceImpl) resolveStatus(ctx context.Context, grantID uuid.UUID) (*model.Grant, error) {
	g, err := s.grants.Get(ctx, grantID)
	if err != nil {
		return nil, err
	}
	if g.Status == model.StatusActive && !s.clock.Now().Before(g.ExpiresAt) {
		g.Status = model.StatusExpired
		if err := s.grants.Update(ctx, g); err != nil {
			return nil, fmt.Errorf("lazy expire: %w", err)
		}
	}
	return g, nil
}

// checkOwnedLive verifies ownership and the tombstone flag for issuance.
func (s *GrantServiceImpl) checkOwnedLive(ctx context.Context, ownerID, recordID uuid.UUID) error {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.OwnerID != ownerID {
		return errs.ErrNotOwner
	}
	if rec.Revoked {
		return errs.ErrRecordRevoked
	}
	return nil
}

// appendAudit writes one audit entry for a grant event.
func (s *GrantServiceImpl) appendAudit(
	ctx context.Context, g *model.Grant, actorID uuid.UUID, actorRole model.Role, action model.AuditAction,
) error {
	id, err := uuid.NewV4()
	if err != nil {
		return err
	}
	e := &model.AuditEntry{
		ID:        id,
		GrantID:   g.ID,
		RecordID:  g.RecordID,
		ActorID:   actorID,
		ActorRole: actorRole,
		Action:    action,
		Timestamp: s.clock.Now(),
	}
	if err := s.audit.Append(ctx, e); err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

// scopeFields maps a scope to the field set the caller may expose.
// Full scope returns nil: no restriction.
func scopeFields(sc model.Scope) []string {
	switch sc {
	case model.ScopeSummary:
		return model.SummaryFields
	case model.ScopeEmergency:
		return model.EmergencyFields
	default:
		return nil
	}
}
