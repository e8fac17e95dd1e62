package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/aryan-madhavi/healthshare/internal/token"
)

// EmergencyTTL is the fixed lifetime of an emergency grant. Caller-supplied
// expiry is never honored on this path.
const EmergencyTTL = time.Hour

// EmergencyService issues and activates emergency grants. It is a facade
// over the lifecycle engine: same store, same locks, same lazy expiry, but
// with forced reduced-scope parameters and single-recipient activation.
type EmergencyService interface {
	// IssueEmergencyGrant creates an unbound emergency grant and returns it
	// together with the one-time activation token plaintext.
	IssueEmergencyGrant(ctx context.Context, ownerID, recordID uuid.UUID) (*model.Grant, string, error)
	// ActivateEmergencyGrant binds the first presenting party to the grant.
	ActivateEmergencyGrant(ctx context.Context, grantID uuid.UUID, activationToken string,
		recipientID uuid.UUID, recipientRole model.Role) (*model.Grant, error)
}

type EmergencyServiceImpl struct {
	engine *GrantServiceImpl
}

// NewEmergencyService constructs the emergency facade over the engine.
func NewEmergencyService(engine *GrantServiceImpl) *EmergencyServiceImpl {
	return &EmergencyServiceImpl{engine: engine}
}

// IssueEmergencyGrant creates a grant with scope=emergency, no recipient,
// and expiresAt exactly one hour from now regardless of any caller input.
func (s *EmergencyServiceImpl) IssueEmergencyGrant(
	ctx context.Context, ownerID, recordID uuid.UUID,
) (*model.Grant, string, error) {
	if ownerID == uuid.Nil || recordID == uuid.Nil {
		return nil, "", errors.New("validation: empty owner/record id")
	}
	if err := s.engine.checkOwnedLive(ctx, ownerID, recordID); err != nil {
		return nil, "", err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, "", err
	}
	plaintext, hash, err := token.New()
	if err != nil {
		return nil, "", err
	}
	now := s.engine.clock.Now()
	g := &model.Grant{
		ID:             id,
		RecordID:       recordID,
		Scope:          model.ScopeEmergency,
		IssuedAt:       now,
		ExpiresAt:      now.Add(EmergencyTTL),
		Status:         model.StatusActive,
		IsEmergency:    true,
		ActivationHash: hash,
	}
	if err := s.engine.grants.Create(ctx, g); err != nil {
		return nil, "", fmt.Errorf("create emergency grant: %w", err)
	}
	if err := s.engine.appendAudit(ctx, g, ownerID, model.RolePatient, model.ActionGranted); err != nil {
		return nil, "", err
	}
	return g, plaintext, nil
}

// ActivateEmergencyGrant binds the first scanner as the grant's sole
// recipient. A second attempt fails with ErrAlreadyActivated; a bad token or
// a non-emergency grant reads as not found so activation cannot be probed.
func (s *EmergencyServiceImpl) ActivateEmergencyGrant(
	ctx context.Context, grantID uuid.UUID, activationToken string,
	recipientID uuid.UUID, recipientRole model.Role,
) (*model.Grant, error) {
	if grantID == uuid.Nil || recipientID == uuid.Nil {
		return nil, errors.New("validation: empty grant/recipient id")
	}
	if !recipientRole.Valid() {
		return nil, fmt.Errorf("validation: unknown role %q", recipientRole)
	}

	unlock := s.engine.locks.lock(grantID)
	defer unlock()

	g, err := s.engine.resolveStatus(ctx, grantID)
	if err != nil {
		return nil, err
	}
	if !g.IsEmergency {
		return nil, errs.ErrGrantNotFound
	}
	if g.Status != model.StatusActive {
		return nil, errs.ErrGrantNotActive
	}
	if g.Activated() {
		return nil, errs.ErrAlreadyActivated
	}
	if !token.Verify(activationToken, g.ActivationHash) {
		return nil, errs.ErrGrantNotFound
	}

	g.RecipientID = recipientID
	g.RecipientRole = recipientRole
	g.ActivationHash = nil
	if err := s.engine.grants.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("activate emergency grant: %w", err)
	}
	return g, nil
}
