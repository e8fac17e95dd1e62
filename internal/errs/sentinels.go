// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Lifecycle sentinels shared by repo/service layers. Anything not listed
// here is treated as a storage fault and propagated as-is.
var (
	// ErrNotOwner indicates the caller does not own the referenced record.
	ErrNotOwner = errors.New("not owner")

	// ErrInvalidScope indicates a scope not permitted for this operation
	// (standard issuance never produces emergency-scoped grants).
	ErrInvalidScope = errors.New("invalid scope")

	// ErrRecordNotFound indicates the record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordRevoked indicates the record carries a tombstone flag.
	ErrRecordRevoked = errors.New("record revoked")

	// ErrGrantNotFound indicates the grant does not exist.
	ErrGrantNotFound = errors.New("grant not found")

	// ErrGrantNotActive indicates the grant is expired or revoked.
	ErrGrantNotActive = errors.New("grant not active")

	// ErrRoleMismatch indicates the actor's role differs from the grant recipient role.
	ErrRoleMismatch = errors.New("role mismatch")

	// ErrAccessExhausted indicates the access would exceed the grant's access budget.
	ErrAccessExhausted = errors.New("access exhausted")

	// ErrAlreadyActivated indicates an emergency grant already bound a recipient.
	ErrAlreadyActivated = errors.New("already activated")

	// ErrUnauthorized indicates the caller may not read the requested audit trail.
	ErrUnauthorized = errors.New("unauthorized")
)
