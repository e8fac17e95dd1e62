// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// RecordType classifies a health record.
type RecordType string

const (
	RecordPrescription     RecordType = "prescription"
	RecordLabReport        RecordType = "lab_report"
	RecordImaging          RecordType = "imaging"
	RecordDischargeSummary RecordType = "discharge_summary"
	RecordOther            RecordType = "other"
)

// Valid reports whether rt is one of the known record types.
func (rt RecordType) Valid() bool {
	switch rt {
	case RecordPrescription, RecordLabReport, RecordImaging, RecordDischargeSummary, RecordOther:
		return true
	}
	return false
}

// Role identifies the kind of party acting on or receiving access to a record.
type Role string

const (
	RolePatient   Role = "patient"
	RoleDoctor    Role = "doctor"
	RoleLab       Role = "lab"
	RoleHospital  Role = "hospital"
	RoleInsurance Role = "insurance"
	RoleRegulator Role = "regulator"
	RoleCaregiver Role = "caregiver"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleLab, RoleHospital, RoleInsurance, RoleRegulator, RoleCaregiver:
		return true
	}
	return false
}

// Scope is the breadth of record data a grant exposes.
type Scope string

const (
	ScopeFull      Scope = "full"
	ScopeSummary   Scope = "summary"
	ScopeEmergency Scope = "emergency"
)

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeFull, ScopeSummary, ScopeEmergency:
		return true
	}
	return false
}

// GrantStatus is the lifecycle state of a grant. Transitions are monotonic:
// active -> expired or active -> revoked; both are terminal.
type GrantStatus string

const (
	StatusActive  GrantStatus = "active"
	StatusExpired GrantStatus = "expired"
	StatusRevoked GrantStatus = "revoked"
)

// Terminal reports whether the status permits no further transitions.
func (s GrantStatus) Terminal() bool { return s == StatusExpired || s == StatusRevoked }

// AuditAction is the kind of event an audit entry records.
type AuditAction string

const (
	ActionViewed     AuditAction = "viewed"
	ActionDownloaded AuditAction = "downloaded"
	ActionShared     AuditAction = "shared"
	ActionRevoked    AuditAction = "revoked"
	ActionGranted    AuditAction = "granted"
)

// AccessAction reports whether a is one of the actions a recipient may
// perform through recordAccess (lifecycle actions are engine-produced only).
func (a AuditAction) AccessAction() bool {
	return a == ActionViewed || a == ActionDownloaded || a == ActionShared
}

// Record is an opaque content reference owned by exactly one patient.
// Immutable after creation except for the Revoked tombstone, which cascades
// to every grant referencing it.
type Record struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Type      RecordType
	Title     string
	Revoked   bool
	CreatedAt time.Time
}

// Grant is a scoped, time-bounded permission for one recipient to access one
// record. Grants are never deleted; terminal grants remain for audit.
type Grant struct {
	ID             uuid.UUID
	RecordID       uuid.UUID
	RecipientID    uuid.UUID // Nil for an emergency grant until activation
	RecipientRole  Role
	Scope          Scope
	IssuedAt       time.Time
	ExpiresAt      time.Time
	MaxAccessCount *int // nil means unlimited
	AccessCount    int
	Status         GrantStatus
	IsEmergency    bool
	ActivationHash []byte // sha256 of the one-time token; nil once activated or for standard grants
}

// Activated reports whether an emergency grant has bound its recipient.
func (g *Grant) Activated() bool { return g.IsEmergency && g.RecipientID != uuid.Nil }

// AuditEntry is an immutable record of a single access or lifecycle event.
type AuditEntry struct {
	ID        uuid.UUID
	GrantID   uuid.UUID
	RecordID  uuid.UUID
	ActorID   uuid.UUID
	ActorRole Role
	Action    AuditAction
	Timestamp time.Time
}

// EmergencyFields is the fixed reduced field set an emergency-scoped grant
// exposes, regardless of the requested action.
var EmergencyFields = []string{
	"blood_type",
	"allergies",
	"medications",
	"conditions",
	"emergency_contacts",
}

// SummaryFields is the subset a summary-scoped grant exposes.
var SummaryFields = []string{
	"record_type",
	"title",
	"summary",
	"issued_by",
	"created_at",
}

// AccessResult tells the caller how much of the record it may expose after a
// permitted access. Fields is nil for full scope (no restriction).
type AccessResult struct {
	GrantID     uuid.UUID
	RecordID    uuid.UUID
	Scope       Scope
	AccessCount int
	Remaining   *int // nil means unlimited
	Fields      []string
}
