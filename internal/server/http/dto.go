package httpserver

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/aryan-madhavi/healthshare/internal/model"
)

type recordDTO struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Type      string    `json:"record_type"`
	Title     string    `json:"title"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}

type grantDTO struct {
	ID             uuid.UUID  `json:"id"`
	RecordID       uuid.UUID  `json:"record_id"`
	RecipientID    *uuid.UUID `json:"recipient_id,omitempty"`
	RecipientRole  string     `json:"recipient_role,omitempty"`
	Scope          string     `json:"scope"`
	IssuedAt       time.Time  `json:"issued_at"`
	ExpiresAt      time.Time  `json:"expires_at"`
	MaxAccessCount *int       `json:"max_access_count,omitempty"`
	AccessCount    int        `json:"access_count"`
	Status         string     `json:"status"`
	IsEmergency    bool       `json:"is_emergency"`
}

type auditEntryDTO struct {
	ID        uuid.UUID `json:"id"`
	GrantID   uuid.UUID `json:"grant_id"`
	RecordID  uuid.UUID `json:"record_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type accessResultDTO struct {
	GrantID     uuid.UUID `json:"grant_id"`
	RecordID    uuid.UUID `json:"record_id"`
	Scope       string    `json:"scope"`
	AccessCount int       `json:"access_count"`
	Remaining   *int      `json:"remaining,omitempty"`
	Fields      []string  `json:"fields,omitempty"`
}

func toRecordDTO(r *model.Record) recordDTO {
	return recordDTO{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Type:      string(r.Type),
		Title:     r.Title,
		Revoked:   r.Revoked,
		CreatedAt: r.CreatedAt,
	}
}

func toGrantDTO(g *model.Grant) grantDTO {
	dto := grantDTO{
		ID:             g.ID,
		RecordID:       g.RecordID,
		RecipientRole:  string(g.RecipientRole),
		Scope:          string(g.Scope),
		IssuedAt:       g.IssuedAt,
		ExpiresAt:      g.ExpiresAt,
		MaxAccessCount: g.MaxAccessCount,
		AccessCount:    g.AccessCount,
		Status:         string(g.Status),
		IsEmergency:    g.IsEmergency,
	}
	if g.RecipientID != uuid.Nil {
		id := g.RecipientID
		dto.RecipientID = &id
	}
	return dto
}

func toGrantDTOs(gs []model.Grant) []grantDTO {
	out := make([]grantDTO, 0, len(gs))
	for i := range gs {
		out = append(out, toGrantDTO(&gs[i]))
	}
	return out
}

func toAuditDTOs(es []model.AuditEntry) []auditEntryDTO {
	out := make([]auditEntryDTO, 0, len(es))
	for _, e := range es {
		out = append(out, auditEntryDTO{
			ID:        e.ID,
			GrantID:   e.GrantID,
			RecordID:  e.RecordID,
			ActorID:   e.ActorID,
			ActorRole: string(e.ActorRole),
			Action:    string(e.Action),
			Timestamp: e.Timestamp,
		})
	}
	return out
}

func toAccessResultDTO(r model.AccessResult) accessResultDTO {
	return accessResultDTO{
		GrantID:     r.GrantID,
		RecordID:    r.RecordID,
		Scope:       string(r.Scope),
		AccessCount: r.AccessCount,
		Remaining:   r.Remaining,
		Fields:      r.Fields,
	}
}
