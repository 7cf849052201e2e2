package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EntityType is the closed set of entities the audit log covers.
type EntityType string

const (
	EntityNotice   EntityType = "notice"
	EntitySignal   EntityType = "signal"
	EntityDecision EntityType = "decision"
	EntityAppeal   EntityType = "appeal"

	// EntityAdmission covers gate events like issued proof-of-work
	// challenges. They attach to no entity row, so EntityID stays nil.
	EntityAdmission EntityType = "admission"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityNotice, EntitySignal, EntityDecision, EntityAppeal, EntityAdmission:
		return true
	default:
		return false
	}
}

// AuditAction is the short action code recorded for a state change.
type AuditAction string

const (
	ActionCreate        AuditAction = "create"
	ActionStatusChange  AuditAction = "status_change"
	ActionStatusView    AuditAction = "status_view"
	ActionEvidenceAdd   AuditAction = "evidence_add"
	ActionAppealCreate  AuditAction = "appeal_create"
	ActionAppealResolve AuditAction = "appeal_resolve"
	ActionNotify        AuditAction = "notify"
	ActionDismiss       AuditAction = "dismiss"
	ActionPoWChallenge  AuditAction = "pow_challenge"
)

// AuditLogEntry is append-only: rows are never updated, only inserted or
// cascade-deleted when the owning entity falls out of retention.
type AuditLogEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType EntityType      `gorm:"type:varchar(20);not null;index:idx_audit_entity" json:"entityType"`
	EntityID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_audit_entity" json:"entityId"`
	Action     AuditAction     `gorm:"type:varchar(30);not null" json:"action"`
	Actor      string          `gorm:"type:varchar(255);not null" json:"actor"`
	At         time.Time       `gorm:"autoCreateTime" json:"at"`
	Details    json.RawMessage `gorm:"type:jsonb" json:"details,omitempty"`
}
