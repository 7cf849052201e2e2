package service

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
)

// Actor string helpers. Every audit entry records who acted: an anonymous
// public caller by IP, an admin by JWT subject, or an internal job.
func PublicActor(ip string) string   { return "public:" + ip }
func AdminActor(sub string) string   { return "admin:" + sub }
func SystemActor(name string) string { return "system:" + name }

type AuditService interface {
	// Record appends an audit entry and surfaces storage failures to the
	// caller. Use it where the append is part of the action's contract.
	Record(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{}) error
	// RecordAsync appends fire-and-forget: failures are logged, never
	// returned. Use it for reads and abuse analytics where the primary
	// action must not block on the log.
	RecordAsync(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{})
	Trail(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) Record(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{}) error {
	entry := &model.AuditLogEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Actor:      actor,
	}
	if details != nil {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = raw
		}
	}
	return s.repo.Append(ctx, entry)
}

func (s *auditService) RecordAsync(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{}) {
	if err := s.Record(ctx, entityType, entityID, action, actor, details); err != nil {
		log.Printf("audit append failed (%s/%s %s): %v", entityType, entityID, action, err)
	}
}

func (s *auditService) Trail(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error) {
	return s.repo.FindByEntity(ctx, entityType, entityID)
}
