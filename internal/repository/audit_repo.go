package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

// AuditRepository is append-only: entries are inserted, read, and
// cascade-deleted by retention. There is no update path.
type AuditRepository interface {
	Append(ctx context.Context, entry *model.AuditLogEntry) error
	FindByEntity(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error)
	DeleteByEntityIDs(ctx context.Context, entityType model.EntityType, entityIDs []uuid.UUID) (int64, error)
	DeleteByEntityTypeBefore(ctx context.Context, entityType model.EntityType, cutoff time.Time) (int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) FindByEntity(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error) {
	var entries []model.AuditLogEntry
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("at asc").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) DeleteByEntityIDs(ctx context.Context, entityType model.EntityType, entityIDs []uuid.UUID) (int64, error) {
	if len(entityIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id IN ?", entityType, entityIDs).
		Delete(&model.AuditLogEntry{})
	return res.RowsAffected, res.Error
}

func (r *auditRepository) DeleteByEntityTypeBefore(ctx context.Context, entityType model.EntityType, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("entity_type = ? AND at < ?", entityType, cutoff).
		Delete(&model.AuditLogEntry{})
	return res.RowsAffected, res.Error
}
