package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type EvidenceRepository interface {
	Create(ctx context.Context, evidence *model.Evidence) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Evidence, error)
	FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Evidence, error)
	CountByNoticeAndType(ctx context.Context, noticeID uuid.UUID, evType model.EvidenceType) (int64, error)
	// FindByNoticeIDs returns all evidence rows for a set of notices,
	// including file paths, so the retention job can unlink files.
	FindByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]model.Evidence, error)
	DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error)
}

type evidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) EvidenceRepository {
	return &evidenceRepository{db: db}
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *model.Evidence) error {
	return r.db.WithContext(ctx).Create(evidence).Error
}

func (r *evidenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Evidence, error) {
	var evidence model.Evidence
	if err := r.db.WithContext(ctx).First(&evidence, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &evidence, nil
}

func (r *evidenceRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Evidence, error) {
	var rows []model.Evidence
	err := r.db.WithContext(ctx).
		Where("notice_id = ?", noticeID).
		Order("added_at asc").
		Find(&rows).Error
	return rows, err
}

func (r *evidenceRepository) CountByNoticeAndType(ctx context.Context, noticeID uuid.UUID, evType model.EvidenceType) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Evidence{}).
		Where("notice_id = ? AND type = ?", noticeID, evType).
		Count(&count).Error
	return count, err
}

func (r *evidenceRepository) FindByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]model.Evidence, error) {
	if len(noticeIDs) == 0 {
		return nil, nil
	}
	var rows []model.Evidence
	err := r.db.WithContext(ctx).
		Where("notice_id IN ?", noticeIDs).
		Find(&rows).Error
	return rows, err
}

func (r *evidenceRepository) DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error) {
	if len(noticeIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("notice_id IN ?", noticeIDs).Delete(&model.Evidence{})
	return res.RowsAffected, res.Error
}
