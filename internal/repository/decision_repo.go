package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type DecisionRepository interface {
	Create(ctx context.Context, decision *model.Decision) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Decision, error)
	// FindLatestByNoticeID returns the authoritative decision for a notice:
	// the one with the maximum decided_at. Multiple decisions per notice are
	// permitted; every read of "the" decision must go through here.
	FindLatestByNoticeID(ctx context.Context, noticeID uuid.UUID) (*model.Decision, error)
	FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Decision, error)
	FindIDsByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]uuid.UUID, error)
	CountAll(ctx context.Context) (int64, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type decisionRepository struct {
	db *gorm.DB
}

func NewDecisionRepository(db *gorm.DB) DecisionRepository {
	return &decisionRepository{db: db}
}

func (r *decisionRepository) Create(ctx context.Context, decision *model.Decision) error {
	return r.db.WithContext(ctx).Create(decision).Error
}

func (r *decisionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Decision, error) {
	var decision model.Decision
	if err := r.db.WithContext(ctx).First(&decision, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *decisionRepository) FindLatestByNoticeID(ctx context.Context, noticeID uuid.UUID) (*model.Decision, error) {
	var decision model.Decision
	err := r.db.WithContext(ctx).
		Where("notice_id = ?", noticeID).
		Order("decided_at desc").
		First(&decision).Error
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *decisionRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Decision, error) {
	var decisions []model.Decision
	err := r.db.WithContext(ctx).
		Where("notice_id = ?", noticeID).
		Order("decided_at desc").
		Find(&decisions).Error
	return decisions, err
}

func (r *decisionRepository) FindIDsByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(noticeIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Decision{}).
		Where("notice_id IN ?", noticeIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *decisionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Decision{}).Count(&count).Error
	return count, err
}

func (r *decisionRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Decision{})
	return res.RowsAffected, res.Error
}
