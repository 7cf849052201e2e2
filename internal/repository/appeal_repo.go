package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type AppealRepository interface {
	Create(ctx context.Context, appeal *model.Appeal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Appeal, error)
	FindByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]model.Appeal, error)
	FindIDsByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]uuid.UUID, error)
	Resolve(ctx context.Context, id uuid.UUID, outcome model.AppealOutcome, reviewer string, at time.Time) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type appealRepository struct {
	db *gorm.DB
}

func NewAppealRepository(db *gorm.DB) AppealRepository {
	return &appealRepository{db: db}
}

func (r *appealRepository) Create(ctx context.Context, appeal *model.Appeal) error {
	return r.db.WithContext(ctx).Create(appeal).Error
}

func (r *appealRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appeal, error) {
	var appeal model.Appeal
	if err := r.db.WithContext(ctx).First(&appeal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &appeal, nil
}

func (r *appealRepository) FindByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]model.Appeal, error) {
	if len(decisionIDs) == 0 {
		return nil, nil
	}
	var appeals []model.Appeal
	err := r.db.WithContext(ctx).
		Where("decision_id IN ?", decisionIDs).
		Order("filed_at asc").
		Find(&appeals).Error
	return appeals, err
}

func (r *appealRepository) FindIDsByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(decisionIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Appeal{}).
		Where("decision_id IN ?", decisionIDs).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *appealRepository) Resolve(ctx context.Context, id uuid.UUID, outcome model.AppealOutcome, reviewer string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Appeal{}).
		Where("id = ? AND outcome IS NULL", id).
		Updates(map[string]interface{}{
			"outcome":     outcome,
			"reviewer":    reviewer,
			"resolved_at": at,
		}).Error
}

func (r *appealRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Appeal{})
	return res.RowsAffected, res.Error
}
