package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type SignalRepository interface {
	Create(ctx context.Context, signal *model.Signal) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Signal, error)
	FindByToken(ctx context.Context, token string) (*model.Signal, error)
	Dismiss(ctx context.Context, id uuid.UUID, at time.Time) error
	Counts(ctx context.Context) (total, dismissed int64, err error)
	// FindDismissedBefore returns ids of signals dismissed before cutoff.
	FindDismissedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) Create(ctx context.Context, signal *model.Signal) error {
	return r.db.WithContext(ctx).Create(signal).Error
}

func (r *signalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Signal, error) {
	var signal model.Signal
	if err := r.db.WithContext(ctx).First(&signal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *signalRepository) FindByToken(ctx context.Context, token string) (*model.Signal, error) {
	var signal model.Signal
	if err := r.db.WithContext(ctx).First(&signal, "public_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *signalRepository) Dismiss(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Signal{}).
		Where("id = ? AND dismissed_at IS NULL", id).
		Update("dismissed_at", at).Error
}

func (r *signalRepository) Counts(ctx context.Context) (int64, int64, error) {
	var total, dismissed int64
	if err := r.db.WithContext(ctx).Model(&model.Signal{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Signal{}).
		Where("dismissed_at IS NOT NULL").Count(&dismissed).Error; err != nil {
		return 0, 0, err
	}
	return total, dismissed, nil
}

func (r *signalRepository) FindDismissedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Signal{}).
		Where("dismissed_at IS NOT NULL AND dismissed_at < ?", cutoff).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *signalRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Signal{})
	return res.RowsAffected, res.Error
}
