package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, record *model.NotificationRecord) error
	FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.NotificationRecord, error)
	DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, record *model.NotificationRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *notificationRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.NotificationRecord, error) {
	var records []model.NotificationRecord
	err := r.db.WithContext(ctx).
		Where("notice_id = ?", noticeID).
		Order("sent_at desc").
		Find(&records).Error
	return records, err
}

func (r *notificationRepository) DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error) {
	if len(noticeIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("notice_id IN ?", noticeIDs).Delete(&model.NotificationRecord{})
	return res.RowsAffected, res.Error
}
