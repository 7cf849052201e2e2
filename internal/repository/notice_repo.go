package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"gorm.io/gorm"
)

type NoticeRepository interface {
	Create(ctx context.Context, notice *model.Notice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Notice, error)
	FindByToken(ctx context.Context, token string) (*model.Notice, error)
	List(ctx context.Context, status *model.NoticeStatus, limit, offset int) ([]model.Notice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.NoticeStatus) error
	CountByStatus(ctx context.Context) (map[model.NoticeStatus]int64, error)
	// FindRetentionExpired returns ids of DECIDED notices whose latest
	// decision (or updated_at when no decision exists) is older than cutoff,
	// excluding notices holding at least one decision with holdOutcome.
	FindRetentionExpired(ctx context.Context, cutoff time.Time, holdOutcome model.DecisionOutcome) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type noticeRepository struct {
	db *gorm.DB
}

func NewNoticeRepository(db *gorm.DB) NoticeRepository {
	return &noticeRepository{db: db}
}

func (r *noticeRepository) Create(ctx context.Context, notice *model.Notice) error {
	return r.db.WithContext(ctx).Create(notice).Error
}

func (r *noticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notice, error) {
	var notice model.Notice
	if err := r.db.WithContext(ctx).First(&notice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepository) FindByToken(ctx context.Context, token string) (*model.Notice, error) {
	var notice model.Notice
	if err := r.db.WithContext(ctx).First(&notice, "public_token = ?", token).Error; err != nil {
		return nil, err
	}
	return &notice, nil
}

func (r *noticeRepository) List(ctx context.Context, status *model.NoticeStatus, limit, offset int) ([]model.Notice, error) {
	q := r.db.WithContext(ctx).Model(&model.Notice{}).Order("created_at desc")
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var notices []model.Notice
	err := q.Limit(limit).Offset(offset).Find(&notices).Error
	return notices, err
}

func (r *noticeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NoticeStatus) error {
	return r.db.WithContext(ctx).Model(&model.Notice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *noticeRepository) CountByStatus(ctx context.Context) (map[model.NoticeStatus]int64, error) {
	type row struct {
		Status model.NoticeStatus
		Count  int64
	}

	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Notice{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.NoticeStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *noticeRepository) FindRetentionExpired(ctx context.Context, cutoff time.Time, holdOutcome model.DecisionOutcome) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Notice{}).
		Where("status = ?", model.NoticeDecided).
		Where("coalesce((select max(decided_at) from decisions where decisions.notice_id = notices.id), notices.updated_at) < ?", cutoff).
		Where("not exists (select 1 from decisions where decisions.notice_id = notices.id and decisions.outcome = ?)", holdOutcome).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *noticeRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Notice{})
	return res.RowsAffected, res.Error
}
