package service_test

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/service"
)

// stubTxManager hands the service the same test doubles it talks to outside
// the transaction, so tests can assert on transactional writes directly.
type stubTxManager struct {
	repos service.TxRepos
}

func (s stubTxManager) InTx(ctx context.Context, fn func(r service.TxRepos) error) error {
	return fn(s.repos)
}

type MockNoticeRepository struct {
	mock.Mock
}

func (m *MockNoticeRepository) Create(ctx context.Context, notice *model.Notice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

func (m *MockNoticeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Notice, error) {
	args := m.Called(ctx, id)
	if notice, ok := args.Get(0).(*model.Notice); ok {
		return notice, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNoticeRepository) FindByToken(ctx context.Context, token string) (*model.Notice, error) {
	args := m.Called(ctx, token)
	if notice, ok := args.Get(0).(*model.Notice); ok {
		return notice, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNoticeRepository) List(ctx context.Context, status *model.NoticeStatus, limit, offset int) ([]model.Notice, error) {
	args := m.Called(ctx, status, limit, offset)
	if notices, ok := args.Get(0).([]model.Notice); ok {
		return notices, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNoticeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.NoticeStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockNoticeRepository) CountByStatus(ctx context.Context) (map[model.NoticeStatus]int64, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).(map[model.NoticeStatus]int64); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNoticeRepository) FindRetentionExpired(ctx context.Context, cutoff time.Time, holdOutcome model.DecisionOutcome) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff, holdOutcome)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNoticeRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockSignalRepository struct {
	mock.Mock
}

func (m *MockSignalRepository) Create(ctx context.Context, signal *model.Signal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

func (m *MockSignalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Signal, error) {
	args := m.Called(ctx, id)
	if signal, ok := args.Get(0).(*model.Signal); ok {
		return signal, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSignalRepository) FindByToken(ctx context.Context, token string) (*model.Signal, error) {
	args := m.Called(ctx, token)
	if signal, ok := args.Get(0).(*model.Signal); ok {
		return signal, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSignalRepository) Dismiss(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockSignalRepository) Counts(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockSignalRepository) FindDismissedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSignalRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) Create(ctx context.Context, decision *model.Decision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockDecisionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Decision, error) {
	args := m.Called(ctx, id)
	if decision, ok := args.Get(0).(*model.Decision); ok {
		return decision, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDecisionRepository) FindLatestByNoticeID(ctx context.Context, noticeID uuid.UUID) (*model.Decision, error) {
	args := m.Called(ctx, noticeID)
	if decision, ok := args.Get(0).(*model.Decision); ok {
		return decision, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDecisionRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Decision, error) {
	args := m.Called(ctx, noticeID)
	if decisions, ok := args.Get(0).([]model.Decision); ok {
		return decisions, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDecisionRepository) FindIDsByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, noticeIDs)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDecisionRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDecisionRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockEvidenceRepository struct {
	mock.Mock
}

func (m *MockEvidenceRepository) Create(ctx context.Context, evidence *model.Evidence) error {
	args := m.Called(ctx, evidence)
	return args.Error(0)
}

func (m *MockEvidenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Evidence, error) {
	args := m.Called(ctx, id)
	if evidence, ok := args.Get(0).(*model.Evidence); ok {
		return evidence, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvidenceRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.Evidence, error) {
	args := m.Called(ctx, noticeID)
	if evidence, ok := args.Get(0).([]model.Evidence); ok {
		return evidence, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvidenceRepository) CountByNoticeAndType(ctx context.Context, noticeID uuid.UUID, evType model.EvidenceType) (int64, error) {
	args := m.Called(ctx, noticeID, evType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEvidenceRepository) FindByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) ([]model.Evidence, error) {
	args := m.Called(ctx, noticeIDs)
	if evidence, ok := args.Get(0).([]model.Evidence); ok {
		return evidence, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEvidenceRepository) DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, noticeIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockAppealRepository struct {
	mock.Mock
}

func (m *MockAppealRepository) Create(ctx context.Context, appeal *model.Appeal) error {
	args := m.Called(ctx, appeal)
	return args.Error(0)
}

func (m *MockAppealRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Appeal, error) {
	args := m.Called(ctx, id)
	if appeal, ok := args.Get(0).(*model.Appeal); ok {
		return appeal, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAppealRepository) FindByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]model.Appeal, error) {
	args := m.Called(ctx, decisionIDs)
	if appeals, ok := args.Get(0).([]model.Appeal); ok {
		return appeals, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAppealRepository) FindIDsByDecisionIDs(ctx context.Context, decisionIDs []uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, decisionIDs)
	if ids, ok := args.Get(0).([]uuid.UUID); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAppealRepository) Resolve(ctx context.Context, id uuid.UUID, outcome model.AppealOutcome, reviewer string, at time.Time) error {
	args := m.Called(ctx, id, outcome, reviewer, at)
	return args.Error(0)
}

func (m *MockAppealRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, entry *model.AuditLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByEntity(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, entityType, entityID)
	if entries, ok := args.Get(0).([]model.AuditLogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuditRepository) DeleteByEntityIDs(ctx context.Context, entityType model.EntityType, entityIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, entityType, entityIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) DeleteByEntityTypeBefore(ctx context.Context, entityType model.EntityType, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, entityType, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, record *model.NotificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockNotificationRepository) FindByNoticeID(ctx context.Context, noticeID uuid.UUID) ([]model.NotificationRecord, error) {
	args := m.Called(ctx, noticeID)
	if records, ok := args.Get(0).([]model.NotificationRecord); ok {
		return records, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockNotificationRepository) DeleteByNoticeIDs(ctx context.Context, noticeIDs []uuid.UUID) (int64, error) {
	args := m.Called(ctx, noticeIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) Record(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{}) error {
	args := m.Called(ctx, entityType, entityID, action, actor, details)
	return args.Error(0)
}

func (m *MockAuditService) RecordAsync(ctx context.Context, entityType model.EntityType, entityID uuid.UUID, action model.AuditAction, actor string, details map[string]interface{}) {
	m.Called(ctx, entityType, entityID, action, actor, details)
}

func (m *MockAuditService) Trail(ctx context.Context, entityType model.EntityType, entityID uuid.UUID) ([]model.AuditLogEntry, error) {
	args := m.Called(ctx, entityType, entityID)
	if entries, ok := args.Get(0).([]model.AuditLogEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifyService struct {
	mock.Mock
}

func (m *MockNotifyService) SignalCreated(ctx context.Context, signal *model.Signal) {
	m.Called(ctx, signal)
}

func (m *MockNotifyService) NoticeCreated(ctx context.Context, notice *model.Notice) {
	m.Called(ctx, notice)
}

func (m *MockNotifyService) DecisionRecorded(ctx context.Context, notice *model.Notice, decision *model.Decision) {
	m.Called(ctx, notice, decision)
}

func (m *MockNotifyService) AppealFiled(ctx context.Context, notice *model.Notice, appeal *model.Appeal) {
	m.Called(ctx, notice, appeal)
}

func (m *MockNotifyService) AppealResolved(ctx context.Context, notice *model.Notice, appeal *model.Appeal) {
	m.Called(ctx, notice, appeal)
}

func (m *MockNotifyService) RecordExternal(ctx context.Context, record *model.NotificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

type MockNoticeIndexer struct {
	mock.Mock
}

func (m *MockNoticeIndexer) IndexNotice(notice *model.Notice) {
	m.Called(notice)
}

func (m *MockNoticeIndexer) RemoveNotices(ids []uuid.UUID) {
	m.Called(ids)
}

func (m *MockNoticeIndexer) Search(query string, limit int64) ([]string, error) {
	args := m.Called(query, limit)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeFileStore is an in-memory stand-in for the evidence disk store.
type fakeFileStore struct {
	free    uint64
	saved   []string
	removed []string
	saveErr error
	openErr error
	rmErr   error
}

func (f *fakeFileStore) Save(r io.Reader, originalName string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	name := uuid.NewString()
	f.saved = append(f.saved, name)
	return name, nil
}

func (f *fakeFileStore) Open(name string) (*os.File, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return nil, os.ErrNotExist
}

func (f *fakeFileStore) Remove(name string) error {
	if f.rmErr != nil {
		return f.rmErr
	}
	f.removed = append(f.removed, name)
	return nil
}

func (f *fakeFileStore) FreeBytes() (uint64, error) {
	return f.free, nil
}
