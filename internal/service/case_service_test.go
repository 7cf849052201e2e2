package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"gorm.io/gorm"
)

type caseFixture struct {
	svc          service.CaseService
	noticeRepo   *MockNoticeRepository
	signalRepo   *MockSignalRepository
	decisionRepo *MockDecisionRepository
	evidenceRepo *MockEvidenceRepository
	appealRepo   *MockAppealRepository
	audit        *MockAuditService
	notify       *MockNotifyService
	indexer      *MockNoticeIndexer
}

func newCaseFixture() *caseFixture {
	f := &caseFixture{
		noticeRepo:   new(MockNoticeRepository),
		signalRepo:   new(MockSignalRepository),
		decisionRepo: new(MockDecisionRepository),
		evidenceRepo: new(MockEvidenceRepository),
		appealRepo:   new(MockAppealRepository),
		audit:        new(MockAuditService),
		notify:       new(MockNotifyService),
		indexer:      new(MockNoticeIndexer),
	}
	txm := stubTxManager{repos: service.TxRepos{
		Notices:   f.noticeRepo,
		Decisions: f.decisionRepo,
		Appeals:   f.appealRepo,
		Audit:     f.audit,
	}}
	f.svc = service.NewCaseService(txm, f.noticeRepo, f.signalRepo, f.decisionRepo,
		f.evidenceRepo, f.appealRepo, f.audit, f.notify, f.indexer)
	return f
}

func TestUpdateStatus_MovesForward(t *testing.T) {
	// Arrange
	f := newCaseFixture()
	id := uuid.New()
	f.noticeRepo.On("FindByID", mock.Anything, id).Return(&model.Notice{ID: id, Status: model.NoticeReceived}, nil)
	f.noticeRepo.On("UpdateStatus", mock.Anything, id, model.NoticeUnderReview).Return(nil)
	f.audit.On("RecordAsync", mock.Anything, model.EntityNotice, id, model.ActionStatusChange, "admin:mod1", mock.Anything).Return()
	f.indexer.On("IndexNotice", mock.AnythingOfType("*model.Notice")).Return()

	// Act
	err := f.svc.UpdateStatus(context.Background(), id, model.NoticeUnderReview, "admin:mod1")

	// Assert
	assert.NoError(t, err)
	f.noticeRepo.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.indexer.AssertExpectations(t)
}

func TestUpdateStatus_RejectsBackwardTransition(t *testing.T) {
	f := newCaseFixture()
	id := uuid.New()
	f.noticeRepo.On("FindByID", mock.Anything, id).Return(&model.Notice{ID: id, Status: model.NoticeDecided}, nil)

	err := f.svc.UpdateStatus(context.Background(), id, model.NoticeReceived, "admin:mod1")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	f.noticeRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsSelfTransition(t *testing.T) {
	f := newCaseFixture()
	id := uuid.New()
	f.noticeRepo.On("FindByID", mock.Anything, id).Return(&model.Notice{ID: id, Status: model.NoticeUnderReview}, nil)

	err := f.svc.UpdateStatus(context.Background(), id, model.NoticeUnderReview, "admin:mod1")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newCaseFixture()

	err := f.svc.UpdateStatus(context.Background(), uuid.New(), model.NoticeStatus("ARCHIVED"), "admin:mod1")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestGetStatusByToken_UnknownTokenIs404(t *testing.T) {
	f := newCaseFixture()
	f.noticeRepo.On("FindByToken", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)
	f.signalRepo.On("FindByToken", mock.Anything, "nope").Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.GetStatusByToken(context.Background(), "nope", "public:1.2.3.4")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetStatusByToken_SignalView(t *testing.T) {
	// Arrange
	f := newCaseFixture()
	signal := &model.Signal{ID: uuid.New(), ContentID: "post-9"}
	f.noticeRepo.On("FindByToken", mock.Anything, "tok").Return(nil, gorm.ErrRecordNotFound)
	f.signalRepo.On("FindByToken", mock.Anything, "tok").Return(signal, nil)
	f.audit.On("RecordAsync", mock.Anything, model.EntitySignal, signal.ID, model.ActionStatusView, "public:1.2.3.4", mock.Anything).Return()

	// Act
	resp, err := f.svc.GetStatusByToken(context.Background(), "tok", "public:1.2.3.4")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, string(model.EntitySignal), resp.EntityType)
	assert.Equal(t, signal, resp.Signal)
	assert.Nil(t, resp.Notice)
	assert.NotNil(t, resp.Evidence)
	f.audit.AssertExpectations(t)
}

func TestGetStatusByToken_NoticeViewCarriesLatestDecision(t *testing.T) {
	// Arrange
	f := newCaseFixture()
	notice := &model.Notice{ID: uuid.New(), Status: model.NoticeDecided}
	latest := &model.Decision{ID: uuid.New(), NoticeID: notice.ID, Outcome: model.OutcomeContentRemoved}
	f.noticeRepo.On("FindByToken", mock.Anything, "tok").Return(notice, nil)
	f.decisionRepo.On("FindLatestByNoticeID", mock.Anything, notice.ID).Return(latest, nil)
	f.decisionRepo.On("FindIDsByNoticeIDs", mock.Anything, []uuid.UUID{notice.ID}).Return([]uuid.UUID{latest.ID}, nil)
	f.evidenceRepo.On("FindByNoticeID", mock.Anything, notice.ID).Return([]model.Evidence{}, nil)
	f.appealRepo.On("FindByDecisionIDs", mock.Anything, []uuid.UUID{latest.ID}).Return([]model.Appeal{}, nil)
	f.audit.On("Trail", mock.Anything, model.EntityNotice, notice.ID).Return([]model.AuditLogEntry{}, nil)
	f.audit.On("RecordAsync", mock.Anything, model.EntityNotice, notice.ID, model.ActionStatusView, "public:1.2.3.4", mock.Anything).Return()

	// Act
	resp, err := f.svc.GetStatusByToken(context.Background(), "tok", "public:1.2.3.4")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, string(model.EntityNotice), resp.EntityType)
	assert.Equal(t, latest, resp.Decision)
}

func TestDismissSignal_Audits(t *testing.T) {
	f := newCaseFixture()
	id := uuid.New()
	f.signalRepo.On("FindByID", mock.Anything, id).Return(&model.Signal{ID: id}, nil)
	f.signalRepo.On("Dismiss", mock.Anything, id, mock.AnythingOfType("time.Time")).Return(nil)
	f.audit.On("RecordAsync", mock.Anything, model.EntitySignal, id, model.ActionDismiss, "admin:mod1", mock.Anything).Return()

	err := f.svc.DismissSignal(context.Background(), id, "admin:mod1")

	assert.NoError(t, err)
	f.signalRepo.AssertExpectations(t)
	f.audit.AssertExpectations(t)
}

func TestNoticeStats_SumsStatusBuckets(t *testing.T) {
	f := newCaseFixture()
	f.noticeRepo.On("CountByStatus", mock.Anything).Return(map[model.NoticeStatus]int64{
		model.NoticeReceived:    3,
		model.NoticeUnderReview: 2,
		model.NoticeDecided:     5,
	}, nil)
	f.decisionRepo.On("CountAll", mock.Anything).Return(int64(6), nil)

	stats, err := f.svc.NoticeStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(10), stats.Total)
	assert.Equal(t, int64(6), stats.Decisions)
}

func TestSignalStats_DerivesOpenCount(t *testing.T) {
	f := newCaseFixture()
	f.signalRepo.On("Counts", mock.Anything).Return(int64(7), int64(4), nil)

	stats, err := f.svc.SignalStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, int64(7), stats.Total)
	assert.Equal(t, int64(4), stats.Dismissed)
	assert.Equal(t, int64(3), stats.Open)
}

func TestUpdateStatus_RejectsDirectDecided(t *testing.T) {
	// Arrange: DECIDED is reachable only through RecordDecision.
	f := newCaseFixture()
	id := uuid.New()

	// Act
	err := f.svc.UpdateStatus(context.Background(), id, model.NoticeDecided, "admin:mod1")

	// Assert
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	f.noticeRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordDecision_ForcesDecidedWithAuditPair(t *testing.T) {
	// Arrange
	f := newCaseFixture()
	noticeID := uuid.New()
	f.noticeRepo.On("FindByID", mock.Anything, noticeID).
		Return(&model.Notice{ID: noticeID, Status: model.NoticeUnderReview}, nil)
	f.decisionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Decision")).Return(nil)
	f.noticeRepo.On("UpdateStatus", mock.Anything, noticeID, model.NoticeDecided).Return(nil)
	f.audit.On("Record", mock.Anything, model.EntityDecision, mock.Anything, model.ActionCreate, "admin:mod1", mock.Anything).Return(nil)
	f.audit.On("Record", mock.Anything, model.EntityNotice, noticeID, model.ActionStatusChange, "admin:mod1", mock.Anything).Return(nil)
	f.notify.On("DecisionRecorded", mock.Anything, mock.AnythingOfType("*model.Notice"), mock.AnythingOfType("*model.Decision")).Return()
	f.indexer.On("IndexNotice", mock.AnythingOfType("*model.Notice")).Return()

	// Act
	decision, err := f.svc.RecordDecision(context.Background(), noticeID,
		&dto.CreateDecisionRequest{Outcome: model.OutcomeContentRemoved}, "admin:mod1")

	// Assert: insert, forced status and both audit entries all went through
	// the transaction runner; notification and indexing followed.
	assert.NoError(t, err)
	assert.Equal(t, noticeID, decision.NoticeID)
	assert.Equal(t, "admin:mod1", decision.DecidedBy)
	assert.False(t, decision.DecidedAt.IsZero())
	f.noticeRepo.AssertExpectations(t)
	f.decisionRepo.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.notify.AssertExpectations(t)
	f.indexer.AssertExpectations(t)
}

func TestRecordDecision_SkipsStatusWriteWhenAlreadyDecided(t *testing.T) {
	// Arrange: a second decision on a DECIDED notice leaves the status alone.
	f := newCaseFixture()
	noticeID := uuid.New()
	f.noticeRepo.On("FindByID", mock.Anything, noticeID).
		Return(&model.Notice{ID: noticeID, Status: model.NoticeDecided}, nil)
	f.decisionRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Decision")).Return(nil)
	f.audit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "admin:mod1", mock.Anything).Return(nil)
	f.notify.On("DecisionRecorded", mock.Anything, mock.Anything, mock.Anything).Return()
	f.indexer.On("IndexNotice", mock.AnythingOfType("*model.Notice")).Return()

	// Act
	_, err := f.svc.RecordDecision(context.Background(), noticeID,
		&dto.CreateDecisionRequest{Outcome: model.OutcomeNoAction}, "admin:mod1")

	// Assert
	assert.NoError(t, err)
	f.noticeRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordDecision_RejectsUnknownOutcome(t *testing.T) {
	f := newCaseFixture()

	_, err := f.svc.RecordDecision(context.Background(), uuid.New(),
		&dto.CreateDecisionRequest{Outcome: model.DecisionOutcome("DELETED_EVERYTHING")}, "admin:mod1")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}
