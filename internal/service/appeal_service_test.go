package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"gorm.io/gorm"
)

type appealFixture struct {
	svc          service.AppealService
	appealRepo   *MockAppealRepository
	decisionRepo *MockDecisionRepository
	noticeRepo   *MockNoticeRepository
	audit        *MockAuditService
	notify       *MockNotifyService
}

func newAppealFixture() *appealFixture {
	f := &appealFixture{
		appealRepo:   new(MockAppealRepository),
		decisionRepo: new(MockDecisionRepository),
		noticeRepo:   new(MockNoticeRepository),
		audit:        new(MockAuditService),
		notify:       new(MockNotifyService),
	}
	txm := stubTxManager{repos: service.TxRepos{
		Notices:   f.noticeRepo,
		Decisions: f.decisionRepo,
		Appeals:   f.appealRepo,
		Audit:     f.audit,
	}}
	f.svc = service.NewAppealService(txm, f.appealRepo, f.decisionRepo, f.noticeRepo, f.audit, f.notify)
	return f
}

func TestFileAppeal_ConflictsWhileDecisionPending(t *testing.T) {
	// Arrange
	f := newAppealFixture()
	notice := &model.Notice{ID: uuid.New(), Status: model.NoticeUnderReview}
	f.decisionRepo.On("FindLatestByNoticeID", mock.Anything, notice.ID).Return(nil, gorm.ErrRecordNotFound)

	// Act
	_, err := f.svc.File(context.Background(), notice,
		&dto.FileAppealRequest{Arguments: "the removal was unjustified", FiledBy: "uploader@example.com"},
		"public:1.2.3.4")

	// Assert
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, apperror.CodeDecisionPending, appErr.Code)
	f.appealRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFileAppeal_TargetsLatestDecision(t *testing.T) {
	// Arrange
	f := newAppealFixture()
	notice := &model.Notice{ID: uuid.New(), Status: model.NoticeDecided}
	latest := &model.Decision{ID: uuid.New(), NoticeID: notice.ID, Outcome: model.OutcomeContentRemoved}
	f.decisionRepo.On("FindLatestByNoticeID", mock.Anything, notice.ID).Return(latest, nil)
	f.appealRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Appeal")).Return(nil)
	f.audit.On("Record", mock.Anything, model.EntityAppeal, mock.Anything, model.ActionAppealCreate, "public:1.2.3.4", mock.Anything).Return(nil)
	f.notify.On("AppealFiled", mock.Anything, notice, mock.AnythingOfType("*model.Appeal")).Return()

	// Act
	appeal, err := f.svc.File(context.Background(), notice,
		&dto.FileAppealRequest{Arguments: "the removal was unjustified", FiledBy: "uploader@example.com"},
		"public:1.2.3.4")

	// Assert: the appeal hangs off the authoritative decision and the audit
	// append shares the insert's transaction.
	assert.NoError(t, err)
	assert.Equal(t, latest.ID, appeal.DecisionID)
	assert.Equal(t, "uploader@example.com", appeal.FiledBy)
	f.appealRepo.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.notify.AssertExpectations(t)
}

func TestResolveAppeal_ClosesPendingAppeal(t *testing.T) {
	// Arrange
	f := newAppealFixture()
	appealID := uuid.New()
	decisionID := uuid.New()
	noticeID := uuid.New()
	f.appealRepo.On("FindByID", mock.Anything, appealID).
		Return(&model.Appeal{ID: appealID, DecisionID: decisionID}, nil)
	f.appealRepo.On("Resolve", mock.Anything, appealID, model.AppealOverturned, "admin:legal1", mock.AnythingOfType("time.Time")).Return(nil)
	f.audit.On("Record", mock.Anything, model.EntityAppeal, appealID, model.ActionAppealResolve, "admin:legal1", mock.Anything).Return(nil)
	f.decisionRepo.On("FindByID", mock.Anything, decisionID).
		Return(&model.Decision{ID: decisionID, NoticeID: noticeID}, nil)
	f.noticeRepo.On("FindByID", mock.Anything, noticeID).
		Return(&model.Notice{ID: noticeID, Status: model.NoticeDecided}, nil)
	f.notify.On("AppealResolved", mock.Anything, mock.AnythingOfType("*model.Notice"), mock.AnythingOfType("*model.Appeal")).Return()

	// Act
	appeal, err := f.svc.Resolve(context.Background(), appealID, model.AppealOverturned, "admin:legal1")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, model.AppealOverturned, *appeal.Outcome)
	assert.NotNil(t, appeal.ResolvedAt)
	assert.Equal(t, "admin:legal1", *appeal.Reviewer)
	f.appealRepo.AssertExpectations(t)
	f.audit.AssertExpectations(t)
	f.notify.AssertExpectations(t)
}

func TestResolveAppeal_RejectsUnknownOutcome(t *testing.T) {
	f := newAppealFixture()

	_, err := f.svc.Resolve(context.Background(), uuid.New(), model.AppealOutcome("MAYBE"), "admin:legal1")

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestResolveAppeal_ConflictsWhenAlreadyResolved(t *testing.T) {
	// Arrange
	f := newAppealFixture()
	id := uuid.New()
	outcome := model.AppealUpheld
	resolvedAt := time.Now().UTC()
	f.appealRepo.On("FindByID", mock.Anything, id).Return(&model.Appeal{
		ID:         id,
		Outcome:    &outcome,
		ResolvedAt: &resolvedAt,
	}, nil)

	// Act
	_, err := f.svc.Resolve(context.Background(), id, model.AppealOverturned, "admin:legal1")

	// Assert
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	f.appealRepo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveAppeal_UnknownAppealIs404(t *testing.T) {
	f := newAppealFixture()
	id := uuid.New()
	f.appealRepo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.Resolve(context.Background(), id, model.AppealUpheld, "admin:legal1")

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindForNotice_RejectsForeignAppeal(t *testing.T) {
	// Arrange
	f := newAppealFixture()
	appealID := uuid.New()
	decisionID := uuid.New()
	f.appealRepo.On("FindByID", mock.Anything, appealID).Return(&model.Appeal{ID: appealID, DecisionID: decisionID}, nil)
	f.decisionRepo.On("FindByID", mock.Anything, decisionID).Return(&model.Decision{
		ID:       decisionID,
		NoticeID: uuid.New(),
	}, nil)

	// Act: the appeal exists but hangs off another notice's decision.
	_, err := f.svc.FindForNotice(context.Background(), appealID, uuid.New())

	// Assert
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFindForNotice_ReturnsOwnedAppeal(t *testing.T) {
	f := newAppealFixture()
	appealID := uuid.New()
	decisionID := uuid.New()
	noticeID := uuid.New()
	f.appealRepo.On("FindByID", mock.Anything, appealID).Return(&model.Appeal{ID: appealID, DecisionID: decisionID}, nil)
	f.decisionRepo.On("FindByID", mock.Anything, decisionID).Return(&model.Decision{
		ID:       decisionID,
		NoticeID: noticeID,
	}, nil)

	appeal, err := f.svc.FindForNotice(context.Background(), appealID, noticeID)

	assert.NoError(t, err)
	assert.Equal(t, appealID, appeal.ID)
}
