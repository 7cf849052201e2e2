package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"gorm.io/gorm"
)

type AppealService interface {
	// File creates an appeal against the authoritative decision of the
	// notice. It conflicts with decision_pending while no decision exists.
	File(ctx context.Context, notice *model.Notice, req *dto.FileAppealRequest, actor string) (*model.Appeal, error)
	// Resolve closes a pending appeal with an outcome.
	Resolve(ctx context.Context, appealID uuid.UUID, outcome model.AppealOutcome, reviewer string) (*model.Appeal, error)
	// FindForNotice returns the appeal only if it belongs to a decision of
	// the given notice; anything else is a 404.
	FindForNotice(ctx context.Context, appealID, noticeID uuid.UUID) (*model.Appeal, error)
}

type appealService struct {
	tx           TxManager
	appealRepo   repository.AppealRepository
	decisionRepo repository.DecisionRepository
	noticeRepo   repository.NoticeRepository
	audit        AuditService
	notify       NotifyService
}

func NewAppealService(
	tx TxManager,
	appealRepo repository.AppealRepository,
	decisionRepo repository.DecisionRepository,
	noticeRepo repository.NoticeRepository,
	audit AuditService,
	notify NotifyService,
) AppealService {
	return &appealService{
		tx:           tx,
		appealRepo:   appealRepo,
		decisionRepo: decisionRepo,
		noticeRepo:   noticeRepo,
		audit:        audit,
		notify:       notify,
	}
}

func (s *appealService) File(ctx context.Context, notice *model.Notice, req *dto.FileAppealRequest, actor string) (*model.Appeal, error) {
	decision, err := s.decisionRepo.FindLatestByNoticeID(ctx, notice.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.New(http.StatusConflict, apperror.CodeDecisionPending,
			"no decision exists for this notice yet", nil)
	}
	if err != nil {
		return nil, err
	}

	appeal := &model.Appeal{
		DecisionID: decision.ID,
		FiledBy:    req.FiledBy,
		Arguments:  req.Arguments,
	}

	// Appeal insert and audit append commit together.
	err = s.tx.InTx(ctx, func(r TxRepos) error {
		if err := r.Appeals.Create(ctx, appeal); err != nil {
			return err
		}
		return r.Audit.Record(ctx, model.EntityAppeal, appeal.ID, model.ActionAppealCreate, actor, map[string]interface{}{
			"decisionId": decision.ID,
			"noticeId":   notice.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify.AppealFiled(ctx, notice, appeal)
	return appeal, nil
}

func (s *appealService) Resolve(ctx context.Context, appealID uuid.UUID, outcome model.AppealOutcome, reviewer string) (*model.Appeal, error) {
	if !outcome.Valid() {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "unknown appeal outcome", nil)
	}

	appeal, err := s.appealRepo.FindByID(ctx, appealID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if appeal.Outcome != nil {
		return nil, apperror.New(http.StatusConflict, apperror.CodeConflict, "appeal already resolved", nil)
	}

	now := time.Now().UTC()
	err = s.tx.InTx(ctx, func(r TxRepos) error {
		if err := r.Appeals.Resolve(ctx, appealID, outcome, reviewer, now); err != nil {
			return err
		}
		return r.Audit.Record(ctx, model.EntityAppeal, appealID, model.ActionAppealResolve, reviewer, map[string]interface{}{
			"outcome": outcome,
		})
	})
	if err != nil {
		return nil, err
	}

	appeal.Outcome = &outcome
	appeal.ResolvedAt = &now
	appeal.Reviewer = &reviewer

	decision, err := s.decisionRepo.FindByID(ctx, appeal.DecisionID)
	if err == nil {
		if notice, nerr := s.noticeRepo.FindByID(ctx, decision.NoticeID); nerr == nil {
			s.notify.AppealResolved(ctx, notice, appeal)
		}
	}

	return appeal, nil
}

func (s *appealService) FindForNotice(ctx context.Context, appealID, noticeID uuid.UUID) (*model.Appeal, error) {
	appeal, err := s.appealRepo.FindByID(ctx, appealID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	decision, err := s.decisionRepo.FindByID(ctx, appeal.DecisionID)
	if err != nil || decision.NoticeID != noticeID {
		return nil, apperror.ErrNotFound
	}
	return appeal, nil
}
