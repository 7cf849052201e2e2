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

// CaseService owns the notice state machine, decision recording, and the
// public token-gated status view.
type CaseService interface {
	GetNotice(ctx context.Context, id uuid.UUID) (*model.Notice, error)
	ListNotices(ctx context.Context, status *model.NoticeStatus, limit, offset int) ([]model.Notice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, next model.NoticeStatus, actor string) error
	RecordDecision(ctx context.Context, noticeID uuid.UUID, req *dto.CreateDecisionRequest, actor string) (*model.Decision, error)
	GetStatusByToken(ctx context.Context, token, actor string) (*dto.CaseStatusResponse, error)
	DismissSignal(ctx context.Context, id uuid.UUID, actor string) error
	NoticeStats(ctx context.Context) (*dto.NoticeStatsResponse, error)
	SignalStats(ctx context.Context) (*dto.SignalStatsResponse, error)
}

type caseService struct {
	tx           TxManager
	noticeRepo   repository.NoticeRepository
	signalRepo   repository.SignalRepository
	decisionRepo repository.DecisionRepository
	evidenceRepo repository.EvidenceRepository
	appealRepo   repository.AppealRepository
	audit        AuditService
	notify       NotifyService
	indexer      NoticeIndexer
}

func NewCaseService(
	tx TxManager,
	noticeRepo repository.NoticeRepository,
	signalRepo repository.SignalRepository,
	decisionRepo repository.DecisionRepository,
	evidenceRepo repository.EvidenceRepository,
	appealRepo repository.AppealRepository,
	audit AuditService,
	notify NotifyService,
	indexer NoticeIndexer,
) CaseService {
	return &caseService{
		tx:           tx,
		noticeRepo:   noticeRepo,
		signalRepo:   signalRepo,
		decisionRepo: decisionRepo,
		evidenceRepo: evidenceRepo,
		appealRepo:   appealRepo,
		audit:        audit,
		notify:       notify,
		indexer:      indexer,
	}
}

func (s *caseService) GetNotice(ctx context.Context, id uuid.UUID) (*model.Notice, error) {
	notice, err := s.noticeRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	return notice, err
}

func (s *caseService) ListNotices(ctx context.Context, status *model.NoticeStatus, limit, offset int) ([]model.Notice, error) {
	return s.noticeRepo.List(ctx, status, limit, offset)
}

// UpdateStatus moves a notice forward in review. The state machine is
// forward-only: RECEIVED -> UNDER_REVIEW -> DECIDED, no rollback.
func (s *caseService) UpdateStatus(ctx context.Context, id uuid.UUID, next model.NoticeStatus, actor string) error {
	if !next.Valid() {
		return apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "unknown status", nil)
	}

	// DECIDED is only ever entered by recording a decision.
	if next == model.NoticeDecided {
		return apperror.New(http.StatusConflict, apperror.CodeConflict,
			"record a decision to move a notice to DECIDED", nil)
	}

	notice, err := s.GetNotice(ctx, id)
	if err != nil {
		return err
	}

	if !notice.Status.CanTransitionTo(next) {
		return apperror.New(http.StatusConflict, apperror.CodeConflict,
			"status can only move forward", nil)
	}

	if err := s.noticeRepo.UpdateStatus(ctx, id, next); err != nil {
		return err
	}

	s.audit.RecordAsync(ctx, model.EntityNotice, id, model.ActionStatusChange, actor, map[string]interface{}{
		"from": notice.Status,
		"to":   next,
	})

	notice.Status = next
	s.indexer.IndexNotice(notice)
	return nil
}

// RecordDecision creates a decision and forces the notice to DECIDED. The
// decision insert, the status update and both audit entries commit in one
// transaction; notification dispatch stays outside it.
func (s *caseService) RecordDecision(ctx context.Context, noticeID uuid.UUID, req *dto.CreateDecisionRequest, actor string) (*model.Decision, error) {
	if !req.Outcome.Valid() {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "unknown outcome", nil)
	}

	notice, err := s.GetNotice(ctx, noticeID)
	if err != nil {
		return nil, err
	}

	decision := &model.Decision{
		NoticeID:      noticeID,
		Outcome:       req.Outcome,
		LegalBasis:    req.LegalBasis,
		TosBasis:      req.TosBasis,
		AutomatedUsed: req.AutomatedUsed,
		DecidedBy:     actor,
		DecidedAt:     time.Now().UTC(),
		Statement:     req.Statement,
	}

	err = s.tx.InTx(ctx, func(r TxRepos) error {
		if err := r.Decisions.Create(ctx, decision); err != nil {
			return err
		}
		if notice.Status != model.NoticeDecided {
			if err := r.Notices.UpdateStatus(ctx, noticeID, model.NoticeDecided); err != nil {
				return err
			}
		}

		if err := r.Audit.Record(ctx, model.EntityDecision, decision.ID, model.ActionCreate, actor, map[string]interface{}{
			"noticeId": noticeID,
			"outcome":  decision.Outcome,
		}); err != nil {
			return err
		}
		return r.Audit.Record(ctx, model.EntityNotice, noticeID, model.ActionStatusChange, actor, map[string]interface{}{
			"from": notice.Status,
			"to":   model.NoticeDecided,
		})
	})
	if err != nil {
		return nil, err
	}

	notice.Status = model.NoticeDecided
	s.notify.DecisionRecorded(ctx, notice, decision)
	s.indexer.IndexNotice(notice)
	return decision, nil
}

// GetStatusByToken resolves an opaque public token to its case view. Tokens
// are looked up against notices first, then signals; unknown tokens are
// indistinguishable from malformed ones (both 404).
func (s *caseService) GetStatusByToken(ctx context.Context, token, actor string) (*dto.CaseStatusResponse, error) {
	notice, err := s.noticeRepo.FindByToken(ctx, token)
	if err == nil {
		return s.noticeStatusView(ctx, notice, actor)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	signal, err := s.signalRepo.FindByToken(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, model.EntitySignal, signal.ID, model.ActionStatusView, actor, nil)

	return &dto.CaseStatusResponse{
		EntityType: string(model.EntitySignal),
		Signal:     signal,
		Evidence:   []model.Evidence{},
		Appeals:    []model.Appeal{},
		Audit:      []model.AuditLogEntry{},
	}, nil
}

func (s *caseService) noticeStatusView(ctx context.Context, notice *model.Notice, actor string) (*dto.CaseStatusResponse, error) {
	resp := &dto.CaseStatusResponse{
		EntityType: string(model.EntityNotice),
		Notice:     notice,
		Evidence:   []model.Evidence{},
		Appeals:    []model.Appeal{},
		Audit:      []model.AuditLogEntry{},
	}

	decision, err := s.decisionRepo.FindLatestByNoticeID(ctx, notice.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	resp.Decision = decision

	if evidence, err := s.evidenceRepo.FindByNoticeID(ctx, notice.ID); err == nil && evidence != nil {
		resp.Evidence = evidence
	}

	decisionIDs, err := s.decisionRepo.FindIDsByNoticeIDs(ctx, []uuid.UUID{notice.ID})
	if err != nil {
		return nil, err
	}
	if appeals, err := s.appealRepo.FindByDecisionIDs(ctx, decisionIDs); err == nil && appeals != nil {
		resp.Appeals = appeals
	}

	if trail, err := s.audit.Trail(ctx, model.EntityNotice, notice.ID); err == nil && trail != nil {
		resp.Audit = trail
	}

	s.audit.RecordAsync(ctx, model.EntityNotice, notice.ID, model.ActionStatusView, actor, nil)
	return resp, nil
}

func (s *caseService) DismissSignal(ctx context.Context, id uuid.UUID, actor string) error {
	if _, err := s.signalRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.signalRepo.Dismiss(ctx, id, time.Now().UTC()); err != nil {
		return err
	}

	s.audit.RecordAsync(ctx, model.EntitySignal, id, model.ActionDismiss, actor, nil)
	return nil
}

func (s *caseService) NoticeStats(ctx context.Context) (*dto.NoticeStatsResponse, error) {
	byStatus, err := s.noticeRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range byStatus {
		total += n
	}

	decisions, err := s.decisionRepo.CountAll(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.NoticeStatsResponse{
		Total:     total,
		ByStatus:  byStatus,
		Decisions: decisions,
	}, nil
}

func (s *caseService) SignalStats(ctx context.Context) (*dto.SignalStatsResponse, error) {
	total, dismissed, err := s.signalRepo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.SignalStatsResponse{
		Total:     total,
		Dismissed: dismissed,
		Open:      total - dismissed,
	}, nil
}
