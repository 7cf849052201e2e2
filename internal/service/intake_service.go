package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
)

type IntakeService interface {
	CreateSignal(ctx context.Context, req *dto.CreateSignalRequest, actor string) (*dto.IntakeResponse, error)
	CreateNotice(ctx context.Context, req *dto.CreateNoticeRequest, actor string) (*dto.IntakeResponse, error)
}

type intakeService struct {
	signalRepo    repository.SignalRepository
	noticeRepo    repository.NoticeRepository
	audit         AuditService
	notify        NotifyService
	indexer       NoticeIndexer
	publicBaseURL string
}

func NewIntakeService(
	signalRepo repository.SignalRepository,
	noticeRepo repository.NoticeRepository,
	audit AuditService,
	notify NotifyService,
	indexer NoticeIndexer,
	publicBaseURL string,
) IntakeService {
	return &intakeService{
		signalRepo:    signalRepo,
		noticeRepo:    noticeRepo,
		audit:         audit,
		notify:        notify,
		indexer:       indexer,
		publicBaseURL: publicBaseURL,
	}
}

// newPublicToken returns an opaque unguessable status token. It is generated
// exactly once per case and never rotated.
func newPublicToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

func (s *intakeService) CreateSignal(ctx context.Context, req *dto.CreateSignalRequest, actor string) (*dto.IntakeResponse, error) {
	signal := &model.Signal{
		ContentID:           req.ContentID,
		ContentURL:          req.ContentURL,
		Category:            req.Category,
		ReasonText:          req.ReasonText,
		ReportedContentType: req.ReportedContentType,
		ReportedContent:     req.ReportedContent,
		PublicToken:         newPublicToken(),
	}

	if err := s.signalRepo.Create(ctx, signal); err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, model.EntitySignal, signal.ID, model.ActionCreate, actor, map[string]interface{}{
		"contentId": signal.ContentID,
	})
	s.notify.SignalCreated(ctx, signal)

	return &dto.IntakeResponse{
		ID:        signal.ID.String(),
		Token:     signal.PublicToken,
		StatusURL: s.statusURL(signal.PublicToken),
	}, nil
}

func (s *intakeService) CreateNotice(ctx context.Context, req *dto.CreateNoticeRequest, actor string) (*dto.IntakeResponse, error) {
	notice := &model.Notice{
		ContentID:           req.ContentID,
		ContentURL:          req.ContentURL,
		Category:            req.Category,
		ReasonText:          req.ReasonText,
		ReporterEmail:       req.ReporterEmail,
		ReporterName:        req.ReporterName,
		TruthAffirmation:    req.TruthAffirmation,
		ReportedContentType: req.ReportedContentType,
		ReportedContent:     req.ReportedContent,
		Status:              model.NoticeReceived,
		PublicToken:         newPublicToken(),
	}

	if err := s.noticeRepo.Create(ctx, notice); err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, model.EntityNotice, notice.ID, model.ActionCreate, actor, map[string]interface{}{
		"contentId": notice.ContentID,
	})
	s.notify.NoticeCreated(ctx, notice)
	s.indexer.IndexNotice(notice)

	return &dto.IntakeResponse{
		ID:        notice.ID.String(),
		Token:     notice.PublicToken,
		StatusURL: s.statusURL(notice.PublicToken),
	}, nil
}

func (s *intakeService) statusURL(token string) string {
	return fmt.Sprintf("%s/public/status/%s", strings.TrimRight(s.publicBaseURL, "/"), token)
}
