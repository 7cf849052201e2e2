package service

import (
	"context"
	"log"
	"time"

	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
	"github.com/veilpost/dsa-core/pkg/diskstore"
)

// RetentionReport aggregates what one cleanup run removed.
type RetentionReport struct {
	Notices       int64 `json:"notices"`
	Signals       int64 `json:"signals"`
	Decisions     int64 `json:"decisions"`
	Appeals       int64 `json:"appeals"`
	Evidence      int64 `json:"evidence"`
	EvidenceFiles int64 `json:"evidenceFiles"`
	Notifications int64 `json:"notifications"`
	AuditEntries  int64 `json:"auditEntries"`
}

// RetentionService purges closed cases past the retention window. Notices
// holding a FORWARDED_TO_AUTHORITY decision are retained indefinitely.
type RetentionService interface {
	Run(ctx context.Context) (*RetentionReport, error)
}

type retentionService struct {
	noticeRepo       repository.NoticeRepository
	signalRepo       repository.SignalRepository
	decisionRepo     repository.DecisionRepository
	appealRepo       repository.AppealRepository
	evidenceRepo     repository.EvidenceRepository
	notificationRepo repository.NotificationRepository
	auditRepo        repository.AuditRepository
	store            diskstore.FileStore
	indexer          NoticeIndexer
	retentionMonths  int
	now              func() time.Time
}

func NewRetentionService(
	noticeRepo repository.NoticeRepository,
	signalRepo repository.SignalRepository,
	decisionRepo repository.DecisionRepository,
	appealRepo repository.AppealRepository,
	evidenceRepo repository.EvidenceRepository,
	notificationRepo repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	store diskstore.FileStore,
	indexer NoticeIndexer,
	retentionMonths int,
) RetentionService {
	return &retentionService{
		noticeRepo:       noticeRepo,
		signalRepo:       signalRepo,
		decisionRepo:     decisionRepo,
		appealRepo:       appealRepo,
		evidenceRepo:     evidenceRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		store:            store,
		indexer:          indexer,
		retentionMonths:  retentionMonths,
		now:              time.Now,
	}
}

// Run executes one cleanup pass. Deletions are independent `WHERE id IN`
// batches in child-before-parent order because the store does not enforce
// cascading foreign keys; a partially failed run leaves no orphaned children
// and is safe to re-run.
func (s *retentionService) Run(ctx context.Context) (*RetentionReport, error) {
	report := &RetentionReport{}
	cutoff := s.now().UTC().AddDate(0, -s.retentionMonths, 0)

	noticeIDs, err := s.noticeRepo.FindRetentionExpired(ctx, cutoff, model.OutcomeForwardedToAuthority)
	if err != nil {
		return nil, err
	}

	if len(noticeIDs) > 0 {
		decisionIDs, err := s.decisionRepo.FindIDsByNoticeIDs(ctx, noticeIDs)
		if err != nil {
			return nil, err
		}
		appealIDs, err := s.appealRepo.FindIDsByDecisionIDs(ctx, decisionIDs)
		if err != nil {
			return nil, err
		}
		evidence, err := s.evidenceRepo.FindByNoticeIDs(ctx, noticeIDs)
		if err != nil {
			return nil, err
		}

		// Unlink files before the rows go away; a missing file is fine
		// (a previous partial run may already have removed it).
		for _, ev := range evidence {
			if ev.Type != model.EvidenceFile || ev.FilePath == nil {
				continue
			}
			if err := s.store.Remove(*ev.FilePath); err != nil {
				log.Printf("retention: failed to remove evidence file %s: %v", *ev.FilePath, err)
				continue
			}
			report.EvidenceFiles++
		}

		n, err := s.notificationRepo.DeleteByNoticeIDs(ctx, noticeIDs)
		if err != nil {
			return report, err
		}
		report.Notifications += n

		if n, err = s.auditRepo.DeleteByEntityIDs(ctx, model.EntityAppeal, appealIDs); err != nil {
			return report, err
		}
		report.AuditEntries += n
		if n, err = s.auditRepo.DeleteByEntityIDs(ctx, model.EntityDecision, decisionIDs); err != nil {
			return report, err
		}
		report.AuditEntries += n
		if n, err = s.auditRepo.DeleteByEntityIDs(ctx, model.EntityNotice, noticeIDs); err != nil {
			return report, err
		}
		report.AuditEntries += n

		if n, err = s.appealRepo.DeleteByIDs(ctx, appealIDs); err != nil {
			return report, err
		}
		report.Appeals += n
		if n, err = s.decisionRepo.DeleteByIDs(ctx, decisionIDs); err != nil {
			return report, err
		}
		report.Decisions += n
		if n, err = s.evidenceRepo.DeleteByNoticeIDs(ctx, noticeIDs); err != nil {
			return report, err
		}
		report.Evidence += n
		if n, err = s.noticeRepo.DeleteByIDs(ctx, noticeIDs); err != nil {
			return report, err
		}
		report.Notices += n

		s.indexer.RemoveNotices(noticeIDs)
	}

	// Dismissed signals past the same threshold go too, with their audit rows.
	signalIDs, err := s.signalRepo.FindDismissedBefore(ctx, cutoff)
	if err != nil {
		return report, err
	}
	if len(signalIDs) > 0 {
		n, err := s.auditRepo.DeleteByEntityIDs(ctx, model.EntitySignal, signalIDs)
		if err != nil {
			return report, err
		}
		report.AuditEntries += n

		if n, err = s.signalRepo.DeleteByIDs(ctx, signalIDs); err != nil {
			return report, err
		}
		report.Signals += n
	}

	// Admission gate events belong to no entity row, so age is the only
	// handle retention has on them.
	n, err := s.auditRepo.DeleteByEntityTypeBefore(ctx, model.EntityAdmission, cutoff)
	if err != nil {
		return report, err
	}
	report.AuditEntries += n

	return report, nil
}
