package service

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"

	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"github.com/veilpost/dsa-core/pkg/diskstore"
	"gorm.io/gorm"
)

const maxEvidenceURLLen = 2048

// EvidenceQuotas bounds evidence per notice, per type. Zero means unlimited.
type EvidenceQuotas struct {
	MaxFiles     int
	MaxURLs      int
	MaxHashes    int
	MaxFileBytes int64
	MinFreeBytes uint64
}

type EvidenceService interface {
	AddFile(ctx context.Context, noticeID uuid.UUID, file *multipart.FileHeader, actor string) (*model.Evidence, error)
	AddURL(ctx context.Context, noticeID uuid.UUID, rawURL, actor string) (*model.Evidence, error)
	AddHash(ctx context.Context, noticeID uuid.UUID, hash, actor string) (*model.Evidence, error)
	List(ctx context.Context, noticeID uuid.UUID) ([]model.Evidence, error)
	// OpenFile returns the stored file and its original name for download.
	// Only file-type evidence can be opened.
	OpenFile(ctx context.Context, id uuid.UUID) (*os.File, string, error)
}

type evidenceService struct {
	repo       repository.EvidenceRepository
	noticeRepo repository.NoticeRepository
	store      diskstore.FileStore
	quotas     EvidenceQuotas
	audit      AuditService
}

func NewEvidenceService(
	repo repository.EvidenceRepository,
	noticeRepo repository.NoticeRepository,
	store diskstore.FileStore,
	quotas EvidenceQuotas,
	audit AuditService,
) EvidenceService {
	return &evidenceService{
		repo:       repo,
		noticeRepo: noticeRepo,
		store:      store,
		quotas:     quotas,
		audit:      audit,
	}
}

// AddFile accepts a multipart upload. Disk headroom is checked before the
// quota so operators see 507s, not quota noise, when the volume is full.
// The quota check itself is check-then-insert without a transaction:
// concurrent uploads near the boundary can transiently exceed it, which is
// acceptable for an advisory bound.
func (s *evidenceService) AddFile(ctx context.Context, noticeID uuid.UUID, file *multipart.FileHeader, actor string) (*model.Evidence, error) {
	if _, err := s.findNotice(ctx, noticeID); err != nil {
		return nil, err
	}

	if s.quotas.MaxFileBytes > 0 && file.Size > s.quotas.MaxFileBytes {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "file too large", nil)
	}

	free, err := s.store.FreeBytes()
	if err != nil {
		return nil, err
	}
	if free < s.quotas.MinFreeBytes {
		return nil, apperror.New(http.StatusInsufficientStorage, apperror.CodeInsufficientStorage,
			"evidence volume is out of space", nil)
	}

	if err := s.checkQuota(ctx, noticeID, model.EvidenceFile, s.quotas.MaxFiles); err != nil {
		return nil, err
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	storedName, err := s.store.Save(f, file.Filename)
	if err != nil {
		return nil, err
	}

	fileName := file.Filename
	evidence := &model.Evidence{
		NoticeID: noticeID,
		Type:     model.EvidenceFile,
		FileName: &fileName,
		FilePath: &storedName,
	}

	if err := s.repo.Create(ctx, evidence); err != nil {
		// The row never existed; don't leave the file orphaned.
		_ = s.store.Remove(storedName)
		return nil, err
	}

	s.auditAdd(ctx, evidence, actor)
	return evidence, nil
}

func (s *evidenceService) AddURL(ctx context.Context, noticeID uuid.UUID, rawURL, actor string) (*model.Evidence, error) {
	if _, err := s.findNotice(ctx, noticeID); err != nil {
		return nil, err
	}

	if len(rawURL) == 0 || len(rawURL) > maxEvidenceURLLen {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "invalid evidence URL", nil)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			"evidence URL must be http or https", nil)
	}

	if err := s.checkQuota(ctx, noticeID, model.EvidenceURL, s.quotas.MaxURLs); err != nil {
		return nil, err
	}

	evidence := &model.Evidence{
		NoticeID: noticeID,
		Type:     model.EvidenceURL,
		URL:      &rawURL,
	}
	if err := s.repo.Create(ctx, evidence); err != nil {
		return nil, err
	}

	s.auditAdd(ctx, evidence, actor)
	return evidence, nil
}

func (s *evidenceService) AddHash(ctx context.Context, noticeID uuid.UUID, hash, actor string) (*model.Evidence, error) {
	if _, err := s.findNotice(ctx, noticeID); err != nil {
		return nil, err
	}

	if hash == "" || len(hash) > 255 {
		return nil, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "invalid evidence hash", nil)
	}

	if err := s.checkQuota(ctx, noticeID, model.EvidenceHash, s.quotas.MaxHashes); err != nil {
		return nil, err
	}

	evidence := &model.Evidence{
		NoticeID: noticeID,
		Type:     model.EvidenceHash,
		Hash:     &hash,
	}
	if err := s.repo.Create(ctx, evidence); err != nil {
		return nil, err
	}

	s.auditAdd(ctx, evidence, actor)
	return evidence, nil
}

func (s *evidenceService) List(ctx context.Context, noticeID uuid.UUID) ([]model.Evidence, error) {
	if _, err := s.findNotice(ctx, noticeID); err != nil {
		return nil, err
	}
	return s.repo.FindByNoticeID(ctx, noticeID)
}

func (s *evidenceService) OpenFile(ctx context.Context, id uuid.UUID) (*os.File, string, error) {
	evidence, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", apperror.ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	if evidence.Type != model.EvidenceFile || evidence.FilePath == nil {
		return nil, "", apperror.ErrNotFound
	}

	// Open re-validates that the stored path stays inside the evidence root.
	f, err := s.store.Open(*evidence.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", apperror.ErrNotFound
		}
		return nil, "", err
	}

	name := ""
	if evidence.FileName != nil {
		name = *evidence.FileName
	}
	return f, name, nil
}

func (s *evidenceService) findNotice(ctx context.Context, noticeID uuid.UUID) (*model.Notice, error) {
	notice, err := s.noticeRepo.FindByID(ctx, noticeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	return notice, err
}

func (s *evidenceService) checkQuota(ctx context.Context, noticeID uuid.UUID, evType model.EvidenceType, limit int) error {
	if limit <= 0 {
		return nil
	}
	count, err := s.repo.CountByNoticeAndType(ctx, noticeID, evType)
	if err != nil {
		return err
	}
	if count >= int64(limit) {
		return apperror.New(http.StatusConflict, apperror.CodeEvidenceLimit,
			"evidence limit reached for this notice", nil)
	}
	return nil
}

func (s *evidenceService) auditAdd(ctx context.Context, evidence *model.Evidence, actor string) {
	s.audit.RecordAsync(ctx, model.EntityNotice, evidence.NoticeID, model.ActionEvidenceAdd, actor, map[string]interface{}{
		"evidenceId": evidence.ID,
		"type":       evidence.Type,
	})
}
