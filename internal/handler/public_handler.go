package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/repository"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"github.com/veilpost/dsa-core/pkg/response"
	"github.com/veilpost/dsa-core/pkg/validator"
	"gorm.io/gorm"
)

// PublicHandler serves the token-gated public case surface. Every route
// resolves the opaque status token first; unknown and malformed tokens are
// both plain 404s.
type PublicHandler struct {
	cases      service.CaseService
	appeals    service.AppealService
	evidence   service.EvidenceService
	noticeRepo repository.NoticeRepository
}

func NewPublicHandler(cases service.CaseService, appeals service.AppealService, evidence service.EvidenceService, noticeRepo repository.NoticeRepository) *PublicHandler {
	return &PublicHandler{
		cases:      cases,
		appeals:    appeals,
		evidence:   evidence,
		noticeRepo: noticeRepo,
	}
}

func (h *PublicHandler) GetStatus(c *gin.Context) {
	resp, err := h.cases.GetStatusByToken(c.Request.Context(), c.Param("token"),
		service.PublicActor(c.ClientIP()))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PublicHandler) FileAppeal(c *gin.Context) {
	notice, err := h.findNotice(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.FileAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	appeal, err := h.appeals.File(c.Request.Context(), notice, &req, service.PublicActor(c.ClientIP()))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: appeal.ID.String()})
}

// AddAppealFileEvidence attaches a multipart file to the notice in
// association with an appeal.
func (h *PublicHandler) AddAppealFileEvidence(c *gin.Context) {
	notice, ok := h.findNoticeWithAppeal(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			"multipart field 'file' is required", err))
		return
	}

	evidence, err := h.evidence.AddFile(c.Request.Context(), notice.ID, file, service.PublicActor(c.ClientIP()))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: evidence.ID.String()})
}

func (h *PublicHandler) AddAppealURLEvidence(c *gin.Context) {
	notice, ok := h.findNoticeWithAppeal(c)
	if !ok {
		return
	}

	var req dto.AddURLEvidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	evidence, err := h.evidence.AddURL(c.Request.Context(), notice.ID, req.URL, service.PublicActor(c.ClientIP()))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: evidence.ID.String()})
}

// DownloadEvidence streams file evidence belonging to the token's notice.
func (h *PublicHandler) DownloadEvidence(c *gin.Context) {
	notice, err := h.findNotice(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	evidenceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound)
		return
	}

	// The evidence row must belong to this token's notice.
	rows, err := h.evidence.List(c.Request.Context(), notice.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	owned := false
	for _, row := range rows {
		if row.ID == evidenceID {
			owned = true
			break
		}
	}
	if !owned {
		response.Error(c, apperror.ErrNotFound)
		return
	}

	f, name, err := h.evidence.OpenFile(c.Request.Context(), evidenceID)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	c.FileAttachment(f.Name(), name)
}

func (h *PublicHandler) findNotice(c *gin.Context) (*model.Notice, error) {
	notice, err := h.noticeRepo.FindByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}
	return notice, nil
}

func (h *PublicHandler) findNoticeWithAppeal(c *gin.Context) (*model.Notice, bool) {
	notice, err := h.findNotice(c)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}

	appealID, err := uuid.Parse(c.Param("appealId"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound)
		return nil, false
	}

	if _, err := h.appeals.FindForNotice(c.Request.Context(), appealID, notice.ID); err != nil {
		response.Error(c, err)
		return nil, false
	}

	return notice, true
}
