package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/model"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"github.com/veilpost/dsa-core/pkg/response"
	"github.com/veilpost/dsa-core/pkg/validator"
)

// AdminHandler serves the JWT-guarded moderation backend.
type AdminHandler struct {
	cases    service.CaseService
	appeals  service.AppealService
	evidence service.EvidenceService
	audit    service.AuditService
	notify   service.NotifyService
	indexer  service.NoticeIndexer
}

func NewAdminHandler(
	cases service.CaseService,
	appeals service.AppealService,
	evidence service.EvidenceService,
	audit service.AuditService,
	notify service.NotifyService,
	indexer service.NoticeIndexer,
) *AdminHandler {
	return &AdminHandler{
		cases:    cases,
		appeals:  appeals,
		evidence: evidence,
		audit:    audit,
		notify:   notify,
		indexer:  indexer,
	}
}

func (h *AdminHandler) ListNotices(c *gin.Context) {
	var status *model.NoticeStatus
	if raw := c.Query("status"); raw != "" {
		s := model.NoticeStatus(raw)
		if !s.Valid() {
			response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "unknown status filter", nil))
			return
		}
		status = &s
	}

	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	notices, err := h.cases.ListNotices(c.Request.Context(), status, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": notices})
}

func (h *AdminHandler) GetNotice(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	notice, err := h.cases.GetNotice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, notice)
}

func (h *AdminHandler) UpdateNoticeStatus(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.UpdateNoticeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	actor, err := adminActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.cases.UpdateStatus(c.Request.Context(), id, req.Status, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *AdminHandler) RecordDecision(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.CreateDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	actor, err := adminActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	decision, err := h.cases.RecordDecision(c.Request.Context(), id, &req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: decision.ID.String()})
}

func (h *AdminHandler) ResolveAppeal(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	var req dto.ResolveAppealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	actor, err := adminActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	appeal, err := h.appeals.Resolve(c.Request.Context(), id, req.Outcome, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, appeal)
}

func (h *AdminHandler) ListEvidence(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	rows, err := h.evidence.List(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// AddEvidence accepts multipart file uploads and JSON url/hash bodies on the
// same route, discriminated by content type.
func (h *AdminHandler) AddEvidence(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, err := adminActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if file, ferr := c.FormFile("file"); ferr == nil {
		evidence, err := h.evidence.AddFile(c.Request.Context(), id, file, actor)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusCreated, dto.CreatedResponse{ID: evidence.ID.String()})
		return
	}

	var body struct {
		URL  string `json:"url"`
		Hash string `json:"hash"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			"expected a multipart file or a JSON body with url or hash", err))
		return
	}

	var evidence *model.Evidence
	switch {
	case body.URL != "":
		evidence, err = h.evidence.AddURL(c.Request.Context(), id, body.URL, actor)
	case body.Hash != "":
		evidence, err = h.evidence.AddHash(c.Request.Context(), id, body.Hash, actor)
	default:
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			"either url or hash is required", nil))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: evidence.ID.String()})
}

func (h *AdminHandler) DismissSignal(c *gin.Context) {
	id, err := pathUUID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	actor, err := adminActor(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.cases.DismissSignal(c.Request.Context(), id, actor); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RecordNotification logs a notification the content backend delivered on
// our behalf.
func (h *AdminHandler) RecordNotification(c *gin.Context) {
	var req dto.RecordNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	record := &model.NotificationRecord{
		Stakeholder: req.Stakeholder,
		Channel:     req.Channel,
	}
	if req.NoticeID != nil {
		id, err := uuid.Parse(*req.NoticeID)
		if err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "invalid noticeId", err))
			return
		}
		record.NoticeID = &id
	}
	if req.DecisionID != nil {
		id, err := uuid.Parse(*req.DecisionID)
		if err != nil {
			response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "invalid decisionId", err))
			return
		}
		record.DecisionID = &id
	}
	if req.Payload != nil {
		if raw, err := json.Marshal(req.Payload); err == nil {
			record.Payload = raw
		}
	}
	if req.Meta != nil {
		if raw, err := json.Marshal(req.Meta); err == nil {
			record.Meta = raw
		}
	}

	if err := h.notify.RecordExternal(c.Request.Context(), record); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreatedResponse{ID: record.ID.String()})
}

func (h *AdminHandler) GetAuditTrail(c *gin.Context) {
	entityType := model.EntityType(c.Param("entityType"))
	if !entityType.Valid() {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "unknown entity type", nil))
		return
	}

	entityID, err := pathUUID(c, "entityId")
	if err != nil {
		response.Error(c, err)
		return
	}

	entries, err := h.audit.Trail(c.Request.Context(), entityType, entityID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *AdminHandler) NoticeStats(c *gin.Context) {
	stats, err := h.cases.NoticeStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) SignalStats(c *gin.Context) {
	stats, err := h.cases.SignalStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) SearchNotices(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest, "query parameter q is required", nil))
		return
	}

	ids, err := h.indexer.Search(query, int64(queryInt(c, "limit", 20)))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ids})
}

func adminActor(c *gin.Context) (string, error) {
	sub, err := response.AdminSubject(c)
	if err != nil {
		return "", err
	}
	return service.AdminActor(sub), nil
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.ErrNotFound
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
