package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/veilpost/dsa-core/internal/dto"
	"github.com/veilpost/dsa-core/internal/service"
	"github.com/veilpost/dsa-core/pkg/apperror"
	"github.com/veilpost/dsa-core/pkg/response"
	"github.com/veilpost/dsa-core/pkg/validator"
)

// IntakeHandler serves the service-to-service case creation endpoints.
type IntakeHandler struct {
	intake service.IntakeService
}

func NewIntakeHandler(intake service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

func (h *IntakeHandler) CreateSignal(c *gin.Context) {
	var req dto.CreateSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	resp, err := h.intake.CreateSignal(c.Request.Context(), &req, service.SystemActor("intake"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *IntakeHandler) CreateNotice(c *gin.Context) {
	var req dto.CreateNoticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, apperror.CodeBadRequest,
			validator.FormatValidationError(err), err))
		return
	}

	resp, err := h.intake.CreateNotice(c.Request.Context(), &req, service.SystemActor("intake"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
