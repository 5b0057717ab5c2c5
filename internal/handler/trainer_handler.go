package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/service"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
	"github.com/takwin-center/takwin-api/pkg/response"
)

type trainerConfigurator interface {
	Roster(ctx context.Context) (*dto.TrainerConfigResponse, error)
	ModuleRoster(ctx context.Context, moduleID int) (*dto.ModuleRosterResponse, error)
	ReplaceModuleRoster(ctx context.Context, req dto.TrainerConfigRequest) error
	GroupCounts(ctx context.Context) (*dto.GroupCountsResponse, error)
	SetGroupCounts(ctx context.Context, req dto.GroupCountsRequest) error
}

// TrainerHandler exposes roster and group-count configuration endpoints.
type TrainerHandler struct {
	service trainerConfigurator
}

// NewTrainerHandler constructs the handler.
func NewTrainerHandler(svc *service.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: svc}
}

// Roster godoc
// @Summary Get the trainer roster per module
// @Tags Configuration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /config/trainers [get]
func (h *TrainerHandler) Roster(c *gin.Context) {
	result, err := h.service.Roster(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ModuleRoster godoc
// @Summary Get the trainer roster of one module
// @Tags Configuration
// @Produce json
// @Param moduleId path int true "Module ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /config/trainers/{moduleId} [get]
func (h *TrainerHandler) ModuleRoster(c *gin.Context) {
	moduleID, err := strconv.Atoi(c.Param("moduleId"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "moduleId must be a number"))
		return
	}
	result, err := h.service.ModuleRoster(c.Request.Context(), moduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ReplaceRoster godoc
// @Summary Replace the trainer roster of one module
// @Tags Configuration
// @Accept json
// @Param payload body dto.TrainerConfigRequest true "Roster payload"
// @Success 204
// @Router /config/trainers [put]
func (h *TrainerHandler) ReplaceRoster(c *gin.Context) {
	var req dto.TrainerConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid roster payload"))
		return
	}
	if err := h.service.ReplaceModuleRoster(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GroupCounts godoc
// @Summary Get the configured group counts per rank
// @Tags Configuration
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /config/groups [get]
func (h *TrainerHandler) GroupCounts(c *gin.Context) {
	result, err := h.service.GroupCounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SetGroupCounts godoc
// @Summary Set the group counts per rank
// @Tags Configuration
// @Accept json
// @Param payload body dto.GroupCountsRequest true "Group counts payload"
// @Success 204
// @Router /config/groups [put]
func (h *TrainerHandler) SetGroupCounts(c *gin.Context) {
	var req dto.GroupCountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid group counts payload"))
		return
	}
	if err := h.service.SetGroupCounts(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
