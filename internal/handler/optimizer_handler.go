package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/dto"
	"github.com/takwin-center/takwin-api/internal/service"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
	"github.com/takwin-center/takwin-api/pkg/response"
)

type gapOptimizer interface {
	Analyze(ctx context.Context, sessionID int) (*dto.AnalyzeResponse, error)
	Propose(ctx context.Context, req dto.ProposeSwapRequest) (*dto.ProposeSwapResponse, error)
	ApplySwap(ctx context.Context, req dto.ApplySwapRequest) error
}

// OptimizerHandler exposes gap analysis and corrective swap endpoints.
type OptimizerHandler struct {
	service gapOptimizer
}

// NewOptimizerHandler constructs the handler.
func NewOptimizerHandler(svc *service.OptimizerService) *OptimizerHandler {
	return &OptimizerHandler{service: svc}
}

// Analyze godoc
// @Summary Analyze trainer schedule fragmentation
// @Description Reports isolated hours and idle gaps in the session's active timetable, worst first.
// @Tags Optimizer
// @Produce json
// @Param sessionId path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/optimizer/issues [get]
func (h *OptimizerHandler) Analyze(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Analyze(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Propose godoc
// @Summary Propose a corrective swap for a reported issue
// @Description Returns the best conflict-free exchange, or a null proposal when no automatic fix exists.
// @Tags Optimizer
// @Accept json
// @Produce json
// @Param payload body dto.ProposeSwapRequest true "Propose payload"
// @Success 200 {object} response.Envelope
// @Router /optimizer/propose [post]
func (h *OptimizerHandler) Propose(c *gin.Context) {
	var req dto.ProposeSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid propose payload"))
		return
	}
	result, err := h.service.Propose(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Apply godoc
// @Summary Apply a proposed swap
// @Description Re-validates the proposal against the current timetable and commits both slot changes.
// @Tags Optimizer
// @Accept json
// @Param payload body dto.ApplySwapRequest true "Apply payload"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /optimizer/apply [post]
func (h *OptimizerHandler) Apply(c *gin.Context) {
	var req dto.ApplySwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid apply payload"))
		return
	}
	if err := h.service.ApplySwap(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
