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

type slotEditor interface {
	MoveSlot(ctx context.Context, req dto.MoveSlotRequest) error
}

// EditorHandler exposes manual timetable editing endpoints.
type EditorHandler struct {
	service slotEditor
}

// NewEditorHandler constructs the handler.
func NewEditorHandler(svc *service.EditorService) *EditorHandler {
	return &EditorHandler{service: svc}
}

// Move godoc
// @Summary Move one group slot to another cell
// @Description Validates trainer availability at the destination (and for any displaced slot at the source) before committing.
// @Tags Editor
// @Accept json
// @Param payload body dto.MoveSlotRequest true "Move payload"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /editor/move [post]
func (h *EditorHandler) Move(c *gin.Context) {
	var req dto.MoveSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	if err := h.service.MoveSlot(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
