package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/service"
	"github.com/takwin-center/takwin-api/pkg/response"
)

type timetableExporter interface {
	CSV(ctx context.Context, sessionID int) ([]byte, error)
	PDF(ctx context.Context, sessionID int) ([]byte, error)
}

// ExportHandler serves printable timetable downloads.
type ExportHandler struct {
	service timetableExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// CSV godoc
// @Summary Download the active timetable as CSV
// @Tags Exports
// @Produce text/csv
// @Param sessionId path int true "Session ID"
// @Success 200 {file} file
// @Router /sessions/{sessionId}/export/csv [get]
func (h *ExportHandler) CSV(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.CSV(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-session-%d.csv", sessionID))
	c.Data(http.StatusOK, "text/csv", payload)
}

// PDF godoc
// @Summary Download the active timetable as PDF
// @Tags Exports
// @Produce application/pdf
// @Param sessionId path int true "Session ID"
// @Success 200 {file} file
// @Router /sessions/{sessionId}/export/pdf [get]
func (h *ExportHandler) PDF(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.PDF(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=timetable-session-%d.pdf", sessionID))
	c.Data(http.StatusOK, "application/pdf", payload)
}
