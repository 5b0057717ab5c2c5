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

type timetableProvider interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error)
	Get(ctx context.Context, sessionID int) (*dto.TimetableResponse, error)
	TrainerSchedules(ctx context.Context, sessionID int) (*dto.TrainerScheduleResponse, error)
	GetVersion(ctx context.Context, versionID string) (*dto.TimetableResponse, error)
	Versions(ctx context.Context, sessionID int) (*dto.TimetableVersionListResponse, error)
	Publish(ctx context.Context, versionID string) error
}

// TimetableHandler exposes timetable generation and version endpoints.
type TimetableHandler struct {
	service timetableProvider
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate godoc
// @Summary Generate a fresh timetable for a session
// @Description Runs the randomized constructive search and stores the result as a new draft version. Pass a seed for a reproducible run.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generate payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Get godoc
// @Summary Get the active timetable of a session
// @Description Returns the published version, or the newest draft when nothing is published yet.
// @Tags Timetables
// @Produce json
// @Param sessionId path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// TrainerSchedules godoc
// @Summary Get the active timetable projected by trainer
// @Description Groups the session's assignments per person, unifying trainers registered under several modules by name.
// @Tags Timetables
// @Produce json
// @Param sessionId path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{sessionId}/timetable/trainers [get]
func (h *TimetableHandler) TrainerSchedules(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.TrainerSchedules(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Versions godoc
// @Summary List stored timetable versions of a session
// @Tags Timetables
// @Produce json
// @Param sessionId path int true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId}/timetable/versions [get]
func (h *TimetableHandler) Versions(c *gin.Context) {
	sessionID, err := sessionIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Versions(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetVersion godoc
// @Summary Get one stored timetable version in full
// @Tags Timetables
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/versions/{id} [get]
func (h *TimetableHandler) GetVersion(c *gin.Context) {
	result, err := h.service.GetVersion(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Publish godoc
// @Summary Publish a draft timetable version
// @Description Promotes the version to published and archives the previously published one.
// @Tags Timetables
// @Param id path string true "Version ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /timetables/versions/{id}/publish [post]
func (h *TimetableHandler) Publish(c *gin.Context) {
	if err := h.service.Publish(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
