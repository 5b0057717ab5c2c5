package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/takwin-center/takwin-api/internal/catalog"
	"github.com/takwin-center/takwin-api/internal/dto"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
	"github.com/takwin-center/takwin-api/pkg/response"
)

// CatalogHandler serves the compiled-in curriculum: modules, sessions and the
// per-session syllabus of each module.
type CatalogHandler struct{}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// Modules godoc
// @Summary List the curriculum modules
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/modules [get]
func (h *CatalogHandler) Modules(c *gin.Context) {
	response.JSON(c, http.StatusOK, catalog.Modules, nil)
}

// Sessions godoc
// @Summary List the teaching sessions of the cycle
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/sessions [get]
func (h *CatalogHandler) Sessions(c *gin.Context) {
	response.JSON(c, http.StatusOK, catalog.Sessions, nil)
}

// Syllabus godoc
// @Summary Get one module's topic list for a session
// @Tags Catalog
// @Produce json
// @Param moduleId path int true "Module ID"
// @Param session_id query int true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /catalog/modules/{moduleId}/syllabus [get]
func (h *CatalogHandler) Syllabus(c *gin.Context) {
	moduleID, err := strconv.Atoi(c.Param("moduleId"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "moduleId must be a number"))
		return
	}
	sessionID, err := strconv.Atoi(c.Query("session_id"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "session_id must be a number"))
		return
	}
	topics, err := catalog.Syllabus(moduleID, sessionID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, "no syllabus for this module and session"))
		return
	}
	response.JSON(c, http.StatusOK, dto.SyllabusResponse{
		ModuleID:  moduleID,
		SessionID: sessionID,
		Topics:    topics,
	}, nil)
}
