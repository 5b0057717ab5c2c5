package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func catalogRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewCatalogHandler()
	router := gin.New()
	router.GET("/catalog/modules", handler.Modules)
	router.GET("/catalog/modules/:moduleId/syllabus", handler.Syllabus)
	router.GET("/catalog/sessions", handler.Sessions)
	return router
}

func TestCatalogModulesListsTheFullCurriculum(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/catalog/modules", nil)

	catalogRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 7)
}

func TestCatalogSyllabusReturnsTopics(t *testing.T) {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/catalog/modules/1/syllabus?session_id=1", nil)

	catalogRouter().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			ModuleID  int `json:"module_id"`
			SessionID int `json:"session_id"`
			Topics    []struct {
				Title    string `json:"title"`
				Duration int    `json:"duration"`
			} `json:"topics"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 1, body.Data.ModuleID)
	require.NotEmpty(t, body.Data.Topics)
}

func TestCatalogSyllabusRejectsBadInput(t *testing.T) {
	router := catalogRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/catalog/modules/abc/syllabus?session_id=1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/catalog/modules/1/syllabus", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/catalog/modules/99/syllabus?session_id=1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
