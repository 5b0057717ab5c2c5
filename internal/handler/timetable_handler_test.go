package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/takwin-center/takwin-api/internal/dto"
	internalmiddleware "github.com/takwin-center/takwin-api/internal/middleware"
	"github.com/takwin-center/takwin-api/internal/models"
	appErrors "github.com/takwin-center/takwin-api/pkg/errors"
)

type timetableProviderMock struct {
	captured    dto.GenerateTimetableRequest
	generateErr error
	published   []string
}

func (m *timetableProviderMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	m.captured = req
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	return &dto.TimetableResponse{VersionID: "v-1", SessionID: req.SessionID, Version: 1}, nil
}

func (m *timetableProviderMock) Get(ctx context.Context, sessionID int) (*dto.TimetableResponse, error) {
	return &dto.TimetableResponse{VersionID: "v-1", SessionID: sessionID}, nil
}

func (m *timetableProviderMock) TrainerSchedules(ctx context.Context, sessionID int) (*dto.TrainerScheduleResponse, error) {
	return &dto.TrainerScheduleResponse{SessionID: sessionID, VersionID: "v-1"}, nil
}

func (m *timetableProviderMock) GetVersion(ctx context.Context, versionID string) (*dto.TimetableResponse, error) {
	return &dto.TimetableResponse{VersionID: versionID}, nil
}

func (m *timetableProviderMock) Versions(ctx context.Context, sessionID int) (*dto.TimetableVersionListResponse, error) {
	return &dto.TimetableVersionListResponse{SessionID: sessionID}, nil
}

func (m *timetableProviderMock) Publish(ctx context.Context, versionID string) error {
	m.published = append(m.published, versionID)
	return nil
}

func TestTimetableGenerateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableProviderMock{}
	handler := &TimetableHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"session_id":1,"seed":42}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, 1, mockSvc.captured.SessionID)
	require.NotNil(t, mockSvc.captured.Seed)
	require.Equal(t, int64(42), *mockSvc.captured.Seed)
}

func TestTimetableGenerateMalformedPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableProviderMock{}}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"session_id":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableGenerateInfeasible(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableProviderMock{generateErr: appErrors.Clone(appErrors.ErrInfeasible, "no feasible timetable found")}
	handler := &TimetableHandler{service: mockSvc}
	req, _ := http.NewRequest(http.MethodPost, "/timetables/generate", bytes.NewReader([]byte(`{"session_id":1}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTimetableGetRejectsBadSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableProviderMock{}}
	router := gin.New()
	router.GET("/sessions/:sessionId/timetable", handler.Get)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/sessions/abc/timetable", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetablePublishRequiresRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableProviderMock{}
	handler := &TimetableHandler{service: mockSvc}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.AccessClaims{UserID: "u-1", Role: models.RoleViewer})
		c.Next()
	})
	router.POST("/timetables/versions/:id/publish", internalmiddleware.RequireRoles(models.RoleAdmin), handler.Publish)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions/v-1/publish", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, mockSvc.published)
}

func TestTimetablePublishAsAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableProviderMock{}
	handler := &TimetableHandler{service: mockSvc}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.AccessClaims{UserID: "u-1", Role: models.RoleAdmin})
		c.Next()
	})
	router.POST("/timetables/versions/:id/publish", internalmiddleware.RequireRoles(models.RoleAdmin), handler.Publish)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/timetables/versions/v-1/publish", nil)

	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"v-1"}, mockSvc.published)
}
