package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/handler"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/service"
	"github.com/prop-ie/snag-api/pkg/config"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
)

type stubTokens map[string]models.UserRole

func (s stubTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	role, ok := s[token]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "user-" + token, Role: role}, nil
}

type stubLists struct{ deleted []string }

func (s *stubLists) List(context.Context, dto.SnagListQuery) ([]dto.SnagListSummary, *models.Pagination, error) {
	return []dto.SnagListSummary{}, &models.Pagination{Page: 1, PageSize: 20}, nil
}

func (s *stubLists) Detail(context.Context, string) (*models.SnagListDetail, bool, error) {
	return &models.SnagListDetail{}, false, nil
}

func (s *stubLists) Insights(context.Context, string) (*models.SnagInsights, bool, error) {
	return &models.SnagInsights{}, false, nil
}

func (s *stubLists) Timeline(context.Context, string, int) ([]models.TimelineEntry, error) {
	return nil, nil
}

func (s *stubLists) Create(context.Context, dto.CreateSnagListRequest, service.Actor) (*models.SnagListView, error) {
	return &models.SnagListView{}, nil
}

func (s *stubLists) Update(context.Context, string, dto.UpdateSnagListRequest, service.Actor) (*models.SnagListView, error) {
	return &models.SnagListView{}, nil
}

func (s *stubLists) Delete(_ context.Context, id string, _ service.Actor) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubItems struct{}

func (stubItems) Create(context.Context, string, dto.CreateSnagItemRequest, service.Actor) (*models.SnagItem, error) {
	return &models.SnagItem{}, nil
}

func (stubItems) Update(context.Context, string, string, dto.UpdateSnagItemRequest, service.Actor) (*models.SnagItem, error) {
	return &models.SnagItem{}, nil
}

func (stubItems) AddComment(context.Context, string, string, dto.AddSnagItemUpdateRequest, service.Actor) (*models.SnagItemUpdate, error) {
	return &models.SnagItemUpdate{}, nil
}

type stubReports struct{}

func (stubReports) Generate(context.Context, string, dto.SnagReportRequest, service.Actor) (*dto.SnagReportResponse, error) {
	return &dto.SnagReportResponse{}, nil
}

func (stubReports) ResolveDownload(context.Context, string) (*service.ReportDownload, error) {
	return &service.ReportDownload{
		ID:          "exp-1",
		Body:        io.NopCloser(strings.NewReader("csv")),
		Filename:    "report.csv",
		ContentType: "text/csv",
	}, nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditLog
}

func (r *recordingAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, log)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubLists, *recordingAudit) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	lists := &stubLists{}
	audit := &recordingAudit{}
	metrics := service.NewMetricsService()
	router := NewRouter(Dependencies{
		Config:  &config.Config{Env: config.EnvDevelopment, APIPrefix: "/api/v1"},
		Metrics: metrics,
		Tokens: stubTokens{
			"admin":     models.RoleAdmin,
			"inspector": models.RoleInspector,
			"buyer":     models.RoleBuyer,
		},
		Audit: audit,
		Handlers: Handlers{
			SnagLists: handler.NewSnagListHandler(lists),
			SnagItems: handler.NewSnagItemHandler(stubItems{}),
			Reports:   handler.NewReportHandler(stubReports{}, nil),
			Metrics:   handler.NewMetricsHandler(metrics, nil),
		},
	})
	return router, lists, audit
}

func perform(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterPublicEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/metrics", "", "").Code)
}

func TestRouterRequiresToken(t *testing.T) {
	router, _, _ := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/api/v1/snag-lists", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(router, http.MethodGet, "/api/v1/snag-lists", "forged", "").Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/api/v1/snag-lists", "buyer", "").Code)
}

func TestRouterEnforcesRoles(t *testing.T) {
	router, lists, _ := newTestRouter(t)

	rec := perform(router, http.MethodPost, "/api/v1/snag-lists", "buyer", `{"propertyId":"p1","title":"Walkthrough"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(router, http.MethodPost, "/api/v1/snag-lists", "inspector", `{"propertyId":"p1","title":"Walkthrough"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = perform(router, http.MethodDelete, "/api/v1/snag-lists/list-1", "admin", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"list-1"}, lists.deleted)

	rec = perform(router, http.MethodGet, "/api/v1/admin/metrics", "inspector", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(router, http.MethodPost, "/api/v1/snag-lists/list-1/items/item-1/updates", "buyer", `{"content":"Seen on visit"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouterAuditsDownloads(t *testing.T) {
	router, _, audit := newTestRouter(t)

	rec := perform(router, http.MethodGet, "/api/v1/exports/download?token=signed", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", rec.Body.String())

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, models.AuditActionSnagReportDownloaded, entry.Action)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "exp-1", *entry.ResourceID)
}
