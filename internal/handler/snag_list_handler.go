package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/middleware"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/service"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
	"github.com/prop-ie/snag-api/pkg/response"
)

type snagListService interface {
	List(ctx context.Context, query dto.SnagListQuery) ([]dto.SnagListSummary, *models.Pagination, error)
	Detail(ctx context.Context, id string) (*models.SnagListDetail, bool, error)
	Insights(ctx context.Context, id string) (*models.SnagInsights, bool, error)
	Timeline(ctx context.Context, id string, limit int) ([]models.TimelineEntry, error)
	Create(ctx context.Context, req dto.CreateSnagListRequest, actor service.Actor) (*models.SnagListView, error)
	Update(ctx context.Context, id string, req dto.UpdateSnagListRequest, actor service.Actor) (*models.SnagListView, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
}

// SnagListHandler exposes snag list endpoints.
type SnagListHandler struct {
	lists snagListService
}

// NewSnagListHandler constructs the handler.
func NewSnagListHandler(lists snagListService) *SnagListHandler {
	return &SnagListHandler{lists: lists}
}

// List godoc
// @Summary List snag lists
// @Tags SnagLists
// @Produce json
// @Param propertyId query string false "Property ID"
// @Param status query []string false "Status filter (repeatable or comma separated)"
// @Param priority query string false "Priority"
// @Param search query string false "Title/description search"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Router /snag-lists [get]
func (h *SnagListHandler) List(c *gin.Context) {
	var query dto.SnagListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	rows, pagination, err := h.lists.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, pagination, middleware.ResponseMeta(c))
}

// Create godoc
// @Summary Create snag list
// @Tags SnagLists
// @Accept json
// @Produce json
// @Param payload body dto.CreateSnagListRequest true "Snag list"
// @Success 201 {object} response.Envelope
// @Router /snag-lists [post]
func (h *SnagListHandler) Create(c *gin.Context) {
	var req dto.CreateSnagListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.lists.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Snag list with analytics, timeline, progress and recommendations
// @Tags SnagLists
// @Produce json
// @Param id path string true "Snag list ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /snag-lists/{id} [get]
func (h *SnagListHandler) Get(c *gin.Context) {
	detail, hit, err := h.lists.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, detail, nil, middleware.ResponseMeta(c))
}

// Analytics godoc
// @Summary Snag list analytics, progress and recommendations
// @Tags SnagLists
// @Produce json
// @Param id path string true "Snag list ID"
// @Success 200 {object} response.Envelope
// @Router /snag-lists/{id}/analytics [get]
func (h *SnagListHandler) Analytics(c *gin.Context) {
	insights, hit, err := h.lists.Insights(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, insights, nil, middleware.ResponseMeta(c))
}

// Timeline godoc
// @Summary Snag list activity timeline
// @Tags SnagLists
// @Produce json
// @Param id path string true "Snag list ID"
// @Param limit query int false "Maximum entries (default 20, max 100)"
// @Success 200 {object} response.Envelope
// @Router /snag-lists/{id}/timeline [get]
func (h *SnagListHandler) Timeline(c *gin.Context) {
	entries, err := h.lists.Timeline(c.Request.Context(), c.Param("id"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, middleware.ResponseMeta(c))
}

// Update godoc
// @Summary Patch snag list
// @Description Setting status to COMPLETED also completes every outstanding item.
// @Tags SnagLists
// @Accept json
// @Produce json
// @Param id path string true "Snag list ID"
// @Param payload body dto.UpdateSnagListRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /snag-lists/{id} [patch]
func (h *SnagListHandler) Update(c *gin.Context) {
	var req dto.UpdateSnagListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	view, err := h.lists.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Cancel snag list
// @Tags SnagLists
// @Param id path string true "Snag list ID"
// @Success 204
// @Router /snag-lists/{id} [delete]
func (h *SnagListHandler) Delete(c *gin.Context) {
	if err := h.lists.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
