package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prop-ie/snag-api/internal/dto"
	"github.com/prop-ie/snag-api/internal/models"
	"github.com/prop-ie/snag-api/internal/service"
	appErrors "github.com/prop-ie/snag-api/pkg/errors"
	"github.com/prop-ie/snag-api/pkg/response"
)

type snagItemService interface {
	Create(ctx context.Context, listID string, req dto.CreateSnagItemRequest, actor service.Actor) (*models.SnagItem, error)
	Update(ctx context.Context, listID, itemID string, req dto.UpdateSnagItemRequest, actor service.Actor) (*models.SnagItem, error)
	AddComment(ctx context.Context, listID, itemID string, req dto.AddSnagItemUpdateRequest, actor service.Actor) (*models.SnagItemUpdate, error)
}

// SnagItemHandler exposes snag item endpoints.
type SnagItemHandler struct {
	items snagItemService
}

// NewSnagItemHandler constructs the handler.
func NewSnagItemHandler(items snagItemService) *SnagItemHandler {
	return &SnagItemHandler{items: items}
}

// Create godoc
// @Summary Add item to snag list
// @Tags SnagItems
// @Accept json
// @Produce json
// @Param id path string true "Snag list ID"
// @Param payload body dto.CreateSnagItemRequest true "Item"
// @Success 201 {object} response.Envelope
// @Router /snag-lists/{id}/items [post]
func (h *SnagItemHandler) Create(c *gin.Context) {
	var req dto.CreateSnagItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item, err := h.items.Create(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Patch snag item
// @Tags SnagItems
// @Accept json
// @Produce json
// @Param id path string true "Snag list ID"
// @Param itemId path string true "Snag item ID"
// @Param payload body dto.UpdateSnagItemRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /snag-lists/{id}/items/{itemId} [patch]
func (h *SnagItemHandler) Update(c *gin.Context) {
	var req dto.UpdateSnagItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	item, err := h.items.Update(c.Request.Context(), c.Param("id"), c.Param("itemId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// AddComment godoc
// @Summary Comment on snag item
// @Tags SnagItems
// @Accept json
// @Produce json
// @Param id path string true "Snag list ID"
// @Param itemId path string true "Snag item ID"
// @Param payload body dto.AddSnagItemUpdateRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /snag-lists/{id}/items/{itemId}/updates [post]
func (h *SnagItemHandler) AddComment(c *gin.Context) {
	var req dto.AddSnagItemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	update, err := h.items.AddComment(c.Request.Context(), c.Param("id"), c.Param("itemId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, update)
}
