package handlers

import (
	"net/http"

	"table_order_backend/internal/models"
	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MenuHandler serves the catalog to tables and its management to admins.
type MenuHandler struct {
	menuService services.MenuService
}

func NewMenuHandler(ms services.MenuService) *MenuHandler {
	return &MenuHandler{menuService: ms}
}

// ListActiveItems is the public menu: active items only.
func (h *MenuHandler) ListActiveItems(c *gin.Context) {
	var filters models.MenuFilters
	if category := c.Query("category"); category != "" {
		filters.Category = &category
	}
	items, err := h.menuService.ListItems(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "list menu")
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListItems is the admin listing; ?include_inactive=true shows retired items.
func (h *MenuHandler) ListItems(c *gin.Context) {
	var filters models.MenuFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	items, err := h.menuService.ListItems(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "list menu")
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *MenuHandler) GetItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.menuService.GetItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get menu item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *MenuHandler) CreateItem(c *gin.Context) {
	var req services.CreateMenuItemRequest
	if !bindJSON(c, &req, "CreateMenuItem") {
		return
	}
	item, err := h.menuService.CreateItem(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "create menu item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *MenuHandler) UpdateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateMenuItemRequest
	if !bindJSON(c, &req, "UpdateMenuItem") {
		return
	}
	item, err := h.menuService.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "update menu item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeactivateItem is the soft delete: the row stays for order history.
func (h *MenuHandler) DeactivateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.DeactivateItem(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "deactivate menu item")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *MenuHandler) ActivateItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.menuService.ActivateItem(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "activate menu item")
		return
	}
	c.Status(http.StatusNoContent)
}
