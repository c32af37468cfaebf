package handlers

import (
	"net/http"

	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// KitchenHandler exposes single-item cooking transitions.
type KitchenHandler struct {
	kitchenService services.KitchenService
}

func NewKitchenHandler(ks services.KitchenService) *KitchenHandler {
	return &KitchenHandler{kitchenService: ks}
}

func (h *KitchenHandler) StartItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.kitchenService.StartItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "start item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *KitchenHandler) CompleteItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	item, err := h.kitchenService.CompleteItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "complete item")
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *KitchenHandler) CancelItem(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "CancelItem") {
		return
	}
	item, err := h.kitchenService.CancelItem(c.Request.Context(), id, utils.NewNullString(req.Reason))
	if err != nil {
		respondServiceError(c, err, "cancel item")
		return
	}
	c.JSON(http.StatusOK, item)
}
