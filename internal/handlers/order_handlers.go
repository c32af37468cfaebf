package handlers

import (
	"net/http"
	"strings"

	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// OrderHandler holds the order service.
type OrderHandler struct {
	orderService services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(os services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: os}
}

// SubmitOrder accepts a cart either as JSON {"menu": {...}} or as the form field
// "menu" holding the same object serialized.
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	tableID, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	cart, ok := readCart(c)
	if !ok {
		return
	}

	order, err := h.orderService.SubmitOrder(c.Request.Context(), tableID, cart)
	if err != nil {
		respondServiceError(c, err, "submit order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

func readCart(c *gin.Context) ([]byte, bool) {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		menu := strings.TrimSpace(c.PostForm("menu"))
		if menu == "" {
			utils.RespondValidationFailed(c, "form field 'menu' is required")
			return nil, false
		}
		return []byte(menu), true
	default:
		var req services.SubmitOrderRequest
		if !bindJSON(c, &req, "SubmitOrder") {
			return nil, false
		}
		return req.Menu, true
	}
}

// SubmitGiftOrder places an order on behalf of another table.
func (h *OrderHandler) SubmitGiftOrder(c *gin.Context) {
	var req services.GiftOrderRequest
	if !bindJSON(c, &req, "SubmitGiftOrder") {
		return
	}
	order, err := h.orderService.SubmitGiftOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "submit gift order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// TableOrders lists the order history of a table. ?status= takes a comma-separated list.
func (h *OrderHandler) TableOrders(c *gin.Context) {
	tableID, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	var statuses []string
	if raw := c.Query("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}
	orders, err := h.orderService.TableOrderHistory(c.Request.Context(), tableID, statuses)
	if err != nil {
		respondServiceError(c, err, "list table orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) PendingOrders(c *gin.Context) {
	orders, err := h.orderService.PendingOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list pending orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get order")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orderService.ConfirmOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "confirm order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder cancels an order. The body is optional.
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.CancelRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req, "CancelOrder") {
		return
	}
	order, err := h.orderService.CancelOrder(c.Request.Context(), id, utils.NewNullString(req.Reason))
	if err != nil {
		respondServiceError(c, err, "cancel order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateOrderStatus moves every item of the order to one cooking status.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req, "UpdateOrderStatus") {
		return
	}
	order, err := h.orderService.BulkSetOrderStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondServiceError(c, err, "update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) KitchenBoard(c *gin.Context) {
	board, err := h.orderService.KitchenBoard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "load kitchen board")
		return
	}
	c.JSON(http.StatusOK, board)
}
