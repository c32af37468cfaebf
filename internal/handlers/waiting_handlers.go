package handlers

import (
	"net/http"

	"table_order_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// WaitingHandler holds the waiting-list service.
type WaitingHandler struct {
	waitingService services.WaitingService
}

func NewWaitingHandler(ws services.WaitingService) *WaitingHandler {
	return &WaitingHandler{waitingService: ws}
}

// AddWaiting registers a walk-in party. Public.
func (h *WaitingHandler) AddWaiting(c *gin.Context) {
	var req services.AddWaitingRequest
	if !bindJSON(c, &req, "AddWaiting") {
		return
	}
	w, err := h.waitingService.Add(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "add waiting entry")
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WaitingHandler) ActiveQueue(c *gin.Context) {
	queue, err := h.waitingService.ActiveQueue(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list waiting queue")
		return
	}
	c.JSON(http.StatusOK, queue)
}

func (h *WaitingHandler) CallWaiting(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	w, err := h.waitingService.Call(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "call waiting entry")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WaitingHandler) SeatWaiting(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.SeatWaitingRequest
	if !bindJSON(c, &req, "SeatWaiting") {
		return
	}
	w, err := h.waitingService.Seat(c.Request.Context(), id, req.TableID)
	if err != nil {
		respondServiceError(c, err, "seat waiting entry")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WaitingHandler) CancelWaiting(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	w, err := h.waitingService.Cancel(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "cancel waiting entry")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WaitingHandler) TodayStats(c *gin.Context) {
	stats, err := h.waitingService.TodayStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "load waiting stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
