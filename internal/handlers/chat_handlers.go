package handlers

import (
	"net/http"
	"strconv"

	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves table chat and nicknames.
type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(cs services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: cs}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req services.SendChatRequest
	if !bindJSON(c, &req, "SendMessage") {
		return
	}
	msg, err := h.chatService.SendMessage(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "send chat message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// RecentMessages requires ?table_id= and accepts optional ?after_id= and ?limit=.
func (h *ChatHandler) RecentMessages(c *gin.Context) {
	tableID, err := utils.StrToInt64(c.Query("table_id"))
	if err != nil {
		utils.RespondValidationFailed(c, "table_id query parameter must be an integer")
		return
	}
	var afterID int64
	if raw := c.Query("after_id"); raw != "" {
		if afterID, err = utils.StrToInt64(raw); err != nil {
			utils.RespondValidationFailed(c, "after_id must be an integer")
			return
		}
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			utils.RespondValidationFailed(c, "limit must be an integer")
			return
		}
	}
	messages, err := h.chatService.RecentMessages(c.Request.Context(), tableID, afterID, limit)
	if err != nil {
		respondServiceError(c, err, "list chat messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *ChatHandler) OnlineTables(c *gin.Context) {
	c.JSON(http.StatusOK, h.chatService.OnlineTables())
}

func (h *ChatHandler) SetNickname(c *gin.Context) {
	tableID, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	var req services.SetNicknameRequest
	if !bindJSON(c, &req, "SetNickname") {
		return
	}
	nickname, err := h.chatService.SetNickname(tableID, req.Nickname)
	if err != nil {
		respondServiceError(c, err, "set nickname")
		return
	}
	c.JSON(http.StatusOK, gin.H{"table_id": tableID, "nickname": nickname})
}
