package handlers

import (
	"net/http"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/internal/realtime"
	"table_order_backend/internal/services"
	"table_order_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxInboundMessage = 4096

// WebSocketHandler upgrades table and admin sessions and attaches them to the registry.
type WebSocketHandler struct {
	registry    *realtime.Registry
	authService services.AuthService
	maxTables   int64
	pongWait    time.Duration
	upgrader    websocket.Upgrader
}

// NewWebSocketHandler creates a handler. pongWait of zero disables the read
// deadline; otherwise it should exceed the registry's ping interval.
func NewWebSocketHandler(registry *realtime.Registry, as services.AuthService, maxTables int, pongWait time.Duration, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		registry:    registry,
		authService: as,
		maxTables:   int64(maxTables),
		pongWait:    pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Connect serves GET /ws/:table_id. Table 0 is the admin/kitchen channel and
// needs ?token=<jwt>. Inbound messages are read and discarded; the loop only
// exists to notice disconnects and answer pings.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	tableID, ok := parseIDParam(c, "table_id")
	if !ok {
		return
	}
	if tableID == models.AdminTableID {
		if _, err := h.authService.ValidateToken(c.Query("token")); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Admin channel requires a valid token.", err.Error()))
			return
		}
	} else if h.maxTables > 0 && tableID > h.maxTables {
		utils.RespondValidationFailed(c, "unknown table")
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.LogWarn("WebSocket upgrade failed", map[string]interface{}{"table_id": tableID, "error": err.Error()})
		return
	}

	conn := h.registry.Register(tableID, realtime.NewWebsocketTransport(ws))
	defer h.registry.Unregister(conn)

	ws.SetReadLimit(maxInboundMessage)
	if h.pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(h.pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(h.pongWait))
		})
	}
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.LogDebug("WebSocket closed", map[string]interface{}{"conn_id": conn.ID, "table_id": tableID, "error": err.Error()})
			}
			return
		}
	}
}
