package realtime

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketTransport adapts a gorilla connection to Transport.
type WebsocketTransport struct {
	conn *websocket.Conn
}

func NewWebsocketTransport(conn *websocket.Conn) *WebsocketTransport {
	return &WebsocketTransport{conn: conn}
}

func (t *WebsocketTransport) Write(ctx context.Context, payload []byte) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *WebsocketTransport) Ping(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Second)
	}
	return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

// Close sends a close frame and tears down the socket. WriteControl and Close
// may run concurrently with the writer goroutine.
func (t *WebsocketTransport) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return t.conn.Close()
}
