package api

import (
	"time"

	"github.com/gorilla/websocket"
)

// wsTransport adapts a gorilla connection to the hub's Transport. The hub's
// per-connection writer goroutine is the single writer; Close may race a
// write, which gorilla permits.
type wsTransport struct {
	conn *websocket.Conn
}

func (t *wsTransport) Write(data []byte, deadline time.Time) error {
	_ = t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
