package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultURL is the production WebSocket endpoint.
const DefaultURL = "wss://web.whatsapp.com/ws"

// WebSocket adapts a gorilla WebSocket connection to the Socket interface.
// Each protocol frame travels as one WebSocket binary message.
type WebSocket struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// DialWebSocket connects to the given URL and returns the socket. The
// context bounds the dial only; reads and writes afterwards follow the
// connection's own deadlines.
func DialWebSocket(ctx context.Context, url string) (*WebSocket, error) {
	logrus.WithFields(logrus.Fields{
		"function": "DialWebSocket",
		"package":  "transport",
		"url":      url,
	}).Debug("Dialing WebSocket")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnectionClosed, url, err)
	}
	return &WebSocket{conn: conn}, nil
}

// ReadMessage blocks until one binary message arrives. A close frame or
// transport error surfaces as ErrConnectionClosed; other message types are
// a protocol violation.
func (ws *WebSocket) ReadMessage() ([]byte, error) {
	messageType, data, err := ws.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	if messageType != websocket.BinaryMessage {
		return nil, fmt.Errorf("%w: expected binary message, got type %d", ErrConnectionClosed, messageType)
	}
	return data, nil
}

// WriteMessage sends one binary message. The gorilla connection permits a
// single concurrent writer, hence the lock.
func (ws *WebSocket) WriteMessage(data []byte) error {
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	if err := ws.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}
	return nil
}

// Close sends a close frame on a best-effort basis and shuts the
// connection down.
func (ws *WebSocket) Close() error {
	ws.writeMu.Lock()
	_ = ws.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.writeMu.Unlock()
	return ws.conn.Close()
}
