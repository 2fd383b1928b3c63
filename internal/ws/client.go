package ws

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/inklinehq/inkline/backend/internal/protocol"
	"github.com/inklinehq/inkline/backend/internal/ratelimit"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 1024 * 1024
	sendBuffer        = 512
	messagesPerSecond = 100
	messageBurst      = 200
)

// Frames can pile up while a stroke floods in, hence the generous buffer
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var errSendBufferFull = errors.New("ws: send buffer full")

// One WebSocket connection. A connection has no room until it sends join-room.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	id          string
	rateLimiter *ratelimit.Limiter
	logger      *slog.Logger
}

func (c *Client) ID() string { return c.id }

// Enqueues a frame without blocking; errors when the client is too slow
func (c *Client) Send(frame []byte) error {
	select {
	case c.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Upgrades the request and starts the connection's pumps
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Error("upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		id:          uuid.New().String(),
		rateLimiter: ratelimit.NewLimiter(messagesPerSecond, messageBurst),
		logger:      hub.logger,
	}

	client.logger.Info("connection opened", "participantId", client.id)

	go client.writePump()
	go client.readPump()
}

// Reads frames off the socket and dispatches them to the hub. Runs as the
// connection's single reader, which is what keeps one sender's draw segments
// in emission order end to end.
func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close()
		c.logger.Info("connection closed", "participantId", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rateLimitWarnings := 0

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", "participantId", c.id, "error", err)
			}
			break
		}

		if !c.rateLimiter.Allow() {
			rateLimitWarnings++
			if rateLimitWarnings%100 == 1 {
				c.logger.Warn("rate limit exceeded", "participantId", c.id, "warnings", rateLimitWarnings)
			}
			if rateLimitWarnings > 1000 {
				c.logger.Warn("disconnecting client for excessive rate limit violations", "participantId", c.id)
				return
			}
			continue
		}

		c.dispatch(data)
	}
}

// Decodes one inbound frame and routes it to the hub. Malformed or unknown
// frames are logged and skipped; they never take the connection down.
func (c *Client) dispatch(data []byte) {
	msg, err := protocol.DecodeInbound(data)
	if err != nil {
		c.logger.Warn("invalid message", "participantId", c.id, "error", err)
		return
	}

	switch m := msg.(type) {
	case protocol.JoinRoom:
		c.hub.Join(c, m.RoomID)
	case protocol.CursorMove:
		c.hub.CursorMove(c, m)
	case protocol.DrawMove:
		c.hub.DrawMove(c, m)
	case protocol.StrokeEnd:
		c.hub.StrokeEnd(c, m)
	case protocol.HistoryUndo:
		c.hub.Undo(c, m)
	case protocol.HistoryRedo:
		c.hub.Redo(c, m)
	}
}

// Drains the send channel onto the socket and keeps the connection alive with
// pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
