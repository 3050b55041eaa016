package server

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/wsrelay/internal/config"
	"github.com/Tyrowin/wsrelay/internal/relay"
	"github.com/gorilla/websocket"
)

// Client is one WebSocket connection. It is the relay.Peer of that
// connection: broadcasts land in its buffered send channel and the write
// pump drains them onto the socket.
type Client struct {
	id      relay.ConnID
	conn    *websocket.Conn
	send    chan []byte
	relay   *relay.Relay
	addr    string
	log     *slog.Logger
	limiter *rateLimiter
	cfg     config.Config

	mu     sync.Mutex
	closed bool
}

// NewClient creates a Client for conn. conn may be nil in tests that only
// exercise the send side.
func NewClient(conn *websocket.Conn, r *relay.Relay, addr string, cfg config.Config, log *slog.Logger) *Client {
	if conn != nil {
		conn.SetReadLimit(cfg.MaxMessageSize)
	}

	return &Client{
		id:      relay.NewConnID(),
		conn:    conn,
		send:    make(chan []byte, cfg.SendBufferSize),
		relay:   r,
		addr:    addr,
		log:     log.With("addr", addr),
		limiter: newRateLimiter(cfg.RateLimitBurst, cfg.RateLimitRefillInterval),
		cfg:     cfg,
	}
}

// Send queues frame for the write pump without blocking. It returns false
// once the client is closing or while its buffer is full.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.log.Warn("Send buffer full, dropping frame", "conn_id", c.id)
		return false
	}
}

// GetSendChan returns the client's outbound queue.
func (c *Client) GetSendChan() <-chan []byte {
	return c.send
}

// closeSend stops accepting frames. The write pump flushes what is already
// queued, then sends a close frame.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout)); err != nil {
		c.log.Warn("Error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})
}

// logReadError logs why the read loop ended.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("Frame exceeded maximum size", "conn_id", c.id, "limit", c.cfg.MaxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.log.Info("Client disconnected", "conn_id", c.id, "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Info("Client connection closed", "conn_id", c.id, "reason", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("Unexpected WebSocket close", "conn_id", c.id, "error", err)
	default:
		c.log.Warn("WebSocket read error", "conn_id", c.id, "error", err)
	}
}

// processMessage hands a raw frame to the relay. A bad frame is logged and
// dropped; the connection stays open.
func (c *Client) processMessage(raw []byte) bool {
	if !c.limiter.allow() {
		c.log.Warn("Rate limit exceeded, discarding frame",
			"conn_id", c.id,
			"burst", c.cfg.RateLimitBurst,
			"interval", c.cfg.RateLimitRefillInterval)
		return false
	}

	if err := c.relay.Handle(c.id, raw); err != nil {
		c.log.Warn("Discarding frame", "conn_id", c.id, "error", err)
		return false
	}
	return true
}

func (c *Client) readPump() {
	defer func() {
		c.relay.Disconnect(c.id)
		c.closeSend()
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.processMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod())
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case frame, ok := <-c.send:
		return c.handleFrame(frame, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error closing connection", "conn_id", c.id, "error", err)
	}
}

// handleFrame writes one frame, or the close message once the send channel
// is closed. Each notice goes out as its own text frame.
func (c *Client) handleFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		c.log.Warn("Error setting write deadline", "conn_id", c.id, "error", err)
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing frame", "conn_id", c.id, "error", err)
		}
		return false
	}
	return true
}

func (c *Client) writeCloseMessage() bool {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("Error writing close message", "conn_id", c.id, "error", err)
	}
	return false
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		c.log.Warn("Error setting write deadline for ping", "conn_id", c.id, "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("Error writing ping", "conn_id", c.id, "error", err)
		}
		return false
	}
	return true
}
