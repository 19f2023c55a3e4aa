package controller

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256

	closeCodeInvalidCredential = 4001
)

// client is a websocket connection with a buffered outbound queue drained by writePump.
// gorilla/websocket allows a single concurrent writer, so every write goes through the queue.
type client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closing   chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger) *client {
	return &client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		closing: make(chan []byte, 1),
		done:    make(chan struct{}),
		logger:  logger.With("conn_id", id),
	}
}

func (c *client) Id() string {
	return c.id
}

// Send queues data without blocking. It reports false when the queue is full or the client is closed.
func (c *client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})

	return err
}

// closeWith flushes the queued messages, sends a close frame with code and ends the connection.
func (c *client) closeWith(code int, text string) {
	select {
	case c.closing <- websocket.FormatCloseMessage(code, text):
	default:
	}
}

func (c *client) write(messageType int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return c.conn.WriteMessage(messageType, data)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}
		case frame := <-c.closing:
			c.flush()
			if err := c.write(websocket.CloseMessage, frame); err != nil {
				c.logger.Debug("failed to write close frame", "error", err)
			}
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to write ping", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *client) readMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *client) prepareRead() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}
