package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avelov/huddle/internal/core"
	"github.com/avelov/huddle/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")

	errClosed = errors.New("connection closed")
)

// wsConn wraps one websocket with a buffered outbound channel drained by
// the write pump. The identity tag is set once at admission and never
// rewritten.
type wsConn struct {
	id   domain.UserID
	sock *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(id domain.UserID, sock *websocket.Conn) *wsConn {
	return &wsConn{
		id:   id,
		sock: sock,
		send: make(chan core.Frame, 32),
	}
}

func (c *wsConn) Identity() domain.UserID { return c.id }

func (c *wsConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Send queues a frame without blocking. A full buffer means the reader
// on the other side is too slow; the frame is dropped, not the socket.
func (c *wsConn) Send(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.sock.Close()
	c.mu.Unlock()
}
