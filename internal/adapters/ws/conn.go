package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avdeyev/radar/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// WsConn wraps a websocket with a buffered outbound queue.
// TrySend never blocks; a full queue is a send failure.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
