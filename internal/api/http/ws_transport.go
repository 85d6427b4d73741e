package http

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/rnplay/internal/domain"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrSendQueueFull   = errors.New("send queue full")
)

var _ domain.Transport = (*WSTransport)(nil)

// WSTransport is one signaling websocket. Writes go through a single
// goroutine fed by a bounded queue so the relay never blocks on a slow peer.
type WSTransport struct {
	id   string
	conn *websocket.Conn
	send chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func NewWSTransport(conn *websocket.Conn, queueSize int, writeTimeout, pingInterval time.Duration) *WSTransport {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &WSTransport{
		id:           uuid.NewString(),
		conn:         conn,
		send:         make(chan []byte, queueSize),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		done:         make(chan struct{}),
	}
}

func (t *WSTransport) ID() string {
	return t.id
}

func (t *WSTransport) Send(raw []byte) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	select {
	case t.send <- raw:
		return nil
	case <-t.done:
		return ErrTransportClosed
	default:
		return ErrSendQueueFull
	}
}

func (t *WSTransport) Ready() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *WSTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		_ = t.conn.Close()
	})
}

// writeLoop drains the send queue until the transport closes or a write
// fails.
func (t *WSTransport) writeLoop() {
	var ping <-chan time.Time
	if t.pingInterval > 0 {
		ticker := time.NewTicker(t.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case raw := <-t.send:
			_ = t.conn.SetWriteDeadline(t.deadline())
			if err := t.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				t.Close()
				return
			}
		case <-ping:
			if err := t.conn.WriteControl(websocket.PingMessage, nil, t.deadline()); err != nil {
				t.Close()
				return
			}
		case <-t.done:
			return
		}
	}
}

func (t *WSTransport) deadline() time.Time {
	if t.writeTimeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(t.writeTimeout)
}
