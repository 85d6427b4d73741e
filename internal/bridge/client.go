package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/rnplay/internal/domain"
)

const relayWriteTimeout = 10 * time.Second

// Signaler is the bridge's link to the signaling relay.
type Signaler interface {
	Send(s domain.Signal) error
	Receive() ([]byte, error)
	Close() error
}

var _ Signaler = (*RelayClient)(nil)

// RelayClient is a websocket connection to the relay. Writes are
// serialized; Receive must only be called from one goroutine.
type RelayClient struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func DialRelay(ctx context.Context, url string) (*RelayClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", url, err)
	}
	return &RelayClient{conn: conn}, nil
}

func (c *RelayClient) Send(s domain.Signal) error {
	raw, err := domain.EncodeSignal(s)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(relayWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

func (c *RelayClient) Receive() ([]byte, error) {
	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if msgType == websocket.TextMessage {
			return raw, nil
		}
	}
}

func (c *RelayClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
