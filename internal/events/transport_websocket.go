package events

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	DeliveryID string `json:"deliveryId"`
	Event      any    `json:"event"`
}

type wsConn struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// webSocketTransport keeps a persistent connection to every handler.
type webSocketTransport struct {
	timeout time.Duration
	dialer  *websocket.Dialer

	mutex  sync.Mutex
	conns  map[string]*wsConn
	closed bool
}

func newWebSocketTransport(timeout time.Duration) *webSocketTransport {
	return &webSocketTransport{
		timeout: timeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		conns: make(map[string]*wsConn),
	}
}

func (t *webSocketTransport) getConn(ctx context.Context, hostPort string) (*wsConn, error) {
	t.mutex.Lock()
	c, ok := t.conns[hostPort]
	t.mutex.Unlock()

	if ok {
		return c, nil
	}

	// dial without holding the lock, so that a slow handler does not stall the others
	conn, res, err := t.dialer.DialContext(ctx, "ws://"+hostPort+"/", nil)
	if err != nil {
		return nil, err
	}
	res.Body.Close()

	t.mutex.Lock()

	if t.closed {
		t.mutex.Unlock()
		conn.Close()
		return nil, fmt.Errorf("transport closed")
	}

	// another worker connected in the meantime
	if existing, ok := t.conns[hostPort]; ok {
		t.mutex.Unlock()
		conn.Close()
		return existing, nil
	}

	c = &wsConn{conn: conn}
	t.conns[hostPort] = c
	t.mutex.Unlock()

	// drain incoming frames to process control messages
	go func() {
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				t.remove(hostPort, c)
				return
			}
		}
	}()

	return c, nil
}

func (t *webSocketTransport) remove(hostPort string, c *wsConn) {
	t.mutex.Lock()
	if t.conns[hostPort] == c {
		delete(t.conns, hostPort)
	}
	t.mutex.Unlock()

	c.conn.Close()
}

func (t *webSocketTransport) send(ctx context.Context, d *delivery) error {
	hostPort := net.JoinHostPort(d.address, strconv.FormatInt(int64(d.port), 10))

	c, err := t.getConn(ctx, hostPort)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(t.timeout)) //nolint:errcheck
	err = c.conn.WriteJSON(&wsMessage{
		DeliveryID: d.id,
		Event:      d.evt,
	})
	if err != nil {
		t.remove(hostPort, c)
		return err
	}

	return nil
}

func (t *webSocketTransport) close() {
	t.mutex.Lock()
	conns := t.conns
	t.conns = make(map[string]*wsConn)
	t.closed = true
	t.mutex.Unlock()

	for _, c := range conns {
		c.conn.Close()
	}
}
