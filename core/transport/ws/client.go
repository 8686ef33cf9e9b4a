// Package ws implements the realtime transport over a plain WebSocket. It
// carries the same JSON protocol as the WebRTC data channel but no media;
// audio flows as base64 payloads inside protocol events instead.
package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/HuntCodes/yugen-voice/core/transport"
)

type Client struct {
	endpoint string

	conn   *websocket.Conn
	connMu sync.Mutex

	muted  atomic.Bool
	closed atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

var _ transport.Transport = (*Client)(nil)

func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, done: make(chan struct{})}
}

// Connect dials the realtime endpoint with bearer authentication and starts
// the read pump. Events are delivered to callbacks in arrival order.
func (c *Client) Connect(ctx context.Context, credentials transport.Credentials, callbacks transport.Callbacks) error {
	ctx, span := tracer.Start(ctx, "connect websocket")
	defer span.End()

	c.connMu.Lock()
	if c.conn != nil {
		c.connMu.Unlock()
		return fmt.Errorf("transport already connected")
	}
	c.connMu.Unlock()

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid realtime url: %w", err)
	}
	if credentials.Model != "" {
		query := endpoint.Query()
		query.Set("model", credentials.Model)
		endpoint.RawQuery = query.Encode()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(),
		http.Header{"Authorization": {"Bearer " + credentials.Token}})
	if err != nil {
		return fmt.Errorf("failed to open realtime socket: %w", err)
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if callbacks.OnStateChange != nil {
		callbacks.OnStateChange(transport.StateConnected)
	}
	if callbacks.OnOpen != nil {
		callbacks.OnOpen()
	}

	go c.readAndProcessMessages(conn, callbacks)

	return nil
}

func (c *Client) readAndProcessMessages(conn *websocket.Conn, callbacks transport.Callbacks) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if callbacks.OnStateChange != nil {
				if c.closed.Load() {
					callbacks.OnStateChange(transport.StateClosed)
				} else {
					callbacks.OnStateChange(transport.StateDisconnected)
				}
			}
			return
		}

		if callbacks.OnEvent != nil {
			callbacks.OnEvent(data)
		}
	}
}

// Send writes one protocol event to the socket.
func (c *Client) Send(event []byte) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("realtime socket is not open")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, event); err != nil {
		return fmt.Errorf("failed to write to realtime socket: %w", err)
	}
	return nil
}

// SetCaptureMuted gates outbound audio events; callers pushing audio should
// consult CaptureMuted before encoding frames.
func (c *Client) SetCaptureMuted(muted bool) {
	c.muted.Store(muted)
}

func (c *Client) CaptureMuted() bool {
	return c.muted.Load()
}

// Close sends a close frame and releases the socket. Safe to call from
// multiple concurrent triggers.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)

		c.connMu.Lock()
		conn := c.conn
		c.conn = nil
		c.connMu.Unlock()

		if conn == nil {
			return
		}
		if err := conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			logger.Warn("failed to send close frame", "error", err)
		}
		closeErr = conn.Close()
	})
	return closeErr
}
