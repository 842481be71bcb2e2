package push

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/brunodmn/threadchat/internal/bus"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	readTimeout    = 90 * time.Second
)

// Client maintains the WebSocket push channel. It is the only component
// that touches the transport: decoded events go onto the bus and every
// consumer subscribes there.
type Client struct {
	url     string
	token   string
	bus     *bus.Bus
	machine *Machine
	logger  *zap.Logger
	dialer  *websocket.Dialer
	cancel  context.CancelFunc
}

// NewClient creates a push client for the service at baseURL (http/https;
// the scheme is rewritten to ws/wss).
func NewClient(baseURL, token string, b *bus.Bus, machine *Machine, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u = u.JoinPath("/ws")

	return &Client{
		url:     u.String(),
		token:   token,
		bus:     b,
		machine: machine,
		logger:  logger,
		dialer:  websocket.DefaultDialer,
	}, nil
}

// Start runs the connect/read loop until the context is cancelled or
// Stop is called. Reconnects with exponential backoff.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.loop(ctx)
}

// Stop tears the connection down.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	_ = c.machine.Transition(Closed)
}

func (c *Client) loop(ctx context.Context) {
	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		_ = c.machine.Transition(Connecting)

		conn, err := c.dial(ctx)
		if err != nil {
			c.logger.Warn("push connect failed", zap.Error(err), zap.Duration("retry_in", backoff))
			_ = c.machine.Transition(Reconnecting)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		c.logger.Info("push channel connected")
		_ = c.machine.Transition(Connected)
		backoff = initialBackoff

		err = c.readLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("push channel dropped", zap.Error(err))
		_ = c.machine.Transition(Reconnecting)
		if !sleep(ctx, backoff) {
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		evt, err := Decode(env)
		if err != nil {
			if errors.Is(err, ErrUnknownEvent) {
				c.logger.Debug("skipping push event", zap.String("event", env.Event))
				continue
			}
			// Malformed frames are tolerated, not fatal to the channel.
			c.logger.Warn("malformed push event", zap.Error(err))
			continue
		}
		c.bus.Publish(evt)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
