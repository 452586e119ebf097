// Package wsconn provides a WebSocket client with keep-alive pings and
// automatic reconnection.
package wsconn

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/coder/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL     string
	Name    string // used in errors and metric attributes
	Headers http.Header

	DialTimeout    time.Duration
	ReadTimeout    time.Duration // 0 = no per-read deadline
	WriteTimeout   time.Duration
	PingInterval   time.Duration // 0 = no pings
	PongTimeout    time.Duration
	MaxMessageSize int64

	AutoReconnect  bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  uint // 0 = infinite
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		DialTimeout:    10 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
		AutoReconnect:  true,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// MessageHandler receives every data frame read from the connection.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler is notified on every state transition. err is the cause of a
// disconnect, if any.
type StateHandler func(state State, err error)

// Client is a WebSocket client. Handlers must be registered before Connect.
type Client struct {
	config Config

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	handlersMu sync.RWMutex
	onMessage  MessageHandler
	onState    StateHandler

	ctx       context.Context
	cancel    context.CancelFunc
	closed    atomic.Bool
	closeOnce sync.Once
	wg        sync.WaitGroup

	reconnects metric.Int64Counter
	attrs      metric.MeasurementOption
}

// New creates a new WebSocket client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("wsconn: empty URL"))
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	reconnects, err := otel.Meter("wsconn").Int64Counter(
		"wsconn_reconnects_total",
		metric.WithDescription("WebSocket reconnect attempts"),
	)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config:     cfg,
		state:      StateDisconnected,
		ctx:        ctx,
		cancel:     cancel,
		reconnects: reconnects,
		attrs:      metric.WithAttributes(attribute.String("connection", cfg.Name)),
	}, nil
}

// OnMessage registers the data frame handler.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.onMessage = h
	c.handlersMu.Unlock()
}

// OnStateChange registers the state transition handler.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.onState = h
	c.handlersMu.Unlock()
}

// Connect dials once. On failure the client is left disconnected.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return c.closedError()
	}

	c.setState(StateConnecting, nil)
	conn, err := c.dial(ctx)
	if err != nil {
		c.setState(StateDisconnected, err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext(c.config.Name),
			apperror.WithCause(err))
	}
	c.attach(conn)
	return nil
}

// ConnectWithRetry dials with exponential backoff until it succeeds, ctx is
// done, or MaxReconnects attempts have failed.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	op := func() (struct{}, error) {
		if c.closed.Load() {
			return struct{}{}, backoff.Permanent(c.closedError())
		}
		return struct{}{}, c.Connect(ctx)
	}
	_, err := backoff.Retry(ctx, op, c.retryOptions()...)
	return err
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, data []byte) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return c.closedError()
	}

	if c.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.WriteTimeout)
		defer cancel()
	}

	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name),
			apperror.WithCause(err))
	}
	return nil
}

// SendJSON encodes v and writes it as a text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithContext(c.config.Name+": encode"),
			apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether the client currently holds a live connection.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close stops reconnection and closes the connection. It is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			if err := conn.Close(websocket.StatusNormalClosure, "client closing"); err != nil {
				conn.CloseNow()
			}
		}

		c.cancel()
		c.wg.Wait()
		c.setState(StateClosed, nil)
	})
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	if c.config.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.DialTimeout)
		defer cancel()
	}

	conn, _, err := websocket.Dial(ctx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: c.config.Headers,
	})
	if err != nil {
		return nil, err
	}
	if c.config.MaxMessageSize > 0 {
		conn.SetReadLimit(c.config.MaxMessageSize)
	}
	return conn, nil
}

func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		conn.CloseNow()
		return
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.config.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(conn)
	}
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		readCtx, cancel := c.ctx, context.CancelFunc(func() {})
		if c.config.ReadTimeout > 0 {
			readCtx, cancel = context.WithTimeout(c.ctx, c.config.ReadTimeout)
		}
		_, data, err := conn.Read(readCtx)
		cancel()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		c.handlersMu.RLock()
		h := c.onMessage
		c.handlersMu.RUnlock()
		if h != nil {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if !c.current(conn) {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.config.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// Unblocks the read loop, which takes care of reconnecting.
				conn.Close(websocket.StatusGoingAway, "pong timeout")
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	conn.CloseNow()

	if c.closed.Load() {
		return
	}
	if !c.config.AutoReconnect {
		c.setState(StateDisconnected, cause)
		return
	}

	c.setState(StateReconnecting, cause)
	c.wg.Add(1)
	go c.reconnect()
}

func (c *Client) reconnect() {
	defer c.wg.Done()

	select {
	case <-c.ctx.Done():
		return
	case <-time.After(c.config.InitialBackoff):
	}

	op := func() (*websocket.Conn, error) {
		if c.closed.Load() {
			return nil, backoff.Permanent(c.closedError())
		}
		c.reconnects.Add(c.ctx, 1, c.attrs)
		return c.dial(c.ctx)
	}

	conn, err := backoff.Retry(c.ctx, op, c.retryOptions()...)
	if err != nil {
		if !c.closed.Load() {
			c.setState(StateDisconnected, err)
		}
		return
	}
	c.attach(conn)
}

func (c *Client) retryOptions() []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.InitialBackoff
	b.MaxInterval = c.config.MaxBackoff

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.config.MaxReconnects),
		backoff.WithMaxElapsedTime(0),
	}
}

func (c *Client) current(conn *websocket.Conn) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn == conn
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()

	c.handlersMu.RLock()
	h := c.onState
	c.handlersMu.RUnlock()
	if h != nil {
		h(state, err)
	}
}

func (c *Client) closedError() error {
	return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.config.Name))
}
