package binance

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/logger"
	"github.com/fd1az/venue-arbitrage/internal/wsconn"
)

const (
	tracerName = "binance"

	// BaseWSURL is the public market data stream host.
	BaseWSURL = "wss://stream.binance.com:9443"
)

// ClientConfig configures the miniTicker stream.
type ClientConfig struct {
	BaseURL      string
	Symbols      []string // subscribed through the combined stream URL
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type streamMetrics struct {
	frames  metric.Int64Counter
	tickers metric.Int64Counter
	dropped metric.Int64Counter
	streams metric.Int64UpDownCounter
}

func newStreamMetrics() (*streamMetrics, error) {
	meter := otel.Meter("binance")
	var m streamMetrics
	var errs [4]error
	m.frames, errs[0] = meter.Int64Counter("binance_frames_total",
		metric.WithDescription("Frames read from the combined stream"))
	m.tickers, errs[1] = meter.Int64Counter("binance_tickers_total",
		metric.WithDescription("miniTicker events delivered to the price cache"))
	m.dropped, errs[2] = meter.Int64Counter("binance_frames_dropped_total",
		metric.WithDescription("Frames that could not be decoded"))
	m.streams, errs[3] = meter.Int64UpDownCounter("binance_streams",
		metric.WithDescription("Subscribed miniTicker streams"))
	return &m, errors.Join(errs[:]...)
}

// Client streams miniTicker events for a set of USDT symbols.
type Client struct {
	config  ClientConfig
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *streamMetrics
	reqID   atomic.Int64

	mu       sync.RWMutex
	conn     *wsconn.Client
	streams  map[string]struct{}
	onTicker func(*MiniTickerEvent)
	onLink   func(connected bool)
}

func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseWSURL
	}
	m, err := newStreamMetrics()
	if err != nil {
		return nil, err
	}
	return &Client{
		config:  cfg,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		metrics: m,
		streams: make(map[string]struct{}),
	}, nil
}

// OnMiniTicker sets the receiver of decoded ticker events.
func (c *Client) OnMiniTicker(fn func(*MiniTickerEvent)) {
	c.mu.Lock()
	c.onTicker = fn
	c.mu.Unlock()
}

// OnConnectionChange is told when the stream goes up or down.
func (c *Client) OnConnectionChange(fn func(connected bool)) {
	c.mu.Lock()
	c.onLink = fn
	c.mu.Unlock()
}

// Connect dials the combined stream, retrying with backoff until ctx is done.
// A previous connection is replaced.
func (c *Client) Connect(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "binance.connect",
		trace.WithAttributes(attribute.StringSlice("symbols", c.config.Symbols)))
	defer span.End()

	target, err := c.buildStreamURL()
	if err != nil {
		return err
	}

	cfg := wsconn.DefaultConfig(target, "binance")
	if c.config.ReadTimeout > 0 {
		cfg.ReadTimeout = c.config.ReadTimeout
	}
	if c.config.WriteTimeout > 0 {
		cfg.WriteTimeout = c.config.WriteTimeout
	}
	conn, err := wsconn.New(cfg)
	if err != nil {
		return err
	}
	conn.OnMessage(c.handleMessage)
	conn.OnStateChange(c.handleStateChange)

	if err := conn.ConnectWithRetry(ctx); err != nil {
		conn.Close()
		span.RecordError(err)
		return apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithContext("binance stream"),
			apperror.WithCause(err))
	}

	c.mu.Lock()
	old := c.conn
	c.conn = conn
	added := c.track(c.config.Symbols)
	c.mu.Unlock()
	if old != nil {
		old.Close()
	}
	c.metrics.streams.Add(ctx, int64(added))

	c.logger.Info(ctx, "binance stream connected", "symbols", c.config.Symbols)
	return nil
}

// Subscribe adds miniTicker streams on the live connection.
func (c *Client) Subscribe(ctx context.Context, symbols ...string) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext("binance: not connected"))
	}

	params := make([]string, len(symbols))
	for i, s := range symbols {
		params[i] = MiniTickerStream(s)
	}
	if err := conn.SendJSON(ctx, WSRequest{Method: "SUBSCRIBE", Params: params, ID: c.reqID.Add(1)}); err != nil {
		return err
	}

	c.mu.Lock()
	added := c.track(symbols)
	c.mu.Unlock()
	c.metrics.streams.Add(ctx, int64(added))
	return nil
}

// track records symbols as subscribed and returns how many were new.
// Callers hold mu.
func (c *Client) track(symbols []string) int {
	added := 0
	for _, s := range symbols {
		name := MiniTickerStream(s)
		if _, ok := c.streams[name]; !ok {
			c.streams[name] = struct{}{}
			added++
		}
	}
	return added
}

// Subscribed reports whether symbol already has a stream.
func (c *Client) Subscribed(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.streams[MiniTickerStream(symbol)]
	return ok
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// buildStreamURL returns <base>/stream?streams=a@miniTicker/b@miniTicker.
func (c *Client) buildStreamURL() (string, error) {
	if len(c.config.Symbols) == 0 {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("binance: no symbols to stream"))
	}
	u, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("binance: stream URL"),
			apperror.WithCause(err))
	}

	names := make([]string, len(c.config.Symbols))
	for i, s := range c.config.Symbols {
		names[i] = MiniTickerStream(s)
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(names, "/")
	return u.String(), nil
}

// handleMessage decodes one combined-stream frame. Subscription acks carry
// only an id and are skipped.
func (c *Client) handleMessage(ctx context.Context, frame []byte) {
	c.metrics.frames.Add(ctx, 1)

	var env StreamEvent
	if err := json.Unmarshal(frame, &env); err != nil || (env.Stream == "" && env.ID == 0) {
		c.metrics.dropped.Add(ctx, 1)
		c.logger.Debug(ctx, "binance frame dropped", "frame", string(frame[:min(len(frame), 256)]))
		return
	}
	if env.Stream == "" || !strings.HasSuffix(env.Stream, "@miniTicker") {
		return
	}

	var ev MiniTickerEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		c.metrics.dropped.Add(ctx, 1)
		c.logger.Warn(ctx, "binance miniTicker undecodable", "stream", env.Stream, "error", err)
		return
	}
	if ev.Symbol == "" {
		ev.Symbol = symbolFromStream(env.Stream)
	}
	c.metrics.tickers.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", ev.Symbol)))

	c.mu.RLock()
	fn := c.onTicker
	c.mu.RUnlock()
	if fn != nil {
		fn(&ev)
	}
}

func (c *Client) handleStateChange(state wsconn.State, err error) {
	switch state {
	case wsconn.StateReconnecting:
		c.logger.Warn(context.Background(), "binance stream lost, reconnecting", "error", err)
	case wsconn.StateConnected, wsconn.StateDisconnected:
	default:
		return
	}

	c.mu.RLock()
	fn := c.onLink
	c.mu.RUnlock()
	if fn != nil {
		fn(state == wsconn.StateConnected)
	}
}
