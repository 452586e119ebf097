// Package httpclient is the instrumented JSON client the REST venue adapters
// share. Every call is traced through otelhttp and counted per venue.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultTimeout      = 10 * time.Second
	maxConnsPerHost     = 5
	idleConnTimeout     = 2 * time.Minute
	maxResponseBodySize = 1 << 20

	metricRequests = "venue_http_requests_total"
	metricDuration = "venue_http_request_duration_seconds"
)

// Client issues GET requests against one venue's REST API.
type Client interface {
	GetJSON(ctx context.Context, path string, out any, opts ...CallOption) (*Response, error)
}

// Response is a fully read reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusHandler turns a venue reply into an error, or nil to accept it.
type StatusHandler func(statusCode int, body []byte) error

type client struct {
	http      *http.Client
	venue     string
	baseURL   string
	headers   map[string]string
	tracer    trace.Tracer
	traceBody bool
	requests  metric.Int64Counter
	duration  metric.Float64Histogram
}

// New builds a Client. The transport is wrapped with otelhttp so the venue
// call shows up as a child span with connection timings.
func New(opts ...Option) (Client, error) {
	o := options{timeout: defaultTimeout, venue: "venue"}
	for _, fn := range opts {
		fn(&o)
	}

	base := o.transport
	if base == nil {
		base = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: 10 * time.Second}).DialContext,
			MaxConnsPerHost: maxConnsPerHost,
			IdleConnTimeout: idleConnTimeout,
		}
	}

	meter := otel.GetMeterProvider().Meter("httpclient",
		metric.WithInstrumentationAttributes(attribute.String("venue", o.venue)))
	requests, err := meter.Int64Counter(metricRequests,
		metric.WithDescription("Venue REST calls by outcome"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(metricDuration,
		metric.WithDescription("Venue REST call latency"))
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("httpclient")
	}

	return &client{
		http: &http.Client{
			Timeout: o.timeout,
			Transport: otelhttp.NewTransport(base,
				otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
					return otelhttptrace.NewClientTrace(ctx)
				}),
			),
		},
		venue:     o.venue,
		baseURL:   strings.TrimSuffix(o.baseURL, "/"),
		headers:   o.headers,
		tracer:    tracer,
		traceBody: o.traceBody,
		requests:  requests,
		duration:  duration,
	}, nil
}

// GetJSON fetches path and decodes a 2xx body into out. A StatusHandler,
// when given, runs before decoding and its error is returned as is.
func (c *client) GetJSON(ctx context.Context, path string, out any, opts ...CallOption) (*Response, error) {
	call := callOptions{query: url.Values{}}
	for _, fn := range opts {
		fn(&call)
	}

	target := c.resolve(path, call.query)
	ctx, span := c.tracer.Start(ctx, "venue.get", trace.WithAttributes(
		attribute.String("venue", c.venue),
		attribute.String("http.url", target),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.do(ctx, target)
	c.record(ctx, start, resp, err, call.labels)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if c.traceBody {
		span.AddEvent("response.body", trace.WithAttributes(attribute.String("body", string(resp.Body))))
	}

	if call.onStatus != nil {
		if err := call.onStatus(resp.StatusCode, resp.Body); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return resp, err
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		err := fmt.Errorf("%s: unexpected status %d", c.venue, resp.StatusCode)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}

	if out != nil && len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, out); err != nil {
			span.RecordError(err)
			return resp, fmt.Errorf("%s: decode response: %w", c.venue, err)
		}
	}
	return resp, nil
}

func (c *client) resolve(path string, query url.Values) string {
	target := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}

func (c *client) do(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", c.venue, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", c.venue, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func (c *client) record(ctx context.Context, start time.Time, resp *Response, err error, labels []attribute.KeyValue) {
	outcome := "ok"
	switch {
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
	case isTimeout(err):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case resp.StatusCode >= http.StatusBadRequest:
		outcome = "http_" + strconv.Itoa(resp.StatusCode)
	}

	attrs := append([]attribute.KeyValue{
		attribute.String("venue", c.venue),
		attribute.String("outcome", outcome),
	}, labels...)
	c.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	c.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs[:2]...))
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
}
