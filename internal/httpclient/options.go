package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type options struct {
	venue     string
	baseURL   string
	timeout   time.Duration
	headers   map[string]string
	transport http.RoundTripper
	tracer    trace.Tracer
	traceBody bool
}

// Option configures a Client.
type Option func(*options)

// WithVenue names the venue in spans and metric attributes.
func WithVenue(name string) Option {
	return func(o *options) { o.venue = name }
}

// WithBaseURL is prefixed to relative paths.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithTimeout bounds a whole call, body included. Non-positive values keep
// the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHeader is sent on every call.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

// WithTransport replaces the pooled default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithTracer sets the span tracer. traceBody attaches response bodies to
// spans as events.
func WithTracer(t trace.Tracer, traceBody bool) Option {
	return func(o *options) {
		o.tracer = t
		o.traceBody = traceBody
	}
}

type callOptions struct {
	query    url.Values
	labels   []attribute.KeyValue
	onStatus StatusHandler
}

// CallOption configures a single GetJSON call.
type CallOption func(*callOptions)

// Query adds a query parameter. Values are escaped.
func Query(key, value string) CallOption {
	return func(c *callOptions) { c.query.Add(key, value) }
}

// Label adds a metric attribute to the request counter.
func Label(key, value string) CallOption {
	return func(c *callOptions) { c.labels = append(c.labels, attribute.String(key, value)) }
}

// OnStatus installs h to classify the reply before it is decoded.
func OnStatus(h StatusHandler) CallOption {
	return func(c *callOptions) { c.onStatus = h }
}
