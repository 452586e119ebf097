package apm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fd1az/venue-arbitrage/internal/logger"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
	}{
		{"zipkin", ZipkinProvider},
		{"ZIPKIN_PROVIDER", ZipkinProvider},
		{" Honeycomb ", HoneycombProvider},
		{"otlp", OTLPProvider},
		{"stdout", ConsoleProvider},
		{"newrelic", NewRelicProvider},
		{"", EmptyProvider},
		{"jaeger", EmptyProvider},
	}

	for _, tt := range tests {
		if got := ParseProvider(tt.in); got != tt.want {
			t.Errorf("ParseProvider(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewTraceProvider_Empty(t *testing.T) {
	tp := NewTraceProvider(context.Background(), ExporterConfig{Provider: EmptyProvider}, logger.NewDiscard())
	if _, ok := tp.(emptyTraceProvider); !ok {
		t.Errorf("got %T, want emptyTraceProvider", tp)
	}
	if err := tp.Stop(); err != nil {
		t.Error(err)
	}
}

func TestNewTraceProvider_Console(t *testing.T) {
	tp := NewTraceProvider(context.Background(), ExporterConfig{Provider: ConsoleProvider, ServiceName: "test"}, logger.NewDiscard())
	if _, ok := tp.(*traceProvider); !ok {
		t.Fatalf("got %T, want *traceProvider", tp)
	}
	if err := tp.Stop(); err != nil {
		t.Error(err)
	}
}

func TestNewTraceProvider_UnknownFallsBack(t *testing.T) {
	tp := NewTraceProvider(context.Background(), ExporterConfig{Provider: Provider("JAEGER_PROVIDER")}, logger.NewDiscard())
	if _, ok := tp.(emptyTraceProvider); !ok {
		t.Errorf("got %T, want emptyTraceProvider", tp)
	}
}

func TestHTTPMiddleware_RecordsStatus(t *testing.T) {
	var sawSpan bool
	h := HTTPMiddleware(NewTracer("test"), func(*http.Request) string { return "/fees" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawSpan = NewTracer("test").SpanFromContext(r.Context()) != nil
			w.WriteHeader(http.StatusTeapot)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fees", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if !sawSpan {
		t.Error("handler did not see a span")
	}
}
