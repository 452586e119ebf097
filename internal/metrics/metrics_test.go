package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fd1az/venue-arbitrage/internal/logger"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"x-honeycomb-team=abc", map[string]string{"x-honeycomb-team": "abc"}},
		{"a=1, b=2,broken,=skip", map[string]string{"a": "1", "b": "2"}},
	}

	for _, tt := range tests {
		got := ParseHeaders(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("ParseHeaders(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("ParseHeaders(%q)[%s] = %q, want %q", tt.in, k, got[k], v)
			}
		}
	}
}

func TestNewMetricProvider(t *testing.T) {
	mp, err := NewMetricProvider(context.Background(),
		WithServiceName("venue-arbitrage-test"),
		WithPrometheus(),
		WithExportInterval(time.Second),
	)
	if err != nil {
		t.Fatalf("NewMetricProvider failed: %v", err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("test_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 1)
}

func TestNewMetricProvider_UnknownExporter(t *testing.T) {
	_, err := NewMetricProvider(context.Background(), WithReader(Reader{Exporter: "carrier-pigeon"}))
	if err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestConfig_Interval(t *testing.T) {
	var cfg Config
	WithExportInterval(0)(&cfg)
	if cfg.interval() != defaultExportInterval {
		t.Errorf("interval = %s, want %s", cfg.interval(), defaultExportInterval)
	}
	WithExportInterval(5 * time.Second)(&cfg)
	if cfg.interval() != 5*time.Second {
		t.Errorf("interval = %s, want 5s", cfg.interval())
	}
}

func TestScrapeServer_ServesMetrics(t *testing.T) {
	mp, err := NewMetricProvider(context.Background(), WithServiceName("scrape-test"), WithPrometheus())
	if err != nil {
		t.Fatal(err)
	}
	defer mp.Shutdown(context.Background())

	counter, err := mp.Meter("test").Int64Counter("venue_scrape_probe_total")
	if err != nil {
		t.Fatal(err)
	}
	counter.Add(context.Background(), 3)

	// Port zero picks a free port.
	srv := &ScrapeServer{log: logger.NewDiscard()}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	resp, err := http.Get("http://" + srv.Addr().String() + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "venue_scrape_probe_total") {
		t.Errorf("scrape output missing counter:\n%s", body)
	}
}
