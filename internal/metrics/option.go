package metrics

import (
	"strings"
	"time"
)

// Exporter names a metric reader backend.
type Exporter string

const (
	ExporterPrometheus Exporter = "prometheus"
	ExporterOTLP       Exporter = "otlp"
)

const defaultExportInterval = 30 * time.Second

// Reader configures one reader on the meter provider. Endpoint, Headers and
// Insecure only apply to OTLP.
type Reader struct {
	Exporter Exporter
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type Config struct {
	ServiceName    string
	Readers        []Reader
	ExportInterval time.Duration
}

func (c Config) interval() time.Duration {
	if c.ExportInterval > 0 {
		return c.ExportInterval
	}
	return defaultExportInterval
}

type Option func(*Config)

func WithServiceName(name string) Option {
	return func(c *Config) { c.ServiceName = name }
}

func WithReader(r Reader) Option {
	return func(c *Config) { c.Readers = append(c.Readers, r) }
}

// WithPrometheus exposes instruments to the scrape handler.
func WithPrometheus() Option {
	return WithReader(Reader{Exporter: ExporterPrometheus})
}

// WithOTLP pushes to a collector over gRPC every export interval.
func WithOTLP(endpoint string, headers map[string]string, insecure bool) Option {
	return WithReader(Reader{
		Exporter: ExporterOTLP,
		Endpoint: endpoint,
		Headers:  headers,
		Insecure: insecure,
	})
}

func WithExportInterval(d time.Duration) Option {
	return func(c *Config) { c.ExportInterval = d }
}

// ParseHeaders reads "k1=v1,k2=v2" into a header map. Malformed pairs are skipped.
func ParseHeaders(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
