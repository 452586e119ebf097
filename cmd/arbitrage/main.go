// Package main is the entry point for the venue arbitrage simulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/fd1az/venue-arbitrage/business/api"
	"github.com/fd1az/venue-arbitrage/business/arbitrage"
	arbitrageDI "github.com/fd1az/venue-arbitrage/business/arbitrage/di"
	"github.com/fd1az/venue-arbitrage/business/execution"
	executionDI "github.com/fd1az/venue-arbitrage/business/execution/di"
	"github.com/fd1az/venue-arbitrage/business/pricing"
	pricingDI "github.com/fd1az/venue-arbitrage/business/pricing/di"
	"github.com/fd1az/venue-arbitrage/internal/apm"
	"github.com/fd1az/venue-arbitrage/internal/config"
	"github.com/fd1az/venue-arbitrage/internal/health"
	"github.com/fd1az/venue-arbitrage/internal/logger"
	"github.com/fd1az/venue-arbitrage/internal/metrics"
	"github.com/fd1az/venue-arbitrage/internal/monolith"
	"github.com/fd1az/venue-arbitrage/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run in CLI mode with logs (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("venue-arbitrage %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, cancel, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cancel context.CancelFunc, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Arbitrage.TUIMode = tuiMode

	// The TUI owns the terminal, so logs are discarded there.
	out := io.Writer(os.Stderr)
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting venue arbitrage simulator",
		"version", version,
		"environment", cfg.App.Environment,
		"asset", cfg.Arbitrage.Asset,
	)

	stopTelemetry := setupTelemetry(ctx, cfg, log)
	defer stopTelemetry()

	healthServer := health.NewServer(cfg.Health.Port, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", cfg.Health.Port)
		defer healthServer.Stop(context.Background())
	}

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	// Scanning stops before the closers run.
	defer func() {
		cancel()
		if err := mono.Close(); err != nil {
			log.Warn(context.Background(), "shutdown error", "error", err)
		}
	}()

	// Dependency order: execution settles with the arbitrage calculator,
	// arbitrage reads pricing, api reads all three.
	modules := []monolith.Module{
		&pricing.Module{},
		&execution.Module{},
		&arbitrage.Module{},
		&api.Module{},
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	start := func() error {
		ui.Send(ui.StartupMsg{Step: "config", Status: "done", Message: "configuration loaded"})
		ui.Send(ui.StartupMsg{Step: "venues", Status: "connecting"})

		if err := mono.StartModules(ctx, modules...); err != nil {
			ui.Send(ui.StartupMsg{Step: "venues", Status: "failed", Message: err.Error()})
			return fmt.Errorf("failed to start modules: %w", err)
		}
		registerHealthChecks(healthServer, mono)

		svc := pricingDI.GetPricingService(mono.Services())
		ui.Send(ui.StartupMsg{Step: "venues", Status: "done", Message: fmt.Sprintf("%d venues configured", len(svc.Venues()))})

		switch bn := pricingDI.GetBinanceProvider(mono.Services()); {
		case bn == nil:
			ui.Send(ui.StartupMsg{Step: "binance", Status: "done", Message: "binance disabled"})
		case bn.Streaming():
			ui.Send(ui.StartupMsg{Step: "binance", Status: "connected"})
		default:
			ui.Send(ui.StartupMsg{Step: "binance", Status: "failed", Message: "binance stream down, using REST"})
		}

		return arbitrageDI.GetDetector(mono.Services()).Start(ctx)
	}

	if tuiMode {
		return runTUI(ctx, cfg, start)
	}

	if err := start(); err != nil {
		return err
	}
	log.Info(ctx, "all modules started, scanning", "interval", cfg.Arbitrage.ScanInterval)

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

// setupTelemetry installs the trace and metric providers when enabled and
// returns their shutdown.
func setupTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) func() {
	if !cfg.Telemetry.Enabled {
		return func() {}
	}

	provider := apm.ParseProvider(cfg.Telemetry.TraceProvider)
	traceProvider := apm.NewTraceProvider(ctx, apm.ExporterConfig{
		Provider:    provider,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Headers:     metrics.ParseHeaders(cfg.Telemetry.OTLPHeaders),
		Protocol:    cfg.Telemetry.OTLPProtocol,
		SampleRatio: cfg.Telemetry.SampleRatio,
	}, log)
	log.Info(ctx, "tracing initialized", "provider", provider)

	metricOpts := []metrics.Option{
		metrics.WithServiceName(cfg.Telemetry.ServiceName),
		metrics.WithPrometheus(),
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		metricOpts = append(metricOpts, metrics.WithOTLP(
			cfg.Telemetry.OTLPEndpoint,
			metrics.ParseHeaders(cfg.Telemetry.OTLPHeaders),
			false,
		))
	}

	var scrape *metrics.ScrapeServer
	meterProvider, err := metrics.NewMetricProvider(ctx, metricOpts...)
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	} else {
		scrape = metrics.NewScrapeServer(cfg.Telemetry.PrometheusPort, log)
		if err := scrape.Start(); err != nil {
			log.Warn(ctx, "metrics endpoint disabled", "error", err)
			scrape = nil
		}
	}

	return func() {
		if err := traceProvider.Stop(); err != nil {
			log.Warn(context.Background(), "trace provider shutdown", "error", err)
		}
		if scrape != nil {
			_ = scrape.Shutdown(context.Background())
		}
		if meterProvider != nil {
			if err := meterProvider.Shutdown(context.Background()); err != nil {
				log.Warn(context.Background(), "meter provider shutdown", "error", err)
			}
		}
	}
}

func registerHealthChecks(hs *health.Server, mono monolith.Monolith) {
	svc := pricingDI.GetPricingService(mono.Services())
	hs.RegisterCheck("venues", health.AllHealthy(svc.Healthy))

	ledger := executionDI.GetLedger(mono.Services())
	hs.RegisterCheck("ledger", func(ctx context.Context) (bool, string) {
		w := ledger.Snapshot()
		return !w.Balance.IsNegative(), "balance " + w.Balance.StringFixed(2)
	})
}

func runTUI(ctx context.Context, cfg *config.Config, start func() error) error {
	startSignal := make(chan struct{}, 1)
	ui.OnStartModules = func() {
		select {
		case startSignal <- struct{}{}:
		default:
		}
	}

	model := ui.New(
		ui.WithFees(arbitrage.FeeSchedule(cfg), arbitrage.LatencyTable(cfg)),
		ui.WithAsset(cfg.Arbitrage.Asset, cfg.Arbitrage.ProbeAmountDecimal()),
	)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ui.Program = p

	// A signal quits the program like the quit key does.
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	errCh := make(chan error, 1)
	go func() {
		select {
		case <-startSignal:
		case <-ctx.Done():
			errCh <- nil
			return
		}

		if err := start(); err != nil {
			ui.Send(ui.ErrorMsg{Error: err})
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// Quitting the TUI returns here; the deferred cancel stops the scan loop.
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}
