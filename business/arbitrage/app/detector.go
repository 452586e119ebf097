package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const (
	tracerName = "arbitrage"
	meterName  = "arbitrage"
)

// DetectorConfig holds configuration for the arbitrage detector.
type DetectorConfig struct {
	Asset       string
	ProbeAmount decimal.Decimal
	Interval    time.Duration
	// AutoExecute settles the best opportunity of each scan when an
	// Executor is wired.
	AutoExecute bool
}

type detectorMetrics struct {
	scans         metric.Int64Counter
	scanErrors    metric.Int64Counter
	opportunities metric.Int64Counter
	bestNetProfit metric.Float64Histogram
}

// Detector periodically snapshots quotes, scans them and reports results.
type Detector struct {
	source   QuoteSource
	scanner  *Scanner
	reporter Reporter
	executor Executor
	config   DetectorConfig
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *detectorMetrics

	wg sync.WaitGroup
}

// NewDetector creates a new arbitrage Detector. executor may be nil.
func NewDetector(
	source QuoteSource,
	scanner *Scanner,
	reporter Reporter,
	executor Executor,
	config DetectorConfig,
	log logger.LoggerInterface,
) (*Detector, error) {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}

	d := &Detector{
		source:   source,
		scanner:  scanner,
		reporter: reporter,
		executor: executor,
		config:   config,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := d.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return d, nil
}

func (d *Detector) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &detectorMetrics{}

	d.metrics.scans, err = meter.Int64Counter(
		"arbitrage_scans_total",
		metric.WithDescription("Completed scans"),
	)
	if err != nil {
		return err
	}

	d.metrics.scanErrors, err = meter.Int64Counter(
		"arbitrage_scan_errors_total",
		metric.WithDescription("Scans that could not run"),
	)
	if err != nil {
		return err
	}

	d.metrics.opportunities, err = meter.Int64Counter(
		"arbitrage_opportunities_total",
		metric.WithDescription("Profitable venue pairs found"),
	)
	if err != nil {
		return err
	}

	d.metrics.bestNetProfit, err = meter.Float64Histogram(
		"arbitrage_best_net_profit_usd",
		metric.WithDescription("Net profit of the best opportunity per scan"),
		metric.WithUnit("USD"),
	)
	return err
}

// Start begins the detection loop.
func (d *Detector) Start(ctx context.Context) error {
	d.logger.Info(ctx, "starting arbitrage detector",
		"asset", d.config.Asset,
		"probe", d.config.ProbeAmount.String(),
		"interval", d.config.Interval,
		"auto_execute", d.config.AutoExecute && d.executor != nil,
	)

	if err := d.reporter.Start(ctx); err != nil {
		return err
	}

	d.wg.Add(1)
	go d.run(ctx)

	return nil
}

func (d *Detector) run(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.Interval)
	defer ticker.Stop()

	d.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "detector stopping", "reason", ctx.Err())
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

func (d *Detector) tick(ctx context.Context) {
	if _, err := d.ScanOnce(ctx); err != nil && ctx.Err() == nil {
		d.logger.Warn(ctx, "scan failed", "asset", d.config.Asset, "error", err)
		d.reporter.ReportError(err)
	}
}

// ScanOnce fetches a snapshot, scans it and reports the result.
func (d *Detector) ScanOnce(ctx context.Context) (*domain.ScanResult, error) {
	ctx, span := d.tracer.Start(ctx, "arbitrage.scan",
		trace.WithAttributes(
			attribute.String("asset", d.config.Asset),
			attribute.String("probe", d.config.ProbeAmount.String()),
		),
	)
	defer span.End()

	snap, err := d.source.Snapshot(ctx, d.config.Asset)
	if err != nil {
		d.metrics.scanErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "snapshot")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot failed")
		return nil, err
	}
	d.reporter.UpdateQuotes(snap)

	result, err := d.scanner.Scan(ctx, snap, d.config.ProbeAmount)
	if err != nil {
		d.metrics.scanErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", "scan")))
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return nil, err
	}

	d.metrics.scans.Add(ctx, 1)
	d.metrics.opportunities.Add(ctx, int64(len(result.Opportunities)))
	span.SetAttributes(
		attribute.Int("quotes", len(result.Quotes)),
		attribute.Int("opportunities", len(result.Opportunities)),
	)
	span.SetStatus(codes.Ok, "scan complete")

	d.reporter.ReportScan(result)

	best, ok := result.Best()
	if !ok {
		d.logger.Debug(ctx, "no opportunity",
			"asset", result.Asset,
			"reason", result.Analysis.Reason,
		)
		return result, nil
	}

	d.metrics.bestNetProfit.Record(ctx, best.NetProfit().InexactFloat64())
	d.logger.Info(ctx, "opportunity detected",
		"asset", best.Asset,
		"buy", best.BuyVenue,
		"sell", best.SellVenue,
		"net_profit", best.NetProfit().StringFixed(2),
		"profit_pct", best.ProfitPct.StringFixed(4),
	)

	if d.config.AutoExecute && d.executor != nil {
		d.execute(ctx, best)
	}

	return result, nil
}

func (d *Detector) execute(ctx context.Context, opp *domain.Opportunity) {
	outcome, err := d.executor.ExecuteOpportunity(ctx, opp)
	if err != nil {
		d.logger.Warn(ctx, "auto execution rejected", "opportunity", opp.ID, "error", err)
		d.reporter.ReportError(err)
		return
	}
	d.reporter.ReportExecution(outcome)
}

// Stop waits for the loop to exit and shuts the reporter down. The loop
// exits when the context passed to Start is cancelled.
func (d *Detector) Stop() error {
	d.wg.Wait()
	d.logger.Info(context.Background(), "stopping arbitrage detector")
	return d.reporter.Stop()
}
