package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	arbApp "github.com/fd1az/venue-arbitrage/business/arbitrage/app"
	arbDomain "github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/business/execution/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
	"github.com/fd1az/venue-arbitrage/internal/logger"
)

const (
	tracerName = "execution"
	meterName  = "execution"
)

var _ arbApp.Executor = (*Service)(nil)

type serviceMetrics struct {
	executions metric.Int64Counter
	rejections metric.Int64Counter
	pnl        metric.Float64Histogram
}

// Service runs simulated executions against an owned ledger and journals
// every applied outcome.
type Service struct {
	calc    *arbApp.Calculator
	sim     *Simulator
	ledger  *domain.Ledger
	journal *domain.Journal
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewService wires a Service.
func NewService(
	calc *arbApp.Calculator,
	sim *Simulator,
	ledger *domain.Ledger,
	journal *domain.Journal,
	log logger.LoggerInterface,
) (*Service, error) {
	s := &Service{
		calc:    calc,
		sim:     sim,
		ledger:  ledger,
		journal: journal,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *Service) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.executions, err = meter.Int64Counter(
		"execution_trades_total",
		metric.WithDescription("Simulated executions by status"),
	)
	if err != nil {
		return err
	}

	s.metrics.rejections, err = meter.Int64Counter(
		"execution_rejections_total",
		metric.WithDescription("Executions rejected before settlement"),
	)
	if err != nil {
		return err
	}

	s.metrics.pnl, err = meter.Float64Histogram(
		"execution_realized_pnl_usd",
		metric.WithDescription("Realized balance change per execution"),
		metric.WithUnit("USD"),
	)
	return err
}

// Preview prices a trade without touching the ledger.
func (s *Service) Preview(ctx context.Context, req arbDomain.TradeRequest) (arbDomain.TradeEconomics, error) {
	_, span := s.tracer.Start(ctx, "execution.preview", trace.WithAttributes(tradeAttrs(req)...))
	defer span.End()

	econ, err := s.calc.Calculate(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "calculation failed")
		return arbDomain.TradeEconomics{}, err
	}
	return econ, nil
}

// Execute prices req and settles it against the ledger in one transaction.
// The balance check and the random draw happen under the ledger lock, so
// concurrent callers are applied one at a time.
func (s *Service) Execute(ctx context.Context, req arbDomain.TradeRequest) (*domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "execution.execute", trace.WithAttributes(tradeAttrs(req)...))
	defer span.End()

	econ, err := s.calc.Calculate(req)
	if err != nil {
		s.reject(ctx, span, "invalid", err)
		return nil, err
	}

	var out domain.Outcome
	_, err = s.ledger.Transact(func(w *domain.Wallet) error {
		if req.Amount.GreaterThan(w.Balance) {
			return apperror.New(apperror.CodeInsufficientFunds,
				apperror.WithContext(fmt.Sprintf("amount %s exceeds balance %s", req.Amount, w.Balance)))
		}
		if !econ.AcquiredAmount.IsPositive() {
			return apperror.New(apperror.CodeAmountBelowFees,
				apperror.WithContext(fmt.Sprintf("amount %s acquires %s %s", req.Amount, econ.AcquiredAmount, req.Asset)))
		}
		out = s.sim.Apply(w, econ)
		return nil
	})
	if err != nil {
		s.reject(ctx, span, string(apperror.GetCode(err)), err)
		return nil, err
	}

	s.journal.Append(recordFor(out))

	s.metrics.executions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(out.Status))))
	s.metrics.pnl.Record(ctx, out.RealizedPnL.InexactFloat64())

	span.SetAttributes(
		attribute.String("status", string(out.Status)),
		attribute.Float64("success_probability", out.SuccessProbability),
		attribute.String("realized_pnl", out.RealizedPnL.String()),
	)
	span.SetStatus(codes.Ok, string(out.Status))

	s.logger.Info(ctx, "trade executed",
		"id", out.ID,
		"status", out.Status,
		"asset", out.Asset,
		"buy", out.BuyVenue,
		"sell", out.SellVenue,
		"amount", out.Amount.String(),
		"pnl", out.RealizedPnL.StringFixed(2),
		"balance", out.NewBalance.StringFixed(2),
	)

	return &out, nil
}

// ExecuteOpportunity settles a scanned opportunity at its quoted prices.
func (s *Service) ExecuteOpportunity(ctx context.Context, opp *arbDomain.Opportunity) (*domain.Outcome, error) {
	return s.Execute(ctx, opp.Economics.Request)
}

// Ledger returns a snapshot of the wallet.
func (s *Service) Ledger() domain.Wallet {
	return s.ledger.Snapshot()
}

// Transactions returns up to limit journal records, newest first.
func (s *Service) Transactions(limit int) []domain.TransactionRecord {
	return s.journal.Recent(limit)
}

func (s *Service) reject(ctx context.Context, span trace.Span, reason string, err error) {
	s.metrics.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Warn(ctx, "trade rejected", "reason", reason, "error", err)
}

func recordFor(out domain.Outcome) domain.TransactionRecord {
	econ := out.Economics
	r := domain.TransactionRecord{
		ID:        out.ID,
		Asset:     out.Asset,
		BuyVenue:  out.BuyVenue,
		SellVenue: out.SellVenue,
		Amount:    out.Amount,
		Fees:      econ.Fees,
		Slippage:  econ.Slippage,
		Latency:   econ.Latency,
		Profit:    out.RealizedPnL,
		Timestamp: out.ExecutedAt,
	}
	if out.Succeeded() {
		r.Type = domain.RecordArbitrageTrade
		r.Message = fmt.Sprintf("Bought %s %s on %s, sold on %s",
			out.Acquired.StringFixed(6), out.Asset, out.BuyVenue.DisplayName(), out.SellVenue.DisplayName())
	} else {
		r.Type = domain.RecordArbitrageFailure
		r.Message = "Trade failed - " + out.Reason
	}
	return r
}

func tradeAttrs(req arbDomain.TradeRequest) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("asset", req.Asset),
		attribute.String("buy_venue", string(req.BuyVenue)),
		attribute.String("sell_venue", string(req.SellVenue)),
		attribute.String("amount", req.Amount.String()),
	}
}
