// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/arbitrage/domain"
	"github.com/fd1az/venue-arbitrage/internal/apperror"
)

var two = decimal.NewFromInt(2)

// Calculator computes fee, slippage and latency adjusted trade economics.
// It holds read-only tables and is safe for concurrent use.
type Calculator struct {
	fees    domain.FeeSchedule
	latency domain.LatencyTable
}

// NewCalculator creates a Calculator over the given tables.
func NewCalculator(fees domain.FeeSchedule, latency domain.LatencyTable) *Calculator {
	return &Calculator{
		fees:    fees,
		latency: latency,
	}
}

// Fees returns the fee schedule in use.
func (c *Calculator) Fees() domain.FeeSchedule {
	return c.fees
}

// Latency returns the latency table in use.
func (c *Calculator) Latency() domain.LatencyTable {
	return c.latency
}

// Calculate evaluates buying req.Amount dollars of the asset on the buy venue
// and selling everything acquired on the sell venue.
func (c *Calculator) Calculate(req domain.TradeRequest) (domain.TradeEconomics, error) {
	if err := validateRequest(req); err != nil {
		return domain.TradeEconomics{}, err
	}

	amount := req.Amount
	buyFee := amount.Mul(c.fees.VenueFee(req.BuyVenue))
	sellFee := amount.Mul(c.fees.VenueFee(req.SellVenue))
	networkFee := c.fees.NetworkFee(req.Asset)

	slippage := domain.SlippageFor(amount)
	effBuy := req.BuyPrice.Mul(decimal.NewFromInt(1).Add(slippage))
	effSell := req.SellPrice.Mul(decimal.NewFromInt(1).Sub(slippage))

	if !effBuy.IsPositive() {
		return domain.TradeEconomics{}, apperror.New(apperror.CodeComputationUnavailable,
			apperror.WithContext("effective buy price "+effBuy.String()))
	}

	// Network fee is charged once on the way in and once on the way out.
	acquired := amount.Sub(buyFee).Sub(networkFee).Div(effBuy)
	proceeds := acquired.Mul(effSell).Sub(sellFee).Sub(networkFee)

	networkTotal := networkFee.Mul(two)

	return domain.TradeEconomics{
		Request:     req,
		GrossProfit: req.SellPrice.Sub(req.BuyPrice),
		NetProfit:   proceeds.Sub(amount),
		Fees: domain.FeeBreakdown{
			Buy:     buyFee,
			Sell:    sellFee,
			Network: networkTotal,
			Total:   buyFee.Add(sellFee).Add(networkTotal),
		},
		Slippage:           slippage,
		Latency:            c.latency.Latency(req.BuyVenue) + c.latency.Latency(req.SellVenue),
		EffectiveBuyPrice:  effBuy,
		EffectiveSellPrice: effSell,
		AcquiredAmount:     acquired,
		Proceeds:           proceeds,
	}, nil
}

func validateRequest(req domain.TradeRequest) error {
	switch {
	case !req.BuyPrice.IsPositive():
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("buy price %s on %s", req.BuyPrice, req.BuyVenue)))
	case !req.SellPrice.IsPositive():
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(fmt.Sprintf("sell price %s on %s", req.SellPrice, req.SellVenue)))
	case !req.Amount.IsPositive():
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amount "+req.Amount.String()))
	case req.BuyVenue == req.SellVenue:
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("buy and sell venue are both "+string(req.BuyVenue)))
	}
	return nil
}
