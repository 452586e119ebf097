package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/venue-arbitrage/business/pricing/domain"
	"github.com/fd1az/venue-arbitrage/business/pricing/infra/venueclient"
	"github.com/fd1az/venue-arbitrage/internal/httpclient"
)

const (
	// BaseAPIURL is the public REST host.
	BaseAPIURL = "https://api.binance.com"

	tickerPriceEndpoint = "/api/v3/ticker/price"
)

// APIError is Binance's {"code":-1121,"msg":"..."} error body.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("binance API error %d (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// restClient is the ticker fallback used when the stream has no fresh price.
type restClient struct {
	http httpclient.Client
}

func newRESTClient(baseURL string, timeout time.Duration) (*restClient, error) {
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	c, err := venueclient.NewHTTPClient(domain.VenueBinance, baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &restClient{http: c}, nil
}

// tickerPrice returns the last trade price of a symbol such as ETHUSDT.
func (c *restClient) tickerPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	var body TickerPriceResponse
	if _, err := c.http.GetJSON(ctx, tickerPriceEndpoint, &body,
		httpclient.Query("symbol", symbol),
		httpclient.Label("endpoint", "ticker_price"),
		httpclient.Label("symbol", symbol),
		httpclient.OnStatus(decodeAPIError),
	); err != nil {
		return decimal.Zero, err
	}

	price, err := decimal.NewFromString(body.Price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("binance %s price %q: %w", symbol, body.Price, err)
	}
	return price, nil
}

// decodeAPIError prefers Binance's coded error body and falls back to the
// raw text.
func decodeAPIError(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	apiErr := &APIError{StatusCode: statusCode}
	if json.Unmarshal(body, apiErr) == nil && apiErr.Code != 0 {
		return apiErr
	}
	return &venueclient.APIError{Venue: domain.VenueBinance, StatusCode: statusCode, Message: string(body)}
}
