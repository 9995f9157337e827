// Package goldapi is a client for the goldapi.io spot-price feed.
package goldapi

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/yusy4code/gold-tracker-ai/internal/config"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PriceQuote is the feed's answer for one metal/currency pair. Price is per
// troy ounce; Change and ChangePercent are period-over-period figures.
type PriceQuote struct {
	Timestamp     int64   `json:"timestamp"`
	Metal         string  `json:"metal"`
	Currency      string  `json:"currency"`
	Price         float64 `json:"price"`
	PrevClose     float64 `json:"prev_close_price"`
	Change        float64 `json:"ch"`
	ChangePercent float64 `json:"chp"`
}

// ClientInterface defines the interface for the gold price feed client.
type ClientInterface interface {
	GetPrice(ctx context.Context) (*PriceQuote, error)
}

// Client fetches spot prices from goldapi.io.
// It implements ClientInterface.
type Client struct {
	client   *resty.Client
	apiKey   string
	metal    string
	currency string
	logger   *zap.Logger
	limiter  *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new gold price feed client.
func NewClient(cfg *config.GoldAPI, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// The free feed tier allows very few requests; the limiter keeps a
	// click-happy user from burning the quota.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:   client,
		apiKey:   cfg.ApiKey,
		metal:    cfg.Metal,
		currency: cfg.Currency,
		logger:   logger,
		limiter:  limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetPrice fetches the current per-ounce price for the configured metal and
// currency. Network failures and non-success responses are both feed
// failure; the caller decides what to fall back to.
func (c *Client) GetPrice(ctx context.Context) (*PriceQuote, error) {
	var quote PriceQuote

	req := c.client.R().
		SetHeader("x-access-token", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetResult(&quote)

	url := fmt.Sprintf("/%s/%s", c.metal, c.currency)
	resp, err := c.doRequest(ctx, "GET", url, req)
	if err != nil {
		c.logger.Error("Failed to fetch gold price", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch gold price: %w", err)
	}

	result := resp.Result().(*PriceQuote)
	if result.Price <= 0 {
		return nil, fmt.Errorf("feed returned non-positive price: %v", result.Price)
	}

	c.logger.Info("Fetched gold price",
		zap.Float64("price", result.Price),
		zap.Float64("change", result.Change),
		zap.String("currency", result.Currency),
	)
	return result, nil
}
