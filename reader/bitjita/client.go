package bitjita

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
)

// listingPath lists every item that has both buy and sell orders.
const listingPath = "market?hasOrders=true&hasBuyOrders=true&hasSellOrders=true"

// MarketRequestError reports a failed call to the market API.
type MarketRequestError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *MarketRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bitjita %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("bitjita %s: %v", e.Endpoint, e.Err)
}

func (e *MarketRequestError) Unwrap() error { return e.Err }

// Client fetches market data from the bitjita REST API. Requests are paced
// by a shared rate limiter.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// NewClient builds a client from the bitjita source configuration.
func NewClient(cfg config.BitjitaConfig, log *logger.Log) *Client {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = config.DefaultRPS
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = config.DefaultUserAgent
	}
	base := strings.TrimRight(cfg.URL, "/")
	if base == "" {
		base = config.DefaultBitjitaURL
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: userAgentTransport{agent: agent, base: http.DefaultTransport},
	}

	log.WithComponent("bitjita").WithFields(logger.Fields{
		"url":     base,
		"rps":     rps,
		"burst":   burst,
		"timeout": timeout.String(),
	}).Info("bitjita client initialized")

	return &Client{
		baseURL: base,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log,
	}
}

// GetMarket fetches the order book of one item.
func (c *Client) GetMarket(ctx context.Context, category, itemID string) (*models.MarketSnapshot, error) {
	endpoint := fmt.Sprintf("market/%s/%s", url.PathEscape(category), url.PathEscape(itemID))
	var resp models.MarketResponse
	if err := c.get(ctx, "market", endpoint, &resp); err != nil {
		return nil, err
	}
	snap, err := models.NewMarketSnapshot(category, itemID, &resp, time.Now().UTC())
	if err != nil {
		return nil, &MarketRequestError{Endpoint: endpoint, Err: err}
	}
	logger.LogDataFlowEntry(c.log.WithComponent("bitjita"), "bitjita_api", "snapshot",
		len(snap.BuyOrders)+len(snap.SellOrders), "orders")
	return snap, nil
}

// ListMarketItems fetches the items that currently have orders on both
// sides.
func (c *Client) ListMarketItems(ctx context.Context) ([]models.ListedItem, error) {
	var resp models.ListingResponse
	if err := c.get(ctx, "listing", listingPath, &resp); err != nil {
		return nil, err
	}
	c.log.WithComponent("bitjita").WithFields(logger.Fields{"items": len(resp.Data.Items)}).Info("fetched market listing")
	return resp.Data.Items, nil
}

func (c *Client) get(ctx context.Context, kind, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	log := c.log.WithComponent("bitjita").WithFields(logger.Fields{"endpoint": endpoint})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint, nil)
	if err != nil {
		return &MarketRequestError{Endpoint: endpoint, Err: err}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.log.LogMetric("bitjita", "request_latency", float64(time.Since(start).Microseconds())/1000, "duration_ms", logger.Fields{"endpoint": kind})
	if err != nil {
		return &MarketRequestError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &MarketRequestError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected response: %s", strings.TrimSpace(string(body))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MarketRequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	log.Debug("request completed")
	return nil
}
