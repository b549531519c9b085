package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lukotrack/luko/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxFetchAttempts = 3

// Client talks to the pricing API. Requests are throttled to the API's rate
// limit and retried with exponential backoff on transient failures.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *zap.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

func (c *Client) LookupProduct(ctx context.Context, marketplace, asin string) (*domain.ProductInfo, error) {
	item, err := c.fetchItem(ctx, marketplace, asin)
	if err != nil {
		return nil, err
	}
	return item.toProductInfo(marketplace, time.Now().UTC())
}

func (c *Client) FetchPrice(ctx context.Context, marketplace, asin string) (*domain.Price, error) {
	item, err := c.fetchItem(ctx, marketplace, asin)
	if err != nil {
		return nil, err
	}
	return item.Offer.toPrice(time.Now().UTC())
}

func (c *Client) fetchItem(ctx context.Context, marketplace, asin string) (*itemResponse, error) {
	endpoint := fmt.Sprintf("%s/items/%s/%s", c.baseURL, url.PathEscape(marketplace), url.PathEscape(asin))

	backoffCfg := backoff.NewExponentialBackOff()
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		item, retryable, err := c.doFetch(ctx, endpoint, asin)
		if err == nil {
			return item, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		sleep := backoffCfg.NextBackOff()
		c.logger.Warn("pricing request failed, retrying",
			zap.String("asin", asin),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", sleep),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return nil, lastErr
}

func (c *Client) doFetch(ctx context.Context, endpoint, asin string) (*itemResponse, bool, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		return nil, true, err
	}
	defer response.Body.Close()

	c.logger.Debug("pricing request complete",
		zap.String("asin", asin),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	switch {
	case response.StatusCode == http.StatusNotFound:
		return nil, false, domain.ErrProductNotFound
	case response.StatusCode >= 500:
		return nil, true, fmt.Errorf("pricing api: status %d", response.StatusCode)
	case response.StatusCode < 200 || response.StatusCode >= 300:
		return nil, false, fmt.Errorf("pricing api: status %d", response.StatusCode)
	}

	var item itemResponse
	if err := json.NewDecoder(response.Body).Decode(&item); err != nil {
		return nil, false, err
	}
	return &item, false, nil
}
