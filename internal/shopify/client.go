package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/pkg/errors"
)

const accessTokenHeader = "X-Shopify-Access-Token"

type Client struct {
	baseURL      string
	accessToken  string
	httpClient   *http.Client
	retryMax     int
	retryInitial time.Duration
	logger       *zap.Logger
}

// NewClient creates a Shopify REST Admin API client
func NewClient(cfg config.ShopifyConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Normalize shop domain - remove https:// and trailing slashes.
	// A plain http:// prefix is kept so the client can talk to local mocks.
	scheme := "https://"
	shopDomain := strings.TrimSpace(cfg.ShopDomain)
	if strings.HasPrefix(shopDomain, "http://") {
		scheme = "http://"
		shopDomain = strings.TrimPrefix(shopDomain, "http://")
	}
	shopDomain = strings.TrimPrefix(shopDomain, "https://")
	shopDomain = strings.TrimSuffix(shopDomain, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retryInitial := cfg.RetryInitial
	if retryInitial <= 0 {
		retryInitial = 500 * time.Millisecond
	}

	return &Client{
		baseURL:      fmt.Sprintf("%s%s/admin/api/%s", scheme, shopDomain, cfg.APIVersion),
		accessToken:  cfg.AccessToken,
		httpClient:   &http.Client{Timeout: timeout},
		retryMax:     cfg.RetryMax,
		retryInitial: retryInitial,
		logger:       logger,
	}
}

// BaseURL is the versioned admin API root, e.g. https://shop.myshopify.com/admin/api/2023-10
func (c *Client) BaseURL() string {
	return c.baseURL
}

type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *response) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// isTransient reports statuses worth retrying: rate limiting and server errors
func isTransient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// get issues a GET with retry and exponential backoff on network errors and transient
// statuses. A non-transient non-2xx status is returned as a response, not an error.
func (c *Client) get(ctx context.Context, url string) (*response, error) {
	var last *response
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set(accessTokenHeader, c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Shopify request failed", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		last = &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
		if isTransient(resp.StatusCode) {
			c.logger.Warn("Shopify transient status", zap.String("url", url), zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt))
			return &errors.ErrUpstream{Service: "shopify", StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInitial
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retryMax)), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return last, err
	}
	return last, nil
}

// post issues a single POST with a JSON body. POSTs are not retried.
func (c *Client) post(ctx context.Context, url string, payload interface{}) (*response, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
