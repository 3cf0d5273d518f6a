// Package api provides a client for fetching budgets and draw requests from an HTTP endpoint.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/theirongolddev/drawdown/internal/model"
	"github.com/theirongolddev/drawdown/internal/source"
)

const (
	budgetPath       = "/budget"
	drawRequestsPath = "/budget/draw-requests"
	maxBodySize      = 1 << 20 // 1 MB
	maxErrorBody     = 512
	defaultTimeout   = 10 * time.Second
)

var (
	// ErrUnauthorized indicates the API token is missing, expired or invalid.
	ErrUnauthorized = errors.New("api: unauthorized")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("api: rate limited")
	// ErrBreakerOpen indicates recent requests failed and calls are short-circuited.
	ErrBreakerOpen = errors.New("api: too many recent failures, not calling endpoint")
)

// StatusError is returned for non-2xx responses without a dedicated sentinel.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api: unexpected status %d", e.Code)
	}
	return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Body)
}

// Options configures a Client. Zero values pick defaults.
type Options struct {
	Token string
	// Timeout bounds each request. Negative disables the per-request timeout.
	Timeout time.Duration
	// RatePerSec caps outgoing requests. Zero means unlimited.
	RatePerSec float64
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client fetches budget data from a remote endpoint. No request is retried.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("api: base URL %q must start with http:// or https://", baseURL)
	}

	c := &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(opts.Token),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		log:     opts.Logger,
	}
	if c.timeout == 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if opts.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "drawdown-api",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// Client-side problems say nothing about endpoint health.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil || errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state change")
		},
	})

	return c, nil
}

// GetBudget fetches the budget snapshot. A 204 response yields (nil, nil).
func (c *Client) GetBudget(ctx context.Context) (*model.Budget, error) {
	body, err := c.get(ctx, budgetPath)
	if err != nil || body == nil {
		return nil, err
	}
	b, err := source.DecodeBudget(body)
	if err != nil {
		return nil, fmt.Errorf("api: parsing budget: %w", err)
	}
	return b, nil
}

// GetDrawRequests fetches the pending draw requests. A 204 response yields (nil, nil).
func (c *Client) GetDrawRequests(ctx context.Context) ([]model.DrawRequest, error) {
	body, err := c.get(ctx, drawRequestsPath)
	if err != nil || body == nil {
		return nil, err
	}
	reqs, err := source.DecodeDrawRequests(body)
	if err != nil {
		return nil, fmt.Errorf("api: parsing draw requests: %w", err)
	}
	return reqs, nil
}

// get performs a GET request through the breaker and returns the response body.
// A nil body with a nil error means the endpoint answered 204 No Content.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("api: waiting for rate limiter: %w", err)
		}
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrBreakerOpen
		}
		return nil, err
	}
	body, _ := out.([]byte)
	return body, nil
}

func (c *Client) do(ctx context.Context, path string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "drawdown/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	//nolint:gosec // URL is built from the configured base URL
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("api response")

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("api: reading response: %w", err)
	}
	return body, nil
}
