// Package sportmonks reads live and final fixture scores from the SportMonks
// Football API v3. Requests are paced with a token bucket sized to the
// plan's per-minute quota; 429 and 5xx responses are retried.
package sportmonks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.sportmonks.com/v3/football"

const (
	defaultRPM      = 60
	defaultRetries  = 2
	defaultRetryGap = 2 * time.Second
	maxPages        = 20
)

// APIError is a non-200 reply from SportMonks.
type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sportmonks %s: status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is a rate-limited SportMonks client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	limiter    *rate.Limiter
	retries    int
	retryGap   time.Duration
	logger     *slog.Logger
}

// NewClient creates a client allowed requestsPerMinute calls (<= 0 uses 60).
func NewClient(apiToken string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRPM
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    DefaultBaseURL,
		apiToken:   apiToken,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		retries:    defaultRetries,
		retryGap:   defaultRetryGap,
		logger:     logger,
	}
}

// WithBaseURL points the client at another API root (tests, proxies).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// WithRetry sets how many times a temporary failure is retried and the
// wait before the first retry. The wait doubles on each attempt unless the
// server sends Retry-After.
func (c *Client) WithRetry(retries int, gap time.Duration) *Client {
	c.retries = max(0, retries)
	c.retryGap = gap
	return c
}

// envelope is the common response wrapper.
type envelope[T any] struct {
	Data       T `json:"data"`
	Pagination *struct {
		HasMore bool `json:"has_more"`
	} `json:"pagination"`
}

// getOne decodes the data object of a single-resource endpoint.
func getOne[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	var env envelope[T]
	err := c.get(ctx, path, params, &env)
	return env.Data, err
}

// getList walks every page of a list endpoint.
func getList[T any](ctx context.Context, c *Client, path string, params url.Values, perPage int) ([]T, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(perPage))

	var all []T
	for page := 1; page <= maxPages; page++ {
		q.Set("page", strconv.Itoa(page))
		var env envelope[[]T]
		if err := c.get(ctx, path, q, &env); err != nil {
			return all, err
		}
		all = append(all, env.Data...)
		if env.Pagination == nil || !env.Pagination.HasMore {
			return all, nil
		}
	}
	c.logger.Warn("SportMonks pagination cut off", "path", path, "pages", maxPages)
	return all, nil
}

// get performs a paced GET, retrying temporary failures, and decodes the
// body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	wait := c.retryGap
	for attempt := 0; ; attempt++ {
		body, retryAfter, err := c.do(ctx, path, params)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Temporary() || attempt >= c.retries {
			return err
		}
		if retryAfter > 0 {
			wait = retryAfter
		}
		c.logger.Warn("SportMonks request failed, retrying",
			"path", path, "status", apiErr.StatusCode, "attempt", attempt+1, "wait", wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		var retryAfter time.Duration
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && s > 0 {
			retryAfter = time.Duration(s) * time.Second
		}
		return nil, retryAfter, &APIError{Path: path, StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, 0, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
