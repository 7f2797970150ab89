// Package source retrieves published RAD workbooks from the EUROCONTROL
// publication page.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"radindex/internal/config"
)

type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	timeout    time.Duration
}

func NewClient(cfg config.Config) *Client {
	timeout := time.Duration(cfg.RADTimeoutMs) * time.Millisecond
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: timeout,
			},
		},
		limiter: NewRateLimiter(cfg.RADRateLimitRPS),
		timeout: timeout,
	}
}

// FetchPage returns the body of the publication page.
func (c *Client) FetchPage(ctx context.Context) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.get(ctx, c.cfg.RADBaseURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// get performs a GET with retries on transport errors and retryable
// statuses. The caller owns the body of the returned 2xx response.
func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	attempts := c.cfg.RADMaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.RADUserAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < attempts {
				if err := sleepBackoff(ctx, attempt); err != nil {
					return nil, err
				}
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		if isRetryableStatus(resp.StatusCode) && attempt < attempts {
			lastErr = fmt.Errorf("rad status %d", resp.StatusCode)
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, err
			}
			continue
		}
		return nil, fmt.Errorf("get %s: status=%d body=%s", rawURL, resp.StatusCode, string(body))
	}

	if lastErr == nil {
		lastErr = errors.New("rad request failed")
	}
	return nil, lastErr
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
