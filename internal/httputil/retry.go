package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   1 * time.Second,
	MaxDelay:    10 * time.Second,
}

// backoff returns the wait before attempt n+1 (n starts at 1).
func (p Policy) backoff(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Do sends the request built by buildReq, retrying transport errors, 5xx
// and 429 responses with exponential backoff. A Retry-After header on a 429
// overrides the computed delay, capped at MaxDelay. buildReq runs once per
// attempt because request bodies are consumed.
func Do(ctx context.Context, client *http.Client, p Policy, buildReq func() (*http.Request, error)) (*http.Response, error) {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultPolicy.MaxAttempts
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultPolicy.MaxDelay
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		delay := p.backoff(attempt)
		resp, err := client.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusTooManyRequests:
			if ra := retryAfter(resp.Header.Get("Retry-After")); ra > 0 {
				delay = min(ra, p.MaxDelay)
			}
			lastErr = drain(resp)
		case resp.StatusCode >= 500:
			lastErr = drain(resp)
		default:
			return resp, nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		log.Warn().
			Str("url", req.URL.Redacted()).
			Int("attempt", attempt).
			Int("max_attempts", p.MaxAttempts).
			Dur("retry_in", delay).
			Err(lastErr).
			Msg("request failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("all %d attempts failed, last error: %w", p.MaxAttempts, lastErr)
}

func drain(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	resp.Body.Close()
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
}

func retryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
