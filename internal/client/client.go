// Package client is the authenticated REST client for the journal API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/session"
)

// Sentinels matched by APIError through errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
}

// UserMessage is the server's detail message.
func (e *APIError) UserMessage() string { return e.Detail }

// Is maps the status code onto the sentinel errors. A 400 whose detail says
// "already" counts as a conflict.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict ||
			(e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Detail), "already"))
	case ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUnauthorizedHandler sets the callback run after a 401 has cleared the
// stored token. It runs once per 401 response.
func WithUnauthorizedHandler(fn func(ctx context.Context)) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// Client sends JSON requests to the journal API, attaching the bearer token
// held in its TokenStore. It is safe for concurrent use.
type Client struct {
	baseURL        string
	store          session.TokenStore
	httpClient     *http.Client
	onUnauthorized func(ctx context.Context)

	Auth   *AuthService
	Trades *TradeService
	Stats  *StatsService
	System *SystemService
}

// New returns a client for the API rooted at baseURL, e.g.
// http://localhost:8000/api/v1. A trailing slash is dropped.
func New(baseURL string, store session.TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	c.Auth = &AuthService{c: c}
	c.Trades = &TradeService{c: c}
	c.Stats = &StatsService{c: c}
	c.System = &SystemService{c: c}
	return c
}

// BaseURL is the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// do sends one request. in, when non-nil, is encoded as the JSON body; out,
// when non-nil, receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	token, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("method", method).Str("path", path).Dur("took", time.Since(start)).Err(err).Msg("api request")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
			Method:     method,
			Path:       path,
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.expire(ctx)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) expire(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear token after 401")
	}
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

// readDetail pulls the message out of a {"detail": ...} body. Non-string
// details and non-JSON bodies are returned as raw text.
func readDetail(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, 64<<10))
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(raw))
}
