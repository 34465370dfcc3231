/*
Package api is the client of the messaging backend's REST surface.

Every call goes through one request path: a per-route token bucket, JSON encoding, the bearer
token of the current session, and a decoder that turns {"success": false, "message": ...}
bodies into errors carrying the backend's message verbatim.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"whatsgram/internal/pkg/errs"
	"whatsgram/internal/pkg/limiter"
	"whatsgram/internal/pkg/logx"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// TokenSource supplies the bearer token of the current session.
type TokenSource interface {
	Token() string
}

// Config holds the settings of a Client.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RequestRate float64

	// Transport overrides the HTTP transport; nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the backend REST API.
type Client struct {
	base    *url.URL
	http    *http.Client
	tokens  TokenSource
	limiter *limiter.KeyedLimiter
	logger  zerolog.Logger
}

// NewClient builds a Client for cfg. tokens may be nil for anonymous use.
func NewClient(cfg Config, tokens TokenSource) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", cfg.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	requestRate := cfg.RequestRate
	if requestRate <= 0 {
		requestRate = 5
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: logx.Transport(cfg.Transport),
		},
		tokens:  tokens,
		limiter: limiter.New(rate.Limit(requestRate), int(requestRate)+1),
		logger:  logx.Component("api"),
	}, nil
}

// Close releases background resources.
func (c *Client) Close() {
	c.limiter.Close()
}

// failure is the shape of a backend rejection.
type failure struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// call describes one REST request.
type call struct {
	// route identifies the endpoint for rate limiting and logs, e.g. "POST /api/auth/login".
	route  string
	method string
	path   string
	query  url.Values
	body   any
}

// do executes req and decodes a successful body into dst (ignored when nil).
func (c *Client) do(ctx context.Context, req call, dst any) error {
	if err := c.limiter.Wait(ctx, req.route); err != nil {
		return fmt.Errorf("%s: %w", req.route, err)
	}

	u := *c.base
	u.Path = c.base.Path + req.path
	u.RawQuery = req.query.Encode()

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode body: %w", req.route, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", req.route, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.route, ctxErr)
		}
		c.logger.Warn().Err(err).Str("route", req.route).Msg("Request failed")
		return errs.NewError(errs.ErrRequestFailed)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn().Err(err).Str("route", req.route).Msg("Failed to read response body")
		return errs.NewError(errs.ErrRequestFailed)
	}

	if rejection := decodeFailure(res.StatusCode, raw); rejection != nil {
		c.logger.Info().
			Str("route", req.route).
			Int("status", res.StatusCode).
			Str("reason", rejection.Message).
			Msg("Request rejected by backend")
		return rejection
	}

	if dst == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn().Err(err).Str("route", req.route).Msg("Failed to decode response body")
		return errs.NewError(errs.ErrRequestFailed)
	}

	return nil
}

// decodeFailure classifies a response: nil for success, otherwise the error to surface.
// A body with success=false is a rejection regardless of the status code.
func decodeFailure(status int, raw []byte) *errs.CustomError {
	var f failure
	trimmed := bytes.TrimSpace(raw)
	isObject := len(trimmed) > 0 && trimmed[0] == '{'
	if isObject {
		_ = json.Unmarshal(trimmed, &f)
	}

	message := f.Message
	if message == "" {
		message = f.Error
	}

	if f.Success != nil && !*f.Success {
		return errs.Rejected(message)
	}

	if status < 400 {
		return nil
	}

	if message != "" {
		return errs.Rejected(message)
	}

	if status == http.StatusUnauthorized {
		return errs.NewError(errs.ErrUnauthorized)
	}

	return errs.NewError(errs.ErrRequestFailed)
}

// IsCanceled reports whether err stems from a canceled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
