package estimate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxBodySize           = 1 << 20 // 1 MB
	userAgent             = "budgetchat/1.0"
)

var (
	// ErrUnauthorized indicates the API token was rejected.
	ErrUnauthorized = errors.New("estimate: unauthorized (token missing or invalid)")
	// ErrRateLimited indicates the endpoint or the local limiter refused the call.
	ErrRateLimited = errors.New("estimate: rate limited")
	// ErrResponseTooLarge indicates a reply body above the size cap.
	ErrResponseTooLarge = errors.New("estimate: response too large")
)

// HTTP posts wire requests to a remote estimation endpoint.
type HTTP struct {
	endpoint string
	token    string
	timeout  time.Duration
	limiter  *rate.Limiter
	http     *http.Client
}

// HTTPOption configures an HTTP estimator.
type HTTPOption func(*HTTP)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) HTTPOption {
	return func(h *HTTP) { h.token = strings.TrimSpace(token) }
}

// WithRequestTimeout bounds a single request.
func WithRequestTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithRequestsPerMinute throttles outgoing calls. Zero disables the limiter.
func WithRequestsPerMinute(n int) HTTPOption {
	return func(h *HTTP) {
		if n <= 0 {
			h.limiter = nil
			return
		}
		h.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.http = c
		}
	}
}

// NewHTTP creates an estimator for the given absolute http(s) endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) (*HTTP, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return nil, fmt.Errorf("estimate: parsing endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("estimate: endpoint %q must be an absolute http(s) URL", endpoint)
	}

	h := &HTTP{
		endpoint: u.String(),
		timeout:  defaultRequestTimeout,
		http:     &http.Client{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Estimate sends the request and decodes the reply.
func (h *HTTP) Estimate(ctx context.Context, req Request) (Reply, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return Reply{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	payload, err := EncodeRequest(req)
	if err != nil {
		return Reply{}, fmt.Errorf("estimate: encoding request: %w", err)
	}

	body, err := h.post(ctx, payload)
	if err != nil {
		return Reply{}, err
	}
	return DecodeReply(body)
}

func (h *HTTP) post(ctx context.Context, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("estimate: creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	//nolint:gosec // endpoint comes from local configuration
	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("estimate: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("estimate: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("estimate: reading response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, ErrResponseTooLarge
	}
	return body, nil
}
