// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the question endpoint of the local backend.
	DefaultEndpoint = "http://localhost:5000/api/ask"

	// DefaultMaxResponseBytes caps the response body.
	DefaultMaxResponseBytes int64 = 10 * 1024 * 1024
)

// HTTPTransport posts {"question": ...} as JSON to an endpoint.
type HTTPTransport struct {
	mu       sync.RWMutex
	endpoint string

	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithTimeout bounds each request. Zero means no limit.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		c := *t.client
		c.Timeout = d
		t.client = &c
	}
}

// WithMaxResponseBytes caps the response body size.
func WithMaxResponseBytes(n int64) HTTPOption {
	return func(t *HTTPTransport) {
		if n > 0 {
			t.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) HTTPOption {
	return func(t *HTTPTransport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewHTTPTransport creates a transport for endpoint.
func NewHTTPTransport(endpoint string, opts ...HTTPOption) *HTTPTransport {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	t := &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{},
		maxBytes: DefaultMaxResponseBytes,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.Named("http")
	return t
}

// Endpoint returns the current endpoint.
func (t *HTTPTransport) Endpoint() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.endpoint
}

// SetEndpoint re-points later requests. In-flight requests are unaffected.
func (t *HTTPTransport) SetEndpoint(endpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.endpoint = endpoint
}

// Ask implements Transport.
func (t *HTTPTransport) Ask(ctx context.Context, question string) (string, error) {
	endpoint := t.Endpoint()

	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			t.logger.Debug("request timed out",
				zap.String("endpoint", redactURL(endpoint)),
				zap.Duration("duration", time.Since(start)))
			return "", fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		t.logger.Debug("request failed",
			zap.String("endpoint", redactURL(endpoint)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	t.logger.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	raw, err := t.readBody(resp.Body)
	if err != nil {
		if errors.Is(err, ErrResponseTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}

	var parsed askResponse
	jsonErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		if jsonErr == nil && parsed.Error != nil {
			se.ServerMessage = *parsed.Error
		}
		return "", se
	}

	if jsonErr != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, jsonErr)
	}
	return answerFrom(parsed)
}

// answerFrom applies the body rules to a parsed 2xx response. A non-empty
// answer wins; otherwise a non-empty error is an application error.
func answerFrom(r askResponse) (string, error) {
	if r.Answer != nil && *r.Answer != "" {
		return *r.Answer, nil
	}
	if r.Error != nil && *r.Error != "" {
		return "", &ServerError{Message: *r.Error}
	}
	return "", ErrMalformedResponse
}

func (t *HTTPTransport) readBody(r io.Reader) ([]byte, error) {
	limited := io.LimitReader(r, t.maxBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > t.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, t.maxBytes)
	}
	return data, nil
}

// redactURL drops credentials and query strings before logging.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
