// Package backend is the client for the storefront REST API. Every response is a
// {success, message, ...} envelope; a non-2xx status or success=false is a failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

const maxResponseBytes = 10 << 20

// TokenSource supplies the bearer token of the current admin session
type TokenSource interface {
	Token(ctx context.Context) string
}

// Client talks to the storefront backend
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *zap.Logger
}

// NewClient creates a backend client. tokens may be nil for anonymous calls.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  util.GetLogger(),
	}
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// RemoteError is a failed backend call
type RemoteError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// request sends a call and decodes the envelope body into out when out is non-nil.
// endpoint is the route template used as the metrics label.
func (c *Client) request(ctx context.Context, method, path, endpoint string, body io.Reader, contentType string, out interface{}) error {
	ctx, span := util.StartSpan(ctx, "backend "+method+" "+endpoint)
	defer span.End()

	start := time.Now()
	defer func() {
		util.RemoteRequestLatency.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		util.RemoteRequestsTotal.WithLabelValues(method, endpoint, "network_error").Inc()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		util.RemoteRequestsTotal.WithLabelValues(method, endpoint, "network_error").Inc()
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	var env envelope
	_ = json.Unmarshal(data, &env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		util.RemoteRequestsTotal.WithLabelValues(method, endpoint, "unauthorized").Inc()
		return &RemoteError{Method: method, Path: path, Status: resp.StatusCode, Message: env.Message, Err: models.ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || (env.Success != nil && !*env.Success) {
		util.RemoteRequestsTotal.WithLabelValues(method, endpoint, "rejected").Inc()
		return &RemoteError{Method: method, Path: path, Status: resp.StatusCode, Message: env.Message, Err: models.ErrRemoteRejected}
	}
	util.RemoteRequestsTotal.WithLabelValues(method, endpoint, "ok").Inc()

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, method, path, endpoint string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.request(ctx, method, path, endpoint, bytes.NewReader(body), "application/json", out)
}
