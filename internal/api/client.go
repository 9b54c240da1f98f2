// Package api implements the HTTP client for the quiz backend. It covers every
// REST endpoint the application consumes: authentication, levels, profiles,
// hint-point transactions, leaderboards, community puzzles, chat history, and
// surveys. All calls take a context, carry the bearer token where required,
// and retry transient failures with jittered backoff.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"
)

const (
	requestTimeout = 15 * time.Second
	maxRetries     = 3
	retryBaseDelay = 250 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// Error is a non-2xx response from the backend, carrying the HTTP status and
// the message from the JSON error payload when one was present.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client is the quiz backend HTTP client. It is safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a Client for the backend at baseURL. Outgoing requests are
// logged through the provided logger.
func NewClient(baseURL string, l *logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   requestTimeout,
			Transport: l.WrapTransport(nil),
		},
		log: l,
	}
}

// SetToken sets the bearer token attached to authenticated requests.
// An empty token clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the currently configured bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do executes one API call. A non-nil body is sent as JSON; a non-nil out has
// the response body decoded into it. Responses with retryable statuses are
// retried up to maxRetries times with jittered exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("api: marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := c.newRequest(ctx, method, path, payload)
		if err != nil {
			return err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("api: execute request: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return decodeBody(resp, out)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = newError(resp.StatusCode, respBody)

		if !isRetryableStatus(resp.StatusCode) || attempt == maxRetries {
			return lastErr
		}
		if err := sleepWithBackoff(ctx, attempt); err != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func decodeBody(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

func newError(status int, body []byte) error {
	var errResp models.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Errors != "" {
		return &Error{Status: status, Message: errResp.Errors}
	}
	return &Error{Status: status, Message: strings.TrimSpace(string(body))}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func sleepWithBackoff(ctx context.Context, attempt int) error {
	delay := retryBaseDelay * time.Duration(1<<attempt)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	delay += time.Duration(rand.Int63n(int64(delay/2) + 1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
