// Package subject is the HTTP client for the question-answering endpoint
// under evaluation.
package subject

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout   = 5 * time.Second
	defaultRetryMax  = 2
	defaultRetryBase = 500 * time.Millisecond

	chatPath   = "/chat"
	healthPath = "/health"
)

// TransportError marks a network, timeout, or non-2xx failure talking to
// the subject. It is distinct from an assertion failure: the runner records
// it as an errored case, never as a failed one.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "subject: transport error <nil>"
	}
	return fmt.Sprintf("subject: transport error after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c != nil && timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetry sets how many times a failed attempt is retried.
func WithRetry(maxRetries int) Option {
	return func(c *Client) {
		if c != nil && maxRetries >= 0 {
			c.retryMax = maxRetries
		}
	}
}

// WithRetryBase sets the exponential backoff base delay.
func WithRetryBase(base time.Duration) Option {
	return func(c *Client) {
		if c != nil && base > 0 {
			c.retryBase = base
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if c != nil && hc != nil {
			c.httpClient = hc
		}
	}
}

// Client calls the subject endpoint. Safe for concurrent use: each call is
// independent and no mutable state is shared between calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	retryMax   int
	retryBase  time.Duration
}

// NewClient constructs a Client for the given subject base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{},
		timeout:    defaultTimeout,
		retryMax:   defaultRetryMax,
		retryBase:  defaultRetryBase,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type chatRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

// Answer sends one question/context pair and returns the answer text.
// Transport failures are retried with exponential backoff; once retries are
// exhausted the error is a *TransportError.
func (c *Client) Answer(ctx context.Context, question, contextText string) (string, error) {
	if c == nil {
		return "", errors.New("subject: nil client")
	}
	if ctx == nil {
		return "", errors.New("subject: nil context")
	}
	if c.baseURL == "" {
		return "", errors.New("subject: empty base URL")
	}

	body, err := json.Marshal(chatRequest{Question: question, Context: contextText})
	if err != nil {
		return "", fmt.Errorf("subject: encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, backoff(c.retryBase, attempt-1)); err != nil {
				return "", &TransportError{Attempts: attempt, Err: err}
			}
		}

		answer, err := c.answerOnce(ctx, body)
		if err == nil {
			return answer, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", &TransportError{Attempts: attempt + 1, Err: ctx.Err()}
		}
		if !retryable(err) {
			return "", &TransportError{Attempts: attempt + 1, Err: err}
		}
	}
	return "", &TransportError{Attempts: c.retryMax + 1, Err: lastErr}
}

func (c *Client) answerOnce(ctx context.Context, body []byte) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("subject: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("subject: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(b))}
	}

	var out chatResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("subject: decode response: %w", err)
	}
	return out.Answer, nil
}

// WaitReady polls the subject health endpoint until it reports healthy or
// the retry budget is exhausted.
func (c *Client) WaitReady(ctx context.Context, attempts int, interval time.Duration) error {
	if c == nil {
		return errors.New("subject: nil client")
	}
	if attempts <= 0 {
		attempts = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleepWithContext(ctx, interval); err != nil {
				return fmt.Errorf("subject: readiness wait: %w", err)
			}
		}
		if err := c.healthOnce(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("subject: not ready after %d attempt(s): %w", attempts, lastErr)
}

func (c *Client) healthOnce(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("subject: build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subject: health: %s", resp.Status)
	}
	return nil
}

// statusError is a non-2xx response from the subject.
type statusError struct {
	code   int
	status string
	body   string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("subject: %s", e.status)
	}
	return fmt.Sprintf("subject: %s: %s", e.status, e.body)
}

// retryable reports whether another attempt can change the outcome.
// Network failures, timeouts, 429 and 5xx are transient; other 4xx
// responses are deterministic and never retried.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}
	return true
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
