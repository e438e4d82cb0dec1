package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// gzipThreshold is the request size above which the body is compressed.
const gzipThreshold = 1024

// ErrTicketCount is returned when Expo answers with a different number of
// tickets than messages were submitted.
var ErrTicketCount = errors.New("expo: ticket count does not match message count")

// ErrCallerAborted marks a send that failed because the caller's context
// ended. Such failures do not count against the circuit breaker.
var ErrCallerAborted = errors.New("expo: caller aborted")

// APIError is a request-level error reported by Expo.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("expo: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("expo: HTTP %d: %s", e.StatusCode, e.Message)
}

type pushResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []APIError      `json:"errors"`
}

// Client submits message batches to the Expo push gateway. It is safe for
// concurrent use.
type Client struct {
	httpClient  *http.Client
	pushURL     string
	accessToken string
	settings    gobreaker.Settings
	breaker     *gobreaker.CircuitBreaker[[]Ticket]
	logger      *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithPushURL overrides DefaultPushURL.
func WithPushURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.pushURL = url
		}
	}
}

// WithAccessToken enables Expo's enhanced push security.
func WithAccessToken(token string) Option {
	return func(c *Client) {
		c.accessToken = token
	}
}

// WithBreakerSettings replaces the circuit breaker guarding the gateway.
// When st.IsSuccessful is nil, aborted callers are not counted as failures.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(c *Client) {
		c.settings = st
	}
}

// DefaultBreakerSettings trips after more than five consecutive failed
// batches and retries a single request after 30 seconds.
func DefaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "expo-push",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: countsAsSuccess,
	}
}

func countsAsSuccess(err error) bool {
	return err == nil || errors.Is(err, ErrCallerAborted)
}

// NewClient creates a gateway client.
func NewClient(logger *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		pushURL:    DefaultPushURL,
		settings:   DefaultBreakerSettings(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.IsSuccessful == nil {
		c.settings.IsSuccessful = countsAsSuccess
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]Ticket](c.settings)
	if c.logger == nil {
		c.logger = zap.NewNop().Sugar()
	}
	return c
}

// SendPushNotifications submits one batch and returns one ticket per message,
// in message order. Batches larger than MaxBatchSize are rejected by Expo.
func (c *Client) SendPushNotifications(ctx context.Context, messages []Message) ([]Ticket, error) {
	if len(messages) == 0 {
		return []Ticket{}, nil
	}

	tickets, err := c.breaker.Execute(func() ([]Ticket, error) {
		tickets, err := c.send(ctx, messages)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCallerAborted, err)
		}
		return tickets, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warnw("expo push circuit open", "breaker_state", c.breaker.State().String())
		}
		return nil, err
	}
	return tickets, nil
}

func (c *Client) send(ctx context.Context, messages []Message) ([]Ticket, error) {
	payload, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("expo: encode messages: %w", err)
	}

	compressed := len(payload) > gzipThreshold
	if compressed {
		payload, err = gzipBytes(payload)
		if err != nil {
			return nil, fmt.Errorf("expo: compress messages: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pushURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("expo: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/json")
	if compressed {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("expo: send batch: %w", err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("expo: read response: %w", err)
	}

	var parsed pushResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && len(parsed.Errors) > 0 {
			apiErr := parsed.Errors[0]
			apiErr.StatusCode = resp.StatusCode
			return nil, &apiErr
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("expo: decode response: %w", decodeErr)
	}
	if len(parsed.Errors) > 0 {
		apiErr := parsed.Errors[0]
		apiErr.StatusCode = resp.StatusCode
		return nil, &apiErr
	}

	var tickets []Ticket
	if err := json.Unmarshal(parsed.Data, &tickets); err != nil {
		return nil, fmt.Errorf("expo: decode tickets: %w", err)
	}
	if len(tickets) != len(messages) {
		return nil, fmt.Errorf("%w: sent %d, got %d", ErrTicketCount, len(messages), len(tickets))
	}

	c.logger.Debugw("expo batch accepted", "messages", len(messages), "gzip", compressed)
	return tickets, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.ReadAll(resp.Body)
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
