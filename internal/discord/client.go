package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	timeout         = 10 * time.Second
	maxErrorBody    = 512
	maxRetryElapsed = 2 * time.Minute
	maxRetryAfter   = time.Minute
)

// ErrEmptyWebhook is returned when no webhook URL is configured
var ErrEmptyWebhook = errors.New("discord webhook URL is required")

// StatusError is returned for non-2xx webhook responses
type StatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("discord webhook error (status %d): %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client posts messages to a Discord webhook
type Client struct {
	webhookURL string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new webhook client
func NewClient(webhookURL string) (*Client, error) {
	if webhookURL == "" {
		return nil, ErrEmptyWebhook
	}

	return &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		newBackOff: defaultBackOff,
		sleep:      sleepContext,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = maxRetryElapsed
	return b
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Send posts a message, retrying rate limits and server errors
func (c *Client) Send(ctx context.Context, msg *WebhookMessage) error {
	if msg == nil {
		return fmt.Errorf("message is required")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	operation := func() error {
		err := c.post(ctx, payload)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			if !statusErr.Retryable() {
				return backoff.Permanent(err)
			}
			if statusErr.RetryAfter > 0 {
				if sleepErr := c.sleep(ctx, statusErr.RetryAfter); sleepErr != nil {
					return backoff.Permanent(sleepErr)
				}
			}
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter reads a Retry-After header in (possibly fractional) seconds
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs * float64(time.Second))
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
