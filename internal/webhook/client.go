// Package webhook notifies the external workflow-automation endpoint that a
// content item should be published.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-publisher/internal/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Payload is sent as URL query parameters.
type Payload struct {
	ContentID     string
	Platform      string
	Title         string
	Content       string
	ScheduledDate string
	User          string
	// DispatchID is unique per attempt so the receiver can drop duplicates.
	DispatchID string
}

// Query returns the payload as query parameters.
func (p Payload) Query() map[string]string {
	q := map[string]string{
		"contentId":     p.ContentID,
		"platform":      p.Platform,
		"title":         p.Title,
		"content":       p.Content,
		"scheduledDate": p.ScheduledDate,
		"user":          p.User,
	}
	if p.DispatchID != "" {
		q["dispatchId"] = p.DispatchID
	}
	return q
}

// StatusError reports a non-2xx webhook response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook returned status %d: %s", e.StatusCode, e.Body)
}

// ErrNoEndpoint is returned when the client has no webhook URL.
var ErrNoEndpoint = errors.New("webhook endpoint is not configured")

const maxErrorBody = 512

// Client performs GET requests against the publishing webhook.
type Client struct {
	http     *resty.Client
	endpoint string
	log      zerolog.Logger
}

// NewClient creates a webhook client. Retries are disabled: a failed dispatch is
// retried by the next scheduled run, not by the client.
func NewClient(endpoint string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		http:     resty.New().SetTimeout(timeout).SetRetryCount(0),
		endpoint: endpoint,
		log:      logger,
	}
}

// Send performs the webhook call. It returns the HTTP status code (zero when no
// response was received) and a non-nil error unless the status is 2xx.
// The response body is not interpreted on success.
func (c *Client) Send(ctx context.Context, p Payload) (int, error) {
	if c.endpoint == "" {
		return 0, ErrNoEndpoint
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(p.Query()).
		Get(c.endpoint)
	if err != nil {
		metrics.ObserveWebhookRequest(0, start)
		return 0, fmt.Errorf("webhook request failed: %w", err)
	}

	code := resp.StatusCode()
	metrics.ObserveWebhookRequest(code, start)
	c.log.Debug().
		Str("content_id", p.ContentID).
		Int("status", code).
		Dur("elapsed", resp.Time()).
		Msg("webhook responded")

	if !resp.IsSuccess() {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return code, &StatusError{StatusCode: code, Body: body}
	}
	return code, nil
}
