// Package trigger calls the publication endpoint on a fixed interval, for
// deployments without a platform cron.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Response mirrors the body returned by the publication endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Results []struct {
		ContentID     string `json:"contentId"`
		Success       bool   `json:"success"`
		PublishedDate string `json:"publishedDate,omitempty"`
		Status        int    `json:"status,omitempty"`
		Error         string `json:"error,omitempty"`
	} `json:"results,omitempty"`
}

// Failed counts the results that did not publish.
func (r Response) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Success {
			n++
		}
	}
	return n
}

// Trigger invokes the publication endpoint.
type Trigger struct {
	http *resty.Client
	url  string
	log  zerolog.Logger
}

// New creates a Trigger for url. A non-empty secret is sent as a bearer token.
func New(url, secret string, timeout time.Duration, logger zerolog.Logger) (*Trigger, error) {
	if url == "" {
		return nil, errors.New("trigger URL cannot be empty")
	}
	client := resty.New().SetTimeout(timeout)
	if secret != "" {
		client.SetAuthToken(secret)
	}
	return &Trigger{http: client, url: url, log: logger}, nil
}

// Fire performs a single call and decodes the summary. A non-2xx status is
// returned as an error together with whatever body could be decoded.
func (t *Trigger) Fire(ctx context.Context) (Response, error) {
	var out Response
	resp, err := t.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&out).
		Get(t.url)
	if err != nil {
		return Response{}, fmt.Errorf("trigger request failed: %w", err)
	}
	if resp.IsError() {
		return out, fmt.Errorf("trigger returned status %d: %s", resp.StatusCode(), out.Message)
	}
	return out, nil
}

// Run fires immediately and then on every tick until ctx is done. Calls never
// overlap: a slow run delays the next tick.
func (t *Trigger) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t.fireAndLog(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Trigger) fireAndLog(ctx context.Context) {
	resp, err := t.Fire(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		t.log.Error().Err(err).Str("error_detail", resp.Error).Msg("publication trigger failed")
		return
	}
	event := t.log.Info()
	if resp.Failed() > 0 {
		event = t.log.Warn()
	}
	event.
		Str("message", resp.Message).
		Int("results", len(resp.Results)).
		Int("failed", resp.Failed()).
		Msg("publication triggered")
}
