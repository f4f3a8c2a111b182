package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nhle/watertracker/internal/model"
)

// pushPayload is the JSON body posted for each reminder.
type pushPayload struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Sound   string    `json:"sound,omitempty"`
	FiresAt time.Time `json:"fires_at"`
}

// PushSender posts due reminders to an HTTP push endpoint (ntfy, a
// webhook relay, and so on) with Bearer token authentication. It retries
// with backoff on HTTP 429.
type PushSender struct {
	url        string
	token      string
	httpClient *http.Client
	maxRetries int
}

// NewPushSender creates a sender for url. An empty token sends no
// Authorization header.
func NewPushSender(url, token string) *PushSender {
	return &PushSender{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		maxRetries: 3,
	}
}

// Send posts r to the endpoint.
func (p *PushSender) Send(ctx context.Context, r model.ScheduledReminder) error {
	data, err := json.Marshal(pushPayload{
		Title:   r.Title,
		Body:    r.Body,
		Sound:   r.Sound,
		FiresAt: r.FiresAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling push payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("creating push request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.token != "" {
			req.Header.Set("Authorization", "Bearer "+p.token)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending push for reminder %s: %w", r.ID, err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("push rate limited (429)")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfter(resp, attempt)):
				continue
			}
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("push authentication failed (%d): check the push token", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return fmt.Errorf("unexpected push status %d: %s", resp.StatusCode, string(body))
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", p.maxRetries, lastErr)
}

// retryAfter reads the Retry-After header, falling back to exponential
// backoff capped at 30s.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
