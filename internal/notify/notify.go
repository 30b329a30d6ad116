// Package notify posts new-video notifications to a configurable
// webhook. Delivery is best effort: callers log failures and move on,
// nothing downstream depends on the result.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notification is the relay payload.
type Notification struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

type Relay struct {
	url    string
	client *http.Client
}

func NewRelay(url string, timeout time.Duration) *Relay {
	return &Relay{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts one notification. A zero Timestamp is stamped with the
// current time.
func (r *Relay) Send(ctx context.Context, n Notification) error {
	if r.url == "" {
		return fmt.Errorf("no webhook URL configured")
	}
	if n.Timestamp == "" {
		n.Timestamp = time.Now().Format(time.RFC3339)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
