// Package api is the HTTP client for the dashboard server: the record
// listing, refresh-job, summary, chat and mindmap endpoints the TUI and
// the watch command consume.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Video is one ingested record as the server reports it. ID is stable;
// every other field may be rewritten by a refresh.
type Video struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Link         string   `json:"link"`
	Published    string   `json:"published,omitempty"`
	ChannelTitle string   `json:"channel_title,omitempty"`
	HasSummary   bool     `json:"has_summary"`
	IsRead       bool     `json:"is_read"`
	Preview      string   `json:"preview,omitempty"`
	Highlight    string   `json:"highlight,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// JobStatus reports whether the server-side refresh job is running.
type JobStatus struct {
	IsUpdating bool `json:"is_updating"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Health mirrors /api/health_stats.
type Health struct {
	Status           string  `json:"status"`
	SchedulerRunning bool    `json:"scheduler_running"`
	Metrics          Metrics `json:"metrics"`
}

type Metrics struct {
	TotalRequests   int     `json:"total_requests"`
	TotalErrors     int     `json:"total_errors"`
	AvgLatencyMS    float64 `json:"avg_latency_ms"`
	UptimeStart     string  `json:"uptime_start"`
	LastRequestTime string  `json:"last_request_time"`
}

type Client struct {
	base string
	http *http.Client
	// Chat responses stream for as long as the model talks; no client
	// timeout, lifetime is governed by the request context.
	stream *http.Client
}

func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server URL scheme must be http or https, got %q", u.Scheme)
	}
	base := u.String()
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		stream: &http.Client{},
	}, nil
}

// Videos fetches the full record collection. The returned slice is the
// authoritative snapshot: callers replace local state wholesale.
func (c *Client) Videos(ctx context.Context) ([]Video, error) {
	var videos []Video
	if err := c.getJSON(ctx, "/api/videos", &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// TriggerRefresh asks the server to start its background ingestion job.
func (c *Client) TriggerRefresh(ctx context.Context) error {
	return c.postJSON(ctx, "/api/refresh", nil, nil)
}

func (c *Client) Status(ctx context.Context) (JobStatus, error) {
	var status JobStatus
	err := c.getJSON(ctx, "/api/status", &status)
	return status, err
}

// Reset wipes all server-side data. Callers must discard their own
// state afterwards.
func (c *Client) Reset(ctx context.Context) error {
	return c.postJSON(ctx, "/api/reset", nil, nil)
}

// Summary fetches the full markdown body for one video.
func (c *Client) Summary(ctx context.Context, videoID string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.getJSON(ctx, "/api/summary/"+url.PathEscape(videoID), &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// ToggleRead flips the read flag server-side and returns the updated
// record. Local state flips only on this ack.
func (c *Client) ToggleRead(ctx context.Context, videoID string) (Video, error) {
	var v Video
	err := c.postJSON(ctx, "/api/videos/"+url.PathEscape(videoID)+"/toggle_read", nil, &v)
	return v, err
}

// Mindmap returns the mermaid source of the video's mindmap.
func (c *Client) Mindmap(ctx context.Context, videoID string) (string, error) {
	var out struct {
		Mermaid string `json:"mermaid"`
	}
	if err := c.getJSON(ctx, "/api/mindmap/"+url.PathEscape(videoID), &out); err != nil {
		return "", err
	}
	return out.Mermaid, nil
}

func (c *Client) MindmapExists(ctx context.Context, videoID string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := c.getJSON(ctx, "/api/mindmap/"+url.PathEscape(videoID)+"/exists", &out); err != nil {
		return false, err
	}
	return out.Exists, nil
}

func (c *Client) HealthStats(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "/api/health_stats", &h)
	return h, err
}

// Chat sends a conversation turn and opens the chunked response stream.
// The caller owns the returned stream and must Close it.
func (c *Client) Chat(ctx context.Context, videoID string, messages []ChatMessage) (*ChatStream, error) {
	payload := struct {
		VideoID  string        `json:"video_id"`
		Messages []ChatMessage `json:"messages"`
	}{VideoID: videoID, Messages: messages}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chat API %d: %s", resp.StatusCode, string(b))
	}
	return &ChatStream{body: resp.Body}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s: %d: %s", req.Method, req.URL.Path, resp.StatusCode, string(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

// NewChatStream wraps an already-open chunk source. Useful for tests
// and alternate transports.
func NewChatStream(body io.ReadCloser) *ChatStream {
	return &ChatStream{body: body}
}

// ChatStream yields the raw text chunks of a chat response. Chunk
// boundaries carry no meaning; a word or even a UTF-8 rune may be split
// across chunks, and only the concatenation is the answer.
type ChatStream struct {
	body io.ReadCloser
	buf  [4096]byte
}

// Recv returns the next chunk. It returns io.EOF after the final chunk;
// any other error means the stream ended abnormally.
func (s *ChatStream) Recv() (string, error) {
	for {
		n, err := s.body.Read(s.buf[:])
		if n > 0 {
			// Deliver the chunk first; a terminal error resurfaces on
			// the next Recv as a bare (0, err) read.
			return string(s.buf[:n]), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (s *ChatStream) Close() error {
	return s.body.Close()
}
