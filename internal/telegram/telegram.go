// Package telegram publishes channel messages through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/deusflow/cryptofeed/internal/news"
)

const (
	DefaultAPIURL  = "https://api.telegram.org"
	defaultTimeout = 10 * time.Second
)

// ErrNotConfigured means the bot token or chat id is missing.
var ErrNotConfigured = errors.New("telegram: bot token or chat id not set")

// Client sends messages to one chat. Publish makes exactly one attempt.
type Client struct {
	token  string
	chatID string
	apiURL string
	http   *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithAPIURL points the client at another Bot API host.
func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(token, chatID string, opts ...Option) *Client {
	c := &Client{
		token:  token,
		chatID: chatID,
		apiURL: DefaultAPIURL,
		http:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

// Publish sends msg as HTML without a link preview.
func (c *Client) Publish(ctx context.Context, msg news.Message) error {
	if c.token == "" || c.chatID == "" {
		return ErrNotConfigured
	}

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     msg.Text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.apiURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of logs.
		return fmt.Errorf("error HTTP request: %w", redact(err, c.token))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out apiResponse
	_ = json.Unmarshal(raw, &out)

	if resp.StatusCode != http.StatusOK || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode, out.Description)
		}
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}

// DryRun logs messages instead of sending them.
type DryRun struct {
	Logger *slog.Logger
}

func (d DryRun) Publish(_ context.Context, msg news.Message) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("📝 dry run, message not sent", "item_id", msg.ItemID, "runes", len([]rune(msg.Text)), "text", msg.Text)
	return nil
}
