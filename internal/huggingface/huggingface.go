// Package huggingface calls the Hugging Face Inference API for summaries and
// translations.
package huggingface

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
	DefaultBaseURL        = "https://api-inference.huggingface.co"
	DefaultSummaryModel   = "sshleifer/distilbart-cnn-12-6"
	DefaultTranslateModel = "Helsinki-NLP/opus-mt-en-fa"
)

var (
	// ErrMissingToken means HF_TOKEN is not configured.
	ErrMissingToken = errors.New("huggingface: token not set")
	// ErrMalformed means the model answered with an unexpected shape.
	ErrMalformed = errors.New("huggingface: malformed response")
)

// Client talks to the inference API. Each call is a single request.
type Client struct {
	token          string
	baseURL        string
	summaryModel   string
	translateModel string
	http           *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModels overrides the summary and translation models; empty keeps the default.
func WithModels(summary, translate string) Option {
	return func(c *Client) {
		if summary != "" {
			c.summaryModel = summary
		}
		if translate != "" {
			c.translateModel = translate
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a client for token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:          token,
		baseURL:        DefaultBaseURL,
		summaryModel:   DefaultSummaryModel,
		translateModel: DefaultTranslateModel,
		http:           &http.Client{Timeout: 25 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name identifies the provider in logs and budgets.
func (c *Client) Name() string { return "huggingface" }

// Summarize returns the model's summary_text for text cut to maxLen runes.
func (c *Client) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	if maxLen > 0 {
		if r := []rune(text); len(r) > maxLen {
			text = string(r[:maxLen])
		}
	}
	raw, err := c.infer(ctx, c.summaryModel, text)
	if err != nil {
		return "", err
	}

	var out []struct {
		SummaryText string `json:"summary_text"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", fmt.Errorf("%w: %s", ErrMalformed, snippet(raw))
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

// Translate runs the translation model. Opus-MT models are bound to one
// language pair, so source and target are ignored.
func (c *Client) Translate(ctx context.Context, text, _, _ string) (string, error) {
	raw, err := c.infer(ctx, c.translateModel, text)
	if err != nil {
		return "", err
	}
	if out := parseTranslation(raw); out != "" {
		return out, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMalformed, snippet(raw))
}

// parseTranslation accepts the shapes the translation models are known to
// return: [{"translation_text": ...}], ["..."] or "...".
func parseTranslation(raw []byte) string {
	var objs []struct {
		TranslationText string `json:"translation_text"`
	}
	if err := json.Unmarshal(raw, &objs); err == nil && len(objs) > 0 && objs[0].TranslationText != "" {
		return strings.TrimSpace(objs[0].TranslationText)
	}
	var strs []string
	if err := json.Unmarshal(raw, &strs); err == nil && len(strs) > 0 {
		return strings.TrimSpace(strs[0])
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

func (c *Client) infer(ctx context.Context, model, input string) ([]byte, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	body, err := json.Marshal(map[string]string{"inputs": input})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface %s: %w", model, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("huggingface %s: status %d: %s", model, resp.StatusCode, snippet(raw))
	}
	return raw, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if r := []rune(s); len(r) > 200 {
		return string(r[:200])
	}
	return s
}
