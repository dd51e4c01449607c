package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is the model used for both summaries and translations.
const DefaultModel = "gemini-1.5-flash"

// ErrEmptyResponse means the model returned no text candidate.
var ErrEmptyResponse = errors.New("no response from Gemini")

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client wraps a Gemini model. Every method makes a single request.
type Client struct {
	client *genai.Client
	model  generator
}

// NewClient connects with an API key. An empty key is rejected here so that
// callers can skip registering the provider.
func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key not set")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	return &Client{client: client, model: m}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Name identifies the provider in logs and budgets.
func (c *Client) Name() string { return "gemini" }

// Summarize asks for a short neutral summary of text cut to maxLen runes.
func (c *Client) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	text = clean(text)
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		text = string([]rune(text)[:maxLen])
	}
	prompt := fmt.Sprintf(`Summarize the following crypto news in 3 to 4 short sentences.
Keep numbers, names and tickers exactly as written. Do not add opinions or introductions.
Reply with the summary only.

%s`, text)
	return c.generate(ctx, prompt)
}

// Translate translates text from source to target language codes.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following text from %s to %s.
Keep coin names, tickers and numbers unchanged. Reply with the translation only, without notes.

%s`, languageName(source), languageName(target), clean(text))
	return c.generate(ctx, prompt)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	out := responseText(resp)
	if out == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// clean collapses whitespace so the prompt stays compact.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.Join(strings.Fields(s), " ")
}

var languages = map[string]string{
	"en": "English",
	"fa": "Persian (Farsi)",
	"ar": "Arabic",
	"tr": "Turkish",
	"ru": "Russian",
	"uk": "Ukrainian",
	"da": "Danish",
	"de": "German",
}

func languageName(code string) string {
	if name, ok := languages[strings.ToLower(code)]; ok {
		return name
	}
	return code
}
