package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"
	DefaultGoogleURL   = "https://translate.googleapis.com/translate_a/single"
	DefaultOpenAIModel = openai.GPT4oMini

	defaultTimeout = 15 * time.Second
	// MyMemory rejects longer queries on the anonymous tier.
	myMemoryMaxRunes = 500
)

// Libre calls one LibreTranslate instance.
type Libre struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewLibre builds a backend for a LibreTranslate instance. baseURL may be
// the host (https://libretranslate.de) or the full /translate endpoint.
func NewLibre(baseURL, apiKey string, timeout time.Duration) *Libre {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(endpoint, "/translate") {
		endpoint += "/translate"
	}
	return &Libre{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: orDefault(timeout)},
	}
}

func (l *Libre) Name() string { return "libre" }

func (l *Libre) Translate(ctx context.Context, text, source, target string) (string, error) {
	payload := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if l.apiKey != "" {
		payload["api_key"] = l.apiKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := do(l.http, req)
	if err != nil {
		return "", err
	}
	var out struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New(out.Error)
	}
	return strings.TrimSpace(out.TranslatedText), nil
}

// MyMemory calls the free MyMemory API.
type MyMemory struct {
	endpoint string
	http     *http.Client
}

func NewMyMemory(endpoint string, timeout time.Duration) *MyMemory {
	if endpoint == "" {
		endpoint = DefaultMyMemoryURL
	}
	return &MyMemory{endpoint: endpoint, http: &http.Client{Timeout: orDefault(timeout)}}
}

func (m *MyMemory) Name() string { return "mymemory" }

func (m *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("q", limitText(text, myMemoryMaxRunes))
	params.Set("langpair", source+"|"+target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	raw, err := do(m.http, req)
	if err != nil {
		return "", err
	}

	var out struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  json.Number `json:"responseStatus"`
		ResponseDetails string      `json:"responseDetails"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if out.ResponseStatus.String() != "200" {
		return "", fmt.Errorf("mymemory status %s: %s", out.ResponseStatus, out.ResponseDetails)
	}
	return strings.TrimSpace(out.ResponseData.TranslatedText), nil
}

// Google uses the public gtx endpoint of Google Translate.
type Google struct {
	endpoint string
	http     *http.Client
}

func NewGoogle(endpoint string, timeout time.Duration) *Google {
	if endpoint == "" {
		endpoint = DefaultGoogleURL
	}
	return &Google{endpoint: endpoint, http: &http.Client{Timeout: orDefault(timeout)}}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", source)
	params.Set("tl", target)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	raw, err := do(g.http, req)
	if err != nil {
		return "", err
	}
	translation, err := parseGoogleResponse(raw)
	if err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	return strings.TrimSpace(translation), nil
}

// parseGoogleResponse joins the translated segments of the nested-array reply.
func parseGoogleResponse(body []byte) (string, error) {
	var response []interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", err
	}
	if len(response) == 0 {
		return "", errors.New("empty response from Google Translate")
	}
	segments, ok := response[0].([]interface{})
	if !ok {
		return "", errors.New("unexpected response format")
	}

	var result strings.Builder
	for _, seg := range segments {
		if arr, ok := seg.([]interface{}); ok && len(arr) > 0 {
			if s, ok := arr[0].(string); ok {
				result.WriteString(s)
			}
		}
	}
	return result.String(), nil
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI translates with a chat completion.
type OpenAI struct {
	client chatCompleter
	model  string
}

// NewOpenAI rejects an empty key so callers can skip the backend.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key not set")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model}, nil
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Translate(ctx context.Context, text, source, target string) (string, error) {
	prompt := fmt.Sprintf(`Translate the following %s crypto news text to %s.
Keep the meaning and the journalistic tone. Keep coin names, tickers and numbers unchanged.
Translate only the text itself, without additional comments.

Text to translate:
%s`, languageName(source), languageName(target), text)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxCompletionTokens: 2000,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return raw, nil
}

func orDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "en":
		return "English"
	case "fa":
		return "Persian"
	case "ar":
		return "Arabic"
	case "tr":
		return "Turkish"
	case "ru":
		return "Russian"
	case "uk":
		return "Ukrainian"
	case "da":
		return "Danish"
	case "de":
		return "German"
	default:
		return code
	}
}
