package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	prompt string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			f.prompt = string(t)
		}
	}
	return f.resp, f.err
}

func textResponse(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func TestSummarize(t *testing.T) {
	m := &fakeModel{resp: textResponse(genai.Text(" Bitcoin rose. "), genai.Text("ETFs saw inflows."))}
	c := &Client{model: m}

	out, err := c.Summarize(context.Background(), "Bitcoin\r\n   rose   sharply", 12)

	require.NoError(t, err)
	assert.Equal(t, "Bitcoin rose.ETFs saw inflows.", out)
	assert.Contains(t, m.prompt, "Bitcoin rose")
	assert.NotContains(t, m.prompt, "sharply")
}

func TestTranslate_PromptNamesLanguages(t *testing.T) {
	m := &fakeModel{resp: textResponse(genai.Text("سلام"))}
	c := &Client{model: m}

	out, err := c.Translate(context.Background(), "hello", "en", "fa")

	require.NoError(t, err)
	assert.Equal(t, "سلام", out)
	assert.Contains(t, m.prompt, "from English to Persian (Farsi)")
}

func TestGenerate_Errors(t *testing.T) {
	c := &Client{model: &fakeModel{err: errors.New("quota")}}
	_, err := c.Summarize(context.Background(), "x", 0)
	assert.ErrorContains(t, err, "quota")

	c = &Client{model: &fakeModel{resp: &genai.GenerateContentResponse{}}}
	_, err = c.Translate(context.Background(), "x", "en", "fa")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	c = &Client{model: &fakeModel{resp: textResponse(genai.Blob{MIMEType: "image/png"})}}
	_, err = c.Translate(context.Background(), "x", "en", "fa")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", "")

	assert.Error(t, err)
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "English", languageName("EN"))
	assert.Equal(t, "xx", languageName("xx"))
}
