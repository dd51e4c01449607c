package summarize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deusflow/cryptofeed/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name  string
	out   string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Summarize(ctx context.Context, _ string, _ int) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func TestChain_Order(t *testing.T) {
	hf := &fakeProvider{name: "huggingface", err: errors.New("loading")}
	gm := &fakeProvider{name: "gemini", out: " short "}

	out, err := NewChain([]Provider{hf, gm}, nil, 0, nil).Summarize(context.Background(), "long text", 100)

	require.NoError(t, err)
	assert.Equal(t, "short", out)
	assert.Equal(t, 1, hf.calls)
}

func TestChain_BlankIsFailure(t *testing.T) {
	hf := &fakeProvider{name: "huggingface", out: "  "}

	_, err := NewChain([]Provider{hf}, nil, 0, nil).Summarize(context.Background(), "x", 10)

	assert.ErrorContains(t, err, "empty summary")
}

func TestChain_PerAttemptTimeout(t *testing.T) {
	slow := &fakeProvider{name: "huggingface", out: "late", delay: time.Second}
	fast := &fakeProvider{name: "gemini", out: "ok"}

	out, err := NewChain([]Provider{slow, fast}, nil, 20*time.Millisecond, nil).Summarize(context.Background(), "x", 10)

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestChain_Budget(t *testing.T) {
	hf := &fakeProvider{name: "huggingface", out: "ok"}
	chain := NewChain([]Provider{hf}, ratelimit.NewBudget(1, 0), 0, nil)

	_, err := chain.Summarize(context.Background(), "x", 10)
	require.NoError(t, err)
	_, err = chain.Summarize(context.Background(), "x", 10)

	assert.ErrorIs(t, err, ratelimit.ErrExhausted)
	assert.Equal(t, 1, hf.calls)
}

func TestChain_Empty(t *testing.T) {
	_, err := NewChain(nil, nil, 0, nil).Summarize(context.Background(), "x", 10)

	assert.ErrorIs(t, err, ErrNoProvider)
	assert.Empty(t, NewChain(nil, nil, 0, nil).Names())
}
