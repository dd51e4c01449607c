package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_PerProvider(t *testing.T) {
	b := NewBudget(2, 0)

	require.NoError(t, b.Use("huggingface"))
	require.NoError(t, b.Use("huggingface"))
	err := b.Use("huggingface")

	assert.ErrorIs(t, err, ErrExhausted)
	assert.NoError(t, b.Use("gemini"))
	assert.Equal(t, map[string]int{"huggingface": 2, "gemini": 1, "total": 3}, b.Stats())
}

func TestBudget_Total(t *testing.T) {
	b := NewBudget(0, 2)

	require.NoError(t, b.Use("a"))
	require.NoError(t, b.Use("b"))

	assert.ErrorIs(t, b.Use("c"), ErrExhausted)
}

func TestBudget_Reset(t *testing.T) {
	b := NewBudget(1, 0)
	require.NoError(t, b.Use("a"))
	require.Error(t, b.Use("a"))

	b.Reset()

	assert.NoError(t, b.Use("a"))
}

func TestBudget_NilAllowsAll(t *testing.T) {
	var b *Budget

	assert.NoError(t, b.Use("a"))
	b.Reset()
}

func TestPacer_FirstCallImmediate(t *testing.T) {
	p := NewPacer(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, p.Wait(ctx))
}

func TestPacer_SecondCallWaits(t *testing.T) {
	p := NewPacer(time.Hour)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}

func TestPacer_ZeroIntervalNeverWaits(t *testing.T) {
	p := NewPacer(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
}

func TestPacer_Spacing(t *testing.T) {
	p := NewPacer(30 * time.Millisecond)
	start := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}
