package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetGet(t *testing.T) {
	c := New[string](time.Hour)
	c.Set("k", "v")

	v, ok := c.Get("k")

	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestCache_Miss(t *testing.T) {
	c := New[int](time.Hour)

	v, ok := c.Get("missing")

	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestCache_Expiry(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	c := New[string](time.Minute)
	c.now = func() time.Time { return now }
	c.Set("a", "1")
	c.Set("b", "2")

	now = now.Add(2 * time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("en", "fa", "text"), Key("en", "fa", "text"))
	assert.NotEqual(t, Key("en", "fa", "text"), Key("enf", "a", "text"))
	assert.Len(t, Key("x"), 64)
}
