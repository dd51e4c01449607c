// Package translate provides translation backends and the fixed-priority chain
// that tries them in order.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/cryptofeed/internal/cache"
	"github.com/deusflow/cryptofeed/internal/ratelimit"
)

// ErrNoBackend is returned by a Chain without backends.
var ErrNoBackend = errors.New("translate: no backend configured")

// Backend is one translation provider.
type Backend interface {
	Name() string
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Chain tries each backend once, in order, and returns the first usable result.
type Chain struct {
	backends []Backend
	budget   *ratelimit.Budget
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChain builds a chain. budget may be nil; timeout <= 0 leaves each
// backend to its own client timeout.
func NewChain(backends []Backend, budget *ratelimit.Budget, timeout time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{backends: backends, budget: budget, timeout: timeout, logger: logger}
}

// Names lists the backends in priority order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.backends))
	for i, b := range c.backends {
		names[i] = b.Name()
	}
	return names
}

// Translate returns the first non-empty translation that differs from the
// input. When every backend fails the joined errors are returned.
func (c *Chain) Translate(ctx context.Context, text, source, target string) (string, error) {
	if len(c.backends) == 0 {
		return "", ErrNoBackend
	}
	text = cleanText(text)
	if text == "" {
		return "", nil
	}

	var errs []error
	for _, b := range c.backends {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.budget.Use(b.Name()); err != nil {
			errs = append(errs, err)
			continue
		}

		out, err := c.try(ctx, b, text, source, target)
		if err != nil {
			c.logger.Debug("⚠️ translator failed", "provider", b.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}
		out = SanitizeAIText(out)
		if out == "" || out == text {
			errs = append(errs, fmt.Errorf("%s: no translation returned", b.Name()))
			continue
		}
		c.logger.Debug("✅ translated", "provider", b.Name(), "from", source, "to", target)
		return out, nil
	}
	return "", errors.Join(errs...)
}

func (c *Chain) try(ctx context.Context, b Backend, text, source, target string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return b.Translate(ctx, text, source, target)
}

// Translator is what Cached wraps; Chain satisfies it.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Cached memoizes successful translations.
type Cached struct {
	next  Translator
	store *cache.Cache[string]
}

// NewCached wraps next with a TTL cache.
func NewCached(next Translator, ttl time.Duration) *Cached {
	return &Cached{next: next, store: cache.New[string](ttl)}
}

// Translate serves from the cache or delegates; failures are not cached.
func (c *Cached) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := cache.Key(source, target, text)
	if v, ok := c.store.Get(key); ok {
		return v, nil
	}
	out, err := c.next.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}
	if out != "" {
		c.store.Set(key, out)
	}
	return out, nil
}

// Cleanup drops expired entries; serve mode calls it between runs.
func (c *Cached) Cleanup() { c.store.Cleanup() }

// cleanText joins non-empty lines into one line for the APIs.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	clean := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			clean = append(clean, line)
		}
	}
	return strings.Join(clean, " ")
}

// limitText cuts text so the public endpoints accept it.
func limitText(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	return string(r[:max])
}
