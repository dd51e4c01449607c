// Package summarize tries the configured summarization providers in order.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/deusflow/cryptofeed/internal/ratelimit"
)

// ErrNoProvider is returned by a Chain without providers.
var ErrNoProvider = errors.New("summarize: no provider configured")

// Provider is one summarization backend.
type Provider interface {
	Name() string
	Summarize(ctx context.Context, text string, maxLen int) (string, error)
}

// Chain returns the first non-blank summary. Each provider is tried once.
type Chain struct {
	providers []Provider
	budget    *ratelimit.Budget
	timeout   time.Duration
	logger    *slog.Logger
}

// NewChain builds a chain. budget may be nil.
func NewChain(providers []Provider, budget *ratelimit.Budget, timeout time.Duration, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{providers: providers, budget: budget, timeout: timeout, logger: logger}
}

// Names lists the providers in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

func (c *Chain) Summarize(ctx context.Context, text string, maxLen int) (string, error) {
	if len(c.providers) == 0 {
		return "", ErrNoProvider
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := c.budget.Use(p.Name()); err != nil {
			errs = append(errs, err)
			continue
		}

		out, err := c.attempt(ctx, p, text, maxLen)
		if err != nil {
			c.logger.Debug("⚠️ summarizer failed", "provider", p.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if out = strings.TrimSpace(out); out == "" {
			errs = append(errs, fmt.Errorf("%s: empty summary", p.Name()))
			continue
		}
		return out, nil
	}
	return "", errors.Join(errs...)
}

func (c *Chain) attempt(ctx context.Context, p Provider, text string, maxLen int) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return p.Summarize(ctx, text, maxLen)
}
