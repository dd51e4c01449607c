package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrExhausted is returned when a provider has used up its per-run budget.
var ErrExhausted = errors.New("request budget exhausted")

// Budget caps how many inference requests each provider may make in one run.
// A limit of 0 means unlimited.
type Budget struct {
	mu       sync.Mutex
	perName  int
	maxTotal int
	used     map[string]int
	total    int
}

// NewBudget returns a budget allowing perProvider calls for each provider and
// maxTotal calls overall.
func NewBudget(perProvider, maxTotal int) *Budget {
	return &Budget{
		perName:  perProvider,
		maxTotal: maxTotal,
		used:     make(map[string]int),
	}
}

// Use records one call for provider, or returns ErrExhausted without recording.
// A nil Budget allows everything.
func (b *Budget) Use(provider string) error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.perName > 0 && b.used[provider] >= b.perName {
		return fmt.Errorf("%s: %w (%d/%d)", provider, ErrExhausted, b.used[provider], b.perName)
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		return fmt.Errorf("total: %w (%d/%d)", ErrExhausted, b.total, b.maxTotal)
	}
	b.used[provider]++
	b.total++
	return nil
}

// Reset clears all counters; the coordinator calls it at the start of a run.
func (b *Budget) Reset() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.used = make(map[string]int)
	b.total = 0
}

// Stats returns the per-provider usage and the total.
func (b *Budget) Stats() map[string]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]int, len(b.used)+1)
	for k, v := range b.used {
		out[k] = v
	}
	out["total"] = b.total
	return out
}

// LogStats writes the usage at debug level.
func (b *Budget) LogStats(logger *slog.Logger) {
	if b == nil {
		return
	}
	args := make([]any, 0, 2*len(b.used)+2)
	for k, v := range b.Stats() {
		args = append(args, k, v)
	}
	logger.Debug("📊 inference usage", args...)
}

// Pacer spaces out publish calls to respect the channel's rate limits.
// The first call passes immediately.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a Pacer allowing one call per interval. interval <= 0
// disables waiting.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
