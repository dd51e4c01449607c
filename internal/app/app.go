// Package app runs one publish cycle: load state, fetch, filter, rank,
// transform, publish, the daily snapshot, save.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/deusflow/cryptofeed/internal/dedup"
	"github.com/deusflow/cryptofeed/internal/market"
	"github.com/deusflow/cryptofeed/internal/metrics"
	"github.com/deusflow/cryptofeed/internal/news"
	"github.com/deusflow/cryptofeed/internal/rank"
	"github.com/deusflow/cryptofeed/internal/ratelimit"
	"github.com/deusflow/cryptofeed/internal/storage"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type FeedFetcher interface {
	Fetch(ctx context.Context) ([]news.Item, error)
}

type Transformer interface {
	Transform(ctx context.Context, item news.Item) (news.Message, error)
}

type Publisher interface {
	Publish(ctx context.Context, msg news.Message) error
}

// DailyJob composes the once-a-day side post.
type DailyJob interface {
	Compose(ctx context.Context) (news.Message, error)
}

// Enricher may replace a short item body before transforming.
type Enricher interface {
	Enrich(ctx context.Context, item news.Item) news.Item
}

// Config is the run policy.
type Config struct {
	MaxPostsPerRun int
	DedupCapacity  int
	DailyHour      int
	Location       *time.Location
	SaveTimeout    time.Duration
}

// Deps are the collaborators of a Coordinator. Daily, Enricher, Pacer,
// Budget and Metrics are optional.
type Deps struct {
	Fetcher     FeedFetcher
	Store       storage.Store
	Transformer Transformer
	Publisher   Publisher
	Daily       DailyJob
	Enricher    Enricher
	Ranker      *rank.Ranker
	Pacer       *ratelimit.Pacer
	Budget      *ratelimit.Budget
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Now         func() time.Time
}

// Report summarizes one run.
type Report struct {
	RunID      string
	Fetched    int
	Fresh      int
	Selected   int
	Published  int
	Failed     int
	DailyFired bool
	Saved      bool
	SaveErr    error
}

// Coordinator owns one run at a time; Run must not be called concurrently.
type Coordinator struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Coordinator {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 30 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Ranker == nil {
		deps.Ranker = rank.New(nil)
	}
	return &Coordinator{cfg: cfg, deps: deps}
}

type outcome int

const (
	skipped outcome = iota
	published
	failed
)

// Run executes one cycle. The only returned error is a state load failure;
// everything else is logged and reflected in the Report.
func (c *Coordinator) Run(ctx context.Context) (Report, error) {
	start := c.deps.Now()
	report := Report{RunID: uuid.NewString()}
	log := c.deps.Logger.With("run_id", report.RunID)
	log.Info("🚀 run started")

	c.deps.Budget.Reset()

	rec, err := c.deps.Store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load state: %w", err)
		log.Error("❌ can't load state, nothing will be published", "err", err)
		c.deps.Metrics.RecordRun(time.Since(start), err)
		return report, err
	}
	store := dedup.New(rec.Published...)

	items, err := c.deps.Fetcher.Fetch(ctx)
	if err != nil {
		log.Warn("⚠️ fetch failed, continuing with no items", "err", err)
		items = nil
	}
	report.Fetched = len(items)
	c.deps.Metrics.ItemsFetched(len(items))

	fresh := filterFresh(items, store)
	report.Fresh = len(fresh)
	c.deps.Metrics.DuplicatesFiltered(len(items) - len(fresh))

	ranked := c.deps.Ranker.Rank(fresh)
	if c.cfg.MaxPostsPerRun >= 0 && len(ranked) > c.cfg.MaxPostsPerRun {
		ranked = ranked[:c.cfg.MaxPostsPerRun]
	}
	report.Selected = len(ranked)
	log.Info("📰 items selected", "fetched", report.Fetched, "fresh", report.Fresh, "selected", report.Selected)

	for _, r := range ranked {
		if ctx.Err() != nil {
			log.Warn("run cancelled, stopping before next publish", "err", ctx.Err())
			break
		}
		switch c.processItem(ctx, log, store, r) {
		case published:
			report.Published++
		case failed:
			report.Failed++
		}
	}

	if ctx.Err() == nil && c.dailyDue(start, rec.LastDailySummary) {
		if c.runDaily(ctx, log) {
			rec.LastDailySummary = start.In(c.cfg.Location).Format(dateLayout)
			report.DailyFired = true
		}
	}

	if report.Published > 0 || report.DailyFired {
		if evicted := store.EvictIfOverCapacity(c.cfg.DedupCapacity); len(evicted) > 0 {
			log.Debug("evicted oldest identifiers", "count", len(evicted))
		}
		rec.Published = store.Identifiers()

		// Publishes already happened; save them even if ctx was cancelled.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.SaveTimeout)
		err := c.deps.Store.Save(saveCtx, rec)
		cancel()
		if err != nil {
			report.SaveErr = fmt.Errorf("save state: %w", err)
			log.Error("❌ can't save state", "err", err)
		} else {
			report.Saved = true
			log.Debug("💾 state saved", "identifiers", len(rec.Published))
		}
	}

	c.deps.Budget.LogStats(log)
	c.deps.Metrics.RecordRun(time.Since(start), report.SaveErr)
	log.Info("🏁 run finished",
		"published", report.Published,
		"failed", report.Failed,
		"daily", report.DailyFired,
		"saved", report.Saved,
		"took", time.Since(start).Round(time.Millisecond))
	return report, nil
}

// filterFresh drops items already published and repeats within the batch,
// keeping feed order.
func filterFresh(items []news.Item, store *dedup.Store) []news.Item {
	seen := make(map[string]bool, len(items))
	fresh := make([]news.Item, 0, len(items))
	for _, it := range items {
		if it.ID == "" || seenBefore(store, it) || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		fresh = append(fresh, it)
	}
	return fresh
}

// seenBefore also matches the title identifier, which is how records from the
// title-keyed bot name their items.
func seenBefore(store *dedup.Store, it news.Item) bool {
	return store.Contains(it.ID) || store.Contains(news.TitleIdentifier(it.Title))
}

func (c *Coordinator) processItem(ctx context.Context, log *slog.Logger, store *dedup.Store, r news.RankedItem) (res outcome) {
	item := r.Item
	log = log.With("id", item.ID, "title", news.ShortTitle(item.Title, 80))

	defer func() {
		if p := recover(); p != nil {
			log.Error("💥 panic while processing item", "panic", p)
			res = failed
		}
	}()

	if c.deps.Enricher != nil {
		item = c.deps.Enricher.Enrich(ctx, item)
	}

	msg, err := c.deps.Transformer.Transform(ctx, item)
	if err != nil {
		c.deps.Metrics.TransformFailed()
		log.Warn("⚠️ can't transform item, skipping", "err", err)
		return failed
	}

	if err := c.deps.Pacer.Wait(ctx); err != nil {
		log.Warn("publish wait interrupted", "err", err)
		return failed
	}
	if seenBefore(store, item) {
		log.Debug("already published, skipping")
		return skipped
	}

	if err := c.deps.Publisher.Publish(ctx, msg); err != nil {
		c.deps.Metrics.PublishFailed()
		log.Warn("⚠️ publish failed, item stays eligible", "err", err)
		return failed
	}
	store.RecordPublished(item.ID)
	c.deps.Metrics.Published()
	log.Info("✅ posted", "score", r.Score)
	return published
}

func (c *Coordinator) dailyDue(now time.Time, last string) bool {
	if c.deps.Daily == nil {
		return false
	}
	local := now.In(c.cfg.Location)
	return local.Hour() == c.cfg.DailyHour && last != local.Format(dateLayout)
}

func (c *Coordinator) runDaily(ctx context.Context, log *slog.Logger) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("💥 panic in daily job", "panic", p)
			ok = false
		}
	}()

	msg, err := c.deps.Daily.Compose(ctx)
	if errors.Is(err, market.ErrNoData) {
		log.Warn("⚠️ no market data, daily post retries next run")
		return false
	}
	if err != nil {
		log.Warn("⚠️ can't compose daily post", "err", err)
		return false
	}
	if err := c.deps.Pacer.Wait(ctx); err != nil {
		return false
	}
	if err := c.deps.Publisher.Publish(ctx, msg); err != nil {
		c.deps.Metrics.PublishFailed()
		log.Warn("⚠️ daily post failed", "err", err)
		return false
	}
	c.deps.Metrics.DailyPosted()
	log.Info("📊 daily snapshot sent")
	return true
}
