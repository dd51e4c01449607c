package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/cryptofeed/internal/config"
	"github.com/deusflow/cryptofeed/internal/gemini"
	"github.com/deusflow/cryptofeed/internal/huggingface"
	"github.com/deusflow/cryptofeed/internal/market"
	"github.com/deusflow/cryptofeed/internal/metrics"
	"github.com/deusflow/cryptofeed/internal/rank"
	"github.com/deusflow/cryptofeed/internal/ratelimit"
	"github.com/deusflow/cryptofeed/internal/rss"
	"github.com/deusflow/cryptofeed/internal/scraper"
	"github.com/deusflow/cryptofeed/internal/storage"
	"github.com/deusflow/cryptofeed/internal/summarize"
	"github.com/deusflow/cryptofeed/internal/tags"
	"github.com/deusflow/cryptofeed/internal/telegram"
	"github.com/deusflow/cryptofeed/internal/transform"
	"github.com/deusflow/cryptofeed/internal/translate"
)

// Options tweak how a Runtime is built.
type Options struct {
	DryRun bool
}

// Runtime is a coordinator wired from config, plus the pieces the commands
// need directly.
type Runtime struct {
	Coordinator *Coordinator
	Metrics     *metrics.Metrics
	Store       storage.Store
	Translator  *translate.Cached
	Snapshot    *market.Snapshot
	Publisher   Publisher

	closers []func()
}

// Close releases clients opened by Build.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Build wires every component from cfg. Only the state backend can fail it;
// missing provider credentials just leave that provider out.
func Build(ctx context.Context, cfg *config.Config, opts Options, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{Metrics: metrics.New()}

	store, closeStore, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	rt.Store = store
	rt.closers = append(rt.closers, closeStore)

	budget := ratelimit.NewBudget(cfg.MaxInferenceRequests, 0)

	hf := huggingface.NewClient(cfg.HFToken,
		huggingface.WithBaseURL(orDefault(cfg.HFBaseURL, huggingface.DefaultBaseURL)),
		huggingface.WithModels(cfg.HFSummaryModel, cfg.HFTranslateModel),
		huggingface.WithTimeout(cfg.RequestTimeout),
	)
	var gem *gemini.Client
	if cfg.GeminiAPIKey != "" {
		gem, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, "")
		if err != nil {
			logger.Warn("⚠️ gemini disabled", "err", err)
			gem = nil
		} else {
			rt.closers = append(rt.closers, gem.Close)
		}
	}

	providers := summarizers(cfg, hf, gem, logger)
	backends := translators(cfg, hf, gem, logger)
	summarizer := summarize.NewChain(providers, budget, cfg.RequestTimeout, logger)
	chain := translate.NewChain(backends, budget, cfg.RequestTimeout, logger)
	rt.Translator = translate.NewCached(chain, cfg.TranslationCacheTTL)
	logger.Info("🔧 providers configured", "summarizers", summarizer.Names(), "translators", chain.Names())

	var summ transform.Summarizer
	if len(providers) > 0 {
		summ = summarizer
	}
	var tr transform.Translator
	if len(backends) > 0 {
		tr = rt.Translator
	}
	transformer := transform.New(transform.Config{
		MaxInputRunes:     cfg.MaxSummaryInput,
		FallbackSentences: cfg.FallbackSentences,
		SourceLang:        cfg.SourceLang,
		TargetLang:        cfg.TargetLang,
		Channel:           cfg.ChannelHandle,
	}, summ, tr, tags.New(cfg.TagRules, cfg.MaxTags, cfg.DefaultTag), rt.Metrics, logger)

	extra, err := feedsFromFile(cfg.FeedsFile)
	if err != nil {
		logger.Warn("⚠️ can't read feeds file, using main feed only", "file", cfg.FeedsFile, "err", err)
	}
	fetcher := rss.NewFetcher(cfg.Feeds(extra), cfg.FeedLimit, cfg.RequestTimeout, logger)

	rt.Publisher = NewPublisher(cfg, opts.DryRun, logger)
	rt.Snapshot = market.NewSnapshot(cfg.Coins, cfg.ChannelHandle, "")

	deps := Deps{
		Fetcher:     fetcher,
		Store:       store,
		Transformer: transformer,
		Publisher:   rt.Publisher,
		Daily:       rt.Snapshot,
		Ranker:      rank.New(cfg.Keywords),
		Pacer:       ratelimit.NewPacer(cfg.PublishDelay),
		Budget:      budget,
		Metrics:     rt.Metrics,
		Logger:      logger,
	}
	if cfg.EnrichArticles {
		deps.Enricher = scraper.NewEnricher(cfg.EnrichMinRunes, cfg.RequestTimeout, logger)
	}
	rt.Coordinator = New(Config{
		MaxPostsPerRun: cfg.MaxPostsPerRun,
		DedupCapacity:  cfg.DedupCapacity,
		DailyHour:      cfg.DailyHour,
		Location:       cfg.Location,
	}, deps)
	return rt, nil
}

// NewPublisher returns the Telegram client, or a logging stand-in for dry
// runs. Without credentials every publish fails, so nothing is recorded.
func NewPublisher(cfg *config.Config, dryRun bool, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if dryRun {
		return telegram.DryRun{Logger: logger}
	}
	if cfg.TelegramToken == "" || cfg.TelegramChatID == "" {
		logger.Warn("⚠️ TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, every publish will fail")
	}
	return telegram.NewClient(cfg.TelegramToken, cfg.TelegramChatID)
}

// OpenStore opens the configured state backend. The returned func closes it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	noop := func() {}
	switch cfg.StateBackend {
	case config.BackendPostgres:
		s, err := storage.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres state: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendRedis:
		s, err := storage.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, noop, fmt.Errorf("open redis state: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendFile, "":
		file := storage.NewFileStore(cfg.StateFile)
		if !cfg.GitSync {
			return file, noop, nil
		}
		if cfg.GitHubToken == "" || cfg.GitHubRepo == "" {
			logger.Warn("⚠️ GIT_SYNC set without GITHUB_TOKEN or GITHUB_REPOSITORY, state stays local")
			return file, noop, nil
		}
		return storage.NewGitSync(file, cfg.GitHubToken, cfg.GitHubRepo, cfg.GitBranch, logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

func summarizers(cfg *config.Config, hf *huggingface.Client, gem *gemini.Client, logger *slog.Logger) []summarize.Provider {
	var out []summarize.Provider
	for _, name := range cfg.Summarizers {
		switch strings.ToLower(name) {
		case "huggingface", "hf":
			if cfg.HFToken == "" {
				logger.Debug("HF_TOKEN not set, skipping huggingface summarizer")
				continue
			}
			out = append(out, hf)
		case "gemini":
			if gem == nil {
				logger.Debug("GEMINI_API_KEY not set, skipping gemini summarizer")
				continue
			}
			out = append(out, gem)
		default:
			logger.Warn("unknown summarizer", "name", name)
		}
	}
	return out
}

func translators(cfg *config.Config, hf *huggingface.Client, gem *gemini.Client, logger *slog.Logger) []translate.Backend {
	var out []translate.Backend
	for _, name := range cfg.Translators {
		switch strings.ToLower(name) {
		case "libre":
			for _, u := range cfg.LibreURLs {
				out = append(out, translate.NewLibre(u, cfg.LibreAPIKey, cfg.RequestTimeout))
			}
		case "mymemory":
			out = append(out, translate.NewMyMemory("", cfg.RequestTimeout))
		case "google":
			out = append(out, translate.NewGoogle("", cfg.RequestTimeout))
		case "huggingface", "hf":
			if cfg.HFToken == "" {
				logger.Debug("HF_TOKEN not set, skipping huggingface translator")
				continue
			}
			out = append(out, hf)
		case "gemini":
			if gem == nil {
				logger.Debug("GEMINI_API_KEY not set, skipping gemini translator")
				continue
			}
			out = append(out, gem)
		case "openai":
			o, err := translate.NewOpenAI(cfg.OpenAIAPIKey, "")
			if err != nil {
				logger.Debug("skipping openai translator", "err", err)
				continue
			}
			out = append(out, o)
		default:
			logger.Warn("unknown translator", "name", name)
		}
	}
	return out
}

func feedsFromFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	feeds, err := rss.LoadFeeds(path)
	if err != nil {
		return nil, fmt.Errorf("load feeds %s: %w", path, err)
	}
	return feeds, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
