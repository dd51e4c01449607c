// Package config loads bot settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/deusflow/cryptofeed/internal/rank"
	"github.com/deusflow/cryptofeed/internal/tags"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// State backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

var DefaultLibreURLs = []string{
	"https://translate.argosopentech.com",
	"https://libretranslate.de",
	"https://translate.astian.org",
}

type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramChatID string
	ChannelHandle  string

	// Feeds
	FeedURL   string
	FeedsFile string
	FeedLimit int

	// Inference and translation providers
	HFToken          string
	HFBaseURL        string
	HFSummaryModel   string
	HFTranslateModel string
	GeminiAPIKey     string
	OpenAIAPIKey     string
	LibreURLs        []string
	LibreAPIKey      string
	Summarizers      []string
	Translators      []string
	SourceLang       string
	TargetLang       string

	// Run policy
	MaxPostsPerRun       int
	DedupCapacity        int
	DailyHour            int
	Timezone             string
	Location             *time.Location
	Coins                []string
	Keywords             []string
	TagRules             []tags.Rule
	DefaultTag           string
	TopicsFile           string
	MaxTags              int
	FallbackSentences    int
	MaxSummaryInput      int
	PublishDelay         time.Duration
	RequestTimeout       time.Duration
	MaxInferenceRequests int
	PollInterval         time.Duration
	TranslationCacheTTL  time.Duration

	// Article enrichment
	EnrichArticles bool
	EnrichMinRunes int

	// State
	StateBackend string
	StateFile    string
	DatabaseURL  string
	RedisURL     string
	RedisPrefix  string
	GitSync      bool
	GitBranch    string
	GitHubToken  string
	GitHubRepo   string

	// App settings
	Debug          bool
	LogLevel       string
	Monitoring     bool
	MonitoringPort string
}

// Topics is the YAML layout of TOPICS_FILE.
type Topics struct {
	Keywords   []string    `yaml:"keywords"`
	Tags       []tags.Rule `yaml:"tags"`
	DefaultTag string      `yaml:"default_tag"`
}

// Load reads .env (when present) and the environment, then validates.
// Missing credentials are not errors; the capability that needs them
// falls back at call time.
func Load() (*Config, error) {
	envFile := getEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		slog.Debug("Skipping .env ...", "file", envFile, "error", err)
	}

	cfg := &Config{
		TelegramToken:  firstEnv("TELEGRAM_BOT_TOKEN", "TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
		FeedURL:        getEnvOrDefault("NEWS_FEED_URL", "https://cryptonews.com/news/feed"),
		FeedsFile:      os.Getenv("FEEDS_FILE"),
		FeedLimit:      getEnvIntOrDefault("FEED_LIMIT", 6),

		HFToken:          os.Getenv("HF_TOKEN"),
		HFBaseURL:        os.Getenv("HF_BASE_URL"),
		HFSummaryModel:   os.Getenv("HF_SUMMARY_MODEL"),
		HFTranslateModel: os.Getenv("HF_TRANSLATE_MODEL"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		LibreURLs:        getEnvListOrDefault("LIBRE_URLS", DefaultLibreURLs),
		LibreAPIKey:      os.Getenv("LIBRE_API_KEY"),
		Summarizers:      getEnvListOrDefault("SUMMARIZERS", []string{"huggingface"}),
		Translators:      getEnvListOrDefault("TRANSLATORS", []string{"libre", "mymemory", "google", "huggingface"}),
		SourceLang:       getEnvOrDefault("SOURCE_LANG", "en"),
		TargetLang:       getEnvOrDefault("TARGET_LANG", "fa"),

		MaxPostsPerRun:       getEnvIntOrDefault("MAX_POSTS_PER_RUN", 3),
		DedupCapacity:        getEnvIntOrDefault("DEDUP_CAPACITY", 500),
		DailyHour:            getEnvIntOrDefault("DAILY_HOUR", 21),
		Timezone:             getEnvOrDefault("TIMEZONE", "Asia/Tehran"),
		Coins:                upper(getEnvListOrDefault("COINS", []string{"BTC", "ETH", "SOL", "TON", "XRP", "BNB"})),
		Keywords:             getEnvListOrDefault("KEYWORDS", rank.DefaultKeywords),
		TagRules:             tags.DefaultRules,
		DefaultTag:           tags.DefaultTag,
		TopicsFile:           os.Getenv("TOPICS_FILE"),
		MaxTags:              getEnvIntOrDefault("MAX_TAGS", tags.DefaultMax),
		FallbackSentences:    getEnvIntOrDefault("FALLBACK_SENTENCES", 3),
		MaxSummaryInput:      getEnvIntOrDefault("MAX_SUMMARY_INPUT", 2000),
		PublishDelay:         getEnvDurationOrDefault("PUBLISH_DELAY", 2*time.Second),
		RequestTimeout:       getEnvDurationOrDefault("REQUEST_TIMEOUT", 20*time.Second),
		MaxInferenceRequests: getEnvIntOrDefault("MAX_INFERENCE_REQUESTS", 0),
		PollInterval:         getEnvDurationOrDefault("POLL_INTERVAL", 5*time.Minute),
		TranslationCacheTTL:  getEnvDurationOrDefault("TRANSLATION_CACHE_TTL", 6*time.Hour),

		EnrichArticles: getEnvBool("ENRICH_ARTICLES"),
		EnrichMinRunes: getEnvIntOrDefault("ENRICH_MIN_RUNES", 200),

		StateBackend: strings.ToLower(getEnvOrDefault("STATE_BACKEND", BackendFile)),
		StateFile:    getEnvOrDefault("STATE_FILE", "posted.json"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:  getEnvOrDefault("REDIS_PREFIX", "cryptofeed"),
		GitSync:      getEnvBool("GIT_SYNC"),
		GitBranch:    getEnvOrDefault("GIT_BRANCH", "main"),
		GitHubToken:  os.Getenv("GITHUB_TOKEN"),
		GitHubRepo:   os.Getenv("GITHUB_REPOSITORY"),

		Debug:          getEnvBool("DEBUG"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		Monitoring:     getEnvBool("ENABLE_HTTP_MONITORING"),
		MonitoringPort: getEnvOrDefault("MONITORING_PORT", "8080"),
	}
	cfg.ChannelHandle = os.Getenv("CHANNEL_HANDLE")
	// numeric chat ids are not handles
	if cfg.ChannelHandle == "" && strings.HasPrefix(cfg.TelegramChatID, "@") {
		cfg.ChannelHandle = cfg.TelegramChatID
	}

	if cfg.TopicsFile != "" {
		topics, err := LoadTopics(cfg.TopicsFile)
		if err != nil {
			return nil, err
		}
		cfg.applyTopics(topics)
	}

	return cfg, cfg.Validate()
}

// LoadTopics reads keyword and tag tables from a YAML file.
func LoadTopics(path string) (*Topics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topics file: %w", err)
	}
	defer f.Close()

	var t Topics
	if err := yaml.NewDecoder(f).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode topics file %s: %w", path, err)
	}
	return &t, nil
}

// applyTopics overrides only the tables the file sets; KEYWORDS in the
// environment still wins over the file.
func (c *Config) applyTopics(t *Topics) {
	if len(t.Keywords) > 0 && os.Getenv("KEYWORDS") == "" {
		c.Keywords = t.Keywords
	}
	if len(t.Tags) > 0 {
		c.TagRules = t.Tags
	}
	if t.DefaultTag != "" {
		c.DefaultTag = t.DefaultTag
	}
}

// Validate rejects settings that cannot work at all.
func (c *Config) Validate() error {
	var errs []error

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	} else {
		c.Location = loc
	}
	if c.DailyHour < 0 || c.DailyHour > 23 {
		errs = append(errs, fmt.Errorf("DAILY_HOUR must be 0..23, got %d", c.DailyHour))
	}
	if c.MaxPostsPerRun < 0 {
		errs = append(errs, fmt.Errorf("MAX_POSTS_PER_RUN must not be negative"))
	}
	if c.DedupCapacity < 0 {
		errs = append(errs, fmt.Errorf("DEDUP_CAPACITY must not be negative"))
	}
	if c.MaxInferenceRequests < 0 {
		errs = append(errs, fmt.Errorf("MAX_INFERENCE_REQUESTS must not be negative"))
	}
	if c.FeedLimit <= 0 {
		errs = append(errs, fmt.Errorf("FEED_LIMIT must be positive"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL must be positive"))
	}
	switch c.StateBackend {
	case BackendFile, BackendPostgres, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("STATE_BACKEND must be file, postgres or redis, got %q", c.StateBackend))
	}
	if c.StateBackend == BackendPostgres && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
	}
	return errors.Join(errs...)
}

// Feeds returns the main feed followed by the FEEDS_FILE entries, without repeats.
func (c *Config) Feeds(extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range append([]string{c.FeedURL}, extra...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
		slog.Warn("ignoring invalid integer", "key", key, "value", value)
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are seconds.
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	slog.Warn("ignoring invalid duration", "key", key, "value", value)
	return defaultValue
}

func getEnvBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func upper(in []string) []string {
	for i, s := range in {
		in[i] = strings.ToUpper(s)
	}
	return in
}
