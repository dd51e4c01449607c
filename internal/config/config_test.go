package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deusflow/cryptofeed/internal/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noEnvFile keeps a developer's .env out of the test.
func noEnvFile(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoad_Defaults(t *testing.T) {
	noEnvFile(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxPostsPerRun)
	assert.Equal(t, 500, cfg.DedupCapacity)
	assert.Equal(t, 21, cfg.DailyHour)
	assert.Equal(t, "Asia/Tehran", cfg.Location.String())
	assert.Equal(t, 2*time.Second, cfg.PublishDelay)
	assert.Equal(t, 5*time.Minute, cfg.PollInterval)
	assert.Equal(t, []string{"libre", "mymemory", "google", "huggingface"}, cfg.Translators)
	assert.Equal(t, []string{"BTC", "ETH", "SOL", "TON", "XRP", "BNB"}, cfg.Coins)
	assert.Equal(t, BackendFile, cfg.StateBackend)
	assert.Equal(t, "posted.json", cfg.StateFile)
	assert.Equal(t, "https://cryptonews.com/news/feed", cfg.FeedURL)
	assert.Equal(t, tags.DefaultRules, cfg.TagRules)
}

func TestLoad_MissingCredentialsAreNotErrors(t *testing.T) {
	noEnvFile(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("HF_TOKEN", "")

	_, err := Load()

	assert.NoError(t, err)
}

func TestLoad_NumericChatIDIsNotAHandle(t *testing.T) {
	noEnvFile(t)
	t.Setenv("CHANNEL_HANDLE", "")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234567890")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.ChannelHandle)

	t.Setenv("CHANNEL_HANDLE", "@sharks")
	cfg, err = Load()

	require.NoError(t, err)
	assert.Equal(t, "@sharks", cfg.ChannelHandle)
}

func TestLoad_Overrides(t *testing.T) {
	noEnvFile(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_TOKEN", "legacy")
	t.Setenv("TELEGRAM_CHAT_ID", "@sharks")
	t.Setenv("MAX_POSTS_PER_RUN", "5")
	t.Setenv("PUBLISH_DELAY", "3")
	t.Setenv("POLL_INTERVAL", "10m")
	t.Setenv("TRANSLATORS", " google , gemini ,")
	t.Setenv("COINS", "btc,eth")
	t.Setenv("GIT_SYNC", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.TelegramToken)
	assert.Equal(t, "@sharks", cfg.ChannelHandle)
	assert.Equal(t, 5, cfg.MaxPostsPerRun)
	assert.Equal(t, 3*time.Second, cfg.PublishDelay)
	assert.Equal(t, 10*time.Minute, cfg.PollInterval)
	assert.Equal(t, []string{"google", "gemini"}, cfg.Translators)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Coins)
	assert.True(t, cfg.GitSync)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DAILY_HOUR=9\n"), 0o644))
	t.Setenv("ENV_FILE", path)
	t.Setenv("DAILY_HOUR", "")
	// godotenv never overrides a variable that is set, even to "".
	require.NoError(t, os.Unsetenv("DAILY_HOUR"))
	t.Cleanup(func() { _ = os.Unsetenv("DAILY_HOUR") })

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.DailyHour)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(c *Config){
		"bad timezone":       func(c *Config) { c.Timezone = "Mars/Olympus" },
		"hour out of range":  func(c *Config) { c.DailyHour = 24 },
		"negative cap":       func(c *Config) { c.MaxPostsPerRun = -1 },
		"negative capacity":  func(c *Config) { c.DedupCapacity = -1 },
		"unknown backend":    func(c *Config) { c.StateBackend = "sqlite" },
		"postgres needs url": func(c *Config) { c.StateBackend = BackendPostgres },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}

func valid() *Config {
	return &Config{
		Timezone:       "UTC",
		DailyHour:      21,
		MaxPostsPerRun: 3,
		DedupCapacity:  500,
		FeedLimit:      6,
		PollInterval:   time.Minute,
		StateBackend:   BackendFile,
	}
}

func TestLoadTopics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
keywords: [bitcoin, halving]
tags:
  - tag: Bitcoin
    keywords: [bitcoin, btc]
default_tag: news
`), 0o644))
	noEnvFile(t)
	t.Setenv("TOPICS_FILE", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"bitcoin", "halving"}, cfg.Keywords)
	assert.Equal(t, []tags.Rule{{Tag: "Bitcoin", Keywords: []string{"bitcoin", "btc"}}}, cfg.TagRules)
	assert.Equal(t, "news", cfg.DefaultTag)
}

func TestFeeds(t *testing.T) {
	c := &Config{FeedURL: "https://a/rss"}

	assert.Equal(t, []string{"https://a/rss", "https://b/rss"}, c.Feeds([]string{"https://b/rss", "https://a/rss", " "}))
}
