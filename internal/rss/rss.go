// Package rss fetches news feeds and converts entries to plain-text items.
package rss

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/deusflow/cryptofeed/internal/news"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFeedURL = "https://cryptonews.com/news/feed"
	DefaultLimit   = 6
	defaultTimeout = 15 * time.Second
)

// FeedsConfig is YAML config structure
// feeds:
//   - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads RSS feeds list from YAML file
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg.Feeds, nil
}

// Fetcher reads a list of feeds in order.
type Fetcher struct {
	urls   []string
	limit  int
	parser *gofeed.Parser
	strip  *bluemonday.Policy
	logger *slog.Logger
}

// NewFetcher returns a fetcher taking at most limit entries from every feed.
func NewFetcher(urls []string, limit int, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	parser.UserAgent = "cryptofeed/1.0"
	return &Fetcher{
		urls:   urls,
		limit:  limit,
		parser: parser,
		strip:  bluemonday.StrictPolicy(),
		logger: logger,
	}
}

// Fetch returns items in feed order. A failing feed is skipped; the error is
// returned only when every feed failed.
func (f *Fetcher) Fetch(ctx context.Context) ([]news.Item, error) {
	if len(f.urls) == 0 {
		return nil, errors.New("rss: no feed configured")
	}

	var items []news.Item
	var errs []error
	ok := 0
	for _, url := range f.urls {
		feed, err := f.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			f.logger.Warn("⚠️ error parsing RSS", "url", url, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		ok++
		n := 0
		for _, entry := range feed.Items {
			if n >= f.limit {
				break
			}
			item, valid := f.convert(entry)
			if !valid {
				continue
			}
			items = append(items, item)
			n++
		}
		f.logger.Debug("loaded feed", "url", url, "entries", len(feed.Items), "kept", n)
	}

	f.logger.Info("📥 processed RSS feeds", "ok", ok, "total", len(f.urls), "items", len(items))
	if ok == 0 {
		return nil, errors.Join(errs...)
	}
	return items, nil
}

func (f *Fetcher) convert(entry *gofeed.Item) (news.Item, bool) {
	if entry == nil {
		return news.Item{}, false
	}
	title := f.PlainText(entry.Title)
	if title == "" {
		return news.Item{}, false
	}
	body := entry.Description
	if strings.TrimSpace(body) == "" {
		body = entry.Content
	}

	var published time.Time
	switch {
	case entry.PublishedParsed != nil:
		published = *entry.PublishedParsed
	case entry.UpdatedParsed != nil:
		published = *entry.UpdatedParsed
	}
	return news.NewItem(title, f.PlainText(body), strings.TrimSpace(entry.Link), published), true
}

var blankRun = regexp.MustCompile(`[ \t\r\f\v]+`)

// PlainText strips markup and entities and collapses whitespace.
func (f *Fetcher) PlainText(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n").Replace(s)
	s = html.UnescapeString(f.strip.Sanitize(s))

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(blankRun.ReplaceAllString(line, " ")); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
