// Package transform turns a feed item into a publishable channel message:
// summarize, translate, tag, format. Capability failures never escape;
// each step falls back to something built from the original text.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/deusflow/cryptofeed/internal/news"
	"github.com/deusflow/cryptofeed/internal/tags"
)

// ErrEmptyItem is returned for items without a title; there is nothing to post.
var ErrEmptyItem = errors.New("item has no title")

// Summarizer shortens text. Implementations may call remote models.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLen int) (string, error)
}

// Translator translates text between two language codes.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Config controls the transformer.
type Config struct {
	MaxInputRunes     int    // summarizer input cap, default 2000
	FallbackSentences int    // 3 or 4, default 3
	SourceLang        string // default "en"
	TargetLang        string // default "fa"
	Channel           string // signature handle, with or without "@"
	Labels            Labels
}

func (c Config) withDefaults() Config {
	if c.MaxInputRunes <= 0 {
		c.MaxInputRunes = 2000
	}
	switch {
	case c.FallbackSentences < 3:
		c.FallbackSentences = 3
	case c.FallbackSentences > 4:
		c.FallbackSentences = 4
	}
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.TargetLang == "" {
		c.TargetLang = "fa"
	}
	if c.Labels == (Labels{}) {
		c.Labels = DefaultLabels
	}
	return c
}

// Observer receives fallback notifications; metrics implement it.
type Observer interface {
	SummaryFallback()
	TranslationFallback()
}

// Transformer builds messages from items.
type Transformer struct {
	cfg        Config
	summarizer Summarizer
	translator Translator
	tagger     *tags.Tagger
	observer   Observer
	logger     *slog.Logger
}

// New creates a Transformer. summarizer and translator may be nil, in which
// case the fallbacks are used directly.
func New(cfg Config, summarizer Summarizer, translator Translator, tagger *tags.Tagger, observer Observer, logger *slog.Logger) *Transformer {
	if tagger == nil {
		tagger = tags.New(tags.DefaultRules, tags.DefaultMax, tags.DefaultTag)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		cfg:        cfg.withDefaults(),
		summarizer: summarizer,
		translator: translator,
		tagger:     tagger,
		observer:   observer,
		logger:     logger,
	}
}

// Transform builds the message for one item.
func (t *Transformer) Transform(ctx context.Context, item news.Item) (news.Message, error) {
	if strings.TrimSpace(item.Title) == "" {
		return news.Message{}, ErrEmptyItem
	}

	source := item.Body
	if strings.TrimSpace(source) == "" {
		source = item.Title
	}
	source = truncateRunes(source, t.cfg.MaxInputRunes)

	summary := t.summarize(ctx, source)
	title := t.translate(ctx, item.Title)
	summary = t.translate(ctx, summary)

	text := format(parts{
		title:   title,
		summary: summary,
		link:    item.Link,
		tags:    t.tagger.Tags(item.Title + " " + item.Body),
		channel: t.cfg.Channel,
		labels:  t.cfg.Labels,
	})
	return news.Message{ItemID: item.ID, Text: text}, nil
}

func (t *Transformer) summarize(ctx context.Context, text string) string {
	if t.summarizer != nil {
		out, err := safeCall(func() (string, error) {
			return t.summarizer.Summarize(ctx, text, t.cfg.MaxInputRunes)
		})
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		if err == nil {
			err = errors.New("empty summary")
		}
		t.logger.Warn("summarize failed, using first sentences", "err", err)
	}
	if t.observer != nil {
		t.observer.SummaryFallback()
	}
	return FallbackSummary(text, t.cfg.FallbackSentences)
}

func (t *Transformer) translate(ctx context.Context, text string) string {
	if text == "" || t.cfg.SourceLang == t.cfg.TargetLang {
		return text
	}
	if t.translator != nil {
		out, err := safeCall(func() (string, error) {
			return t.translator.Translate(ctx, text, t.cfg.SourceLang, t.cfg.TargetLang)
		})
		if err == nil && strings.TrimSpace(out) != "" {
			return strings.TrimSpace(out)
		}
		if err == nil {
			err = errors.New("empty translation")
		}
		t.logger.Warn("translate failed, keeping original", "err", err, "text", news.ShortTitle(text, 60))
	}
	if t.observer != nil {
		t.observer.TranslationFallback()
	}
	return text
}

// safeCall turns a panicking capability into an ordinary failure.
func safeCall(fn func() (string, error)) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// FallbackSummary returns the first n sentences of text, where a sentence is a
// trimmed, non-empty piece between dots.
func FallbackSummary(text string, n int) string {
	var picked []string
	for _, s := range strings.Split(text, ".") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		picked = append(picked, s)
		if len(picked) >= n {
			break
		}
	}
	if len(picked) == 0 {
		return strings.TrimSpace(text)
	}
	return strings.Join(picked, ". ") + "."
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
