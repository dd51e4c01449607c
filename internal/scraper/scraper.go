// Package scraper fills in short feed bodies from the article page.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/deusflow/cryptofeed/internal/news"
)

const (
	DefaultMinRunes = 200
	defaultTimeout  = 10 * time.Second
	minParagraph    = 20
	enoughParas     = 3
)

var selectors = []string{
	"article p",
	".entry-content p",
	".post-content p",
	".article-content p",
	"main p",
}

// Enricher fetches article pages for items whose body is too short.
type Enricher struct {
	minRunes int
	http     *http.Client
	logger   *slog.Logger
}

func NewEnricher(minRunes int, timeout time.Duration, logger *slog.Logger) *Enricher {
	if minRunes <= 0 {
		minRunes = DefaultMinRunes
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{minRunes: minRunes, http: &http.Client{Timeout: timeout}, logger: logger}
}

// Enrich returns item with a longer body when the page yields one. Any
// failure returns item unchanged.
func (e *Enricher) Enrich(ctx context.Context, item news.Item) news.Item {
	if item.Link == "" || utf8.RuneCountInString(item.Body) >= e.minRunes {
		return item
	}
	content, err := e.Extract(ctx, item.Link)
	if err != nil {
		e.logger.Debug("⚠️ can't get content", "url", item.Link, "err", err)
		return item
	}
	if utf8.RuneCountInString(content) <= utf8.RuneCountInString(item.Body) {
		return item
	}
	e.logger.Debug("✅ got content", "url", item.Link, "runes", utf8.RuneCountInString(content))
	item.Body = content
	return item
}

// Extract downloads url and returns its article paragraphs.
func (e *Enricher) Extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; cryptofeed/1.0)")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	if content := extractParagraphs(doc); content != "" {
		return content, nil
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && strings.TrimSpace(desc) != "" {
		return strings.TrimSpace(desc), nil
	}
	return "", fmt.Errorf("can't get content")
}

func extractParagraphs(doc *goquery.Document) string {
	var best []string
	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.Join(strings.Fields(s.Text()), " ")
			if utf8.RuneCountInString(text) > minParagraph {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > len(best) {
			best = paragraphs
		}
		if len(best) >= enoughParas {
			break
		}
	}
	return strings.Join(best, "\n")
}
