// Package rank scores feed items and orders them for publishing.
package rank

import (
	"sort"
	"strings"

	"github.com/deusflow/cryptofeed/internal/news"
)

const (
	keywordPoints = 2
	datePoints    = 1
	maxTitleWords = 6
)

// DefaultKeywords are used when KEYWORDS is not configured.
var DefaultKeywords = []string{
	"bitcoin", "ethereum", "etf", "sec", "regulation", "solana", "ton",
	"xrp", "binance", "stablecoin", "hack", "halving", "fed",
}

// Ranker scores items against a fixed keyword list. Scoring is pure.
type Ranker struct {
	keywords []string
}

// New builds a Ranker. Keywords are matched case-insensitively; blanks and
// repeats are dropped so each keyword counts once.
func New(keywords []string) *Ranker {
	seen := make(map[string]struct{}, len(keywords))
	r := &Ranker{}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		r.keywords = append(r.keywords, k)
	}
	return r
}

// Keywords returns the normalized keyword list.
func (r *Ranker) Keywords() []string {
	return append([]string(nil), r.keywords...)
}

// Score computes the relevance of one item:
// +2 per keyword found in title and body, +1 for a publish date,
// plus the title word count capped at 6.
func (r *Ranker) Score(item news.Item) int {
	text := strings.ToLower(item.Title + " " + item.Body)

	score := 0
	for _, k := range r.keywords {
		if strings.Contains(text, k) {
			score += keywordPoints
		}
	}
	if !item.PublishedAt.IsZero() {
		score += datePoints
	}
	score += min(len(strings.Fields(item.Title)), maxTitleWords)
	return score
}

// Rank returns the items ordered by descending score.
// Equal scores keep their feed order.
func (r *Ranker) Rank(items []news.Item) []news.RankedItem {
	ranked := make([]news.RankedItem, len(items))
	for i, it := range items {
		ranked[i] = news.RankedItem{Item: it, Score: r.Score(it)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
