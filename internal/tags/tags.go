// Package tags derives hashtags for a message from a coin/topic keyword table.
package tags

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMax is the hashtag cap used when none is configured.
const DefaultMax = 8

// DefaultTag is used when nothing in the table matches.
const DefaultTag = "crypto"

// Rule maps a set of keywords to one hashtag.
type Rule struct {
	Tag      string   `yaml:"tag"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the built-in coin and topic table. Coins come first so they
// survive the cap.
var DefaultRules = []Rule{
	{Tag: "Bitcoin", Keywords: []string{"bitcoin", "btc"}},
	{Tag: "Ethereum", Keywords: []string{"ethereum", "eth", "ether"}},
	{Tag: "Solana", Keywords: []string{"solana", "sol"}},
	{Tag: "TON", Keywords: []string{"toncoin", "ton", "telegram open network"}},
	{Tag: "XRP", Keywords: []string{"xrp", "ripple"}},
	{Tag: "BNB", Keywords: []string{"bnb", "binance"}},
	{Tag: "ETF", Keywords: []string{"etf", "exchange-traded"}},
	{Tag: "Regulation", Keywords: []string{"sec", "regulation", "regulator", "lawsuit"}},
	{Tag: "DeFi", Keywords: []string{"defi", "decentralized finance"}},
	{Tag: "NFT", Keywords: []string{"nft"}},
	{Tag: "Stablecoin", Keywords: []string{"stablecoin", "usdt", "usdc", "tether"}},
	{Tag: "Mining", Keywords: []string{"mining", "miner", "hashrate"}},
	{Tag: "Security", Keywords: []string{"hack", "exploit", "breach", "scam"}},
}

type matcher struct {
	tag     string
	phrases []string
	words   []*regexp.Regexp
}

// Tagger matches text against the rule table.
type Tagger struct {
	matchers   []matcher
	max        int
	defaultTag string
}

// New compiles rules. max <= 0 falls back to DefaultMax and an empty
// defaultTag to DefaultTag.
func New(rules []Rule, max int, defaultTag string) *Tagger {
	if max <= 0 {
		max = DefaultMax
	}
	defaultTag = normalizeTag(defaultTag)
	if defaultTag == "" {
		defaultTag = DefaultTag
	}
	t := &Tagger{max: max, defaultTag: defaultTag}
	for _, r := range rules {
		tag := normalizeTag(r.Tag)
		if tag == "" {
			continue
		}
		m := matcher{tag: tag}
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" {
				continue
			}
			// short single tokens need whole-word match: "eth" must not hit "method"
			if !strings.Contains(k, " ") && utf8.RuneCountInString(k) <= 3 {
				m.words = append(m.words, regexp.MustCompile(`\b`+regexp.QuoteMeta(k)+`\b`))
				continue
			}
			m.phrases = append(m.phrases, k)
		}
		t.matchers = append(t.matchers, m)
	}
	return t
}

// Tags returns "#Tag" strings in table order, at most max of them. When no
// rule matches the default tag is returned alone.
func (t *Tagger) Tags(text string) []string {
	text = strings.ToLower(text)
	seen := make(map[string]struct{})
	var out []string
	for _, m := range t.matchers {
		if len(out) >= t.max {
			break
		}
		if _, dup := seen[m.tag]; dup {
			continue
		}
		if !m.match(text) {
			continue
		}
		seen[m.tag] = struct{}{}
		out = append(out, "#"+m.tag)
	}
	if len(out) == 0 {
		return []string{"#" + t.defaultTag}
	}
	return out
}

func (m matcher) match(text string) bool {
	for _, p := range m.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	for _, re := range m.words {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// normalizeTag keeps letters, digits and underscores, which is what Telegram
// accepts inside a hashtag.
func normalizeTag(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
