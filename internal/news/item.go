package news

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Item is a single candidate entry from the feed.
type Item struct {
	ID          string
	Title       string
	Body        string
	Link        string
	PublishedAt time.Time // zero when the feed gave no date
}

// RankedItem is an Item with the score computed for this run.
type RankedItem struct {
	Item  Item
	Score int
}

// Message is the formatted text ready for the channel.
type Message struct {
	ItemID string
	Text   string
}

// NewItem trims the raw fields and derives the identifier from the link.
func NewItem(title, body, link string, publishedAt time.Time) Item {
	title = strings.TrimSpace(title)
	link = strings.TrimSpace(link)
	return Item{
		ID:          Identifier(link, title),
		Title:       title,
		Body:        strings.TrimSpace(body),
		Link:        link,
		PublishedAt: publishedAt,
	}
}

// Identifier creates a stable dedup key for an item.
// The link is the canonical field; the title is only used when there is no link,
// under its own prefix so the two key spaces never overlap.
func Identifier(link, title string) string {
	key := "link:" + CanonicalLink(link)
	if strings.TrimSpace(link) == "" {
		key = "title:" + strings.Join(strings.Fields(strings.ToLower(title)), " ")
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])[:16]
}

// TitleIdentifier is the identifier of an item known only by its title. State
// written by the title-keyed bot holds these.
func TitleIdentifier(title string) string {
	return Identifier("", title)
}

// CanonicalLink normalizes a link so trivially different spellings of the same
// URL map to the same identifier.
func CanonicalLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(link, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// ShortTitle cuts a title for log lines.
func ShortTitle(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
