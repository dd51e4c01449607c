package news

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdentifier_SameLinkDifferentTitle(t *testing.T) {
	a := NewItem("Bitcoin hits $70k", "", "https://cryptonews.com/news/btc-70k/", time.Time{})
	b := NewItem("Bitcoin hits $70,000 (updated)", "body", "https://cryptonews.com/news/btc-70k/", time.Time{})

	assert.Equal(t, a.ID, b.ID)
	assert.Len(t, a.ID, 16)
}

func TestIdentifier_CanonicalSpellings(t *testing.T) {
	base := Identifier("https://cryptonews.com/news/btc-70k", "")

	for _, link := range []string{
		"https://CryptoNews.com/news/btc-70k/",
		"  https://cryptonews.com/news/btc-70k  ",
		"HTTPS://cryptonews.com/news/btc-70k#comments",
	} {
		assert.Equal(t, base, Identifier(link, "ignored"), link)
	}
}

func TestIdentifier_DifferentLinks(t *testing.T) {
	assert.NotEqual(t,
		Identifier("https://cryptonews.com/news/a", "same"),
		Identifier("https://cryptonews.com/news/b", "same"))
}

func TestIdentifier_TitleFallback(t *testing.T) {
	a := Identifier("", "Ether  ETF approved")
	b := Identifier(" ", "ether etf APPROVED")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Identifier("title:ether etf approved", ""))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "abc", ShortTitle("abc", 5))
	assert.Equal(t, "ab…", ShortTitle("abcdef", 2))
	assert.Equal(t, "بیت…", ShortTitle("بیت‌کوین", 3))
}
