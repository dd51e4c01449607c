package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/cryptofeed/internal/news"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<html><head><title>t</title></head><body>
<nav><p>Home | Markets | About us and more links</p></nav>
<article>
<p>Bitcoin climbed above seventy thousand dollars on Monday.</p>
<p>Analysts pointed to strong inflows into spot exchange traded funds.</p>
<p>Ether followed with a smaller gain during the Asian session.</p>
<p>short</p>
</article></body></html>`

func pageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract_ArticleParagraphs(t *testing.T) {
	srv := pageServer(t, http.StatusOK, articlePage)

	content, err := NewEnricher(0, time.Second, nil).Extract(context.Background(), srv.URL)

	require.NoError(t, err)
	lines := strings.Split(content, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Bitcoin climbed above seventy thousand dollars on Monday.", lines[0])
	assert.NotContains(t, content, "Home | Markets")
}

func TestExtract_OGDescriptionFallback(t *testing.T) {
	srv := pageServer(t, http.StatusOK, `<html><head><meta property="og:description" content=" Summary from meta. "></head><body></body></html>`)

	content, err := NewEnricher(0, time.Second, nil).Extract(context.Background(), srv.URL)

	require.NoError(t, err)
	assert.Equal(t, "Summary from meta.", content)
}

func TestEnrich_ShortBodyReplaced(t *testing.T) {
	srv := pageServer(t, http.StatusOK, articlePage)
	item := news.NewItem("Bitcoin", "short", srv.URL, time.Time{})

	got := NewEnricher(200, time.Second, nil).Enrich(context.Background(), item)

	assert.Contains(t, got.Body, "spot exchange traded funds")
	assert.Equal(t, item.ID, got.ID)
}

func TestEnrich_KeepsBodyOnFailure(t *testing.T) {
	srv := pageServer(t, http.StatusNotFound, "")
	item := news.NewItem("Bitcoin", "short", srv.URL, time.Time{})

	got := NewEnricher(200, time.Second, nil).Enrich(context.Background(), item)

	assert.Equal(t, "short", got.Body)
}

func TestEnrich_LongBodyUntouched(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	item := news.NewItem("Bitcoin", strings.Repeat("x", 300), srv.URL, time.Time{})

	got := NewEnricher(200, time.Second, nil).Enrich(context.Background(), item)

	assert.Equal(t, item, got)
	assert.Zero(t, hits)
}
