package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/cryptofeed/internal/news"
)

func item(title, body string, published time.Time) news.Item {
	return news.NewItem(title, body, "https://example.com/"+title, published)
}

func TestScore(t *testing.T) {
	r := New([]string{"Bitcoin", "ETF", "halving"})
	date := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		item news.Item
		want int
	}{
		{"empty", item("", "", time.Time{}), 0},
		{"title words only", item("markets cool off today", "", time.Time{}), 4},
		{"title words capped", item("one two three four five six seven eight", "", time.Time{}), 6},
		{"date bonus", item("quiet day", "", date), 3},
		{"keyword in body", item("update", "the bitcoin halving is close", time.Time{}), 1 + 2 + 2},
		{"keyword case insensitive", item("BITCOIN", "", time.Time{}), 1 + 2},
		{"keyword counted once", item("bitcoin bitcoin", "bitcoin", time.Time{}), 2 + 2},
		{"keyword spans title and body", item("spot", "etf flows", date), 1 + 2 + 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, r.Score(tc.item))
		})
	}
}

func TestNew_NormalizesKeywords(t *testing.T) {
	r := New([]string{" ETF ", "etf", "", "Bitcoin"})

	assert.Equal(t, []string{"etf", "bitcoin"}, r.Keywords())
	assert.Equal(t, 1+2, r.Score(item("ETF", "", time.Time{})))
}

func TestRank_ScenarioTopScoreFirstThenFeedOrder(t *testing.T) {
	r := New([]string{"bitcoin", "etf"})
	a := item("Bitcoin rally continues", "", time.Time{})
	b := item("Markets cool off today overall", "", time.Time{})
	c := item("Bitcoin ETF inflows surge", "", time.Time{})

	require.Equal(t, 5, r.Score(a))
	require.Equal(t, 5, r.Score(b))
	require.Equal(t, 8, r.Score(c))

	ranked := r.Rank([]news.Item{a, b, c})

	require.Len(t, ranked, 3)
	assert.Equal(t, c.ID, ranked[0].Item.ID)
	assert.Equal(t, a.ID, ranked[1].Item.ID)
	assert.Equal(t, b.ID, ranked[2].Item.ID)
	assert.Equal(t, 8, ranked[0].Score)
}

func TestRank_EqualScoresKeepFeedOrderForAllPermutations(t *testing.T) {
	r := New(nil)
	base := []news.Item{
		item("alpha beta", "", time.Time{}),
		item("gamma delta", "", time.Time{}),
		item("epsilon zeta", "", time.Time{}),
	}

	for _, perm := range [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}} {
		in := []news.Item{base[perm[0]], base[perm[1]], base[perm[2]]}

		ranked := r.Rank(in)

		for i := range in {
			assert.Equal(t, in[i].ID, ranked[i].Item.ID, "perm %v position %d", perm, i)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := New([]string{"eth"})
	in := []news.Item{
		item("eth one", "", time.Time{}),
		item("two words", "", time.Time{}),
		item("eth three more", "", time.Time{}),
		item("four", "", time.Time{}),
	}

	first := r.Rank(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Rank(in))
	}
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, New(nil).Rank(nil))
}
