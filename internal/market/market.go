// Package market composes the daily price snapshot post.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/cryptofeed/internal/news"
	"github.com/deusflow/cryptofeed/internal/transform"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultBaseURL = "https://min-api.cryptocompare.com"
	defaultTimeout = 8 * time.Second

	header      = "📊 <b>تحلیل تکنیکال روزانه</b>"
	disclaimer  = "⚠️ مسئولیت استفاده با تریدر است."
	unavailable = "داده در دسترس نیست"
	trendUp     = "📈 صعودی"
	trendDown   = "📉 نزولی"
)

// DefaultCoins is the watch list when COINS is not set.
var DefaultCoins = []string{"BTC", "ETH", "SOL", "TON", "XRP", "BNB"}

// ErrNoData means no coin had a price; nothing worth posting.
var ErrNoData = errors.New("market: no price data")

// ItemID marks daily snapshot messages in logs.
const ItemID = "daily-snapshot"

// Snapshot builds the daily message from one cryptocompare request.
type Snapshot struct {
	coins   []string
	channel string
	baseURL string
	http    *http.Client
	printer *message.Printer
}

// NewSnapshot returns a snapshot for coins signed with channel. An empty
// baseURL uses cryptocompare.
func NewSnapshot(coins []string, channel, baseURL string) *Snapshot {
	if len(coins) == 0 {
		coins = DefaultCoins
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Snapshot{
		coins:   coins,
		channel: strings.TrimPrefix(strings.TrimSpace(channel), "@"),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		printer: message.NewPrinter(language.English),
	}
}

type quote struct {
	Price        float64 `json:"PRICE"`
	ChangePct24h float64 `json:"CHANGEPCT24HOUR"`
}

type priceResponse struct {
	Raw map[string]map[string]quote `json:"RAW"`
}

// Compose fetches prices and renders the message.
func (s *Snapshot) Compose(ctx context.Context) (news.Message, error) {
	quotes, err := s.fetch(ctx)
	if err != nil {
		return news.Message{}, err
	}

	lines := make([]string, 0, len(s.coins))
	found := 0
	for _, coin := range s.coins {
		q, ok := quotes[coin]
		if !ok {
			lines = append(lines, transform.EscapeHTML(coin)+": "+unavailable)
			continue
		}
		found++
		lines = append(lines, s.line(coin, q))
	}
	if found == 0 {
		return news.Message{}, ErrNoData
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(disclaimer)
	if s.channel != "" {
		b.WriteString("\n\n🦈 @")
		b.WriteString(transform.EscapeHTML(s.channel))
	}
	return news.Message{ItemID: ItemID, Text: b.String()}, nil
}

func (s *Snapshot) line(coin string, q quote) string {
	trend := trendDown
	if q.ChangePct24h > 0 {
		trend = trendUp
	}
	return s.printer.Sprintf("%s: $%.2f (%+.2f%%) %s", transform.EscapeHTML(coin), q.Price, q.ChangePct24h, trend)
}

func (s *Snapshot) fetch(ctx context.Context) (map[string]quote, error) {
	params := url.Values{}
	params.Set("fsyms", strings.Join(s.coins, ","))
	params.Set("tsyms", "USD")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/data/pricemultifull?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market request: status %d", resp.StatusCode)
	}
	var out priceResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	quotes := make(map[string]quote, len(out.Raw))
	for coin, byCurrency := range out.Raw {
		if q, ok := byCurrency["USD"]; ok && q.Price > 0 {
			quotes[strings.ToUpper(coin)] = q
		}
	}
	return quotes, nil
}
