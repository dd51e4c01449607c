package transform

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// MaxMessageRunes is Telegram's limit for one text message.
const MaxMessageRunes = 4096

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes text for Telegram's HTML parse mode.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Labels are the fixed phrases around the item text.
type Labels struct {
	ReadMore string
	Join     string
}

// DefaultLabels are the Persian phrases the channel has always used.
var DefaultLabels = Labels{
	ReadMore: "ادامه مطلب",
	Join:     "به ما بپیوندید 🦈",
}

type parts struct {
	title   string
	summary string
	link    string
	tags    []string
	channel string
	labels  Labels
}

// format assembles the message. Every user-controlled piece is escaped here
// and nowhere else.
func format(p parts) string {
	text := render(p)
	if fits(text) {
		return text
	}
	// shorten the raw fields, not the escaped ones, so no entity is cut in half;
	// the summary goes first, then the link, then the title
	p.summary, text = shrink(p.summary, func(s string) string {
		q := p
		q.summary = s
		return render(q)
	})
	if fits(text) {
		return text
	}
	p.link = ""
	if text = render(p); fits(text) {
		return text
	}
	_, text = shrink(p.title, func(s string) string {
		q := p
		q.title = s
		return render(q)
	})
	return text
}

func fits(text string) bool {
	return utf8.RuneCountInString(text) <= MaxMessageRunes
}

// shrink cuts runes off the end of s until build(s) fits. Escaping can grow
// each rune up to 6x, so each step cuts at least a sixth of the overflow.
func shrink(s string, build func(string) string) (string, string) {
	text := build(s)
	over := utf8.RuneCountInString(text) - MaxMessageRunes
	r := []rune(s)
	for over > 0 && len(r) > 0 {
		cut := min(max(over/6, 1), len(r))
		r = r[:len(r)-cut]
		s = strings.TrimSpace(string(r)) + "…"
		text = build(s)
		over = utf8.RuneCountInString(text) - MaxMessageRunes
	}
	return s, text
}

func render(p parts) string {
	var b strings.Builder
	b.WriteString("📢 <b>" + EscapeHTML(p.title) + "</b>\n\n")
	if p.summary != "" {
		b.WriteString("📝 " + EscapeHTML(p.summary) + "\n\n")
	}
	if safeLink(p.link) {
		b.WriteString(`🔗 <a href="` + EscapeHTML(p.link) + `">` + EscapeHTML(p.labels.ReadMore) + "</a>\n\n")
	}
	if len(p.tags) > 0 {
		b.WriteString(EscapeHTML(strings.Join(p.tags, " ")) + "\n\n")
	}
	if ch := strings.TrimPrefix(strings.TrimSpace(p.channel), "@"); ch != "" {
		b.WriteString("👥 @" + EscapeHTML(ch) + "\n")
	}
	b.WriteString(EscapeHTML(p.labels.Join))
	return strings.TrimRight(b.String(), "\n")
}

// safeLink only lets absolute http(s) links into the href.
func safeLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
