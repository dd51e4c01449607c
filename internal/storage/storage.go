// Package storage persists the publication record between runs.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/deusflow/cryptofeed/internal/news"
)

var identifierPattern = regexp.MustCompile(`^[0-9a-f]{16}$`)

// Record is everything the bot remembers between runs.
type Record struct {
	// Published holds item identifiers in the order they were first published.
	Published []string `json:"published"`
	// LastDailySummary is the local date (YYYY-MM-DD) of the last daily post.
	LastDailySummary string `json:"last_daily_summary"`
}

// Store loads and saves a Record. Load of a store that was never written
// returns an empty Record and no error.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// decodeRecord accepts the current object form and the legacy bare array of
// published titles. Legacy titles become title identifiers, which the
// coordinator checks next to the link identifier.
func decodeRecord(data []byte) (Record, error) {
	var rec Record
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return rec, nil
	}
	if data[0] == '[' {
		var titles []string
		if err := json.Unmarshal(data, &titles); err != nil {
			return Record{}, fmt.Errorf("failed to unmarshal state: %w", err)
		}
		rec.Published = legacyIdentifiers(titles)
		return rec, nil
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return rec, nil
}

func legacyIdentifiers(titles []string) []string {
	seen := make(map[string]bool, len(titles))
	out := make([]string, 0, len(titles))
	for _, t := range titles {
		if strings.TrimSpace(t) == "" {
			continue
		}
		id := t
		if !identifierPattern.MatchString(t) {
			id = news.TitleIdentifier(t)
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
