package translate

import (
	"regexp"
	"strings"
)

var (
	inlineNote = regexp.MustCompile(`(?is)[(\[]\s*(note|disclaimer|translator'?s? note)\s*:[^)\]]*[)\]]`)
	noteLine   = regexp.MustCompile(`(?i)^\s*(note|disclaimer|translator'?s? note)\s*:`)
	spaces     = regexp.MustCompile(`[ \t]{2,}`)
)

// SanitizeAIText strips the machine-translation disclaimers language models
// tend to add, either inline in brackets or as a separate "Note:" line.
func SanitizeAIText(s string) string {
	s = inlineNote.ReplaceAllString(s, "")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if noteLine.MatchString(line) {
			continue
		}
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
