package validation

import (
	"fmt"
	"strings"
)

// DefaultBannedWords is the denylist used when none is configured.
var DefaultBannedWords = []string{"stupid", "idiot", "dumb"}

// ContentFilter screens argument text against a case-insensitive
// substring denylist.
type ContentFilter struct {
	banned []string
}

// NewContentFilter lowercases and trims the denylist, dropping empties.
func NewContentFilter(words []string) *ContentFilter {
	banned := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			banned = append(banned, w)
		}
	}
	return &ContentFilter{banned: banned}
}

// ParseBannedWords splits a comma separated list.
func ParseBannedWords(raw string) []string {
	return strings.Split(raw, ",")
}

// Match returns the first banned word contained in text.
func (f *ContentFilter) Match(text string) (string, bool) {
	if f == nil {
		return "", false
	}
	lower := strings.ToLower(text)
	for _, w := range f.banned {
		if strings.Contains(lower, w) {
			return w, true
		}
	}
	return "", false
}

// CheckArgument validates argument content: non-empty after trimming and
// free of banned words.
func (f *ContentFilter) CheckArgument(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if _, hit := f.Match(content); hit {
		return fmt.Errorf("content contains disallowed language")
	}
	return nil
}
