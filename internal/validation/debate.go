package validation

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"
)

// Limits for debate creation input.
const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MinDescriptionLength = 10
	MaxDescriptionLength = 5000
	MinCategoryLength    = 2
	MaxCategoryLength    = 64
	MaxTagLength         = 32
	MaxTags              = 20
)

// ValidateTitle checks a debate title after trimming.
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < MinTitleLength {
		return fmt.Errorf("title must be at least %d characters", MinTitleLength)
	}
	if n > MaxTitleLength {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateDescription checks a debate description after trimming.
func ValidateDescription(description string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(description))
	if n < MinDescriptionLength {
		return fmt.Errorf("description must be at least %d characters", MinDescriptionLength)
	}
	if n > MaxDescriptionLength {
		return fmt.Errorf("description must not exceed %d characters", MaxDescriptionLength)
	}
	return nil
}

// ValidateCategory checks a debate category after trimming.
func ValidateCategory(category string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(category))
	if n < MinCategoryLength {
		return fmt.Errorf("category must be at least %d characters", MinCategoryLength)
	}
	if n > MaxCategoryLength {
		return fmt.Errorf("category must not exceed %d characters", MaxCategoryLength)
	}
	return nil
}

// ValidateImageURL accepts an empty value or an absolute http(s) URL.
func ValidateImageURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("image must be a valid http or https URL")
	}
	return nil
}

// ValidateDuration checks the duration against the allowed set.
func ValidateDuration(hours int, allowed []int) error {
	if !slices.Contains(allowed, hours) {
		return fmt.Errorf("duration must be one of %v hours", allowed)
	}
	return nil
}

// SplitTags parses comma separated tag input.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// NormalizeTags trims each tag and drops empties. Duplicates are kept;
// they are collapsed at display time.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ValidateTags checks count and per-tag length of normalized tags.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("at most %d tags are allowed", MaxTags)
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return fmt.Errorf("tag %q exceeds %d characters", t, MaxTagLength)
		}
	}
	return nil
}
