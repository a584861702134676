package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidText reports whether a scraped text value is usable: non-empty after
// trimming, at least two characters, and at least one letter or digit.
// Rows that fail this for their title are scraper garbage and get skipped.
func ValidText(s string) bool {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// BetterText picks the better of two values for a free-text field.
// An invalid candidate never wins. A valid candidate replaces an invalid or
// absent current value. When both are valid the longer trimmed string wins,
// on the theory that fuller text is more complete. Ties keep current so a
// re-scrape of identical data never counts as an update.
func BetterText(current, candidate string) string {
	cur := strings.TrimSpace(current)
	cand := strings.TrimSpace(candidate)
	if !ValidText(cand) {
		return cur
	}
	if !ValidText(cur) {
		return cand
	}
	if utf8.RuneCountInString(cand) > utf8.RuneCountInString(cur) {
		return cand
	}
	return cur
}

// fillText implements the fill-only rule: the candidate lands only when the
// current value is absent. Populated values are never overwritten.
func fillText(current, candidate string) string {
	if current == "" {
		return strings.TrimSpace(candidate)
	}
	return current
}

func fillInt(current, candidate *int) *int {
	if current == nil {
		return candidate
	}
	return current
}

// betterRating prefers the higher of two ratings: the candidate wins when
// current is absent or the candidate is strictly greater. Sources disagree
// on ratings and the freshest scrape of the higher one is treated as the
// more authoritative value.
func betterRating(current, candidate *float64) *float64 {
	if candidate == nil {
		return current
	}
	if current == nil || *candidate > *current {
		return candidate
	}
	return current
}
