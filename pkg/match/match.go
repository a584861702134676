// Package match normalizes and fuzzily ranks media titles. The catalog
// search uses it to order results by similarity to the query; identity
// resolution in the merge engine stays exact and never goes through here.
package match

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CleanTitle normalizes a title for comparison: lowercase, accents folded,
// leading articles stripped, punctuation dropped, whitespace collapsed.
func CleanTitle(title string) string {
	s := strings.ToLower(title)
	s = removeAccents(s)
	s = strings.ReplaceAll(s, "&", " and ")

	// Subtitles ("Léon: The Professional") get their own article strip.
	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripLeadingArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'':
			// contraction, drop without a space break
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func stripLeadingArticle(s string) string {
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			return strings.TrimPrefix(s, article)
		}
	}
	return s
}

// Similarity scores two titles on [0,1] using Jaro-Winkler over their
// cleaned forms. Jaro-Winkler favors shared prefixes, which suits media
// titles and their sequels.
func Similarity(a, b string) float64 {
	return float64(edlib.JaroWinklerSimilarity(CleanTitle(a), CleanTitle(b)))
}

// Ranked is one candidate's position after ranking.
type Ranked struct {
	Index int // index into the candidates slice
	Score float64
}

// Rank orders candidates by similarity to the query, best first. Ties keep
// the candidates' original order.
func Rank(query string, candidates []string) []Ranked {
	cleaned := CleanTitle(query)
	ranked := make([]Ranked, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = Ranked{
			Index: i,
			Score: float64(edlib.JaroWinklerSimilarity(cleaned, CleanTitle(candidate))),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
