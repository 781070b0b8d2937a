// Package fuzzy implements the accent-insensitive text matching used to map
// free-form customer text onto menu items and cart lines.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics, replaces every non-alphanumeric
// run with a single space and trims. "Lasaña Alfredo!" and "lasana alfredo"
// normalize to the same string.
func Normalize(s string) string {
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits normalized text into tokens.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// Levenshtein computes the edit distance between two strings, by rune.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// SimilarityRatio maps edit distance onto [0,1], where 1 is identical.
func SimilarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1 - float64(Levenshtein(a, b))/float64(maxLen)
}

// tokensSimilar is the per-token typo tolerance: close enough by ratio,
// within two edits, or one token contains the other.
func tokensSimilar(a, b string) bool {
	if SimilarityRatio(a, b) >= 0.6 {
		return true
	}
	if Levenshtein(a, b) < 3 {
		return true
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Match is a scored candidate. Score counts 2 per exact token hit and 1 per
// similar hit; Ratio divides the score by the candidate's token count so
// short names are not crowded out by verbose descriptions.
type Match[T any] struct {
	Item          T
	Score         int
	Ratio         float64
	MatchedTokens []string
}

// BestMatch scores every candidate's extracted text against the query and
// returns the highest scorer, or nil when nothing matches at all.
func BestMatch[T any](query string, candidates []T, extract func(T) string) *Match[T] {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	var best *Match[T]
	for _, cand := range candidates {
		candTokens := Tokenize(extract(cand))
		if len(candTokens) == 0 {
			continue
		}
		candSet := make(map[string]struct{}, len(candTokens))
		for _, t := range candTokens {
			candSet[t] = struct{}{}
		}

		score := 0
		var matched []string
		for _, qt := range queryTokens {
			if _, ok := candSet[qt]; ok {
				score += 2
				matched = append(matched, qt)
				continue
			}
			for _, ct := range candTokens {
				if tokensSimilar(qt, ct) {
					score++
					matched = append(matched, qt)
					break
				}
			}
		}
		if score == 0 {
			continue
		}

		ratio := float64(score) / float64(max(1, len(candTokens)))
		if best == nil || score > best.Score || (score == best.Score && ratio > best.Ratio) {
			best = &Match[T]{Item: cand, Score: score, Ratio: ratio, MatchedTokens: matched}
		}
	}
	return best
}
