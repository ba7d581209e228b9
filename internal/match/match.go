// Package match scores normalized titles against the known film catalog.
package match

import (
	"strings"

	"github.com/hbollon/go-edlib"

	"marquee/internal/catalog"
)

// Threshold is the minimum similarity score (0-100) a candidate must
// reach before it counts as a match. Below this, near-miss titles like
// "The Substance" vs "The Substitute" resolve to separate films.
const Threshold = 85

// Result pairs a matched film with the score that selected it.
type Result struct {
	Film  *catalog.Film
	Score int
}

// Best returns the highest-scoring candidate at or above Threshold, or
// nil when no candidate qualifies. Candidates are scanned in the order
// given; on a score tie the earliest wins, so callers passing films in
// creation order get stable results run over run.
func Best(normalized string, candidates []*catalog.Film) *Result {
	if normalized == "" || len(candidates) == 0 {
		return nil
	}

	var best *Result
	for _, film := range candidates {
		score := Score(normalized, film.Title)
		if score < Threshold {
			continue
		}
		if best == nil || score > best.Score {
			best = &Result{Film: film, Score: score}
		}
	}
	return best
}

// Score computes case-insensitive Levenshtein similarity between two
// titles on a 0-100 scale.
func Score(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 100
	}
	similarity, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return int(similarity * 100)
}
