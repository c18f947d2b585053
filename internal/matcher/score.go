package matcher

import (
	"math"
	"sort"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"
)

// Candidate pairs a ledger record with its similarity score. Candidates are
// ephemeral: produced and consumed within one statement row's matching
// pass.
type Candidate struct {
	Record *coerce.Record
	Score  float64
}

// missingDateSentinel stands in for the day distance when either side has
// no parsed date. It pushes the recency factor to its floor (0.7) without
// zeroing the score.
const missingDateSentinel = 100000

// Score computes the composite similarity between two descriptions given
// their date distance in days:
//
//	tokenSetSimilarity(a, b) * (1 - 0.3*min(|days|/30, 1))
//
// The result is always in [0, 1].
func Score(descA, descB string, dateDiffDays int) float64 {
	days := math.Abs(float64(dateDiffDays))
	recency := 1.0 - 0.3*math.Min(days/30.0, 1.0)
	return TokenSetSimilarity(descA, descB) * recency
}

// TokenSetSimilarity measures the normalized overlap of the two
// descriptions' token sets (Jaccard): 1.0 for identical sets, 0.0 for
// disjoint sets. Tokenization is case- and whitespace-insensitive and
// order-insensitive. Empty descriptions score 0.0; never an error.
func TokenSetSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for token := range setA {
		if setB[token] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(strings.ToLower(s)) {
		set[token] = true
	}
	return set
}

// dateDiffDays returns the whole-day distance between a statement record
// and a ledger record, or the sentinel when either date is missing.
func dateDiffDays(stmt, ledger *coerce.Record) int {
	if stmt.Date == nil || ledger.Date == nil {
		return missingDateSentinel
	}
	diff := stmt.Date.Sub(*ledger.Date).Hours() / 24
	return int(math.Abs(math.Round(diff)))
}

// Rank orders candidates by score descending and truncates to topN. The
// sort is stable, so candidates with equal scores keep their retrieval
// order; combined with deterministic retrieval this makes the whole
// pipeline reproducible.
func Rank(candidates []Candidate, topN int) []Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topN > 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
