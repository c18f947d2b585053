// Package rerank implements the optional tie-break capability consulted
// with the top-N candidate short-list.
//
// Two variants exist: PassThrough returns identity order, and
// ExternalRanker delegates to a natural-language ranking collaborator and
// parses its free-text answer defensively. Failure handling lives entirely
// inside ExternalRanker: timeouts, malformed responses, open breakers and
// missing credentials all degrade to identity order, and no error type
// ever crosses this boundary into the pipeline.
package rerank

import (
	"context"
	"strconv"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/matcher"
)

// PassThrough is the no-op variant: candidates keep retrieval order.
type PassThrough struct{}

// NewPassThrough returns the identity ranker.
func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

// Rank returns the identity permutation.
func (p *PassThrough) Rank(ctx context.Context, query string, candidates []matcher.RankItem) []int {
	return identity(len(candidates))
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// ParsePermutation extracts a permutation of [0, n) from free text shaped
// like "2, 0, 1" or "[2][0][1]". Tokens that are not valid indices are
// dropped, duplicates keep their first occurrence, and indices the
// collaborator omitted are appended in identity order so the result is
// always a complete permutation. Unusable text yields identity.
func ParsePermutation(text string, n int) []int {
	replacer := strings.NewReplacer("[", " ", "]", " ", "\n", " ")
	cleaned := replacer.Replace(text)

	var perm []int
	seen := make(map[int]bool, n)
	for _, token := range strings.Split(cleaned, ",") {
		token = strings.TrimSpace(token)
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		perm = append(perm, idx)
	}

	if len(perm) == 0 {
		return identity(n)
	}

	for i := 0; i < n; i++ {
		if !seen[i] {
			perm = append(perm, i)
		}
	}
	return perm
}
