package search

import (
	"sort"

	"github.com/kailas-cloud/promptdex/internal/domain/search/result"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const DefaultRRFK = 60

// fuseRRF merges ranked lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d) + 1) over every list where d appears, rank 0-based.
// Ties keep first-seen order across lists in argument order, so results are reproducible.
// The first occurrence's prompt is kept.
func fuseRRF(k int, lists ...[]result.Result) []result.Result {
	type scored struct {
		res   result.Result
		score float64
	}

	index := make(map[string]int)
	var merged []scored

	for _, list := range lists {
		for rank, r := range list {
			s := 1.0 / float64(k+rank+1)
			if i, ok := index[r.ID()]; ok {
				merged[i].score += s
				continue
			}
			index[r.ID()] = len(merged)
			merged = append(merged, scored{res: r, score: s})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})

	results := make([]result.Result, len(merged))
	for i, m := range merged {
		results[i] = result.NewScored(*m.res.Prompt(), m.score)
	}
	return results
}
