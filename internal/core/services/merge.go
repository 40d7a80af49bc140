package services

import (
	"sort"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// Default merge parameters.
const (
	DefaultPerSourceCap   = 8
	DefaultCandidateLimit = 24
)

// RankedSource is one source group's already-ranked candidate list.
type RankedSource struct {
	Group domain.SourceGroup
	Items []domain.Candidate
}

// MergeSourceBalanced caps each group's contribution at perSourceCap
// before merging, so a group with many high-scoring chunks cannot crowd
// out every other group. The capped subsets are concatenated, re-sorted
// globally by combined score descending (ascending-id tie-break), and
// truncated to candidateLimit.
func MergeSourceBalanced(sources []RankedSource, perSourceCap, candidateLimit int) []domain.Candidate {
	if perSourceCap <= 0 {
		perSourceCap = DefaultPerSourceCap
	}
	if candidateLimit <= 0 {
		candidateLimit = DefaultCandidateLimit
	}

	var merged []domain.Candidate
	for _, src := range sources {
		items := src.Items
		if len(items) > perSourceCap {
			items = items[:perSourceCap]
		}
		for _, c := range items {
			c.SourceGroup = src.Group
			merged = append(merged, c)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Chunk.ID < merged[j].Chunk.ID
	})

	if len(merged) > candidateLimit {
		merged = merged[:candidateLimit]
	}
	return merged
}
