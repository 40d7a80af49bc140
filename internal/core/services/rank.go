// Package services implements the core indexing and retrieval logic
// behind the driving ports.
package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/lexical"
)

// Default hybrid weights. File-level ranking leans slightly more on the
// semantic signal because deck summaries are short and lexically sparse.
const (
	DefaultChunkLexicalWeight  = 0.4
	DefaultChunkSemanticWeight = 0.6

	DefaultFileLexicalWeight  = 0.45
	DefaultFileSemanticWeight = 0.55
)

// RankChunksInput configures a chunk-level hybrid ranking pass.
type RankChunksInput struct {
	// Terms are the expanded topic terms for lexical scoring.
	Terms []string

	// Chunks are the candidates to rank.
	Chunks []domain.Chunk

	// EmbeddingByID maps chunk id to its persisted vector.
	EmbeddingByID map[string][]float32

	// QueryEmbedding is the embedded section query. Nil degrades the
	// pass to lexical-only scoring.
	QueryEmbedding []float32

	// Group tags the resulting candidates.
	Group domain.SourceGroup

	// LexicalWeight and SemanticWeight default to 0.4/0.6 when zero.
	LexicalWeight  float64
	SemanticWeight float64
}

// RankChunksHybrid scores chunks by lexical-term overlap and vector
// similarity, min-max normalizes each signal independently across the
// candidate set, and returns candidates sorted by combined score
// descending with ties broken by ascending chunk id.
func RankChunksHybrid(in RankChunksInput) []domain.Candidate {
	if len(in.Chunks) == 0 {
		return nil
	}
	lw, sw := in.LexicalWeight, in.SemanticWeight
	if lw == 0 && sw == 0 {
		lw, sw = DefaultChunkLexicalWeight, DefaultChunkSemanticWeight
	}

	rawLex := make([]float64, len(in.Chunks))
	rawSem := make([]float64, len(in.Chunks))
	for i, chunk := range in.Chunks {
		rawLex[i] = lexical.Score(chunk.Text, in.Terms)
		rawSem[i] = cosineOrZero(in.QueryEmbedding, in.EmbeddingByID[chunk.ID])
	}

	normLex := lexical.NormalizeMinMax(rawLex)
	normSem := lexical.NormalizeMinMax(rawSem)

	candidates := make([]domain.Candidate, len(in.Chunks))
	for i, chunk := range in.Chunks {
		candidates[i] = domain.Candidate{
			Chunk:         chunk,
			SourceGroup:   in.Group,
			LexicalScore:  normLex[i],
			SemanticScore: normSem[i],
			Score:         lw*normLex[i] + sw*normSem[i],
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
	return candidates
}

// RankSlideFilesInput configures a file-level hybrid ranking pass over
// slide decks.
type RankSlideFilesInput struct {
	// Terms are the expanded topic terms for lexical scoring.
	Terms []string

	// Files are the indexed decks with their pre-computed summaries.
	Files []domain.SlideFile

	// QueryEmbedding is the embedded section query; nil means lexical-only.
	QueryEmbedding []float32

	// LexicalWeight and SemanticWeight default to 0.45/0.55 when zero.
	LexicalWeight  float64
	SemanticWeight float64
}

// RankSlideFilesByHybrid ranks whole decks by their name-plus-summary
// lexical overlap and summary-embedding similarity. Ties break by
// ascending file name for determinism.
func RankSlideFilesByHybrid(in RankSlideFilesInput) []domain.Candidate {
	if len(in.Files) == 0 {
		return nil
	}
	lw, sw := in.LexicalWeight, in.SemanticWeight
	if lw == 0 && sw == 0 {
		lw, sw = DefaultFileLexicalWeight, DefaultFileSemanticWeight
	}

	rawLex := make([]float64, len(in.Files))
	rawSem := make([]float64, len(in.Files))
	for i, f := range in.Files {
		rawLex[i] = lexical.Score(f.Name+"\n"+f.SummaryText, in.Terms)
		rawSem[i] = cosineOrZero(in.QueryEmbedding, f.SummaryEmbedding)
	}

	normLex := lexical.NormalizeMinMax(rawLex)
	normSem := lexical.NormalizeMinMax(rawSem)

	candidates := make([]domain.Candidate, len(in.Files))
	for i, f := range in.Files {
		candidates[i] = domain.Candidate{
			Chunk: domain.Chunk{
				ID:         f.Name,
				SourceName: f.Name,
				Text:       f.SummaryText,
			},
			SourceGroup:   domain.GroupSlide,
			LexicalScore:  normLex[i],
			SemanticScore: normSem[i],
			Score:         lw*normLex[i] + sw*normSem[i],
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Chunk.ID < candidates[j].Chunk.ID
	})
	return candidates
}

// cosineOrZero computes cosine similarity, degrading to zero signal on
// any failure (absent vectors, length mismatch, zero magnitude). A
// similarity failure must never fail the ranking pass.
func cosineOrZero(a, b []float32) float64 {
	sim, err := cosine(a, b)
	if err != nil {
		return 0
	}
	return sim
}

func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, fmt.Errorf("empty vector")
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, magA, magB float64
	for i := range a {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		magA += av * av
		magB += bv * bv
	}
	if magA == 0 || magB == 0 {
		return 0, fmt.Errorf("zero magnitude vector")
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB)), nil
}
