package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openclinic/ragindex/internal/chunking"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/core/ports/driving"
	"github.com/openclinic/ragindex/internal/lexical"
	"github.com/openclinic/ragindex/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// Query-time defaults.
const (
	// DefaultTopSlideFiles is how many decks survive file-level ranking
	// into chunk-level ranking.
	DefaultTopSlideFiles = 4

	// DefaultRerankKeep is how many candidates the reranker is asked for.
	DefaultRerankKeep = 12
)

// QueryService answers topic/section queries from persisted artifacts.
// The reranker is optional; retrieval never depends on it succeeding.
type QueryService struct {
	store    driven.ArtifactStore
	embedder driven.EmbeddingService
	reranker driven.Reranker
	tables   domain.RetrievalTables
}

// NewQueryService creates a query service. embedder and reranker may be
// nil; scoring degrades to lexical-only without an embedder.
func NewQueryService(
	store driven.ArtifactStore,
	embedder driven.EmbeddingService,
	reranker driven.Reranker,
	tables domain.RetrievalTables,
) *QueryService {
	return &QueryService{
		store:    store,
		embedder: embedder,
		reranker: reranker,
		tables:   tables,
	}
}

// BuildContext implements driving.QueryService.
func (s *QueryService) BuildContext(ctx context.Context, opts domain.QueryOptions) (*domain.ContextSelection, error) {
	logger.Section("Context Build")
	topic := strings.TrimSpace(opts.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", domain.ErrInvalidInput)
	}

	manifest, err := s.store.ReadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(manifest.Sources) == 0 {
		return nil, fmt.Errorf("%w: no indexed sources", domain.ErrStaleIndex)
	}

	if err := s.checkFreshness(manifest, opts); err != nil {
		return nil, err
	}

	noteChunks, noteEmb, slideFiles, err := s.loadIndex(ctx, manifest)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded %d note chunks, %d slide decks", len(noteChunks), len(slideFiles))

	terms := lexical.TopicTerms(topic, s.tables.Synonyms)
	query := lexical.SectionQuery(topic, opts.Section, s.tables.SectionHints)
	logger.Debug("Section query: %q (%d terms)", query, len(terms))

	queryEmb := s.embedQuery(ctx, query)

	noteRanked := RankChunksHybrid(RankChunksInput{
		Terms:          terms,
		Chunks:         noteChunks,
		EmbeddingByID:  noteEmb,
		QueryEmbedding: queryEmb,
		Group:          domain.GroupNote,
	})

	slideRanked := s.rankSlides(terms, slideFiles, queryEmb)

	merged := MergeSourceBalanced([]RankedSource{
		{Group: domain.GroupNote, Items: noteRanked},
		{Group: domain.GroupSlide, Items: slideRanked},
	}, DefaultPerSourceCap, DefaultCandidateLimit)
	logger.Debug("Merged candidate pool: %d", len(merged))

	merged = s.narrow(ctx, topic, opts.Section, merged)

	selection := AssembleSectionContext(AssembleInput{
		Selected:    merged,
		BudgetChars: opts.BudgetChars,
		GroupOrder:  s.tables.GroupOrder,
		GroupTitles: s.tables.GroupTitles,
	})
	logger.Info("Context assembled: %d chunks, %d chars", len(selection.Selected), selection.UsedChars)
	return selection, nil
}

// Status implements driving.QueryService.
func (s *QueryService) Status(ctx context.Context) ([]domain.SourceStatus, error) {
	manifest, err := s.store.ReadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	// Without a configured embedder, report freshness against the model
	// the index was built with rather than flagging every entry.
	model := manifest.EmbeddingModel
	if s.embedder != nil {
		model = s.embedder.ModelName()
	}

	statuses := make([]domain.SourceStatus, 0, len(manifest.Sources))
	for path, entry := range manifest.Sources {
		exists := entry.Valid()
		reason := staleReason(s.store, path, entry, exists,
			entry.Type, entry.Specialty, model, chunking.Version)
		statuses = append(statuses, domain.SourceStatus{
			Path:    path,
			Group:   entry.Type,
			Fresh:   reason == "",
			Reason:  reason,
			Indexed: entry.IndexedAt,
		})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Path < statuses[j].Path })
	return statuses, nil
}

// checkFreshness enforces the query-time staleness precondition. Any
// mismatch is fatal unless the caller opted into stale operation, in
// which case each reason is only warned.
func (s *QueryService) checkFreshness(manifest *domain.Manifest, opts domain.QueryOptions) error {
	model := ""
	if s.embedder != nil {
		model = s.embedder.ModelName()
	}

	var stale []string
	for path, entry := range manifest.Sources {
		exists := entry.Valid()
		reason := staleReason(s.store, path, entry, exists,
			entry.Type, opts.Specialty, model, chunking.Version)
		if reason != "" {
			stale = append(stale, fmt.Sprintf("%s: %s", path, reason))
		}
	}
	if len(stale) == 0 {
		return nil
	}
	sort.Strings(stale)

	if !opts.AllowStale {
		return fmt.Errorf("%w: %s (re-run index, or pass --allow-stale)",
			domain.ErrStaleIndex, strings.Join(stale, "; "))
	}
	for _, reason := range stale {
		logger.Warn("Serving stale index: %s", reason)
	}
	return nil
}

// loadIndex hydrates all persisted artifacts into memory. Documents
// whose artifacts fail to load are skipped with a warning; query-time
// loading is read-only and best-effort once freshness has been settled.
func (s *QueryService) loadIndex(
	ctx context.Context, manifest *domain.Manifest,
) ([]domain.Chunk, map[string][]float32, []domain.SlideFile, error) {
	var noteChunks []domain.Chunk
	noteEmb := make(map[string][]float32)
	var slideFiles []domain.SlideFile

	paths := make([]string, 0, len(manifest.Sources))
	for path := range manifest.Sources {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		entry, ok := manifest.Entry(path)
		if !ok {
			continue
		}
		arts, err := s.store.ReadDocument(ctx, entry.ArtifactDir)
		if err != nil {
			logger.Warn("Skipping %s: artifacts unreadable: %v", path, err)
			continue
		}

		switch entry.Type {
		case domain.GroupNote:
			noteChunks = append(noteChunks, arts.Chunks.Chunks...)
			for id, vec := range arts.ChunkEmbeddings.Vectors {
				noteEmb[id] = vec
			}

		case domain.GroupSlide:
			name := arts.Summary.SourceName
			var summaryVec []float32
			for _, vec := range arts.SummaryEmbedding.Vectors {
				summaryVec = vec
				break
			}
			slideFiles = append(slideFiles, domain.SlideFile{
				Name:             name,
				SummaryText:      arts.Summary.Summary,
				SummaryEmbedding: summaryVec,
				Chunks:           arts.Chunks.Chunks,
				Embeddings:       arts.ChunkEmbeddings.Vectors,
			})
		}
	}
	return noteChunks, noteEmb, slideFiles, nil
}

// embedQuery embeds the section query, degrading to lexical-only
// scoring (nil embedding) on any failure.
func (s *QueryService) embedQuery(ctx context.Context, sectionQuery string) []float32 {
	if s.embedder == nil {
		logger.Warn("No embedding service; scoring is lexical-only")
		return nil
	}
	vec, err := s.embedder.Embed(ctx, sectionQuery)
	if err != nil {
		logger.Warn("Query embedding failed, falling back to lexical-only: %v", err)
		return nil
	}
	return vec
}

// rankSlides runs the two-stage slide ranking: decks by hybrid summary
// score, then chunks of the top decks.
func (s *QueryService) rankSlides(
	terms []string, files []domain.SlideFile, queryEmb []float32,
) []domain.Candidate {
	if len(files) == 0 {
		return nil
	}

	fileRanked := RankSlideFilesByHybrid(RankSlideFilesInput{
		Terms:          terms,
		Files:          files,
		QueryEmbedding: queryEmb,
	})

	keep := make(map[string]bool, DefaultTopSlideFiles)
	for i, c := range fileRanked {
		if i == DefaultTopSlideFiles {
			break
		}
		keep[c.Chunk.ID] = true
	}

	var chunks []domain.Chunk
	emb := make(map[string][]float32)
	for _, f := range files {
		if !keep[f.Name] {
			continue
		}
		chunks = append(chunks, f.Chunks...)
		for id, vec := range f.Embeddings {
			emb[id] = vec
		}
	}

	return RankChunksHybrid(RankChunksInput{
		Terms:          terms,
		Chunks:         chunks,
		EmbeddingByID:  emb,
		QueryEmbedding: queryEmb,
		Group:          domain.GroupSlide,
	})
}

// narrow applies the optional LLM rerank. Any failure or empty answer
// keeps the hybrid order: the external call never blocks correctness.
func (s *QueryService) narrow(
	ctx context.Context, topic, section string, candidates []domain.Candidate,
) []domain.Candidate {
	if s.reranker == nil || len(candidates) == 0 {
		return candidates
	}

	ids, err := s.reranker.Narrow(ctx, topic, section, candidates, DefaultRerankKeep)
	if err != nil {
		logger.Warn("Rerank failed, keeping hybrid top-N: %v", err)
		return candidates
	}
	if len(ids) == 0 {
		logger.Warn("Rerank returned nothing usable, keeping hybrid top-N")
		return candidates
	}

	byID := make(map[string]domain.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.Chunk.ID] = c
	}
	narrowed := make([]domain.Candidate, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		return candidates
	}
	logger.Debug("Rerank narrowed %d candidates to %d", len(candidates), len(narrowed))
	return narrowed
}
