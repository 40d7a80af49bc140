package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/openclinic/ragindex/internal/chunking"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/core/ports/driving"
	"github.com/openclinic/ragindex/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// DefaultIndexParallelism bounds concurrent per-document indexing.
// The embedding adapter additionally bounds its own API calls.
const DefaultIndexParallelism = 4

// summaryChars is how much leading text feeds the per-document summary.
const summaryChars = 1200

// noteExtensions are the file extensions indexed from the notes directory.
var noteExtensions = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// IndexerService walks source directories, re-indexes stale documents,
// and maintains the manifest. Each document's success or failure is
// independent; failures are reported, not fatal to the run.
type IndexerService struct {
	store     driven.ArtifactStore
	embedder  driven.EmbeddingService
	extractor driven.TextExtractor
	splitter  *chunking.Splitter
	parallel  int
}

// NewIndexerService creates an indexer. The extractor is optional; when
// nil, slide sources fail individually with a clear reason.
func NewIndexerService(
	store driven.ArtifactStore,
	embedder driven.EmbeddingService,
	extractor driven.TextExtractor,
	splitter *chunking.Splitter,
) *IndexerService {
	if splitter == nil {
		splitter = chunking.New()
	}
	return &IndexerService{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		splitter:  splitter,
		parallel:  DefaultIndexParallelism,
	}
}

// Run implements driving.Indexer.
func (s *IndexerService) Run(ctx context.Context, opts domain.IndexOptions) (*domain.IndexReport, error) {
	logger.Section("Indexing Run")
	start := time.Now()

	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if opts.OCR == "" {
		opts.OCR = domain.OCRSmart
	}

	docs, err := discoverSources(opts)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	logger.Info("Discovered %d source documents", len(docs))

	manifest, err := s.store.ReadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	report := &domain.IndexReport{RunID: uuid.New().String()}
	model := s.embedder.ModelName()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			mu.Lock()
			entry, exists := manifest.Entry(doc.Path)
			mu.Unlock()

			reason := ""
			if opts.Force {
				reason = "forced"
			} else {
				reason = staleReason(s.store, doc.Path, entry, exists,
					doc.Group, opts.Specialty, model, chunking.Version)
			}
			if reason == "" {
				logger.Debug("Fresh, skipping: %s", doc.Path)
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}

			logger.Debug("Indexing %s (%s)", doc.Path, reason)
			newEntry, err := s.indexOne(gctx, doc, opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Failed to index %s: %v", doc.Path, err)
				report.Failed++
				report.Failures = append(report.Failures, domain.DocumentFailure{
					Path:   doc.Path,
					Reason: err.Error(),
				})
				return nil
			}
			manifest.Sources[doc.Path] = *newEntry
			report.Indexed++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Orphan entries are pruned only on force rebuilds; otherwise they
	// stay, so a moved source directory can be re-pointed later.
	if opts.Force {
		live := make(map[string]struct{}, len(docs))
		for _, d := range docs {
			live[d.Path] = struct{}{}
		}
		for path := range manifest.Sources {
			if _, ok := live[path]; !ok {
				logger.Debug("Pruning orphaned entry: %s", path)
				delete(manifest.Sources, path)
			}
		}
	}

	manifest.ChunkingVersion = chunking.Version
	manifest.EmbeddingModel = model
	if err := s.store.WriteManifest(ctx, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	report.Duration = time.Since(start)
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Path < report.Failures[j].Path
	})
	logger.Info("Run complete: %d indexed, %d fresh, %d failed",
		report.Indexed, report.Skipped, report.Failed)
	return report, nil
}

// indexOne runs the full pipeline for a single document: extract,
// chunk, embed, persist artifacts, and return the new manifest entry.
func (s *IndexerService) indexOne(
	ctx context.Context, doc domain.SourceDocument, opts domain.IndexOptions,
) (*domain.ManifestEntry, error) {
	fp, err := s.store.Fingerprint(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}

	var (
		chunks []domain.Chunk
		pages  []driven.PageRecord
		text   string
	)

	switch doc.Group {
	case domain.GroupNote:
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, fmt.Errorf("read note: %w", err)
		}
		text = string(data)
		chunks = s.splitter.BuildChunksFromText(chunking.ChunkInput{
			Text:       text,
			Prefix:     "note:" + doc.Label,
			SourceName: doc.Label,
			SourcePath: doc.Path,
		})

	case domain.GroupSlide:
		if s.extractor == nil {
			return nil, domain.ErrExtractorUnavailable
		}
		pages, err = s.extractPages(ctx, doc, opts.OCR)
		if err != nil {
			return nil, fmt.Errorf("extract pages: %w", err)
		}
		chunkPages := make([]chunking.Page, len(pages))
		var sb strings.Builder
		for i, p := range pages {
			chunkPages[i] = chunking.Page{Number: p.Number, Text: p.Text}
			sb.WriteString(p.Text)
			sb.WriteString("\n")
		}
		text = sb.String()
		chunks = s.splitter.BuildChunksFromPages(doc.Label, doc.Label, doc.Path, chunkPages)

	default:
		return nil, fmt.Errorf("%w: unknown source group %q", domain.ErrInvalidInput, doc.Group)
	}

	summary := summarize(text, summaryChars)
	docID := string(doc.Group) + ":" + doc.Label

	chunkTexts := make([]string, len(chunks))
	for i, c := range chunks {
		chunkTexts[i] = c.Text
	}
	chunkVectors, chunkUsage, err := s.embedder.EmbedBatch(ctx, chunkTexts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	summaryVectors, summaryUsage, err := s.embedder.EmbedBatch(ctx, []string{summary})
	if err != nil {
		return nil, fmt.Errorf("embed summary: %w", err)
	}
	var summaryVector []float32
	if len(summaryVectors) > 0 {
		summaryVector = summaryVectors[0]
	}

	now := time.Now().UTC()
	model := s.embedder.ModelName()

	chunkEmb := make(map[string][]float32, len(chunks))
	for i, c := range chunks {
		if i < len(chunkVectors) && chunkVectors[i] != nil {
			chunkEmb[c.ID] = chunkVectors[i]
		}
	}

	arts := &driven.DocumentArtifacts{
		Summary: driven.SummaryArtifact{
			Model:           model,
			ChunkingVersion: chunking.Version,
			CreatedAt:       now,
			SourcePath:      doc.Path,
			SourceName:      doc.Label,
			Summary:         summary,
			Pages:           pages,
		},
		SummaryEmbedding: driven.EmbeddingArtifact{
			Model:        model,
			CreatedAt:    now,
			Vectors:      map[string][]float32{docID: summaryVector},
			PromptTokens: summaryUsage.PromptTokens,
		},
		Chunks: driven.ChunksArtifact{
			Model:           model,
			ChunkingVersion: chunking.Version,
			CreatedAt:       now,
			SourcePath:      doc.Path,
			Chunks:          chunks,
		},
		ChunkEmbeddings: driven.EmbeddingArtifact{
			Model:        model,
			CreatedAt:    now,
			Vectors:      chunkEmb,
			PromptTokens: chunkUsage.PromptTokens,
		},
	}

	artifactDir := filepath.Join("docs", sanitizeName(string(doc.Group)+"-"+doc.Label))
	if err := s.store.WriteDocument(ctx, artifactDir, arts); err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}

	return &domain.ManifestEntry{
		Type:            doc.Group,
		Specialty:       opts.Specialty,
		SizeBytes:       fp.SizeBytes,
		MTimeMillis:     fp.MTimeMillis,
		ContentHash:     fp.ContentHash,
		IndexedAt:       now,
		EmbeddingModel:  model,
		ChunkingVersion: chunking.Version,
		ArtifactDir:     artifactDir,
		Labels:          map[string]string{"label": doc.Label},
	}, nil
}

// extractPages pulls page text and applies the OCR escalation policy.
// OCR failures keep the original text and log a warning; a page that
// still recovers nothing is kept empty rather than failing the document.
func (s *IndexerService) extractPages(
	ctx context.Context, doc domain.SourceDocument, policy domain.OCRPolicy,
) ([]driven.PageRecord, error) {
	raw, err := s.extractor.ExtractPages(ctx, doc.Path)
	if err != nil {
		return nil, err
	}

	records := make([]driven.PageRecord, len(raw))
	for i, page := range raw {
		records[i] = driven.PageRecord{Number: page.Number, Text: page.Text}

		escalate := policy == domain.OCRAlways ||
			(policy == domain.OCRSmart && isOCRCandidate(page.Text))
		if !escalate {
			continue
		}

		ocrText, err := s.extractor.OCRPage(ctx, doc.Path, page.Number)
		if err != nil {
			logger.Warn("OCR failed for %s page %d: %v", doc.Path, page.Number, err)
			continue
		}
		records[i].Text = ocrText
		records[i].OCRApplied = true
	}
	return records, nil
}

// discoverSources lists the note and slide directories. Listings are
// sorted so runs are deterministic.
func discoverSources(opts domain.IndexOptions) ([]domain.SourceDocument, error) {
	var docs []domain.SourceDocument

	if opts.NotesDir != "" {
		noteDocs, err := listDir(opts.NotesDir, domain.GroupNote, func(name string) bool {
			return noteExtensions[strings.ToLower(filepath.Ext(name))]
		})
		if err != nil {
			return nil, err
		}
		docs = append(docs, noteDocs...)
	}
	if opts.SlidesDir != "" {
		slideDocs, err := listDir(opts.SlidesDir, domain.GroupSlide, func(name string) bool {
			return strings.EqualFold(filepath.Ext(name), ".pdf")
		})
		if err != nil {
			return nil, err
		}
		docs = append(docs, slideDocs...)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func listDir(dir string, group domain.SourceGroup, match func(string) bool) ([]domain.SourceDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var docs []domain.SourceDocument
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", e.Name(), err)
		}
		docs = append(docs, domain.SourceDocument{
			Path:  abs,
			Group: group,
			Label: e.Name(),
		})
	}
	return docs, nil
}

// summarize takes the leading text up to limit characters, cutting at a
// word boundary.
func summarize(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= limit {
		return trimmed
	}
	cut := trimmed[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// sanitizeName maps a source label to a filesystem-safe directory name.
func sanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// isOCRCandidate flags pages with very little recovered text or a low
// alphabetic-character ratio: both are typical of image-only slides.
func isOCRCandidate(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 40 {
		return true
	}
	var letters, total int
	for _, r := range trimmed {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		total++
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	if total == 0 {
		return true
	}
	return float64(letters)/float64(total) < 0.5
}
