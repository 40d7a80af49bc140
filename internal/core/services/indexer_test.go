package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/ragindex/internal/adapters/driven/artifacts"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu       sync.Mutex
	usage    driven.EmbeddingUsage
	embedErr error
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	m.mu.Lock()
	m.usage.PromptTokens += len(text) / 4
	m.usage.TotalTokens += len(text) / 4
	m.mu.Unlock()
	return []float32{1, 0}, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, driven.EmbeddingUsage, error) {
	out := make([][]float32, len(texts))
	var callUsage driven.EmbeddingUsage
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, driven.EmbeddingUsage{}, err
		}
		out[i] = vec
		callUsage.PromptTokens += len(text) / 4
		callUsage.TotalTokens += len(text) / 4
	}
	return out, callUsage, nil
}

func (m *mockEmbeddingService) ModelName() string { return "mock-embed" }
func (m *mockEmbeddingService) Dimensions() int   { return 2 }

func (m *mockEmbeddingService) Usage() driven.EmbeddingUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage
}

func (m *mockEmbeddingService) Close() error { return nil }

// fakeExtractor implements driven.TextExtractor for testing.
type fakeExtractor struct {
	pages      []driven.PageText
	ocrText    string
	extractErr error
	ocrErr     error

	mu       sync.Mutex
	ocrPages []int
}

func (f *fakeExtractor) ExtractPages(_ context.Context, _ string) ([]driven.PageText, error) {
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return f.pages, nil
}

func (f *fakeExtractor) OCRPage(_ context.Context, _ string, page int) (string, error) {
	if f.ocrErr != nil {
		return "", f.ocrErr
	}
	f.mu.Lock()
	f.ocrPages = append(f.ocrPages, page)
	f.mu.Unlock()
	return f.ocrText, nil
}

// --- Test helpers ---

func newTestStore(t *testing.T) *artifacts.Store {
	t.Helper()
	store, err := artifacts.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// --- Tests ---

func TestIndexerService_Run_IndexesNotes(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "cardio.md", "# Heart Failure\nReduced ejection fraction.")
	writeNote(t, notesDir, "sepsis.md", "# Sepsis\nEarly antibiotics save lives.")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	report, err := svc.Run(ctx, domain.IndexOptions{
		Specialty: "internal-medicine",
		NotesDir:  notesDir,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Indexed)
	assert.Equal(t, 0, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.NotEmpty(t, report.RunID)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	require.Len(t, manifest.Sources, 2)
	assert.Equal(t, "mock-embed", manifest.EmbeddingModel)
	for path, entry := range manifest.Sources {
		assert.True(t, entry.Valid(), "entry for %s", path)
		assert.Equal(t, domain.GroupNote, entry.Type)
		assert.Equal(t, "internal-medicine", entry.Specialty)
		assert.True(t, store.Complete(entry.ArtifactDir))
	}
}

func TestIndexerService_Run_SecondRunSkipsFresh(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "note.md", "content that does not change")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()
	opts := domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir}

	_, err := svc.Run(ctx, opts)
	require.NoError(t, err)

	second, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Indexed)
	assert.Equal(t, 1, second.Skipped)
}

func TestIndexerService_Run_ReindexesChangedContent(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	path := writeNote(t, notesDir, "note.md", "original content")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()
	opts := domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir}

	_, err := svc.Run(ctx, opts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("rewritten content entirely"), 0o644))

	second, err := svc.Run(ctx, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Indexed)
	assert.Equal(t, 0, second.Skipped)
}

func TestIndexerService_Run_ForceReindexesEverything(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "note.md", "unchanged")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)

	forced, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir, Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Indexed)
	assert.Equal(t, 0, forced.Skipped)
}

func TestIndexerService_Run_SpecialtyChangeForcesReindex(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "note.md", "unchanged")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)

	second, err := svc.Run(ctx, domain.IndexOptions{Specialty: "nephrology", NotesDir: notesDir})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Indexed)
}

func TestIndexerService_Run_SlidesWithSmartOCR(t *testing.T) {
	store := newTestStore(t)
	slidesDir := t.TempDir()
	writeNote(t, slidesDir, "deck.pdf", "binary placeholder")
	extractor := &fakeExtractor{
		pages: []driven.PageText{
			{Number: 1, Text: "Slide one covers the pathophysiology of heart failure in detail."},
			{Number: 2, Text: ""},
			{Number: 3, Text: "Slide three covers the management of heart failure in detail."},
		},
		ocrText: "Recovered diagram text about ejection fraction measurement.",
	}
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, extractor, nil)
	ctx := context.Background()

	report, err := svc.Run(ctx, domain.IndexOptions{
		Specialty: "cardiology",
		SlidesDir: slidesDir,
		OCR:       domain.OCRSmart,
	})

	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed)
	assert.Equal(t, []int{2}, extractor.ocrPages)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	entry, ok := manifest.Entry(slidePath(t, slidesDir, "deck.pdf"))
	require.True(t, ok)
	assert.Equal(t, domain.GroupSlide, entry.Type)

	arts, err := store.ReadDocument(ctx, entry.ArtifactDir)
	require.NoError(t, err)
	require.Len(t, arts.Summary.Pages, 3)
	assert.False(t, arts.Summary.Pages[0].OCRApplied)
	assert.True(t, arts.Summary.Pages[1].OCRApplied)
	assert.False(t, arts.Summary.Pages[2].OCRApplied)
	assert.Equal(t, extractor.ocrText, arts.Summary.Pages[1].Text)

	require.NotEmpty(t, arts.Chunks.Chunks)
	for _, c := range arts.Chunks.Chunks {
		assert.True(t, strings.HasPrefix(c.ID, "slide:deck.pdf:p"), "id %s", c.ID)
		assert.Contains(t, arts.ChunkEmbeddings.Vectors, c.ID)
	}
}

func TestIndexerService_Run_OCROffKeepsEmptyPages(t *testing.T) {
	store := newTestStore(t)
	slidesDir := t.TempDir()
	writeNote(t, slidesDir, "deck.pdf", "binary placeholder")
	extractor := &fakeExtractor{
		pages:   []driven.PageText{{Number: 1, Text: ""}},
		ocrText: "should never be used",
	}
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, extractor, nil)

	report, err := svc.Run(context.Background(), domain.IndexOptions{
		Specialty: "cardiology",
		SlidesDir: slidesDir,
		OCR:       domain.OCROff,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Empty(t, extractor.ocrPages)
}

func TestIndexerService_Run_OCRFailureKeepsOriginalText(t *testing.T) {
	store := newTestStore(t)
	slidesDir := t.TempDir()
	writeNote(t, slidesDir, "deck.pdf", "binary placeholder")
	extractor := &fakeExtractor{
		pages:  []driven.PageText{{Number: 1, Text: "short"}},
		ocrErr: errors.New("tesseract not installed"),
	}
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, extractor, nil)
	ctx := context.Background()

	report, err := svc.Run(ctx, domain.IndexOptions{
		Specialty: "cardiology",
		SlidesDir: slidesDir,
		OCR:       domain.OCRSmart,
	})

	require.NoError(t, err)
	require.Equal(t, 1, report.Indexed)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	entry, ok := manifest.Entry(slidePath(t, slidesDir, "deck.pdf"))
	require.True(t, ok)
	arts, err := store.ReadDocument(ctx, entry.ArtifactDir)
	require.NoError(t, err)
	require.Len(t, arts.Summary.Pages, 1)
	assert.Equal(t, "short", arts.Summary.Pages[0].Text)
	assert.False(t, arts.Summary.Pages[0].OCRApplied)
}

func TestIndexerService_Run_FailuresAreContained(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	slidesDir := t.TempDir()
	writeNote(t, notesDir, "good.md", "this one indexes fine")
	writeNote(t, slidesDir, "bad.pdf", "binary placeholder")
	extractor := &fakeExtractor{extractErr: errors.New("pdftotext exploded")}
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, extractor, nil)

	report, err := svc.Run(context.Background(), domain.IndexOptions{
		Specialty: "cardiology",
		NotesDir:  notesDir,
		SlidesDir: slidesDir,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Indexed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Path, "bad.pdf")
	assert.Contains(t, report.Failures[0].Reason, "pdftotext exploded")
}

func TestIndexerService_Run_SlideWithoutExtractorFails(t *testing.T) {
	store := newTestStore(t)
	slidesDir := t.TempDir()
	writeNote(t, slidesDir, "deck.pdf", "binary placeholder")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)

	report, err := svc.Run(context.Background(), domain.IndexOptions{
		Specialty: "cardiology",
		SlidesDir: slidesDir,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestIndexerService_Run_ForcePrunesOrphans(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	path := writeNote(t, notesDir, "temp.md", "soon to be deleted")
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	// Without force the orphaned entry survives.
	_, err = svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)
	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Len(t, manifest.Sources, 1)

	_, err = svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir, Force: true})
	require.NoError(t, err)
	manifest, err = store.ReadManifest(ctx)
	require.NoError(t, err)
	assert.Empty(t, manifest.Sources)
}

func TestIndexerService_Run_NoEmbedder(t *testing.T) {
	svc := NewIndexerService(newTestStore(t), nil, nil, nil)

	_, err := svc.Run(context.Background(), domain.IndexOptions{NotesDir: t.TempDir()})

	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestIndexerService_Run_RecordsUsageDelta(t *testing.T) {
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "note.md", strings.Repeat("sepsis management text ", 40))
	embedder := &mockEmbeddingService{}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	_, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	for _, entry := range manifest.Sources {
		arts, err := store.ReadDocument(ctx, entry.ArtifactDir)
		require.NoError(t, err)
		expected := 0
		for _, c := range arts.Chunks.Chunks {
			expected += len(c.Text) / 4
		}
		assert.Equal(t, expected, arts.ChunkEmbeddings.PromptTokens)
		assert.Equal(t, len(arts.Summary.Summary)/4, arts.SummaryEmbedding.PromptTokens)
	}
}

// lockstepEmbedder pairs up concurrent embedding calls: each call waits
// until a call from another goroutine arrives before either returns, so
// two documents indexed in parallel always have their token spend
// interleaved. Every call costs a fixed number of prompt tokens.
type lockstepEmbedder struct {
	rendezvous  chan struct{}
	costPerCall int

	mu    sync.Mutex
	usage driven.EmbeddingUsage
}

func (l *lockstepEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, _, err := l.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (l *lockstepEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, driven.EmbeddingUsage, error) {
	select {
	case l.rendezvous <- struct{}{}:
	case <-l.rendezvous:
	case <-ctx.Done():
		return nil, driven.EmbeddingUsage{}, ctx.Err()
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 0}
	}
	usage := driven.EmbeddingUsage{PromptTokens: l.costPerCall, TotalTokens: l.costPerCall}
	l.mu.Lock()
	l.usage.PromptTokens += usage.PromptTokens
	l.usage.TotalTokens += usage.TotalTokens
	l.mu.Unlock()
	return out, usage, nil
}

func (l *lockstepEmbedder) ModelName() string { return "mock-embed" }
func (l *lockstepEmbedder) Dimensions() int   { return 2 }

func (l *lockstepEmbedder) Usage() driven.EmbeddingUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usage
}

func (l *lockstepEmbedder) Close() error { return nil }

func TestIndexerService_Run_AttributesTokensPerDocument(t *testing.T) {
	// Two documents embed concurrently, so a document's recorded token
	// spend must come from its own calls and not from whatever the
	// service-wide counter accumulated from its neighbours in flight.
	store := newTestStore(t)
	notesDir := t.TempDir()
	writeNote(t, notesDir, "a.md", strings.Repeat("sepsis management text ", 40))
	writeNote(t, notesDir, "b.md", strings.Repeat("renal dosing text ", 40))
	embedder := &lockstepEmbedder{rendezvous: make(chan struct{}), costPerCall: 100}
	svc := NewIndexerService(store, embedder, nil, nil)
	ctx := context.Background()

	report, err := svc.Run(ctx, domain.IndexOptions{Specialty: "cardiology", NotesDir: notesDir})
	require.NoError(t, err)
	require.Equal(t, 2, report.Indexed)

	manifest, err := store.ReadManifest(ctx)
	require.NoError(t, err)
	require.Len(t, manifest.Sources, 2)
	for path, entry := range manifest.Sources {
		arts, err := store.ReadDocument(ctx, entry.ArtifactDir)
		require.NoError(t, err)
		assert.Equal(t, 100, arts.ChunkEmbeddings.PromptTokens, "chunk tokens for %s", path)
		assert.Equal(t, 100, arts.SummaryEmbedding.PromptTokens, "summary tokens for %s", path)
	}
	assert.Equal(t, 400, embedder.Usage().PromptTokens)
}

func slidePath(t *testing.T, dir, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join(dir, name))
	require.NoError(t, err)
	return abs
}
