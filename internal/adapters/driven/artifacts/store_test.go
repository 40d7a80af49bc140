package artifacts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeSourceFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testArtifacts() *driven.DocumentArtifacts {
	now := time.Now().UTC()
	return &driven.DocumentArtifacts{
		Summary: driven.SummaryArtifact{
			Model:           "test-model",
			ChunkingVersion: "cv1",
			CreatedAt:       now,
			SourcePath:      "/notes/cardio.md",
			SourceName:      "cardio.md",
			Summary:         "Heart failure overview.",
		},
		SummaryEmbedding: driven.EmbeddingArtifact{
			Model:     "test-model",
			CreatedAt: now,
			Vectors:   map[string][]float32{"note:cardio.md": {0.1, 0.2}},
		},
		Chunks: driven.ChunksArtifact{
			Model:           "test-model",
			ChunkingVersion: "cv1",
			CreatedAt:       now,
			SourcePath:      "/notes/cardio.md",
			Chunks: []domain.Chunk{
				{ID: "note:cardio.md:1", SourceName: "cardio.md", Text: "Heart failure."},
			},
		},
		ChunkEmbeddings: driven.EmbeddingArtifact{
			Model:     "test-model",
			CreatedAt: now,
			Vectors:   map[string][]float32{"note:cardio.md:1": {0.3, 0.4}},
		},
	}
}

func TestFingerprint_Stable(t *testing.T) {
	store := newTestStore(t)
	path := writeSourceFile(t, t.TempDir(), "note.md", "stable content")

	first, err := store.Fingerprint(path)
	require.NoError(t, err)
	second, err := store.Fingerprint(path)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Len(t, first.ContentHash, 64)
	assert.Equal(t, int64(len("stable content")), first.SizeBytes)
}

func TestFingerprint_ChangesWithContent(t *testing.T) {
	store := newTestStore(t)
	dir := t.TempDir()
	path := writeSourceFile(t, dir, "note.md", "version one")

	first, err := store.Fingerprint(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("version two!"), 0o644))
	second, err := store.Fingerprint(path)
	require.NoError(t, err)

	assert.False(t, first.Equal(second))
	assert.NotEqual(t, first.ContentHash, second.ContentHash)
}

func TestFingerprint_MissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Fingerprint(filepath.Join(t.TempDir(), "gone.md"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFingerprint_Directory(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Fingerprint(t.TempDir())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReadManifest_AbsentReturnsDefaults(t *testing.T) {
	store := newTestStore(t)

	m, err := store.ReadManifest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.UnknownChunkingVersion, m.ChunkingVersion)
	assert.Empty(t, m.Sources)
}

func TestReadManifest_CorruptReturnsDefaults(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), ManifestFile), []byte("{not json"), 0o644))

	m, err := store.ReadManifest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.UnknownChunkingVersion, m.ChunkingVersion)
	assert.Empty(t, m.Sources)
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := domain.NewManifest("cv1", "test-model")
	m.Sources["/notes/cardio.md"] = domain.ManifestEntry{
		Type:            domain.GroupNote,
		Specialty:       "cardiology",
		SizeBytes:       14,
		MTimeMillis:     1700000000000,
		ContentHash:     "abc123",
		IndexedAt:       time.Now().UTC(),
		EmbeddingModel:  "test-model",
		ChunkingVersion: "cv1",
		ArtifactDir:     "docs/note-cardio-md",
	}
	require.NoError(t, store.WriteManifest(ctx, m))

	loaded, err := store.ReadManifest(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.ManifestVersion, loaded.Version)
	assert.Equal(t, "cv1", loaded.ChunkingVersion)
	assert.Equal(t, "test-model", loaded.EmbeddingModel)
	entry, ok := loaded.Entry("/notes/cardio.md")
	require.True(t, ok)
	assert.Equal(t, domain.GroupNote, entry.Type)
	assert.Equal(t, "docs/note-cardio-md", entry.ArtifactDir)
}

func TestWriteManifest_NoTempFilesLeftBehind(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteManifest(context.Background(), domain.NewManifest("cv1", "m")))

	matches, err := filepath.Glob(filepath.Join(store.Root(), ".ragindex-tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestWriteDocument_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	arts := testArtifacts()

	require.NoError(t, store.WriteDocument(ctx, "docs/note-cardio-md", arts))

	loaded, err := store.ReadDocument(ctx, "docs/note-cardio-md")
	require.NoError(t, err)
	assert.Equal(t, arts.Summary.Summary, loaded.Summary.Summary)
	require.Len(t, loaded.Chunks.Chunks, 1)
	assert.Equal(t, "note:cardio.md:1", loaded.Chunks.Chunks[0].ID)
	assert.Equal(t, []float32{0.3, 0.4}, loaded.ChunkEmbeddings.Vectors["note:cardio.md:1"])
}

func TestComplete_TrueForFullSet(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteDocument(context.Background(), "docs/d", testArtifacts()))

	assert.True(t, store.Complete("docs/d"))
}

func TestComplete_FalseWhenFileMissing(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteDocument(context.Background(), "docs/d", testArtifacts()))
	require.NoError(t, os.Remove(filepath.Join(store.Root(), "docs/d", ChunksFile)))

	assert.False(t, store.Complete("docs/d"))
}

func TestComplete_FalseWhenFileCorrupt(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteDocument(context.Background(), "docs/d", testArtifacts()))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "docs/d", SummaryFile), []byte("garbage"), 0o644))

	assert.False(t, store.Complete("docs/d"))
}

func TestComplete_FalseForUnknownDir(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.Complete("docs/never-written"))
}
