// Package artifacts is a file-backed implementation of the
// driven.ArtifactStore port. Every write is atomic: content goes to a
// uniquely named temp file in the destination directory, is fsynced,
// then renamed into place, so a crash mid-write never corrupts the
// previous state.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ArtifactStore = (*Store)(nil)

// Artifact file names within a document's artifact directory.
const (
	ManifestFile         = "manifest.json"
	SummaryFile          = "summary.json"
	SummaryEmbeddingFile = "summary_embedding.json"
	ChunksFile           = "chunks.json"
	ChunkEmbeddingsFile  = "chunk_embeddings.json"
)

// Store persists the manifest and per-document artifacts under a cache root.
type Store struct {
	root string
}

// NewStore creates a store rooted at cacheDir, creating it if needed.
func NewStore(cacheDir string) (*Store, error) {
	abs, err := filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute cache root.
func (s *Store) Root() string {
	return s.root
}

// Fingerprint computes the live fingerprint of path.
func (s *Store) Fingerprint(path string) (domain.Fingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("fingerprint %s: %w", path, domain.ErrNotFound)
	}
	if !info.Mode().IsRegular() {
		return domain.Fingerprint{}, fmt.Errorf("fingerprint %s: not a regular file: %w", path, domain.ErrNotFound)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Fingerprint{}, fmt.Errorf("fingerprint %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return domain.Fingerprint{
		Path:        path,
		SizeBytes:   info.Size(),
		MTimeMillis: info.ModTime().UnixMilli(),
		ContentHash: hex.EncodeToString(sum[:]),
	}, nil
}

// ReadManifest loads the manifest, returning empty defaults when the
// file is absent or unreadable as structured data.
func (s *Store) ReadManifest(_ context.Context) (*domain.Manifest, error) {
	empty := domain.NewManifest(domain.UnknownChunkingVersion, "")

	data, err := os.ReadFile(filepath.Join(s.root, ManifestFile))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Manifest unreadable, starting empty: %v", err)
		}
		return empty, nil
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		logger.Warn("Manifest corrupt, starting empty: %v", err)
		return empty, nil
	}
	if m.Sources == nil {
		m.Sources = make(map[string]domain.ManifestEntry)
	}
	if m.ChunkingVersion == "" {
		m.ChunkingVersion = domain.UnknownChunkingVersion
	}
	return &m, nil
}

// WriteManifest refreshes UpdatedAt and writes the manifest atomically.
func (s *Store) WriteManifest(_ context.Context, m *domain.Manifest) error {
	m.Version = domain.ManifestVersion
	m.UpdatedAt = time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	return s.WriteJSONAtomic(filepath.Join(s.root, ManifestFile), m)
}

// WriteDocument writes a document's complete artifact set under dir.
func (s *Store) WriteDocument(_ context.Context, dir string, arts *driven.DocumentArtifacts) error {
	abs := filepath.Join(s.root, dir)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	files := map[string]any{
		SummaryFile:          &arts.Summary,
		SummaryEmbeddingFile: &arts.SummaryEmbedding,
		ChunksFile:           &arts.Chunks,
		ChunkEmbeddingsFile:  &arts.ChunkEmbeddings,
	}
	for name, v := range files {
		if err := s.WriteJSONAtomic(filepath.Join(abs, name), v); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// ReadDocument loads a document's artifact set from dir.
func (s *Store) ReadDocument(_ context.Context, dir string) (*driven.DocumentArtifacts, error) {
	abs := filepath.Join(s.root, dir)
	var arts driven.DocumentArtifacts
	if err := readJSON(filepath.Join(abs, SummaryFile), &arts.Summary); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(abs, SummaryEmbeddingFile), &arts.SummaryEmbedding); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(abs, ChunksFile), &arts.Chunks); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(abs, ChunkEmbeddingsFile), &arts.ChunkEmbeddings); err != nil {
		return nil, err
	}
	return &arts, nil
}

// Complete reports whether every expected artifact file is present and
// parses as structured data. Partial sets count as absent.
func (s *Store) Complete(dir string) bool {
	abs := filepath.Join(s.root, dir)
	checks := []struct {
		name string
		into any
	}{
		{SummaryFile, &driven.SummaryArtifact{}},
		{SummaryEmbeddingFile, &driven.EmbeddingArtifact{}},
		{ChunksFile, &driven.ChunksArtifact{}},
		{ChunkEmbeddingsFile, &driven.EmbeddingArtifact{}},
	}
	for _, c := range checks {
		if err := readJSON(filepath.Join(abs, c.name), c.into); err != nil {
			return false
		}
	}
	return true
}

// WriteJSONAtomic is the general-purpose primitive under every artifact
// write: marshal, temp file in the same directory, fsync, rename.
func (s *Store) WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ragindex-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}

func readJSON(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
