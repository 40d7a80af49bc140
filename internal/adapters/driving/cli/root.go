// Package cli wires the driving adapters to the core services behind a
// cobra command tree.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclinic/ragindex/internal/adapters/driven/artifacts"
	configfile "github.com/openclinic/ragindex/internal/adapters/driven/config/file"
	ollamaembed "github.com/openclinic/ragindex/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/openclinic/ragindex/internal/adapters/driven/embedding/openai"
	openaillm "github.com/openclinic/ragindex/internal/adapters/driven/llm/openai"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "0.1.0"

// RetrievalConfigFile is the retrieval tables file name under the cache root.
const RetrievalConfigFile = "retrieval.toml"

var (
	rootVerbose  bool
	rootCacheDir string
	rootConfig   string
)

var rootCmd = &cobra.Command{
	Use:   "ragindex",
	Short: "Index clinical notes and lecture slides for retrieval",
	Long: `ragindex builds a local retrieval index over clinical note files and
lecture slide decks, and assembles topic/section context from it.
Artifacts are plain JSON files under the cache directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(rootVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootCacheDir, "cache-dir", defaultCacheDir(), "index cache directory")
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "retrieval tables TOML path (default <cache-dir>/"+RetrievalConfigFile+")")
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func defaultCacheDir() string {
	if env := os.Getenv("RAGINDEX_CACHE_DIR"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ragindex"
	}
	return filepath.Join(home, ".ragindex")
}

func newStore() (*artifacts.Store, error) {
	return artifacts.NewStore(rootCacheDir)
}

// newEmbedder selects the embedding backend. OpenAI is the default;
// RAGINDEX_EMBEDDINGS=ollama switches to a local Ollama instance.
func newEmbedder(model string) (driven.EmbeddingService, error) {
	if os.Getenv("RAGINDEX_EMBEDDINGS") == "ollama" {
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: os.Getenv("OLLAMA_BASE_URL"),
			Model:   model,
		}), nil
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set (or set RAGINDEX_EMBEDDINGS=ollama)",
			domain.ErrConfiguration)
	}
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  key,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   model,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// newReranker builds the optional LLM reranker. Opt-in via
// RAGINDEX_RERANK=1; retrieval works identically without it.
func newReranker() driven.Reranker {
	if os.Getenv("RAGINDEX_RERANK") != "1" {
		return nil
	}
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		logger.Warn("RAGINDEX_RERANK is set but OPENAI_API_KEY is not; reranking disabled")
		return nil
	}
	r, err := openaillm.New(openaillm.Config{
		APIKey:  key,
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("RAGINDEX_RERANK_MODEL"),
	})
	if err != nil {
		logger.Warn("Reranker unavailable: %v", err)
		return nil
	}
	return r
}

func loadTables() (domain.RetrievalTables, error) {
	path := rootConfig
	if path == "" {
		path = filepath.Join(rootCacheDir, RetrievalConfigFile)
	}
	return configfile.NewConfigStore(path).Load()
}

func parseOCRPolicy(raw string) (domain.OCRPolicy, error) {
	switch domain.OCRPolicy(raw) {
	case domain.OCROff, domain.OCRSmart, domain.OCRAlways:
		return domain.OCRPolicy(raw), nil
	}
	return "", fmt.Errorf("%w: invalid --ocr value %q (off|smart|always)", domain.ErrInvalidInput, raw)
}
