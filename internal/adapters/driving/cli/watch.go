package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openclinic/ragindex/internal/adapters/driven/extract/poppler"
	"github.com/openclinic/ragindex/internal/chunking"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/services"
	"github.com/openclinic/ragindex/internal/watcher"
)

var (
	watchSpecialty string
	watchNotesDir  string
	watchSlidesDir string
	watchModel     string
	watchOCR       string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch source directories and re-index on change",
	Long: `Runs an initial indexing pass, then keeps the index fresh by
re-running incremental indexing whenever a source file changes.
Stops on interrupt.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSpecialty, "specialty", "", "clinical specialty the index is built for (required)")
	watchCmd.Flags().StringVar(&watchNotesDir, "notes-dir", "", "directory of note files")
	watchCmd.Flags().StringVar(&watchSlidesDir, "slides-dir", "", "directory of slide decks")
	watchCmd.Flags().StringVar(&watchModel, "model", "", "embedding model id (backend default when empty)")
	watchCmd.Flags().StringVar(&watchOCR, "ocr", string(domain.OCRSmart), "OCR policy for slide pages: off|smart|always")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchSpecialty == "" {
		return fmt.Errorf("%w: --specialty is required", domain.ErrInvalidInput)
	}
	if watchNotesDir == "" && watchSlidesDir == "" {
		return fmt.Errorf("%w: at least one of --notes-dir or --slides-dir is required", domain.ErrInvalidInput)
	}
	ocr, err := parseOCRPolicy(watchOCR)
	if err != nil {
		return err
	}

	store, err := newStore()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	embedder, err := newEmbedder(watchModel)
	if err != nil {
		return err
	}
	defer embedder.Close()

	indexer := services.NewIndexerService(store, embedder, poppler.New(poppler.Config{}), chunking.New())
	w := watcher.New(indexer, domain.IndexOptions{
		Specialty: watchSpecialty,
		NotesDir:  watchNotesDir,
		SlidesDir: watchSlidesDir,
		OCR:       ocr,
	}, nil)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return w.Watch(ctx)
}
