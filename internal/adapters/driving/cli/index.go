package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openclinic/ragindex/internal/adapters/driven/extract/poppler"
	"github.com/openclinic/ragindex/internal/chunking"
	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/services"
)

var (
	indexSpecialty string
	indexNotesDir  string
	indexSlidesDir string
	indexModel     string
	indexOCR       string
	indexForce     bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index note files and slide decks",
	Long: `Walks the configured source directories and (re-)indexes every
document that is new, changed, or indexed under a different
configuration. Fresh documents are skipped.`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexSpecialty, "specialty", "", "clinical specialty the index is built for (required)")
	indexCmd.Flags().StringVar(&indexNotesDir, "notes-dir", "", "directory of note files (.md, .markdown, .txt)")
	indexCmd.Flags().StringVar(&indexSlidesDir, "slides-dir", "", "directory of slide decks (.pdf)")
	indexCmd.Flags().StringVar(&indexModel, "model", "", "embedding model id (backend default when empty)")
	indexCmd.Flags().StringVar(&indexOCR, "ocr", string(domain.OCRSmart), "OCR policy for slide pages: off|smart|always")
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "re-index every document and prune orphaned entries")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if indexSpecialty == "" {
		return fmt.Errorf("%w: --specialty is required", domain.ErrInvalidInput)
	}
	if indexNotesDir == "" && indexSlidesDir == "" {
		return fmt.Errorf("%w: at least one of --notes-dir or --slides-dir is required", domain.ErrInvalidInput)
	}
	ocr, err := parseOCRPolicy(indexOCR)
	if err != nil {
		return err
	}

	store, err := newStore()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	embedder, err := newEmbedder(indexModel)
	if err != nil {
		return err
	}
	defer embedder.Close()

	svc := services.NewIndexerService(store, embedder, poppler.New(poppler.Config{}), chunking.New())
	report, err := svc.Run(cmd.Context(), domain.IndexOptions{
		Specialty: indexSpecialty,
		NotesDir:  indexNotesDir,
		SlidesDir: indexSlidesDir,
		OCR:       ocr,
		Force:     indexForce,
	})
	if err != nil {
		return fmt.Errorf("index run failed: %w", err)
	}

	printIndexReport(cmd, report)
	if report.Failed > 0 {
		return fmt.Errorf("%d document(s) failed to index", report.Failed)
	}
	return nil
}

func printIndexReport(cmd *cobra.Command, report *domain.IndexReport) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	cmd.Printf("Run %s finished in %s\n", report.RunID, report.Duration.Round(time.Millisecond))
	cmd.Printf("  %s indexed, %s fresh, %s failed\n",
		green(report.Indexed), yellow(report.Skipped), red(report.Failed))
	for _, f := range report.Failures {
		cmd.Printf("  %s %s: %s\n", red("FAIL"), f.Path, f.Reason)
	}
}
