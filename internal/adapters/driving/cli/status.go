package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openclinic/ragindex/internal/core/services"
	"github.com/openclinic/ragindex/internal/logger"
)

var statusModel string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report per-document index freshness",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusModel, "model", "", "embedding model id to check freshness against")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	store, err := newStore()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	tables, err := loadTables()
	if err != nil {
		return fmt.Errorf("load retrieval tables: %w", err)
	}

	// Freshness compares against the manifest's recorded model unless a
	// live backend is configured.
	embedder, err := newEmbedder(statusModel)
	if err != nil {
		logger.Warn("Embedding backend unavailable, checking freshness against the indexed model: %v", err)
	} else {
		defer embedder.Close()
	}

	svc := services.NewQueryService(store, embedder, nil, tables)
	statuses, err := svc.Status(cmd.Context())
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		cmd.Println("No documents indexed.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	fresh := 0
	for _, st := range statuses {
		if st.Fresh {
			fresh++
			cmd.Printf("%s  %-5s  %s  (indexed %s)\n",
				green("fresh"), st.Group, st.Path, st.Indexed.Format("2006-01-02 15:04"))
			continue
		}
		cmd.Printf("%s  %-5s  %s  (%s)\n", red("stale"), st.Group, st.Path, st.Reason)
	}
	cmd.Printf("\n%d of %d documents fresh\n", fresh, len(statuses))
	return nil
}
