package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/services"
	"github.com/openclinic/ragindex/internal/logger"
)

var (
	queryTopic      string
	querySection    string
	querySpecialty  string
	queryBudget     int
	queryAllowStale bool
	queryModel      string
	queryJSON       bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Assemble topic/section context from the index",
	Long: `Runs hybrid lexical/semantic retrieval over the indexed documents
and assembles a character-budgeted context block, grouped by source.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryTopic, "topic", "", "clinical topic to retrieve for (required)")
	queryCmd.Flags().StringVar(&querySection, "section", "", "article section to bias retrieval toward")
	queryCmd.Flags().StringVar(&querySpecialty, "specialty", "", "specialty the index was built for (required)")
	queryCmd.Flags().IntVar(&queryBudget, "budget", 0, "context character budget (0 = default)")
	queryCmd.Flags().BoolVar(&queryAllowStale, "allow-stale", false, "serve from a stale index with warnings")
	queryCmd.Flags().StringVar(&queryModel, "model", "", "embedding model id (backend default when empty)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the selection as JSON")
	rootCmd.AddCommand(queryCmd)
}

// queryResult is the --json output shape.
type queryResult struct {
	Topic     string   `json:"topic"`
	Section   string   `json:"section,omitempty"`
	UsedChars int      `json:"usedChars"`
	ChunkIDs  []string `json:"chunkIds"`
	Text      string   `json:"text"`
}

func runQuery(cmd *cobra.Command, _ []string) error {
	if queryTopic == "" {
		return fmt.Errorf("%w: --topic is required", domain.ErrInvalidInput)
	}
	if querySpecialty == "" {
		return fmt.Errorf("%w: --specialty is required", domain.ErrInvalidInput)
	}

	store, err := newStore()
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	tables, err := loadTables()
	if err != nil {
		return fmt.Errorf("load retrieval tables: %w", err)
	}

	embedder, err := newEmbedder(queryModel)
	if err != nil {
		logger.Warn("Embedding backend unavailable, scoring is lexical-only: %v", err)
	} else {
		defer embedder.Close()
	}

	reranker := newReranker()
	if reranker != nil {
		defer reranker.Close()
	}

	svc := services.NewQueryService(store, embedder, reranker, tables)
	selection, err := svc.BuildContext(cmd.Context(), domain.QueryOptions{
		Topic:       queryTopic,
		Section:     querySection,
		Specialty:   querySpecialty,
		BudgetChars: queryBudget,
		AllowStale:  queryAllowStale,
	})
	if err != nil {
		return err
	}

	if queryJSON {
		return outputQueryJSON(cmd, selection)
	}
	outputQueryText(cmd, selection)
	return nil
}

func outputQueryJSON(cmd *cobra.Command, selection *domain.ContextSelection) error {
	result := queryResult{
		Topic:     queryTopic,
		Section:   querySection,
		UsedChars: selection.UsedChars,
		ChunkIDs:  make([]string, 0, len(selection.Selected)),
		Text:      selection.Text,
	}
	for _, c := range selection.Selected {
		result.ChunkIDs = append(result.ChunkIDs, c.Chunk.ID)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryText(cmd *cobra.Command, selection *domain.ContextSelection) {
	if len(selection.Selected) == 0 {
		cmd.Println("No context could be assembled for this topic.")
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	cmd.Printf("%s %d chunks, %d chars\n\n", cyan("Selected:"), len(selection.Selected), selection.UsedChars)
	cmd.Print(selection.Text)
}
