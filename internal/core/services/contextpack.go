package services

import (
	"fmt"
	"strings"

	"github.com/openclinic/ragindex/internal/core/domain"
)

// Default packing parameters.
const (
	// DefaultContextBudgetChars is the assembled-context character budget.
	DefaultContextBudgetChars = 12000

	// DefaultOverheadChars estimates the rendered source-attribution
	// header added per chunk.
	DefaultOverheadChars = 48
)

// AssembleInput configures context packing.
type AssembleInput struct {
	// Selected are the merged candidates in ranked order.
	Selected []domain.Candidate

	// BudgetChars is the character budget; zero means the default.
	BudgetChars int

	// OverheadChars is the per-chunk header estimate; zero means the default.
	OverheadChars int

	// GroupOrder fixes group presentation order.
	GroupOrder []domain.SourceGroup

	// GroupTitles maps groups to rendered headings.
	GroupTitles map[domain.SourceGroup]string
}

// AssembleSectionContext greedily packs candidates into the character
// budget. A candidate that would overflow the remaining budget is
// skipped, not a stopping point: later, smaller candidates may still
// fit. This maximizes total useful chunks admitted rather than the
// score of a strict prefix. Accepted chunks are grouped by source group
// in the fixed order, each group under its title, empty groups omitted.
func AssembleSectionContext(in AssembleInput) *domain.ContextSelection {
	budget := in.BudgetChars
	if budget <= 0 {
		budget = DefaultContextBudgetChars
	}
	overhead := in.OverheadChars
	if overhead <= 0 {
		overhead = DefaultOverheadChars
	}

	used := 0
	var accepted []domain.Candidate
	for _, c := range in.Selected {
		cost := len(c.Chunk.Text) + overhead
		if used+cost > budget {
			continue
		}
		used += cost
		accepted = append(accepted, c)
	}

	byGroup := make(map[domain.SourceGroup][]domain.Candidate)
	for _, c := range accepted {
		byGroup[c.SourceGroup] = append(byGroup[c.SourceGroup], c)
	}

	var sb strings.Builder
	for _, group := range in.GroupOrder {
		members := byGroup[group]
		if len(members) == 0 {
			continue
		}
		title := in.GroupTitles[group]
		if title == "" {
			title = string(group)
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		for _, c := range members {
			fmt.Fprintf(&sb, "[source: %s]\n%s\n\n", c.Chunk.SourceName, c.Chunk.Text)
		}
	}

	return &domain.ContextSelection{
		Selected:  accepted,
		UsedChars: used,
		Text:      sb.String(),
	}
}
