// Package file loads retrieval configuration (synonym groups, section
// hints, group titles) from a TOML file, falling back to compiled-in
// defaults for anything the file omits.
package file

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/openclinic/ragindex/internal/core/domain"
	"github.com/openclinic/ragindex/internal/core/ports/driven"
	"github.com/openclinic/ragindex/internal/lexical"
)

// Ensure ConfigStore implements the interface.
var _ driven.RetrievalConfigStore = (*ConfigStore)(nil)

// ConfigStore is a TOML-backed retrieval configuration source.
type ConfigStore struct {
	path string
}

// fileFormat mirrors the TOML layout.
type fileFormat struct {
	Synonyms     map[string][]string `toml:"synonyms"`
	SectionHints map[string]string   `toml:"section_hints"`
	GroupTitles  map[string]string   `toml:"group_titles"`
	GroupOrder   []string            `toml:"group_order"`
}

// NewConfigStore creates a store reading from path. An empty path means
// defaults only.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Load returns the retrieval tables. A missing file is not an error;
// a present but unparseable file is.
func (s *ConfigStore) Load() (domain.RetrievalTables, error) {
	tables := domain.RetrievalTables{
		Synonyms:     lexical.Bidirectional(defaultSynonyms),
		SectionHints: copyStringMap(defaultSectionHints),
		GroupTitles:  copyGroupMap(defaultGroupTitles),
		GroupOrder:   append([]domain.SourceGroup(nil), defaultGroupOrder...),
	}

	if s.path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return tables, nil
		}
		return domain.RetrievalTables{}, fmt.Errorf("read retrieval config: %w", err)
	}

	var ff fileFormat
	if err := toml.Unmarshal(data, &ff); err != nil {
		return domain.RetrievalTables{}, fmt.Errorf("parse retrieval config: %w", err)
	}

	if len(ff.Synonyms) > 0 {
		merged := copySliceMap(defaultSynonyms)
		for k, v := range ff.Synonyms {
			merged[k] = v
		}
		tables.Synonyms = lexical.Bidirectional(merged)
	}
	for k, v := range ff.SectionHints {
		tables.SectionHints[k] = v
	}
	for k, v := range ff.GroupTitles {
		tables.GroupTitles[domain.SourceGroup(k)] = v
	}
	if len(ff.GroupOrder) > 0 {
		order := make([]domain.SourceGroup, 0, len(ff.GroupOrder))
		for _, g := range ff.GroupOrder {
			order = append(order, domain.SourceGroup(g))
		}
		tables.GroupOrder = order
	}

	return tables, nil
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copySliceMap(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func copyGroupMap(in map[domain.SourceGroup]string) map[domain.SourceGroup]string {
	out := make(map[domain.SourceGroup]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
