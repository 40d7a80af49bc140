package lexical

import (
	"sort"
	"strings"
)

// Bidirectional closes a synonym table over its groups: every member of
// a group (key plus related terms) ends up mapping to all the others.
// The returned table is safe to share; inputs are not mutated.
func Bidirectional(synonyms map[string][]string) map[string][]string {
	groups := make(map[string][]string, len(synonyms))
	for key, related := range synonyms {
		members := make([]string, 0, len(related)+1)
		members = append(members, strings.ToLower(key))
		for _, r := range related {
			members = append(members, strings.ToLower(r))
		}
		for _, m := range members {
			for _, other := range members {
				if other == m {
					continue
				}
				groups[m] = appendUnique(groups[m], other)
			}
		}
	}
	return groups
}

// TopicTerms expands the topic's tokens through the synonym table plus a
// naive singularization rule. The synonym table is expected to already
// be bidirectional (see Bidirectional).
func TopicTerms(topic string, synonyms map[string][]string) []string {
	topicLower := strings.ToLower(topic)
	terms := Tokens(topic)

	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	add := func(t string) {
		if t == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	// Singular variants of the topic's own tokens first.
	for _, t := range Tokens(topic) {
		if singular, ok := singularize(t); ok {
			add(singular)
		}
	}

	// Synonym expansion, keyed on substring presence in the topic text.
	// Keys are walked in sorted order so expansion is deterministic.
	keys := make([]string, 0, len(synonyms))
	for k := range synonyms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !strings.Contains(topicLower, key) {
			continue
		}
		for _, related := range synonyms[key] {
			add(related)
		}
	}

	return terms
}

// SectionQuery builds the retrieval query for a topic and section. The
// section's focus hint biases retrieval toward the right kind of
// language (e.g. treatment algorithms for "management") even when the
// topic string is disease-only. Unrecognized sections fall back to the
// lowercase section name itself.
func SectionQuery(topic, section string, hints map[string]string) string {
	name := strings.ToLower(strings.TrimSpace(section))
	if name == "" {
		return topic
	}
	hint, ok := hints[name]
	if !ok {
		hint = name
	}
	if hint == "" {
		return topic
	}
	return topic + " " + hint
}

func appendUnique(list []string, v string) []string {
	for _, e := range list {
		if e == v {
			return list
		}
	}
	return append(list, v)
}
