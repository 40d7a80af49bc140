package chunking

import (
	"regexp"
	"strings"
)

// Section boundaries: markdown ATX headings of depth 1-6, or a line
// beginning "Chapter N".
var headingPattern = regexp.MustCompile(`^(#{1,6}\s|Chapter \d+)`)

// SplitIntoSections splits text at heading lines. A heading only starts
// a new section when the current one already has content, so a document
// whose first line is a heading does not produce an empty leading
// section. Sections are trimmed of trailing whitespace-only content and
// returned non-empty.
func SplitIntoSections(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string

	flush := func() {
		section := strings.Join(current, "\n")
		if strings.TrimSpace(section) != "" {
			sections = append(sections, strings.TrimRight(section, " \t\r\n"))
		}
		current = nil
	}

	for _, line := range lines {
		if headingPattern.MatchString(line) && hasContent(current) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return sections
}

func hasContent(lines []string) bool {
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
