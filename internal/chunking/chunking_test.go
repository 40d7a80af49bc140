package chunking

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoSections_HeadingBoundaries(t *testing.T) {
	text := "# Intro\nFirst paragraph.\n## Details\nSecond paragraph.\n### Deep\nThird."

	sections := SplitIntoSections(text)

	require.Len(t, sections, 3)
	assert.True(t, strings.HasPrefix(sections[0], "# Intro"))
	assert.True(t, strings.HasPrefix(sections[1], "## Details"))
	assert.True(t, strings.HasPrefix(sections[2], "### Deep"))
}

func TestSplitIntoSections_ChapterBoundaries(t *testing.T) {
	text := "Chapter 1 Basics\nsome text\nChapter 2 Advanced\nmore text"

	sections := SplitIntoSections(text)

	require.Len(t, sections, 2)
	assert.Contains(t, sections[0], "Basics")
	assert.Contains(t, sections[1], "Advanced")
}

func TestSplitIntoSections_NoEmptyLeadingSection(t *testing.T) {
	// A document starting with a heading must not yield an empty first
	// section.
	sections := SplitIntoSections("# Title\nbody")

	require.Len(t, sections, 1)
	assert.Contains(t, sections[0], "body")
}

func TestSplitIntoSections_NoHeadings(t *testing.T) {
	sections := SplitIntoSections("just plain text\nacross two lines")

	require.Len(t, sections, 1)
}

func TestSplitIntoSections_WhitespaceOnly(t *testing.T) {
	assert.Empty(t, SplitIntoSections("   \n\t\n  "))
}

func TestSplitLongSection_ShortTextSingleWindow(t *testing.T) {
	s := New()

	windows := s.SplitLongSection("short text")

	require.Len(t, windows, 1)
	assert.Equal(t, "short text", windows[0])
}

func TestSplitLongSection_WindowSizeAndOverlap(t *testing.T) {
	s := New(WithMaxChars(100), WithOverlap(20))
	text := strings.Repeat("a", 250)

	windows := s.SplitLongSection(text)

	require.GreaterOrEqual(t, len(windows), 2)
	for _, w := range windows {
		assert.LessOrEqual(t, len(w), 100)
	}
	// Consecutive windows share the overlap.
	assert.Equal(t, windows[0][80:], windows[1][:20])
	// Reassembling with overlap removed reproduces the input.
	var rebuilt strings.Builder
	rebuilt.WriteString(windows[0])
	for _, w := range windows[1:] {
		rebuilt.WriteString(w[20:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestSplitLongSection_SnapsToParagraphBreak(t *testing.T) {
	s := New(WithMaxChars(100), WithOverlap(10))
	// Paragraph break at offset 70, past the window midpoint (50).
	text := strings.Repeat("a", 70) + "\n\n" + strings.Repeat("b", 100)

	windows := s.SplitLongSection(text)

	require.GreaterOrEqual(t, len(windows), 2)
	assert.Equal(t, strings.Repeat("a", 70)+"\n\n", windows[0])
}

func TestSplitLongSection_IgnoresEarlyParagraphBreak(t *testing.T) {
	s := New(WithMaxChars(100), WithOverlap(10))
	// Break at offset 20 is before the midpoint, so the split stays at
	// the raw window edge.
	text := strings.Repeat("a", 20) + "\n\n" + strings.Repeat("b", 200)

	windows := s.SplitLongSection(text)

	require.GreaterOrEqual(t, len(windows), 2)
	assert.Len(t, windows[0], 100)
}

func TestSplitLongSection_ForwardProgressWithLargeOverlap(t *testing.T) {
	// overlap >= maxChars must still terminate.
	s := New(WithMaxChars(10), WithOverlap(50))
	text := strings.Repeat("x", 45)

	windows := s.SplitLongSection(text)

	assert.NotEmpty(t, windows)
	assert.Equal(t, text[len(text)-1:], windows[len(windows)-1][len(windows[len(windows)-1])-1:])
}

func TestSplitLongSection_Empty(t *testing.T) {
	assert.Nil(t, New().SplitLongSection(""))
}

func TestBuildChunksFromText_OrdinalIDs(t *testing.T) {
	s := New(WithMaxChars(50), WithOverlap(5))
	in := ChunkInput{
		Text:       "# One\n" + strings.Repeat("a", 80) + "\n# Two\nshort",
		Prefix:     "note:cardio.md",
		SourceName: "cardio.md",
		SourcePath: "/notes/cardio.md",
	}

	chunks := s.BuildChunksFromText(in)

	require.GreaterOrEqual(t, len(chunks), 3)
	for i, c := range chunks {
		assert.Equal(t, "note:cardio.md:"+strconv.Itoa(i+1), c.ID)
		assert.Equal(t, "cardio.md", c.SourceName)
		assert.Equal(t, "/notes/cardio.md", c.SourcePath)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
	}
}

func TestBuildChunksFromText_Deterministic(t *testing.T) {
	s := New()
	in := ChunkInput{Text: "# A\nalpha\n# B\nbeta", Prefix: "note:x"}

	first := s.BuildChunksFromText(in)
	second := s.BuildChunksFromText(in)

	assert.Equal(t, first, second)
}

func TestBuildChunksFromPages_PartResetsPerPage(t *testing.T) {
	s := New()
	pages := []Page{
		{Number: 1, Text: "slide one text"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "slide three text"},
	}

	chunks := s.BuildChunksFromPages("deck.pdf", "deck.pdf", "/slides/deck.pdf", pages)

	require.Len(t, chunks, 2)
	assert.Equal(t, "slide:deck.pdf:p1:1", chunks[0].ID)
	assert.Equal(t, "slide:deck.pdf:p3:1", chunks[1].ID)
}
