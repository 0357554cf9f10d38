package chunking

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSuffix(s *Splitter) {
	n := 0
	s.suffix = func() string {
		n++
		return fmt.Sprintf("%08x", n)
	}
}

func TestNewSplitter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := NewSplitter()
		assert.Equal(t, DefaultChunkSize, s.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, s.chunkOverlap)
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		s := NewSplitter(WithChunkSize(100), WithChunkOverlap(150))
		assert.Less(t, s.chunkOverlap, s.chunkSize)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		s := NewSplitter(WithChunkSize(0), WithChunkOverlap(-1))
		assert.Equal(t, DefaultChunkSize, s.chunkSize)
		assert.Equal(t, DefaultChunkOverlap, s.chunkOverlap)
	})
}

func TestDocumentStem(t *testing.T) {
	doc := Document{Filename: "uploads/report.final.pdf"}
	assert.Equal(t, "report.final", doc.Stem())
	assert.Equal(t, "report.final.pdf", doc.Name())
}

func TestSplitThreeSections(t *testing.T) {
	s := NewSplitter()
	fixedSuffix(s)

	text := "# Intro\n\nRAG combines retrieval with generation.\n\n" +
		"## Retrieval\n\nChildren are searched by similarity.\n\n" +
		"## Generation\n\nThe model answers from the retrieved context.\n"

	parents, children := s.Split(Document{Filename: "guide.md", Content: text})
	require.Len(t, parents, 3)
	require.Len(t, children, 3)

	assert.Equal(t, "guide_p0_00000001", parents[0].ParentID)
	assert.Equal(t, "RAG combines retrieval with generation.", parents[0].Content)
	assert.Equal(t, "Intro", parents[0].Metadata["Header 1"])
	assert.Equal(t, "Intro", parents[1].Metadata["Header 1"])
	assert.Equal(t, "Retrieval", parents[1].Metadata["Header 2"])
	assert.Equal(t, "Generation", parents[2].Metadata["Header 2"])

	for i, child := range children {
		assert.Equal(t, "guide.md", child.Source)
		assert.Equal(t, parents[i].ParentID, child.ParentID)
		assert.Equal(t, parents[i].ParentID, parents[i].Metadata[MetadataParentID])
		assert.Equal(t, "guide.md", parents[i].Metadata[MetadataSource])
	}
}

func TestSplitWithoutHeadersFallsBackToWholeDocument(t *testing.T) {
	s := NewSplitter()
	text := "plain text without any structure"

	parents, children := s.Split(Document{Filename: "notes.txt", Content: text})
	require.Len(t, parents, 1)
	require.Len(t, children, 1)
	assert.Equal(t, text, parents[0].Content)
	assert.True(t, strings.HasPrefix(parents[0].ParentID, "notes_p0_"))
	assert.Len(t, strings.TrimPrefix(parents[0].ParentID, "notes_p0_"), 8)
}

func TestSplitEmptyDocument(t *testing.T) {
	parents, children := NewSplitter().Split(Document{Filename: "empty.md"})
	assert.Empty(t, parents)
	assert.Empty(t, children)
}

func TestSplitWhitespaceDocumentHasNoChildren(t *testing.T) {
	parents, children := NewSplitter().Split(Document{Filename: "blank.md", Content: "   \n\n  "})
	assert.Len(t, parents, 1)
	assert.Empty(t, children)
}

func TestSplitIgnoresDeepAndFencedHeadings(t *testing.T) {
	s := NewSplitter()
	text := "# Top\n\nbody\n\n#### Deep\n\nstill top\n\n```\n# not a heading\n```\n"

	parents, _ := s.Split(Document{Filename: "a.md", Content: text})
	require.Len(t, parents, 1)
	assert.Contains(t, parents[0].Content, "#### Deep")
	assert.Contains(t, parents[0].Content, "# not a heading")
}

func TestSplitKeepsPreambleBeforeFirstHeading(t *testing.T) {
	s := NewSplitter()
	parents, _ := s.Split(Document{Filename: "a.md", Content: "preamble\n\n# One\n\nfirst"})
	require.Len(t, parents, 2)
	assert.Equal(t, "preamble", parents[0].Content)
	_, hasHeader := parents[0].Metadata["Header 1"]
	assert.False(t, hasHeader)
	assert.Equal(t, "first", parents[1].Content)
}

func TestSplitUniqueIDsAcrossRepeatedIngestion(t *testing.T) {
	s := NewSplitter()
	doc := Document{Filename: "same.md", Content: "# A\n\ntext"}
	first, _ := s.Split(doc)
	second, _ := s.Split(doc)
	assert.NotEqual(t, first[0].ParentID, second[0].ParentID)
}

func TestSplitTextOverlap(t *testing.T) {
	s := NewSplitter(WithChunkSize(100), WithChunkOverlap(20))

	var words []string
	for i := 0; i < 60; i++ {
		words = append(words, fmt.Sprintf("word%03d", i))
	}
	chunks := s.SplitText(strings.Join(words, " "))
	require.Greater(t, len(chunks), 2)

	for i, c := range chunks {
		assert.LessOrEqual(t, runeLen(c), 100)
		if i == 0 {
			continue
		}
		firstWord := strings.Fields(c)[0]
		assert.Contains(t, chunks[i-1], firstWord, "chunk %d should start inside the previous chunk", i)
	}
}

func TestSplitTextPrefersParagraphs(t *testing.T) {
	s := NewSplitter(WithChunkSize(40), WithChunkOverlap(0))
	chunks := s.SplitText("first paragraph here\n\nsecond paragraph here")
	assert.Equal(t, []string{"first paragraph here", "second paragraph here"}, chunks)
}

func TestSplitTextLongWordFallsBackToCharacters(t *testing.T) {
	s := NewSplitter(WithChunkSize(10), WithChunkOverlap(0))
	chunks := s.SplitText(strings.Repeat("x", 25))
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, chunks)
}

func TestSplitKeepSeparator(t *testing.T) {
	assert.Equal(t, []string{"a", " b", " c"}, splitKeepSeparator("a b c", " "))
	assert.Equal(t, []string{"가", "나"}, splitKeepSeparator("가나", ""))
}
