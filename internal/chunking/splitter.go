// Package chunking decomposes a document into parent chunks (one per markdown
// section) and overlapping child chunks used for similarity search.
package chunking

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"hierarag/internal/model"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 100

	MetadataParentID = "parent_id"
	MetadataSource   = "source"
)

// Document is raw ingested text plus the name of the file it came from.
type Document struct {
	Filename string
	Content  string
}

// Stem returns the filename without directory and extension.
func (d Document) Stem() string {
	base := filepath.Base(d.Filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Name returns the filename without directory.
func (d Document) Name() string {
	return filepath.Base(d.Filename)
}

// Splitter turns a Document into parent and child chunks.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	suffix       func() string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum child chunk size in characters.
func WithChunkSize(n int) Option {
	return func(s *Splitter) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithChunkOverlap sets the overlap between adjacent child chunks in characters.
func WithChunkOverlap(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.chunkOverlap = n
		}
	}
}

func NewSplitter(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		separators:   []string{"\n\n", "\n", " ", ""},
		suffix:       randomSuffix,
	}
	for _, o := range opts {
		o(s)
	}
	if s.chunkOverlap >= s.chunkSize {
		s.chunkOverlap = s.chunkSize / 2
	}
	return s
}

// Split partitions doc into parent chunks at header boundaries and each
// parent into overlapping child chunks. A document without headers becomes a
// single parent. Empty content yields nothing.
func (s *Splitter) Split(doc Document) ([]model.ParentChunk, []model.ChildChunk) {
	if doc.Content == "" {
		return nil, nil
	}

	sections := splitSections([]byte(doc.Content))
	if len(sections) == 0 {
		sections = []section{{content: doc.Content}}
	}

	stem := doc.Stem()
	source := doc.Name()

	parents := make([]model.ParentChunk, 0, len(sections))
	var children []model.ChildChunk
	for i, sec := range sections {
		parentID := fmt.Sprintf("%s_p%d_%s", stem, i, s.suffix())

		metadata := make(map[string]string, len(sec.headers)+2)
		for k, v := range sec.headers {
			metadata[k] = v
		}
		metadata[MetadataParentID] = parentID
		metadata[MetadataSource] = source

		parents = append(parents, model.ParentChunk{
			ParentID: parentID,
			Content:  sec.content,
			Source:   source,
			Metadata: metadata,
		})

		for j, text := range s.SplitText(sec.content) {
			children = append(children, model.ChildChunk{
				ParentID: parentID,
				Source:   source,
				Content:  text,
				Index:    j,
			})
		}
	}
	return parents, children
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
