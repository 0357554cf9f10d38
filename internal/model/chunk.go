package model

// ParentChunk is a structurally coherent section of a document, stored whole
// so the agent can expand a matched child back to its full context.
type ParentChunk struct {
	ParentID string            `json:"parent_id"`
	Content  string            `json:"content"`
	Source   string            `json:"source"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ChildChunk is a bounded slice of a parent chunk and the unit of similarity
// search. ParentID is a non-owning back-reference.
type ChildChunk struct {
	ParentID string `json:"parent_id"`
	Source   string `json:"source"`
	Content  string `json:"content"`
	Index    int    `json:"index"`
}

const (
	previewRunes  = 100
	previewSuffix = "..."
)

// Source is a single attribution entry returned alongside an answer.
// Page is always 0, page-level attribution is not tracked.
type Source struct {
	Source  string `json:"source"`
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// NewSource builds an attribution entry with a truncated content preview.
func NewSource(source, content string) Source {
	return Source{
		Source:  source,
		Page:    0,
		Content: Preview(content),
	}
}

// Preview returns the first 100 runes of content followed by "...".
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewRunes {
		runes = runes[:previewRunes]
	}
	return string(runes) + previewSuffix
}
