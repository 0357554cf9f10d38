// Package parentstore persists parent chunks keyed by their sanitized id.
package parentstore

import (
	"context"
	"strings"
	"unicode"

	"hierarag/internal/model"
)

// Store is the parent chunk store contract. Load skips ids that have no
// record, so a shorter result is partial data, not an error.
type Store interface {
	Save(ctx context.Context, chunks []model.ParentChunk) error
	Load(ctx context.Context, parentIDs []string) ([]model.ParentChunk, error)
	Delete(ctx context.Context, parentIDs []string) error
}

// Sanitize strips every character that is not a letter, digit, '-' or '_'.
func Sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' || r == '_' {
			return r
		}
		return -1
	}, id)
}

func metadataFor(chunk model.ParentChunk) map[string]any {
	md := make(map[string]any, len(chunk.Metadata)+2)
	for k, v := range chunk.Metadata {
		md[k] = v
	}
	md["parent_id"] = chunk.ParentID
	md["source"] = chunk.Source
	return md
}

func chunkFrom(content string, md map[string]any) model.ParentChunk {
	chunk := model.ParentChunk{
		Content:  content,
		Metadata: make(map[string]string, len(md)),
	}
	for k, v := range md {
		s, ok := v.(string)
		if !ok {
			continue
		}
		chunk.Metadata[k] = s
	}
	chunk.ParentID = chunk.Metadata["parent_id"]
	chunk.Source = chunk.Metadata["source"]
	return chunk
}
