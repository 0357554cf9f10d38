package parentstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"hierarag/internal/model"
)

// FileStore keeps one JSON document per parent chunk under dir, named
// <sanitized id>.json.
type FileStore struct {
	dir string
}

type fileRecord struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create parent store dir failed: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, chunks []model.ParentChunk) error {
	for _, chunk := range chunks {
		payload, err := json.MarshalIndent(fileRecord{
			PageContent: chunk.Content,
			Metadata:    metadataFor(chunk),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal parent chunk failed: %w", err)
		}
		if err := s.writeAtomic(s.path(chunk.ParentID), payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Load(_ context.Context, parentIDs []string) ([]model.ParentChunk, error) {
	chunks := make([]model.ParentChunk, 0, len(parentIDs))
	for _, id := range parentIDs {
		raw, err := os.ReadFile(s.path(id))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read parent chunk failed: %w", err)
		}
		var rec fileRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("parse parent chunk %q failed: %w", id, err)
		}
		chunks = append(chunks, chunkFrom(rec.PageContent, rec.Metadata))
	}
	return chunks, nil
}

func (s *FileStore) Delete(_ context.Context, parentIDs []string) error {
	for _, id := range parentIDs {
		if err := os.Remove(s.path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete parent chunk failed: %w", err)
		}
	}
	return nil
}

func (s *FileStore) path(parentID string) string {
	return filepath.Join(s.dir, Sanitize(parentID)+".json")
}

// writeAtomic writes through a temp file and a rename so concurrent readers
// never observe a partially written record.
func (s *FileStore) writeAtomic(path string, payload []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".parent-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp parent chunk failed: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write parent chunk failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close parent chunk failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename parent chunk failed: %w", err)
	}
	return nil
}
