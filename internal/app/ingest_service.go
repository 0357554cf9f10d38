package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hierarag/internal/chunking"
	"hierarag/internal/journal"
	"hierarag/internal/model"
	"hierarag/internal/parentstore"
)

// ChunkIndex is the part of the vector index ingestion writes to.
type ChunkIndex interface {
	Upsert(ctx context.Context, chunks []model.ChildChunk) error
	DeleteByParentIDs(ctx context.Context, parentIDs []string) error
	ParentIDs(ctx context.Context) ([]string, error)
}

type IngestService struct {
	splitter *chunking.Splitter
	parents  parentstore.Store
	index    ChunkIndex
	journal  journal.Journal
	logger   *slog.Logger
}

func NewIngestService(
	splitter *chunking.Splitter,
	parents parentstore.Store,
	index ChunkIndex,
	j journal.Journal,
	logger *slog.Logger,
) *IngestService {
	if j == nil {
		j = journal.NewMemoryJournal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		splitter: splitter,
		parents:  parents,
		index:    index,
		journal:  j,
		logger:   logger,
	}
}

// IngestInput is one document to ingest.
type IngestInput struct {
	Filename string
	Content  string
}

// IngestResult mirrors the ingestion reply of the HTTP API.
type IngestResult struct {
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
	Parents     int    `json:"parents"`
}

// Ingest splits the document, saves its parents and then indexes its
// children. The journal entry written first is cleared only when both stores
// succeeded; if indexing fails the saved parents are deleted again.
func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	filename := strings.TrimSpace(input.Filename)
	if filename == "" {
		return nil, ErrInvalidInput
	}

	doc := chunking.Document{Filename: filename, Content: input.Content}
	parents, children := s.splitter.Split(doc)
	result := &IngestResult{Filename: doc.Name()}
	if len(children) == 0 {
		s.logger.Info("document produced no chunks", "filename", result.Filename)
		return result, nil
	}

	parentIDs := make([]string, len(parents))
	for i, p := range parents {
		parentIDs[i] = p.ParentID
	}
	entry := journal.Entry{
		ID:        uuid.NewString(),
		Source:    result.Filename,
		ParentIDs: parentIDs,
		StartedAt: time.Now().UTC(),
	}
	if err := s.journal.Begin(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	if err := s.parents.Save(ctx, parents); err != nil {
		s.compensate(ctx, entry, false)
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}
	if err := s.index.Upsert(ctx, children); err != nil {
		s.compensate(ctx, entry, true)
		return nil, fmt.Errorf("%w: %w", ErrIngestion, err)
	}

	if err := s.journal.Commit(ctx, entry.ID); err != nil {
		// Both stores are consistent; the stale entry only shows up in Pending.
		s.logger.Warn("commit ingest journal failed", "id", entry.ID, "error", err)
	}

	result.ChunksCount = len(children)
	result.Parents = len(parents)
	s.logger.Info("document ingested", "filename", result.Filename, "parents", result.Parents, "chunks", result.ChunksCount)
	return result, nil
}

// compensate removes whatever this ingestion may have written. The journal
// entry is committed only if every delete succeeded.
func (s *IngestService) compensate(ctx context.Context, entry journal.Entry, indexTouched bool) {
	ctx = context.WithoutCancel(ctx)
	ok := true
	if indexTouched {
		if err := s.index.DeleteByParentIDs(ctx, entry.ParentIDs); err != nil {
			s.logger.Error("compensate vector index failed", "id", entry.ID, "error", err)
			ok = false
		}
	}
	if err := s.parents.Delete(ctx, entry.ParentIDs); err != nil {
		s.logger.Error("compensate parent store failed", "id", entry.ID, "error", err)
		ok = false
	}
	if !ok {
		return
	}
	if err := s.journal.Commit(ctx, entry.ID); err != nil {
		s.logger.Warn("commit ingest journal failed", "id", entry.ID, "error", err)
	}
}

// ConsistencyReport lists detectable breaks of the child to parent link.
type ConsistencyReport struct {
	Pending         []journal.Entry `json:"pending"`
	DanglingParents []string        `json:"dangling_parents"`
}

// CheckConsistency reports uncommitted ingestions and indexed parent ids
// that no longer resolve in the parent store.
func (s *IngestService) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	pending, err := s.journal.Pending(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.index.ParentIDs(ctx)
	if err != nil {
		return nil, err
	}
	found, err := s.parents.Load(ctx, ids)
	if err != nil {
		return nil, err
	}
	resolved := make(map[string]struct{}, len(found))
	for _, p := range found {
		resolved[p.ParentID] = struct{}{}
	}

	report := &ConsistencyReport{Pending: pending, DanglingParents: []string{}}
	for _, id := range ids {
		if _, ok := resolved[id]; !ok {
			report.DanglingParents = append(report.DanglingParents, id)
		}
	}
	return report, nil
}

// PendingCount returns the number of uncommitted ingestions.
func (s *IngestService) PendingCount(ctx context.Context) (int, error) {
	pending, err := s.journal.Pending(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}
