// Package journal records in-flight ingestions so a crash between the parent
// store write and the vector upsert leaves a detectable trace.
package journal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Entry describes one ingestion that has started but not committed.
type Entry struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	ParentIDs []string  `json:"parent_ids"`
	StartedAt time.Time `json:"started_at"`
}

type Journal interface {
	Begin(ctx context.Context, entry Entry) error
	Commit(ctx context.Context, id string) error
	Pending(ctx context.Context) ([]Entry, error)
}

// MemoryJournal keeps entries in process. Used when Redis is not configured.
type MemoryJournal struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: make(map[string]Entry)}
}

func (j *MemoryJournal) Begin(_ context.Context, entry Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[entry.ID] = entry
	return nil
}

func (j *MemoryJournal) Commit(_ context.Context, id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.entries, id)
	return nil
}

func (j *MemoryJournal) Pending(_ context.Context) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].StartedAt.Equal(entries[b].StartedAt) {
			return entries[a].ID < entries[b].ID
		}
		return entries[a].StartedAt.Before(entries[b].StartedAt)
	})
}
