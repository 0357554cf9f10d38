package vectorindex

import (
	"context"
	"sync"
)

var _ PointStore = (*MemoryStore)(nil)

// MemoryStore is an in-process PointStore. It is safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	points []Point
	byKey  map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: map[string]*memoryCollection{}}
}

func (s *MemoryStore) Add(_ context.Context, collection string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		c = &memoryCollection{byKey: map[string]int{}}
		s.collections[collection] = c
	}
	for _, p := range points {
		if pos, exists := c.byKey[p.Key]; exists {
			c.points[pos] = p
			continue
		}
		c.byKey[p.Key] = len(c.points)
		c.points = append(c.points, p)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, collection string) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out, nil
}

func (s *MemoryStore) DeleteByParentIDs(_ context.Context, collection string, parentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	drop := make(map[string]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		drop[id] = struct{}{}
	}
	kept := c.points[:0]
	c.byKey = map[string]int{}
	for _, p := range c.points {
		if _, ok := drop[p.ParentID]; ok {
			continue
		}
		c.byKey[p.Key] = len(kept)
		kept = append(kept, p)
	}
	c.points = kept
	return nil
}

func (s *MemoryStore) ParentIDs(_ context.Context, collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	seen := map[string]struct{}{}
	var ids []string
	for _, p := range c.points {
		if _, ok := seen[p.ParentID]; ok {
			continue
		}
		seen[p.ParentID] = struct{}{}
		ids = append(ids, p.ParentID)
	}
	return ids, nil
}
