// Package vectorindex provides similarity search over embedded child chunks.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"hierarag/internal/model"
)

const defaultBatchSize = 10 // DashScope and similar APIs often limit batch size

var (
	ErrEmptyQuery        = errors.New("search query is empty")
	ErrEmbeddingMismatch = errors.New("embedding count mismatch")
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Point is one stored child chunk with its embedding.
type Point struct {
	Key      string
	ParentID string
	Source   string
	Content  string
	Vector   []float32
}

// PointStore persists points per collection. List must return points in
// insertion order; re-adding an existing key replaces it in place.
type PointStore interface {
	Add(ctx context.Context, collection string, points []Point) error
	List(ctx context.Context, collection string) ([]Point, error)
	DeleteByParentIDs(ctx context.Context, collection string, parentIDs []string) error
	ParentIDs(ctx context.Context, collection string) ([]string, error)
}

// Hit is a search result.
type Hit struct {
	Content  string  `json:"content"`
	ParentID string  `json:"parent_id"`
	Source   string  `json:"source"`
	Score    float32 `json:"score"`
}

type Index struct {
	embedder   Embedder
	store      PointStore
	collection string
	batchSize  int
}

type Option func(*Index)

// WithBatchSize sets how many chunks are sent per embedding request.
func WithBatchSize(n int) Option {
	return func(i *Index) {
		if n > 0 {
			i.batchSize = n
		}
	}
}

func New(embedder Embedder, store PointStore, collection string, opts ...Option) *Index {
	idx := &Index{
		embedder:   embedder,
		store:      store,
		collection: collection,
		batchSize:  defaultBatchSize,
	}
	for _, o := range opts {
		o(idx)
	}
	return idx
}

func (i *Index) Collection() string {
	return i.collection
}

// Upsert embeds chunks in batches and stores them with their parent_id and
// source metadata.
func (i *Index) Upsert(ctx context.Context, chunks []model.ChildChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for j, c := range chunks {
		texts[j] = c.Content
	}

	var vectors [][]float32
	for start := 0; start < len(texts); start += i.batchSize {
		end := min(start+i.batchSize, len(texts))
		batch, err := i.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		if len(batch) != end-start {
			return fmt.Errorf("%w: want %d, got %d", ErrEmbeddingMismatch, end-start, len(batch))
		}
		vectors = append(vectors, batch...)
	}

	points := make([]Point, len(chunks))
	for j, c := range chunks {
		points[j] = Point{
			Key:      pointKey(c),
			ParentID: c.ParentID,
			Source:   c.Source,
			Content:  c.Content,
			Vector:   vectors[j],
		}
	}
	return i.store.Add(ctx, i.collection, points)
}

// Search returns at most k hits ordered by descending cosine similarity.
// Equal scores keep insertion order.
func (i *Index) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if k <= 0 {
		return nil, nil
	}
	vecs, err := i.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: want 1, got %d", ErrEmbeddingMismatch, len(vecs))
	}

	points, err := i.store.List(ctx, i.collection)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(points))
	for j, p := range points {
		hits[j] = Hit{
			Content:  p.Content,
			ParentID: p.ParentID,
			Source:   p.Source,
			Score:    cosineSimilarity(vecs[0], p.Vector),
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func (i *Index) DeleteByParentIDs(ctx context.Context, parentIDs []string) error {
	return i.store.DeleteByParentIDs(ctx, i.collection, parentIDs)
}

// ParentIDs lists the distinct parent ids referenced by indexed chunks.
func (i *Index) ParentIDs(ctx context.Context) ([]string, error) {
	return i.store.ParentIDs(ctx, i.collection)
}

func pointKey(c model.ChildChunk) string {
	return c.ParentID + "#" + strconv.Itoa(c.Index)
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
