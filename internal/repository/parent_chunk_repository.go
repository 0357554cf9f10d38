package repository

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hierarag/internal/model"
	"hierarag/internal/parentstore"
)

var _ parentstore.Store = (*ParentChunkRepository)(nil)

// ParentChunkRepository is the relational parent chunk store. Rows are keyed
// by the sanitized parent id, the same key the file store uses.
type ParentChunkRepository struct {
	db *gorm.DB
}

func NewParentChunkRepository(db *gorm.DB) *ParentChunkRepository {
	return &ParentChunkRepository{db: db}
}

func (r *ParentChunkRepository) Save(ctx context.Context, chunks []model.ParentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	records := make([]model.ParentChunkRecord, len(chunks))
	for i, c := range chunks {
		md := datatypes.JSONMap{}
		for k, v := range c.Metadata {
			md[k] = v
		}
		md["parent_id"] = c.ParentID
		md["source"] = c.Source
		records[i] = model.ParentChunkRecord{
			ID:       parentstore.Sanitize(c.ParentID),
			Content:  c.Content,
			Source:   c.Source,
			Metadata: md,
		}
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "source", "metadata", "updated_at"}),
		}).
		Create(&records).Error
	if err != nil {
		return fmt.Errorf("save parent chunks failed: %w", err)
	}
	return nil
}

// Load returns the stored chunks in request order, skipping unknown ids.
func (r *ParentChunkRepository) Load(ctx context.Context, parentIDs []string) ([]model.ParentChunk, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	keys := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		keys[i] = parentstore.Sanitize(id)
	}

	var records []model.ParentChunkRecord
	if err := r.db.WithContext(ctx).Where("id IN ?", keys).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("load parent chunks failed: %w", err)
	}
	byKey := make(map[string]model.ParentChunkRecord, len(records))
	for _, rec := range records {
		byKey[rec.ID] = rec
	}

	chunks := make([]model.ParentChunk, 0, len(keys))
	for _, key := range keys {
		rec, ok := byKey[key]
		if !ok {
			continue
		}
		chunk := model.ParentChunk{
			ParentID: rec.ID,
			Content:  rec.Content,
			Source:   rec.Source,
			Metadata: make(map[string]string, len(rec.Metadata)),
		}
		for k, v := range rec.Metadata {
			if s, ok := v.(string); ok {
				chunk.Metadata[k] = s
			}
		}
		if id := chunk.Metadata["parent_id"]; id != "" {
			chunk.ParentID = id
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (r *ParentChunkRepository) Delete(ctx context.Context, parentIDs []string) error {
	if len(parentIDs) == 0 {
		return nil
	}
	keys := make([]string, len(parentIDs))
	for i, id := range parentIDs {
		keys[i] = parentstore.Sanitize(id)
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", keys).Delete(&model.ParentChunkRecord{}).Error; err != nil {
		return fmt.Errorf("delete parent chunks failed: %w", err)
	}
	return nil
}
