package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hierarag/internal/model"
	"hierarag/internal/vectorindex"
)

var _ vectorindex.PointStore = (*VectorPointRepository)(nil)

// VectorPointRepository stores embedded child chunks in a relational table,
// partitioned by collection name.
type VectorPointRepository struct {
	db *gorm.DB
}

func NewVectorPointRepository(db *gorm.DB) *VectorPointRepository {
	return &VectorPointRepository{db: db}
}

func (r *VectorPointRepository) Add(ctx context.Context, collection string, points []vectorindex.Point) error {
	if len(points) == 0 {
		return nil
	}
	rows := make([]model.VectorPoint, len(points))
	for i, p := range points {
		rows[i] = model.VectorPoint{
			Collection: collection,
			PointKey:   p.Key,
			ParentID:   p.ParentID,
			Source:     p.Source,
			Content:    p.Content,
		}
		rows[i].SetEmbedding(p.Vector)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "point_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"parent_id", "source", "content", "embedding"}),
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert vector points failed: %w", err)
	}
	return nil
}

// List returns every point of the collection in insertion order.
func (r *VectorPointRepository) List(ctx context.Context, collection string) ([]vectorindex.Point, error) {
	var rows []model.VectorPoint
	if err := r.db.WithContext(ctx).Where("collection = ?", collection).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list vector points failed: %w", err)
	}
	points := make([]vectorindex.Point, len(rows))
	for i := range rows {
		points[i] = vectorindex.Point{
			Key:      rows[i].PointKey,
			ParentID: rows[i].ParentID,
			Source:   rows[i].Source,
			Content:  rows[i].Content,
			Vector:   rows[i].EmbeddingVector(),
		}
	}
	return points, nil
}

func (r *VectorPointRepository) DeleteByParentIDs(ctx context.Context, collection string, parentIDs []string) error {
	if len(parentIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Where("collection = ? AND parent_id IN ?", collection, parentIDs).
		Delete(&model.VectorPoint{}).Error
	if err != nil {
		return fmt.Errorf("delete vector points failed: %w", err)
	}
	return nil
}

// ParentIDs returns the distinct parent ids referenced by the collection.
func (r *VectorPointRepository) ParentIDs(ctx context.Context, collection string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.VectorPoint{}).
		Where("collection = ?", collection).
		Distinct().Pluck("parent_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list vector parent ids failed: %w", err)
	}
	return ids, nil
}
