package model

import (
	"encoding/json"
	"time"
)

// VectorPoint stores one child chunk and its embedding inside a named
// collection. Embedding is stored as JSON array of float32 for portability.
type VectorPoint struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Collection string    `gorm:"size:128;not null;uniqueIndex:idx_collection_point,priority:1" json:"collection"`
	PointKey   string    `gorm:"size:191;not null;uniqueIndex:idx_collection_point,priority:2" json:"point_key"`
	ParentID   string    `gorm:"size:191;not null;index" json:"parent_id"`
	Source     string    `gorm:"size:512" json:"source"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt  time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (p *VectorPoint) EmbeddingVector() []float32 {
	if p.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(p.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (p *VectorPoint) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		p.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	p.Embedding = string(b)
}
