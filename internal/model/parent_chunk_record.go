package model

import (
	"time"

	"gorm.io/datatypes"
)

// ParentChunkRecord is the relational form of a parent chunk, keyed by the
// sanitized parent id.
type ParentChunkRecord struct {
	ID        string            `gorm:"primaryKey;size:191" json:"id"`
	Content   string            `gorm:"type:text;not null" json:"page_content"`
	Source    string            `gorm:"size:512;index" json:"source"`
	Metadata  datatypes.JSONMap `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (ParentChunkRecord) TableName() string {
	return "parent_chunks"
}
