package persistence

import (
	"time"

	"gorm.io/datatypes"
)

// DocumentModel is one schemaless record of a named collection.
type DocumentModel struct {
	ID         string         `gorm:"type:uuid;primaryKey"`
	Collection string         `gorm:"type:varchar(64);not null;index:idx_documents_collection_created,priority:1"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time      `gorm:"not null;index:idx_documents_collection_created,priority:2"`
	UpdatedAt  time.Time      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentModel) TableName() string {
	return "documents"
}
