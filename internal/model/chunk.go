package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chunk is an addressable slice of a document's extracted text and the unit of
// citation. SubjectID duplicates Document.SubjectID for single-table filtering;
// the ingestion path keeps the two equal.
type Chunk struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	DocumentID string    `gorm:"size:36;not null;uniqueIndex:idx_chunks_document_ordinal,priority:1" json:"document_id"`
	Document   *Document `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	SubjectID  string    `gorm:"size:36;not null;index" json:"subject_id"`
	Subject    *Subject  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	PageNumber *int      `json:"page_number"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:idx_chunks_document_ordinal,priority:2" json:"chunk_index"`
	CreatedAt  time.Time `json:"created_at"`
}

func (c *Chunk) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
