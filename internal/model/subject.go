package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subject is the isolation boundary for documents, chunks and chat messages.
// DocumentCount is denormalized and recomputed after every upload.
type Subject struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Name          string    `gorm:"size:128;not null" json:"name"`
	SessionID     string    `gorm:"size:64;not null;index" json:"session_id"`
	DocumentCount int       `gorm:"not null;default:0" json:"document_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *Subject) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
