package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	SubjectID   string    `gorm:"size:36;not null;index" json:"subject_id"`
	Subject     *Subject  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	StoragePath string    `gorm:"size:512;not null" json:"storage_path"`
	FileSize    int64     `gorm:"not null;default:0" json:"file_size"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Document) BeforeCreate(_ *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
