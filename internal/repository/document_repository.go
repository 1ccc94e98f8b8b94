package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notewise/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// GetByID returns nil, nil when the document does not exist.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListBySubjectID(ctx context.Context, subjectID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.WithContext(ctx).Where("subject_id = ?", subjectID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// FilenamesByIDs maps document id to filename. Missing ids are simply absent.
func (r *DocumentRepository) FilenamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		ID       string
		Filename string
	}
	if err := r.db.WithContext(ctx).Model(&model.Document{}).Select("id, filename").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list document filenames failed: %w", err)
	}
	for _, row := range rows {
		out[row.ID] = row.Filename
	}
	return out, nil
}
