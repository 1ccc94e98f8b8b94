package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"notewise/internal/model"
)

var (
	// ErrDocumentVanished means the owning document was deleted while its
	// chunks were being produced.
	ErrDocumentVanished = errors.New("document no longer exists")
	// ErrSubjectMismatch means the chunk's subject differs from its document's.
	ErrSubjectMismatch = errors.New("chunk subject does not match document subject")
)

const chunkInsertBatchSize = 100

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// CreateForDocument replaces the chunks of one document. The document row is
// re-read inside the transaction immediately before the insert so a concurrent
// deletion aborts the write instead of leaving orphans.
func (r *ChunkRepository) CreateForDocument(ctx context.Context, documentID, subjectID string, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc model.Document
		if err := tx.Select("id, subject_id").Where("id = ?", documentID).First(&doc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDocumentVanished
			}
			return fmt.Errorf("check document failed: %w", err)
		}
		if doc.SubjectID != subjectID {
			return ErrSubjectMismatch
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error; err != nil {
			return fmt.Errorf("clear previous chunks failed: %w", err)
		}
		for i := range chunks {
			chunks[i].DocumentID = documentID
			chunks[i].SubjectID = subjectID
		}
		if err := tx.CreateInBatches(&chunks, chunkInsertBatchSize).Error; err != nil {
			return fmt.Errorf("create chunks batch failed: %w", err)
		}
		return nil
	})
}

// ListBySubjectID returns every chunk of the subject in reconstruction order:
// documents by upload time, then chunk ordinal.
func (r *ChunkRepository) ListBySubjectID(ctx context.Context, subjectID string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).
		Select("chunks.*").
		Joins("JOIN documents ON documents.id = chunks.document_id").
		Where("chunks.subject_id = ?", subjectID).
		Order("documents.created_at ASC").
		Order("chunks.document_id ASC").
		Order("chunks.chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("list chunks by subject failed: %w", err)
	}
	return chunks, nil
}

// CountByDocument maps document id to its chunk count for one subject.
func (r *ChunkRepository) CountByDocument(ctx context.Context, subjectID string) (map[string]int, error) {
	var rows []struct {
		DocumentID string
		Total      int
	}
	err := r.db.WithContext(ctx).Model(&model.Chunk{}).
		Select("document_id, COUNT(*) AS total").
		Where("subject_id = ?", subjectID).
		Group("document_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count chunks by document failed: %w", err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.DocumentID] = row.Total
	}
	return out, nil
}
