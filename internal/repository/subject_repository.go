package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"notewise/internal/model"
)

// ErrSubjectLimitReached is returned by CreateWithinLimit when the session
// already owns the maximum number of subjects.
var ErrSubjectLimitReached = errors.New("subject limit reached")

type SubjectRepository struct {
	db *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	if err := r.db.WithContext(ctx).Create(subject).Error; err != nil {
		return fmt.Errorf("create subject failed: %w", err)
	}
	return nil
}

// CreateWithinLimit counts the session's subjects and inserts the new one in
// a single transaction. The session's rows are locked while counting so that
// concurrent creates cannot both pass the check. Postgres does not take gap
// locks, so an advisory lock keyed by the session serializes the empty case.
// SQLite runs on one connection and is already serialized.
func (r *SubjectRepository) CreateWithinLimit(ctx context.Context, subject *model.Subject, limit int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch tx.Dialector.Name() {
		case "postgres":
			if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", subject.SessionID).Error; err != nil {
				return err
			}
		case "sqlite":
		default:
			tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var ids []string
		if err := tx.Model(&model.Subject{}).
			Where("session_id = ?", subject.SessionID).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) >= limit {
			return ErrSubjectLimitReached
		}
		return tx.Session(&gorm.Session{NewDB: true}).Create(subject).Error
	})
	if errors.Is(err, ErrSubjectLimitReached) {
		return err
	}
	if err != nil {
		return fmt.Errorf("create subject failed: %w", err)
	}
	return nil
}

func (r *SubjectRepository) ListBySessionID(ctx context.Context, sessionID string) ([]model.Subject, error) {
	var list []model.Subject
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list subjects failed: %w", err)
	}
	return list, nil
}

func (r *SubjectRepository) CountBySessionID(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Subject{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count subjects failed: %w", err)
	}
	return count, nil
}

// GetByID returns nil, nil when the subject does not exist.
func (r *SubjectRepository) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject failed: %w", err)
	}
	return &subject, nil
}

// GetByIDAndSessionID returns nil, nil when the subject does not exist or is
// owned by another session.
func (r *SubjectRepository) GetByIDAndSessionID(ctx context.Context, id, sessionID string) (*model.Subject, error) {
	var subject model.Subject
	if err := r.db.WithContext(ctx).Where("id = ? AND session_id = ?", id, sessionID).First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject failed: %w", err)
	}
	return &subject, nil
}

// RefreshDocumentCount recomputes the denormalized document count from the
// documents table.
func (r *SubjectRepository) RefreshDocumentCount(ctx context.Context, id string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Document{}).Where("subject_id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&model.Subject{}).Where("id = ?", id).Update("document_count", count).Error
	})
	if err != nil {
		return 0, fmt.Errorf("refresh subject document count failed: %w", err)
	}
	return int(count), nil
}

// DeleteCascade removes the subject and everything it owns in one transaction.
// The foreign keys also cascade; deleting children explicitly keeps stores that
// do not enforce foreign keys consistent.
func (r *SubjectRepository) DeleteCascade(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", id).Delete(&model.Chunk{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_id = ?", id).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.Subject{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete subject failed: %w", err)
	}
	return nil
}
