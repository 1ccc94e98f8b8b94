package app

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"notewise/internal/model"
	"notewise/internal/platform/logger"
	"notewise/internal/repository"
)

const maxSubjectNameLen = 100

type SubjectService struct {
	subjectRepo  *repository.SubjectRepository
	files        FileStore
	historyCache HistoryCache
	maxSubjects  int
	log          *logger.Logger
}

func NewSubjectService(
	subjectRepo *repository.SubjectRepository,
	files FileStore,
	historyCache HistoryCache,
	maxSubjects int,
	log *logger.Logger,
) *SubjectService {
	if maxSubjects <= 0 {
		maxSubjects = 3
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SubjectService{
		subjectRepo:  subjectRepo,
		files:        files,
		historyCache: historyCache,
		maxSubjects:  maxSubjects,
		log:          log,
	}
}

func (s *SubjectService) Create(ctx context.Context, sessionID, name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	if sessionID == "" || name == "" || utf8.RuneCountInString(name) > maxSubjectNameLen {
		return nil, ErrInvalidInput
	}

	subject := &model.Subject{Name: name, SessionID: sessionID}
	if err := s.subjectRepo.CreateWithinLimit(ctx, subject, s.maxSubjects); err != nil {
		if errors.Is(err, repository.ErrSubjectLimitReached) {
			return nil, ErrSubjectLimit
		}
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) List(ctx context.Context, sessionID string) ([]model.Subject, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.subjectRepo.ListBySessionID(ctx, sessionID)
}

// Delete removes the subject with its documents, chunks and messages. Stored
// files and cached history are cleaned up best-effort afterwards.
func (s *SubjectService) Delete(ctx context.Context, sessionID, subjectID string) error {
	if sessionID == "" || subjectID == "" {
		return ErrInvalidInput
	}
	subject, err := s.subjectRepo.GetByIDAndSessionID(ctx, subjectID, sessionID)
	if err != nil {
		return err
	}
	if subject == nil {
		return ErrSubjectNotFound
	}
	if err := s.subjectRepo.DeleteCascade(ctx, subject.ID); err != nil {
		return err
	}

	if s.files != nil {
		if err := s.files.DeleteSubject(ctx, subject.ID); err != nil {
			s.log.Warn("delete subject files failed", "subject_id", subject.ID, "error", err)
		}
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, subject.ID); err != nil {
			s.log.Warn("delete subject history cache failed", "subject_id", subject.ID, "error", err)
		}
	}
	return nil
}
