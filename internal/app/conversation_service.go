package app

import (
	"context"

	"notewise/internal/model"
	"notewise/internal/repository"
)

const (
	defaultHistoryLimit = 50
	historyCacheDepth   = 200
)

// ConversationService serves a subject's message log, preferring the cache
// while no write is pending.
type ConversationService struct {
	subjectRepo  *repository.SubjectRepository
	messageRepo  *repository.ChatMessageRepository
	historyCache HistoryCache
}

func NewConversationService(
	subjectRepo *repository.SubjectRepository,
	messageRepo *repository.ChatMessageRepository,
	historyCache HistoryCache,
) *ConversationService {
	return &ConversationService{
		subjectRepo:  subjectRepo,
		messageRepo:  messageRepo,
		historyCache: historyCache,
	}
}

func (s *ConversationService) History(ctx context.Context, sessionID, subjectID string, limit int) ([]model.ChatMessage, error) {
	if subjectID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	subject, err := resolveSubject(ctx, s.subjectRepo, sessionID, subjectID)
	if err != nil {
		return nil, err
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, subject.ID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, subject.ID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListRecentBySubjectID(ctx, subject.ID, historyCacheDepth)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, subject.ID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, subject.ID, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
