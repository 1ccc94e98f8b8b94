package app

import (
	"context"

	"notewise/internal/ai"
	"notewise/internal/model"
)

// Generator is the generation capability.
type Generator interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
}

// ChatLog appends turns to a subject's message log.
type ChatLog interface {
	Append(ctx context.Context, msg model.ChatMessage) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, subjectID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, subjectID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, subjectID string) error
	Invalidate(ctx context.Context, subjectID string) error
	IsDirty(ctx context.Context, subjectID string) (bool, error)
}

type FileStore interface {
	Save(ctx context.Context, subjectID, filename string, data []byte) (string, error)
	Read(ctx context.Context, locator string) ([]byte, error)
	DeleteSubject(ctx context.Context, subjectID string) error
}

type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) string
}

// DocumentDispatcher hands a stored document to the processing pipeline.
type DocumentDispatcher interface {
	Dispatch(ctx context.Context, job model.DocumentJob) error
}

// Detacher runs side effects that must not block or fail the caller. The task
// context outlives the request.
type Detacher interface {
	Go(ctx context.Context, name string, task func(ctx context.Context) error)
}
