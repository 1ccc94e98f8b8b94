package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"notewise/internal/ai"
	"notewise/internal/model"
	"notewise/internal/platform/database"
	"notewise/internal/repository"
)

type testEnv struct {
	db        *gorm.DB
	subjects  *repository.SubjectRepository
	documents *repository.DocumentRepository
	chunks    *repository.ChunkRepository
	messages  *repository.ChatMessageRepository
	assembler *ContextAssembler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(context.Background(), "sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	env := &testEnv{
		db:        db,
		subjects:  repository.NewSubjectRepository(db),
		documents: repository.NewDocumentRepository(db),
		chunks:    repository.NewChunkRepository(db),
		messages:  repository.NewChatMessageRepository(db),
	}
	env.assembler = NewContextAssembler(env.chunks, env.documents)
	return env
}

func (e *testEnv) subject(t *testing.T, name string) *model.Subject {
	t.Helper()
	s := &model.Subject{Name: name, SessionID: "session-1"}
	require.NoError(t, e.subjects.Create(context.Background(), s))
	return s
}

func (e *testEnv) document(t *testing.T, subjectID, filename string, contents ...string) *model.Document {
	t.Helper()
	ctx := context.Background()
	// documents are ordered by creation time
	time.Sleep(2 * time.Millisecond)
	doc := &model.Document{SubjectID: subjectID, Filename: filename, StoragePath: subjectID + "/" + filename}
	require.NoError(t, e.documents.Create(ctx, doc))
	chunks := make([]model.Chunk, len(contents))
	for i, c := range contents {
		page := i + 1
		chunks[i] = model.Chunk{Content: c, ChunkIndex: i, PageNumber: &page}
	}
	if len(chunks) > 0 {
		require.NoError(t, e.chunks.CreateForDocument(ctx, doc.ID, subjectID, chunks))
	}
	return doc
}

type fakeGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	requests []ai.CompletionRequest
}

func (f *fakeGenerator) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeChatLog struct {
	mu       sync.Mutex
	messages []model.ChatMessage
	err      error
}

func (f *fakeChatLog) Append(_ context.Context, msg model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChatLog) all() []model.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.messages...)
}

// syncDetacher runs tasks inline and records their errors.
type syncDetacher struct {
	mu     sync.Mutex
	names  []string
	errors []error
}

func (d *syncDetacher) Go(ctx context.Context, name string, task func(ctx context.Context) error) {
	err := task(context.WithoutCancel(ctx))
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names = append(d.names, name)
	if err != nil {
		d.errors = append(d.errors, err)
	}
}

type memoryFiles struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{data: map[string][]byte{}}
}

func (m *memoryFiles) Save(_ context.Context, subjectID, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	locator := subjectID + "/" + filename
	m.data[locator] = append([]byte(nil), data...)
	return locator, nil
}

func (m *memoryFiles) Read(_ context.Context, locator string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[locator]
	if !ok {
		return nil, errors.New("no such file")
	}
	return data, nil
}

func (m *memoryFiles) DeleteSubject(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, subjectID)
	return nil
}

type fakeDispatcher struct {
	mu   sync.Mutex
	jobs []model.DocumentJob
}

func (f *fakeDispatcher) Dispatch(_ context.Context, job model.DocumentJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeHistoryCache struct {
	mu          sync.Mutex
	history     map[string][]model.ChatMessage
	dirty       map[string]bool
	invalidated []string
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{history: map[string][]model.ChatMessage{}, dirty: map[string]bool{}}
}

func (f *fakeHistoryCache) GetHistory(_ context.Context, id string) ([]model.ChatMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.history[id]
	return h, ok, nil
}

func (f *fakeHistoryCache) SetHistory(_ context.Context, id string, messages []model.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[id] = messages
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.history, id)
	delete(f.dirty, id)
	return nil
}

func (f *fakeHistoryCache) Invalidate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirty[id] = true
	delete(f.history, id)
	f.invalidated = append(f.invalidated, id)
	return nil
}

func (f *fakeHistoryCache) IsDirty(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty[id], nil
}
