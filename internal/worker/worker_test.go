package worker

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notewise/internal/app"
	"notewise/internal/model"
	"notewise/internal/platform/database"
	"notewise/internal/repository"
)

type recordingAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAck) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}

func TestConsumer_Settle(t *testing.T) {
	c := newConsumer(nil, "q", 1, nil, nil)
	tests := []struct {
		name   string
		err    error
		acked  bool
		nacked bool
	}{
		{name: "success", err: nil, acked: true},
		{name: "discard", err: errors.Join(errDiscard, errors.New("bad payload")), acked: true},
		{name: "failure", err: errors.New("db down"), nacked: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &recordingAck{}
			c.settle(amqp.Delivery{Acknowledger: ack}, tt.err)
			assert.Equal(t, tt.acked, ack.acked)
			assert.Equal(t, tt.nacked, ack.nacked)
			assert.False(t, ack.requeue)
		})
	}
}

type stubProcessor struct {
	err  error
	jobs []model.DocumentJob
}

func (p *stubProcessor) Process(_ context.Context, job model.DocumentJob) (int, error) {
	p.jobs = append(p.jobs, job)
	return 3, p.err
}

func TestDocumentProcessWorker_Handle(t *testing.T) {
	job := model.DocumentJob{DocumentID: "d", SubjectID: "s", StoragePath: "s/d.txt", Filename: "d.txt"}
	body, err := json.Marshal(job)
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    []byte
		procErr error
		discard bool
		fail    bool
	}{
		{name: "processed", body: body},
		{name: "vanished document", body: body, procErr: app.ErrDocumentNotFound, discard: true},
		{name: "inconsistent job", body: body, procErr: app.ErrInvalidInput, discard: true},
		{name: "transient failure", body: body, procErr: errors.New("disk full"), fail: true},
		{name: "garbage", body: []byte("{"), discard: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &stubProcessor{err: tt.procErr}
			w := NewDocumentProcessWorker(nil, proc, "q", 1, time.Second, nil)
			err := w.handle(context.Background(), tt.body)
			switch {
			case tt.discard:
				assert.ErrorIs(t, err, errDiscard)
			case tt.fail:
				require.Error(t, err)
				assert.NotErrorIs(t, err, errDiscard)
			default:
				require.NoError(t, err)
				assert.Equal(t, []model.DocumentJob{job}, proc.jobs)
			}
		})
	}
}

func TestMessagePersistWorker_Handle(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, "sqlite", filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	subject := &model.Subject{Name: "Biology", SessionID: "s"}
	require.NoError(t, repository.NewSubjectRepository(db).Create(ctx, subject))
	repo := repository.NewChatMessageRepository(db)
	w := NewMessagePersistWorker(nil, repo, "q", nil)

	msg := model.NewAssistantMessage(subject.ID, "four", []model.Citation{{Filename: "bio.txt", Page: "1"}}, nil, model.ConfidenceHigh)
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	require.NoError(t, w.handle(ctx, body))
	require.NoError(t, w.handle(ctx, body))

	stored, err := repo.ListRecentBySubjectID(ctx, subject.ID, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, []model.Citation{{Filename: "bio.txt", Page: "1"}}, stored[0].CitationList())
	assert.Equal(t, string(model.ConfidenceHigh), stored[0].Confidence)

	assert.ErrorIs(t, w.handle(ctx, []byte(`{"role":"system","content":"x"}`)), errDiscard)
	assert.ErrorIs(t, w.handle(ctx, []byte(`nope`)), errDiscard)
}

func TestTaskRunner_DetachesFromCallerCancellation(t *testing.T) {
	runner, err := NewTaskRunner(2, time.Second, nil)
	require.NoError(t, err)
	defer runner.Close(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var wg sync.WaitGroup
	var ctxErr atomic.Value
	wg.Add(1)
	runner.Go(ctx, "check", func(taskCtx context.Context) error {
		defer wg.Done()
		if err := taskCtx.Err(); err != nil {
			ctxErr.Store(err)
		}
		return errors.New("ignored")
	})
	wg.Wait()
	assert.Nil(t, ctxErr.Load())
}

func TestTaskRunner_RecoversPanics(t *testing.T) {
	runner, err := NewTaskRunner(1, 0, nil)
	require.NoError(t, err)
	defer runner.Close(time.Second)

	var ran atomic.Int32
	done := make(chan struct{})
	runner.Go(context.Background(), "boom", func(context.Context) error {
		panic("boom")
	})
	runner.Go(context.Background(), "after", func(context.Context) error {
		ran.Add(1)
		close(done)
		return nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task after panic did not run")
	}
	assert.Equal(t, int32(1), ran.Load())
}
