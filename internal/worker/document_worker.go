package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"notewise/internal/app"
	"notewise/internal/model"
	"notewise/internal/platform/logger"
)

type DocumentProcessor interface {
	Process(ctx context.Context, job model.DocumentJob) (int, error)
}

// DocumentProcessWorker runs extraction and chunking for uploaded documents.
// Jobs whose document has vanished or is inconsistent are dropped, not retried.
type DocumentProcessWorker struct {
	*consumer
	processor DocumentProcessor
	timeout   time.Duration
}

func NewDocumentProcessWorker(
	conn *amqp.Connection,
	processor DocumentProcessor,
	queueName string,
	poolSize int,
	timeout time.Duration,
	log *logger.Logger,
) *DocumentProcessWorker {
	w := &DocumentProcessWorker{processor: processor, timeout: timeout}
	w.consumer = newConsumer(conn, queueName, poolSize, w.handle, log)
	return w
}

func (w *DocumentProcessWorker) handle(ctx context.Context, body []byte) error {
	var job model.DocumentJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode document job: %v", errDiscard, err)
	}

	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	_, err := w.processor.Process(ctx, job)
	if errors.Is(err, app.ErrDocumentNotFound) || errors.Is(err, app.ErrInvalidInput) {
		return fmt.Errorf("%w: document %s: %v", errDiscard, job.DocumentID, err)
	}
	return err
}
