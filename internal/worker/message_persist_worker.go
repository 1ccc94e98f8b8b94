package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"notewise/internal/model"
	"notewise/internal/platform/logger"
	"notewise/internal/repository"
)

// MessagePersistWorker writes queued chat turns to the message log.
type MessagePersistWorker struct {
	*consumer
	repo *repository.ChatMessageRepository
}

func NewMessagePersistWorker(conn *amqp.Connection, repo *repository.ChatMessageRepository, queueName string, log *logger.Logger) *MessagePersistWorker {
	w := &MessagePersistWorker{repo: repo}
	w.consumer = newConsumer(conn, queueName, 1, w.handle, log)
	return w
}

func (w *MessagePersistWorker) handle(ctx context.Context, body []byte) error {
	var msg model.ChatMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: decode message: %v", errDiscard, err)
	}
	if msg.SubjectID == "" || (msg.Role != model.RoleUser && msg.Role != model.RoleAssistant) {
		return fmt.Errorf("%w: malformed message %q", errDiscard, msg.ID)
	}
	return w.repo.Create(ctx, &msg)
}
