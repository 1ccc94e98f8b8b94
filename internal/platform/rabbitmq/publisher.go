package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"notewise/internal/model"
)

// Publisher sends persistent JSON payloads to a single queue.
type Publisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewPublisher(conn *amqp.Connection, queueName string) *Publisher {
	return &Publisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *Publisher) PublishJSON(ctx context.Context, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload failed: %w", p.queueName, err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		p.queueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish to %s failed: %w", p.queueName, err)
	}
	return nil
}

// MessagePublisher queues chat messages for the persistence worker.
type MessagePublisher struct {
	*Publisher
}

func NewMessagePublisher(conn *amqp.Connection, queueName string) *MessagePublisher {
	return &MessagePublisher{Publisher: NewPublisher(conn, queueName)}
}

func (p *MessagePublisher) Append(ctx context.Context, msg model.ChatMessage) error {
	return p.PublishJSON(ctx, msg)
}

// DocumentJobPublisher queues uploaded documents for extraction and chunking.
type DocumentJobPublisher struct {
	*Publisher
}

func NewDocumentJobPublisher(conn *amqp.Connection, queueName string) *DocumentJobPublisher {
	return &DocumentJobPublisher{Publisher: NewPublisher(conn, queueName)}
}

func (p *DocumentJobPublisher) Dispatch(ctx context.Context, job model.DocumentJob) error {
	return p.PublishJSON(ctx, job)
}
