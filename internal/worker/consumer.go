package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	amqp "github.com/rabbitmq/amqp091-go"

	"notewise/internal/platform/logger"
	"notewise/internal/platform/rabbitmq"
)

// errDiscard marks a delivery that can never succeed; it is acknowledged so it
// leaves the queue.
var errDiscard = errors.New("discard delivery")

type handleFunc func(ctx context.Context, body []byte) error

// consumer drains one durable queue and runs each delivery on an ants pool.
// Prefetch equals the pool size so unacked deliveries never exceed it.
type consumer struct {
	conn      *amqp.Connection
	queueName string
	poolSize  int
	handle    handleFunc
	log       *logger.Logger

	pool   *ants.Pool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newConsumer(conn *amqp.Connection, queueName string, poolSize int, handle handleFunc, log *logger.Logger) *consumer {
	if poolSize <= 0 {
		poolSize = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &consumer{
		conn:      conn,
		queueName: queueName,
		poolSize:  poolSize,
		handle:    handle,
		log:       log.With("queue", queueName),
	}
}

func (c *consumer) Start(ctx context.Context) error {
	if c.cancel != nil {
		return nil
	}

	pool, err := ants.NewPool(c.poolSize, ants.WithPanicHandler(func(p interface{}) {
		c.log.Error("consumer task panic recovered", "panic", p)
	}))
	if err != nil {
		return fmt.Errorf("create consumer pool failed: %w", err)
	}

	ch, err := c.conn.Channel()
	if err != nil {
		pool.Release()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := rabbitmq.DeclareQueue(ch, c.queueName); err != nil {
		_ = ch.Close()
		pool.Release()
		return err
	}
	if err := ch.Qos(c.poolSize, 0, false); err != nil {
		_ = ch.Close()
		pool.Release()
		return fmt.Errorf("set worker qos failed: %w", err)
	}
	deliveries, err := ch.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		pool.Release()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.pool = pool

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					c.log.Warn("delivery channel closed")
					return
				}
				c.dispatch(workerCtx, d)
			}
		}
	}()

	c.log.Info("consumer started", "pool", c.poolSize)
	return nil
}

func (c *consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	c.wg.Add(1)
	err := c.pool.Submit(func() {
		defer c.wg.Done()
		c.settle(d, c.handle(ctx, d.Body))
	})
	if err != nil {
		c.wg.Done()
		c.log.Error("submit delivery failed", "error", err)
		_ = d.Nack(false, true)
	}
}

func (c *consumer) settle(d amqp.Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errDiscard):
		c.log.Warn("delivery discarded", "error", err)
		_ = d.Ack(false)
	default:
		c.log.Error("delivery failed", "error", err)
		_ = d.Nack(false, false)
	}
}

func (c *consumer) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.pool != nil {
		c.pool.Release()
	}
}
