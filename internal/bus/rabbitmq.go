package bus

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/veilgram/feedsvc/pkg/logger"
)

const reconnectDelay = 3 * time.Second

// RabbitConsumer binds a durable queue to a topic exchange and consumes with
// explicit acknowledgement: ack on success, nack without requeue on failure
// (a dead-letter exchange on the queue picks those up). Prefetch bounds the
// in-flight window for backpressure. Connection loss is retried with a fixed
// backoff until the context is cancelled.
type RabbitConsumer struct {
	url      string
	exchange string
	queue    string
	bindings []string
	prefetch int
}

func NewRabbitConsumer(url, exchange, queue string, bindings []string, prefetch int) *RabbitConsumer {
	if prefetch <= 0 {
		prefetch = 100
	}
	return &RabbitConsumer{url: url, exchange: exchange, queue: queue, bindings: bindings, prefetch: prefetch}
}

func (c *RabbitConsumer) Run(ctx context.Context, handler Handler) error {
	for {
		err := c.consume(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("rabbitmq connection lost, reconnecting", zap.Error(err), zap.Duration("backoff", reconnectDelay))
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *RabbitConsumer) consume(ctx context.Context, handler Handler) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return err
	}
	for _, key := range c.bindings {
		if err := ch.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return err
		}
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := handler(ctx, d.Body); err != nil {
				// no requeue: failed messages route to the DLQ
				if nackErr := d.Nack(false, false); nackErr != nil {
					logger.Error("nack failed", zap.Error(nackErr))
				}
				continue
			}
			if ackErr := d.Ack(false); ackErr != nil {
				logger.Error("ack failed", zap.Error(ackErr))
			}
		}
	}
}

func (c *RabbitConsumer) Close() error { return nil }
