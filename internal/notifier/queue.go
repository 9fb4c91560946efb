package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// Channel is the part of *amqp.Channel the queue sender needs.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareQueue declares the durable mail queue shared by the API and the mail worker.
func DeclareQueue(ch Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete, keeps the queue when no worker is connected
		false, // exclusive
		false, // noWait
		nil,
	)
}

// QueueSender publishes messages for cmd/mail to deliver. A successful Send means the broker
// accepted the message, not that it reached the recipient.
type QueueSender struct {
	ch      Channel
	queue   string
	timeout time.Duration
}

func NewQueueSender(ch Channel, queue string, timeout time.Duration) (*QueueSender, error) {
	q, err := DeclareQueue(ch, queue)
	if err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &QueueSender{ch: ch, queue: q.Name, timeout: timeout}, nil
}

func (s *QueueSender) Send(ctx context.Context, msg domain.MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	err = s.ch.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("%w: publish: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}
