package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// Worker drains the mail queue into a Sender.
type Worker struct {
	sender Sender
	logger *slog.Logger
}

func NewWorker(sender Sender, logger *slog.Logger) *Worker {
	return &Worker{sender: sender, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle acks delivered messages, drops malformed or undeliverable ones and requeues
// transient delivery failures.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	msg := domain.MailMessage{}
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.logger.Error("failed to decode mail message", slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}

	logger := w.logger.With(slog.String("type", msg.Type), slog.String("to", msg.To))

	if err := w.sender.Send(ctx, msg); err != nil {
		requeue := errors.Is(err, domain.ErrDeliveryFailed) && ctx.Err() == nil && !d.Redelivered
		logger.Error("failed to send mail", slog.Bool("requeue", requeue), slog.String("error", err.Error()))
		_ = d.Nack(false, requeue)
		return
	}

	logger.Info("mail sent")
	_ = d.Ack(false)
}
