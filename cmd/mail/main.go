package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/logging"
	"github.com/rdesitter/gym-tracker/internal/notifier"
)

func main() {
	/**********************************************
	 * Load configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	/**********************************************
	 * Create logger
	 **********************************************/
	logger := logging.New(cfg)
	slog.SetDefault(logger)

	if !cfg.SMTPConfigured() {
		logger.Error("SMTP is not configured, the mail worker has nothing to deliver with")
		os.Exit(1)
	}
	if cfg.RabbitMQ.DSN == "" {
		logger.Error("RABBITMQ_DSN is not set")
		os.Exit(1)
	}

	/**********************************************
	 * SMTP sender
	 **********************************************/
	renderer := notifier.NewRenderer(cfg.Tracker.GymName, cfg.Tracker.BookingURL, cfg.Email.FromName)
	sender := notifier.NewSMTPSender(cfg, renderer)

	/**********************************************
	 * Connect to RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := notifier.DeclareQueue(ch, cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Error("failed to declare queue", slog.String("error", err.Error()))
		return
	}

	// one unacked message at a time keeps delivery order and SMTP load predictable
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("failed to set qos", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag assigned by the broker
		false, // autoAck
		false, // exclusive
		false, // noLocal, unsupported by RabbitMQ
		false, // noWait
		nil,
	)
	if err != nil {
		logger.Error("failed to consume queue", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * Consume until CTRL+C
	 **********************************************/
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	worker := notifier.NewWorker(sender, logger)
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, msgs)
	}()

	logger.Info("waiting for messages (press CTRL+C to exit)", slog.String("queue", q.Name))
	<-ctx.Done()

	logger.Info("stopping mail worker")
	wg.Wait()
	logger.Info("mail worker stopped")
}
