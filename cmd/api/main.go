package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/handler"
	"github.com/rdesitter/gym-tracker/internal/logging"
	"github.com/rdesitter/gym-tracker/internal/notifier"
	"github.com/rdesitter/gym-tracker/internal/repository"
	"github.com/rdesitter/gym-tracker/internal/source"
	"github.com/rdesitter/gym-tracker/internal/tracker"

	_ "time/tzdata"
)

func main() {
	/**********************************************
	 * Load configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * Create logger
	 **********************************************/
	logger := logging.New(cfg)
	slog.SetDefault(logger)

	/**********************************************
	 * Open the config store
	 **********************************************/
	kv, timeout, closeStore := openStore(cfg, logger)
	defer closeStore()
	repo := repository.NewRepository(kv, timeout)

	/**********************************************
	 * Course source
	 **********************************************/
	src, err := source.New(cfg)
	if err != nil {
		logger.Error("failed to create course source", "error", err)
		return
	}

	/**********************************************
	 * Notification sender
	 **********************************************/
	renderer := notifier.NewRenderer(cfg.Tracker.GymName, cfg.Tracker.BookingURL, cfg.Email.FromName)
	var sender notifier.Sender = notifier.NewSMTPSender(cfg, renderer)

	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open channel", "error", err)
			return
		}
		defer ch.Close()

		sender, err = notifier.NewQueueSender(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
		if err != nil {
			logger.Error("failed to create queue sender", "error", err)
			return
		}
		logger.Info("notifications go through the mail queue", "queue", cfg.RabbitMQ.Queue)
	} else if !cfg.SMTPConfigured() {
		logger.Warn("SMTP is not configured, notifications will fail")
	}

	/**********************************************
	 * Tracker
	 **********************************************/
	trk := tracker.New(cfg, src, repo, sender, logger)

	if cfg.CronSecret == "" {
		logger.Warn("CRON_SECRET is not set, /api/check-courses and /api/notify are open to anyone")
	}

	/**********************************************
	 * Create handler
	 **********************************************/
	h, err := handler.NewHandler(cfg, trk, repo, src, sender)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * Start HTTP server and the poll loop
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loopDone := make(chan struct{})
	if cfg.Tracker.PollInterval > 0 {
		interval := time.Duration(cfg.Tracker.PollInterval) * time.Second
		logger.Info("starting poll loop", "interval", interval)
		go func() {
			defer close(loopDone)
			trk.Loop(ctx, interval)
		}()
	} else {
		close(loopDone)
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	<-loopDone
	logger.Info("server stopped")
}
