package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"

	writeflow "github.com/writeflow/backend"
	"github.com/writeflow/backend/internal/auth"
	"github.com/writeflow/backend/internal/config"
	"github.com/writeflow/backend/internal/handlers"
	"github.com/writeflow/backend/internal/ledger"
	"github.com/writeflow/backend/internal/notification"
	"github.com/writeflow/backend/internal/repository"
	"github.com/writeflow/backend/internal/router"
	"github.com/writeflow/backend/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, repository.PoolOptions{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info("Connected to PostgreSQL database")

	migrations, err := fs.Sub(writeflow.MigrationsFS, "migrations")
	if err != nil {
		return err
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrations); err != nil {
		return err
	}

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return err
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return err
	}
	logger.Info("Schema and River migrations applied")

	// Repositories
	uow := repository.NewUnitOfWork(pool)
	taskRepo := repository.NewTaskRepo(pool)
	bidRepo := repository.NewBidRepo(pool)
	accountRepo := repository.NewAccountRepo(pool)
	transactionRepo := repository.NewTransactionRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)

	// Notifications
	var sender notification.Sender = notification.NewLogSender(logger)
	if cfg.SMTPEnabled() {
		sender = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	workers := river.NewWorkers()
	river.AddWorker(workers, notification.NewWorker(accountRepo, notification.NewTemplateStore(), sender, logger))

	riverClient, err := river.NewClient[pgx.Tx](riverpgxv5.New(pool), &river.Config{
		Logger: logger,
		Queues: map[string]river.QueueConfig{
			notification.QueueName: {MaxWorkers: cfg.NotifyWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return err
	}
	notifier := notification.NewDispatcher(riverClient, logger)

	// Services
	ledgerSvc := ledger.NewService(uow, accountRepo, transactionRepo, logger)
	taskSvc := services.NewTaskService(uow, taskRepo, bidRepo, notifier, logger)
	bidSvc := services.NewBidService(uow, taskRepo, bidRepo, notifier, logger)
	resolver := services.NewResolver(uow, taskRepo, bidRepo, notifier, logger)
	submissionSvc := services.NewSubmissionService(uow, taskRepo, bidRepo, submissionRepo, ledgerSvc, notifier, logger)
	authSvc := auth.NewService(cfg.JWTSecret, auth.DefaultTokenTTL)

	api := router.New(router.Deps{
		Tokens:      authSvc,
		Tasks:       handlers.NewTaskHandler(taskSvc, logger),
		Bids:        handlers.NewBidHandler(bidSvc, resolver, logger),
		Ledger:      handlers.NewTransactionHandler(ledgerSvc, logger),
		Submissions: handlers.NewSubmissionHandler(submissionSvc, logger),
		Logger:      logger,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(api)

	if err := riverClient.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := notifier.Wait(shutdownCtx); err != nil {
		logger.Error("Pending notifications not enqueued", "error", err)
	}
	if err := riverClient.Stop(shutdownCtx); err != nil {
		logger.Error("River stop failed", "error", err)
	}
	return nil
}
