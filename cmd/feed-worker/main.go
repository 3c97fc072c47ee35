package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"centavo/internal/bankfeed"
	"centavo/internal/config"
	"centavo/internal/database"
	"centavo/internal/logger"
	"centavo/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Named("feed-worker")

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	client, err := bankfeed.NewClient(appConfig.AMQPURL, appConfig.FeedExchange, appConfig.FeedQueue)
	if err != nil {
		return fmt.Errorf("failed to connect to feed broker: %w", err)
	}
	defer client.Close()

	db := dbManager.DB()
	ledger := services.NewLedgerApplier()
	budgetService := services.NewBudgetService(db, services.NewLinearOverlapScan())
	transactionService := services.NewTransactionService(db, ledger)
	importService := services.NewImportService(db, budgetService, transactionService)

	worker := bankfeed.NewWorker(client, importService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return worker.Run(ctx)
	})

	log.Infow("feed worker started",
		"exchange", appConfig.FeedExchange,
		"queue", appConfig.FeedQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("feed worker stopped")
	return nil
}
