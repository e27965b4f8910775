package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	applog "moneta/internal/log"
	"moneta/internal/rates"
	"moneta/internal/services"
	"moneta/internal/storage"
	"moneta/internal/worker"
)

func main() {
	// Load .env for local development; in containers the env is already set.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, events will not be published", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	}

	var rateSource rates.Source
	if cfg.RatesAPIURL != "" {
		rateSource = rates.NewClient(cfg.RatesAPIURL, cfg.RatesRefreshInterval)
	}

	currencySvc := services.NewCurrencyService(repo, rateSource)
	budgetSvc := services.NewBudgetService(repo, amqpClient)
	transactionSvc := services.NewTransactionService(repo, amqpClient, budgetSvc)
	goalSvc := services.NewGoalService(repo)
	reportSvc := services.NewReportService(repo, cfg.ReportCacheSize, cfg.ReportCacheTTL)
	recurringSvc := services.NewRecurringService(repo, amqpClient, budgetSvc)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Currencies:   currencySvc,
		Transactions: transactionSvc,
		Budgets:      budgetSvc,
		Goals:        goalSvc,
		Reports:      reportSvc,
		Recurring:    recurringSvc,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting moneta server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if rateSource != nil {
		ratesWorker := worker.NewRatesWorker(repo, currencySvc, cfg.RatesRefreshInterval)
		g.Go(func() error {
			logger.Info("Starting rate refresh loop", "interval", cfg.RatesRefreshInterval)
			err := ratesWorker.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
