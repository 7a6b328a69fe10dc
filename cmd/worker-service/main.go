package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eduhub/processing-be/internal/config"
	"github.com/eduhub/processing-be/internal/connectivity"
	"github.com/eduhub/processing-be/internal/notify"
	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/eduhub/processing-be/internal/worker"
	workerstorage "github.com/eduhub/processing-be/internal/worker/storage"
	"github.com/eduhub/processing-be/shared/logger"
	"github.com/eduhub/processing-be/shared/postgresql"
	"github.com/eduhub/processing-be/shared/rabbitmq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultDownloadLimit = 512 << 20

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting content worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}

	appLogger.Info("RabbitMQ connection established")

	// Notifications go to the log and, when a routing key is configured,
	// to the broker for downstream consumers
	notifier := buildNotifier(cfg, rabbitClient, appLogger.Logger)

	policy := resilience.Policy{
		MaxRetries:    cfg.Resilience.MaxRetries,
		InitialDelay:  cfg.Resilience.InitialDelay,
		BackoffFactor: cfg.Resilience.BackoffFactor,
		Jitter:        cfg.Resilience.Jitter,
	}

	// Wire the job pipeline
	store := workerstorage.NewStorage(dbClient.GetDB(), appLogger.Logger)
	fetcher := worker.NewBlobFetcher(cfg.Steps.DownloadTimeout, defaultDownloadLimit)
	transcriber := worker.NewHTTPTranscriber(cfg.Transcriber.URL)
	planner := worker.NewPlanner(fetcher, transcriber, store, cfg.Steps.DownloadTimeout, cfg.Steps.TranscribeTimeout)
	runner := worker.NewRunner(store, notifier, policy, appLogger.Logger, "")

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:        appLogger.Logger,
		RabbitClient:  rabbitClient,
		Runner:        runner,
		Planner:       planner,
		Concurrency:   cfg.Worker.Concurrency,
		PrefetchCount: cfg.RabbitMQ.Consumer.PrefetchCount,
		QueueName:     cfg.RabbitMQ.Queue.Name,
	})

	// Watch the worker's dependencies and surface transitions
	monitor := startConnectivityMonitor(cfg, dbClient, rabbitClient, notifier, appLogger.Logger)

	// Serve prometheus metrics and liveness
	if cfg.Worker.MetricsPort > 0 {
		startMetricsServer(cfg.Worker.MetricsPort, appLogger.Logger)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in a goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := workerInstance.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	appLogger.Info("Worker service started successfully",
		slog.String("worker_id", workerInstance.WorkerID()),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-errChan:
		appLogger.Error("Worker error",
			slog.Any("error", err),
		)
		return err
	}

	// Cancel context to stop worker
	cancel()

	// Give worker time to shutdown gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Stop worker
	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	monitor.Close()

	cleanup := func() {
		if dbClient != nil {
			dbClient.Close()
		}
		if rabbitClient != nil {
			rabbitClient.Close()
		}
	}
	cleanup()

	appLogger.Info("Worker service shutdown complete")
	return nil
}

// monitorHandle ties a connectivity monitor to its subscription for teardown
type monitorHandle struct {
	monitor *connectivity.Monitor
	subID   int
}

func (h *monitorHandle) Close() {
	if h.monitor != nil {
		h.monitor.Unsubscribe(h.subID)
	}
}

// startConnectivityMonitor probes postgres and rabbitmq together; the
// worker counts as online only when both dependencies answer
func startConnectivityMonitor(cfg *config.Config, dbClient *postgresql.Client, rabbitClient *rabbitmq.Client, notifier notify.Notifier, logger *slog.Logger) *monitorHandle {
	pinger := connectivity.PingerFunc(func(ctx context.Context) error {
		if err := dbClient.Ping(ctx); err != nil {
			return err
		}
		return rabbitClient.Ping(ctx)
	})

	source := connectivity.NewProbeSource(pinger, cfg.Connectivity.ProbeInterval, logger)
	monitor := connectivity.NewMonitor(source, notifier, logger, cfg.Connectivity.SuppressNotifications)

	subID := monitor.Subscribe(func(online bool) {
		if !online {
			logger.Warn("Dependencies unreachable, in-flight jobs may stall")
		}
	})

	return &monitorHandle{monitor: monitor, subID: subID}
}

// buildNotifier assembles the notifier chain for job and connectivity events
func buildNotifier(cfg *config.Config, rabbitClient *rabbitmq.Client, logger *slog.Logger) notify.Notifier {
	chain := notify.Multi{notify.NewLogNotifier(logger)}
	if cfg.Notifications.RoutingKey != "" {
		chain = append(chain, notify.NewAMQPNotifier(rabbitClient, cfg.Notifications.RoutingKey, logger))
	}
	return chain
}

// startMetricsServer exposes prometheus metrics on a separate listener
func startMetricsServer(port int, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf(":%d", port)
	go func() {
		logger.Info("Starting metrics server", slog.String("address", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", slog.Any("error", err))
		}
	}()
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
