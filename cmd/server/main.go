package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/cutroom/timeline-editor/pkg/http"
	"github.com/cutroom/timeline-editor/pkg/store"
	"github.com/cutroom/timeline-editor/pkg/temporal"
)

func main() {
	var (
		httpAddr     = flag.String("http-addr", ":8080", "HTTP server address")
		temporalAddr = flag.String("temporal-addr", "localhost:7233", "Temporal server address")
		namespace    = flag.String("namespace", "default", "Temporal namespace")
		taskQueue    = flag.String("task-queue", temporal.TaskQueue, "Temporal task queue")
		dbPath       = flag.String("db-path", "data/editor.db", "Path to the sqlite database file")
		logLevel     = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Setup logger
	var logHandler slog.Handler
	switch *logLevel {
	case "debug":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case "warn":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	case "error":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	default:
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("Starting timeline editor service",
		"http_addr", *httpAddr,
		"temporal_addr", *temporalAddr,
		"namespace", *namespace,
		"task_queue", *taskQueue,
		"db_path", *dbPath,
	)

	// Open the sqlite-backed timeline store
	timelineStore, err := store.Open(*dbPath, logger)
	if err != nil {
		logger.Error("Failed to open timeline store", "error", err)
		os.Exit(1)
	}
	defer timelineStore.Close()

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  *temporalAddr,
		Namespace: *namespace,
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Create activities
	activities := temporal.NewActivitiesImpl(logger, timelineStore)

	// Create and start Temporal worker
	w := worker.New(temporalClient, *taskQueue, worker.Options{})

	// Register workflows
	w.RegisterWorkflow(temporal.PlaceAssetWorkflow)
	w.RegisterWorkflow(temporal.ModifyAssetWorkflow)
	w.RegisterWorkflow(temporal.ReorderWorkflow)
	w.RegisterWorkflow(temporal.ApplyFiltersWorkflow)
	w.RegisterWorkflow(temporal.DeleteItemWorkflow)
	w.RegisterWorkflow(temporal.GraphSyncWorkflow)
	w.RegisterWorkflow(temporal.FetchTimelineWorkflow)

	// Register activities under the names the workflows call them by
	w.RegisterActivityWithOptions(activities.LoadTimelineActivity, activity.RegisterOptions{Name: temporal.LoadTimelineActivityName})
	w.RegisterActivityWithOptions(activities.PlaceAssetActivity, activity.RegisterOptions{Name: temporal.PlaceAssetActivityName})
	w.RegisterActivityWithOptions(activities.ModifyAssetActivity, activity.RegisterOptions{Name: temporal.ModifyAssetActivityName})
	w.RegisterActivityWithOptions(activities.ReorderActivity, activity.RegisterOptions{Name: temporal.ReorderActivityName})
	w.RegisterActivityWithOptions(activities.ApplyFiltersActivity, activity.RegisterOptions{Name: temporal.ApplyFiltersActivityName})
	w.RegisterActivityWithOptions(activities.DeleteItemActivity, activity.RegisterOptions{Name: temporal.DeleteItemActivityName})
	w.RegisterActivityWithOptions(activities.SyncGraphActivity, activity.RegisterOptions{Name: temporal.SyncGraphActivityName})

	// Start worker in background
	go func() {
		logger.Info("Starting Temporal worker", "task_queue", *taskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	// Create and start HTTP server
	server := http.NewServer(logger, temporalClient, *httpAddr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	cancel()

	logger.Info("Timeline editor service stopped")
}
