package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"

	"github.com/cutroom/timeline-editor/pkg/hcl"
	"github.com/cutroom/timeline-editor/pkg/temporal"
	"github.com/cutroom/timeline-editor/pkg/timeline"
)

func main() {
	// Set up logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Define command line flags
	var (
		path        string
		projectID   string
		address     string
		namespace   string
		displayJSON bool
		mode        string // "preview" or "sync"
	)

	flag.StringVar(&path, "path", "", "Path to HCL file or directory (required)")
	flag.StringVar(&projectID, "project", "", "Project ID (required for sync)")
	flag.StringVar(&address, "address", "localhost:7233", "Address of Temporal server")
	flag.StringVar(&namespace, "namespace", "default", "Temporal namespace")
	flag.BoolVar(&displayJSON, "json", false, "Display results as JSON")
	flag.StringVar(&mode, "mode", "preview", "Operation mode: 'preview' or 'sync'")
	flag.Parse()

	// Validate required parameters
	if path == "" {
		logger.Error("Path parameter is required")
		flag.Usage()
		os.Exit(1)
	}

	if mode != "preview" && mode != "sync" {
		logger.Error("Mode must be either 'preview' or 'sync'")
		os.Exit(1)
	}

	content, err := hcl.LoadPath(path)
	if err != nil {
		logger.Error("Failed to load HCL definitions", "path", path, "error", err)
		os.Exit(1)
	}

	var runErr error
	if mode == "preview" {
		runErr = runPreview(content, displayJSON, logger)
	} else {
		runErr = runSync(content, projectID, address, namespace, displayJSON, logger)
	}
	if runErr != nil {
		logger.Error("Command failed", "mode", mode, "error", runErr)
		os.Exit(1)
	}
}

// runPreview derives a timeline from the HCL definitions entirely in-process:
// sequence the graph, populate an ephemeral timeline, and merge it over the
// declared project skeleton. Nothing is persisted.
func runPreview(content []byte, jsonOutput bool, logger *slog.Logger) error {
	base, err := hcl.ParseProject(content, "preview.hcl")
	if err != nil {
		return fmt.Errorf("failed to parse project: %w", err)
	}

	graph, err := hcl.ParseGraph(content, "preview.hcl")
	if err != nil {
		return fmt.Errorf("failed to parse graph: %w", err)
	}

	sequence := graph.Sequence()
	logger.Info("Derived sequence", "nodes", len(sequence))

	ephemeral := timeline.PopulateTimeline(sequence, base)
	merged := timeline.MergeTimelines(base, ephemeral)

	displayTimeline(merged, jsonOutput, logger)
	return nil
}

// runSync executes the graph sync workflow against a running editor service
func runSync(content []byte, projectID, address, namespace string, jsonOutput bool, logger *slog.Logger) error {
	if projectID == "" {
		return fmt.Errorf("project parameter is required for sync")
	}

	graph, err := hcl.ParseGraph(content, "sync.hcl")
	if err != nil {
		return fmt.Errorf("failed to parse graph: %w", err)
	}

	c, err := client.Dial(client.Options{
		HostPort:  address,
		Namespace: namespace,
	})
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	logger.Info("Executing graph sync", "project", projectID, "nodes", len(graph.Nodes))

	options := client.StartWorkflowOptions{
		ID:        temporal.GenerateSyncWorkflowID(projectID),
		TaskQueue: temporal.TaskQueue,
	}

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, options, temporal.GraphSyncWorkflow, temporal.SyncGraphRequest{
		ProjectID: projectID,
		Graph:     *graph,
	})
	if err != nil {
		return fmt.Errorf("failed to execute sync workflow: %w", err)
	}

	var result temporal.MutationResult
	if err := run.Get(ctx, &result); err != nil {
		return fmt.Errorf("failed to get sync result: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("sync rejected: %s", result.Message)
	}

	logger.Info("Sync complete", "message", result.Message)
	if result.Timeline != nil {
		displayTimeline(result.Timeline, jsonOutput, logger)
	}
	return nil
}

// displayTimeline shows the timeline in human-readable or JSON format
func displayTimeline(data *timeline.TimelineData, jsonOutput bool, logger *slog.Logger) {
	if jsonOutput {
		encoded, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal timeline to JSON", "error", err)
			fmt.Printf("%+v\n", data)
		} else {
			fmt.Println(string(encoded))
		}
		return
	}

	fmt.Printf("Timeline (duration %.2fs, scale %.0f px/s):\n", data.Duration, data.TimelineScale)
	for _, track := range data.Tracks {
		fmt.Printf("  %s [%s] %s\n", track.ID, track.Kind, track.Name)
		for _, item := range track.Items {
			marker := ""
			if item.IsEphemeral() {
				marker = " (ephemeral)"
			}
			fmt.Printf("    %-24s %8.2f - %-8.2f %s%s\n", item.ID, item.StartTime, item.EndTime, item.Name, marker)
		}
	}
	if data.Filters != nil {
		fmt.Println("  Filters: applied")
	}
}
