package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

const (
	// Workflow ID prefixes
	PlacementWorkflowIDPrefix = "place-"
	ModifyWorkflowIDPrefix    = "modify-"
	ReorderWorkflowIDPrefix   = "reorder-"
	FiltersWorkflowIDPrefix   = "filters-"
	DeleteWorkflowIDPrefix    = "delete-"
	SyncWorkflowIDPrefix      = "sync-"
	FetchWorkflowIDPrefix     = "fetch-"

	// Activity names
	LoadTimelineActivityName = "load-timeline"
	PlaceAssetActivityName   = "place-asset"
	ModifyAssetActivityName  = "modify-asset"
	ReorderActivityName      = "reorder-items"
	ApplyFiltersActivityName = "apply-filters"
	DeleteItemActivityName   = "delete-item"
	SyncGraphActivityName    = "sync-graph"

	// TaskQueue is the queue all editor workflows and activities run on
	TaskQueue = "timeline-editor-task-queue"
)

// mutationActivityOptions is the shared policy for store-backed mutations:
// store failures retry a few times, then the workflow reports a failed
// result. The caller's in-memory candidate state is never touched, so a
// retry from the UI stays possible.
func mutationActivityOptions(ctx workflow.Context) workflow.Context {
	return workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		ScheduleToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})
}

// runMutation executes one mutation activity and converts an exhausted
// activity error into a failed MutationResult rather than a workflow error
func runMutation(ctx workflow.Context, activityName string, req interface{}) (*MutationResult, error) {
	logger := workflow.GetLogger(ctx)
	ctx = mutationActivityOptions(ctx)

	var result *MutationResult
	if err := workflow.ExecuteActivity(ctx, activityName, req).Get(ctx, &result); err != nil {
		logger.Error("Mutation activity failed", "activity", activityName, "error", err)
		return failure(fmt.Sprintf("persistence call failed: %v", err)), nil
	}
	return result, nil
}

// PlaceAssetWorkflow places a single asset onto the persisted timeline
func PlaceAssetWorkflow(ctx workflow.Context, req PlaceAssetRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting placement workflow", "projectID", req.ProjectID, "assetID", req.Asset.ID)
	return runMutation(ctx, PlaceAssetActivityName, req)
}

// ModifyAssetWorkflow patches an existing persisted item
func ModifyAssetWorkflow(ctx workflow.Context, req ModifyAssetRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting modification workflow", "projectID", req.ProjectID, "itemID", req.ItemID)
	return runMutation(ctx, ModifyAssetActivityName, req)
}

// ReorderWorkflow recomputes item times after a reorder
func ReorderWorkflow(ctx workflow.Context, req ReorderRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting reorder workflow", "projectID", req.ProjectID, "mode", req.TimingMode)
	return runMutation(ctx, ReorderActivityName, req)
}

// ApplyFiltersWorkflow replaces the composition filter block
func ApplyFiltersWorkflow(ctx workflow.Context, req ApplyFiltersRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting filters workflow", "projectID", req.ProjectID)
	return runMutation(ctx, ApplyFiltersActivityName, req)
}

// DeleteItemWorkflow removes an item by id
func DeleteItemWorkflow(ctx workflow.Context, req DeleteItemRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting delete workflow", "projectID", req.ProjectID, "itemID", req.ItemID)
	return runMutation(ctx, DeleteItemActivityName, req)
}

// GraphSyncWorkflow derives a timeline from the content graph and merges it
// into the persisted timeline
func GraphSyncWorkflow(ctx workflow.Context, req SyncGraphRequest) (*MutationResult, error) {
	workflow.GetLogger(ctx).Info("Starting graph sync workflow", "projectID", req.ProjectID, "nodes", len(req.Graph.Nodes))
	return runMutation(ctx, SyncGraphActivityName, req)
}

// FetchTimelineWorkflow loads the persisted timeline for display
func FetchTimelineWorkflow(ctx workflow.Context, projectID string) (*timeline.TimelineData, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting fetch workflow", "projectID", projectID)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		ScheduleToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	var data *timeline.TimelineData
	if err := workflow.ExecuteActivity(ctx, LoadTimelineActivityName, projectID).Get(ctx, &data); err != nil {
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	return data, nil
}

// Utility functions for workflow IDs

// GenerateMutationWorkflowID creates a unique workflow ID with the given
// prefix for one project
func GenerateMutationWorkflowID(prefix, projectID string) string {
	return fmt.Sprintf("%s%s-%d", prefix, projectID, time.Now().UnixNano())
}

// GenerateSyncWorkflowID creates a workflow ID for graph sync. Syncs are
// serialized per project: the ID has no nonce, so a second sync while one is
// running is rejected instead of racing it.
func GenerateSyncWorkflowID(projectID string) string {
	return SyncWorkflowIDPrefix + projectID
}
