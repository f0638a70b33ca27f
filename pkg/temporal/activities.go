package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

// TimelineStore is the persistence interface the activities run against.
// pkg/store provides the sqlite implementation; tests use the in-memory mock.
type TimelineStore interface {
	LoadTimeline(ctx context.Context, projectID string) (*timeline.TimelineData, error)
	SaveTimeline(ctx context.Context, projectID string, data *timeline.TimelineData) error
	DeleteItem(ctx context.Context, projectID, itemID string) error
}

// Activities defines all the activities used by the editor workflows
type Activities interface {
	LoadTimelineActivity(ctx context.Context, projectID string) (*timeline.TimelineData, error)
	PlaceAssetActivity(ctx context.Context, req PlaceAssetRequest) (*MutationResult, error)
	ModifyAssetActivity(ctx context.Context, req ModifyAssetRequest) (*MutationResult, error)
	ReorderActivity(ctx context.Context, req ReorderRequest) (*MutationResult, error)
	ApplyFiltersActivity(ctx context.Context, req ApplyFiltersRequest) (*MutationResult, error)
	DeleteItemActivity(ctx context.Context, req DeleteItemRequest) (*MutationResult, error)
	SyncGraphActivity(ctx context.Context, req SyncGraphRequest) (*MutationResult, error)
}

// ActivitiesImpl implements the Activities interface over a TimelineStore
type ActivitiesImpl struct {
	logger *slog.Logger
	store  TimelineStore
}

// NewActivitiesImpl creates a new activities implementation
func NewActivitiesImpl(logger *slog.Logger, store TimelineStore) *ActivitiesImpl {
	return &ActivitiesImpl{logger: logger, store: store}
}

// LoadTimelineActivity loads the persisted timeline, falling back to the
// default two-track skeleton for projects that were never saved
func (a *ActivitiesImpl) LoadTimelineActivity(ctx context.Context, projectID string) (*timeline.TimelineData, error) {
	data, err := a.store.LoadTimeline(ctx, projectID)
	if err != nil {
		a.logger.Error("Failed to load timeline", "projectID", projectID, "error", err)
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}
	if data == nil {
		data = timeline.NewDefaultTimeline()
	}
	return data, nil
}

// PlaceAssetActivity validates and places a new item, then persists the
// result. Validation failures are final: they come back as a failed result
// rather than an activity error, so the workflow does not retry them.
func (a *ActivitiesImpl) PlaceAssetActivity(ctx context.Context, req PlaceAssetRequest) (*MutationResult, error) {
	a.logger.Info("Placing asset", "projectID", req.ProjectID, "assetID", req.Asset.ID, "startTime", req.StartTime)

	data, err := a.LoadTimelineActivity(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	placed, err := timeline.PlaceAsset(data, timeline.PlacementRequest{
		Asset:          req.Asset,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		AssetStartTime: req.AssetStartTime,
		AssetEndTime:   req.AssetEndTime,
		TrackKind:      req.TrackKind,
		TrackIndex:     req.TrackIndex,
		Overlay:        req.Overlay,
		Volume:         req.Volume,
		Opacity:        req.Opacity,
	})
	if err != nil {
		a.logger.Warn("Placement rejected", "projectID", req.ProjectID, "error", err)
		return rejection(err), nil
	}

	if err := a.store.SaveTimeline(ctx, req.ProjectID, data); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}

	return &MutationResult{
		Success: true,
		Message: fmt.Sprintf("placed asset %s on track %s", req.Asset.ID, placed.TrackID),
		ItemID:  placed.ItemID,
		TrackID: placed.TrackID,
	}, nil
}

// ModifyAssetActivity applies an in-place patch to an existing item
func (a *ActivitiesImpl) ModifyAssetActivity(ctx context.Context, req ModifyAssetRequest) (*MutationResult, error) {
	a.logger.Info("Modifying item", "projectID", req.ProjectID, "itemID", req.ItemID)

	data, err := a.LoadTimelineActivity(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	updated, err := timeline.ModifyItem(data, timeline.ModifyRequest{
		ItemID:         req.ItemID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		AssetStartTime: req.AssetStartTime,
		AssetEndTime:   req.AssetEndTime,
		Overlay:        req.Overlay,
		ClearOverlay:   req.ClearOverlay,
		Volume:         req.Volume,
		Opacity:        req.Opacity,
		TargetTrackID:  req.TargetTrackID,
		TargetKind:     req.TargetKind,
	})
	if err != nil {
		a.logger.Warn("Modification rejected", "projectID", req.ProjectID, "itemID", req.ItemID, "error", err)
		return rejection(err), nil
	}

	if err := a.store.SaveTimeline(ctx, req.ProjectID, data); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}

	return &MutationResult{
		Success:     true,
		Message:     fmt.Sprintf("updated item %s", req.ItemID),
		UpdatedItem: updated,
	}, nil
}

// ReorderActivity recomputes item times for a reorder. Conflicts do not fail
// the operation; they are reported for the caller to accept or undo.
func (a *ActivitiesImpl) ReorderActivity(ctx context.Context, req ReorderRequest) (*MutationResult, error) {
	a.logger.Info("Reordering items", "projectID", req.ProjectID, "mode", req.TimingMode, "crossTrack", len(req.Assignments) > 0)

	data, err := a.LoadTimelineActivity(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	var result *timeline.ReorderResult
	if len(req.Assignments) > 0 {
		result, err = timeline.ReorderAcrossTracks(data, req.Assignments, req.TimingMode, req.GapDuration)
	} else {
		result, err = timeline.ReorderTrack(data, req.TrackID, req.OrderedIDs, req.TimingMode, req.GapDuration)
	}
	if err != nil {
		a.logger.Warn("Reorder rejected", "projectID", req.ProjectID, "error", err)
		return rejection(err), nil
	}

	if err := a.store.SaveTimeline(ctx, req.ProjectID, data); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}

	message := fmt.Sprintf("reordered %d items", len(result.Items))
	if len(result.Conflicts) > 0 {
		message = fmt.Sprintf("reordered %d items with %d timing conflicts", len(result.Items), len(result.Conflicts))
	}
	return &MutationResult{
		Success:        true,
		Message:        message,
		ReorderedItems: result.Items,
		Conflicts:      result.Conflicts,
	}, nil
}

// ApplyFiltersActivity replaces the composition filter block
func (a *ActivitiesImpl) ApplyFiltersActivity(ctx context.Context, req ApplyFiltersRequest) (*MutationResult, error) {
	a.logger.Info("Applying filters", "projectID", req.ProjectID)

	data, err := a.LoadTimelineActivity(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	if req.Filters != nil {
		if err := req.Filters.Validate(); err != nil {
			a.logger.Warn("Filters rejected", "projectID", req.ProjectID, "error", err)
			return rejection(err), nil
		}
	}
	if req.Filters == nil || req.Filters.IsIdentity() {
		data.Filters = nil
	} else {
		data.Filters = req.Filters
	}

	if err := a.store.SaveTimeline(ctx, req.ProjectID, data); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}

	return &MutationResult{Success: true, Message: "composition filters updated"}, nil
}

// DeleteItemActivity removes an item by id with no cascading effects beyond
// the derived duration
func (a *ActivitiesImpl) DeleteItemActivity(ctx context.Context, req DeleteItemRequest) (*MutationResult, error) {
	a.logger.Info("Deleting item", "projectID", req.ProjectID, "itemID", req.ItemID)

	data, err := a.LoadTimelineActivity(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := data.RemoveItem(req.ItemID); err != nil {
		return rejection(err), nil
	}

	if err := a.store.SaveTimeline(ctx, req.ProjectID, data); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}
	return &MutationResult{Success: true, Message: fmt.Sprintf("deleted item %s", req.ItemID)}, nil
}

// SyncGraphActivity derives an ephemeral timeline from the graph, merges it
// into the persisted timeline, promotes the graph-derived items to stable
// ids, and persists the result. Running it twice with the same graph is a
// no-op the second time.
func (a *ActivitiesImpl) SyncGraphActivity(ctx context.Context, req SyncGraphRequest) (*MutationResult, error) {
	a.logger.Info("Syncing graph", "projectID", req.ProjectID, "nodes", len(req.Graph.Nodes))

	persisted, err := a.store.LoadTimeline(ctx, req.ProjectID)
	if err != nil {
		a.logger.Error("Failed to load timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to load timeline: %w", err)
	}

	// Populate onto the project's own track set so graph items land on its
	// first video track, whatever id it carries. Never-saved projects fall
	// back to the default skeleton.
	base := persisted
	if base == nil {
		base = timeline.NewDefaultTimeline()
	}

	sequence := req.Graph.Sequence()
	ephemeral := timeline.PopulateTimeline(sequence, base)
	merged := timeline.MergeTimelines(persisted, ephemeral)
	timeline.PromoteEphemeralItems(merged)

	if err := a.store.SaveTimeline(ctx, req.ProjectID, merged); err != nil {
		a.logger.Error("Failed to save timeline", "projectID", req.ProjectID, "error", err)
		return nil, fmt.Errorf("failed to save timeline: %w", err)
	}

	return &MutationResult{
		Success:  true,
		Message:  fmt.Sprintf("synced %d graph nodes into the timeline", len(sequence)),
		Timeline: merged,
	}, nil
}
