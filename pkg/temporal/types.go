package temporal

import (
	"errors"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

// PlaceAssetRequest places a single asset onto a project's timeline
type PlaceAssetRequest struct {
	ProjectID      string             `json:"project_id"`
	Asset          timeline.AssetRef  `json:"asset"`
	StartTime      float64            `json:"start_time"`
	EndTime        *float64           `json:"end_time,omitempty"`
	AssetStartTime *float64           `json:"asset_start_time,omitempty"`
	AssetEndTime   *float64           `json:"asset_end_time,omitempty"`
	TrackKind      timeline.TrackKind `json:"track_kind,omitempty"`
	TrackIndex     *int               `json:"track_index,omitempty"`
	Overlay        *timeline.Overlay  `json:"overlay,omitempty"`
	Volume         *float64           `json:"volume,omitempty"`
	Opacity        *float64           `json:"opacity,omitempty"`
}

// ModifyAssetRequest patches an existing item in place
type ModifyAssetRequest struct {
	ProjectID      string              `json:"project_id"`
	ItemID         string              `json:"item_id"`
	StartTime      *float64            `json:"start_time,omitempty"`
	EndTime        *float64            `json:"end_time,omitempty"`
	AssetStartTime *float64            `json:"asset_start_time,omitempty"`
	AssetEndTime   *float64            `json:"asset_end_time,omitempty"`
	Overlay        *timeline.Overlay   `json:"overlay,omitempty"`
	ClearOverlay   bool                `json:"clear_overlay,omitempty"`
	Volume         *float64            `json:"volume,omitempty"`
	Opacity        *float64            `json:"opacity,omitempty"`
	TargetTrackID  string              `json:"target_track_id,omitempty"`
	TargetKind     *timeline.TrackKind `json:"target_kind,omitempty"`
}

// ReorderRequest recomputes item times after a reordering operation. When
// Assignments is set the reorder spans tracks; otherwise TrackID and
// OrderedIDs describe a within-track reorder.
type ReorderRequest struct {
	ProjectID   string                     `json:"project_id"`
	TrackID     string                     `json:"track_id,omitempty"`
	OrderedIDs  []string                   `json:"ordered_ids,omitempty"`
	Assignments []timeline.TrackAssignment `json:"assignments,omitempty"`
	TimingMode  timeline.TimingMode        `json:"timing_mode"`
	GapDuration float64                    `json:"gap_duration,omitempty"`
}

// ApplyFiltersRequest replaces the whole-composition filters
type ApplyFiltersRequest struct {
	ProjectID string                       `json:"project_id"`
	Filters   *timeline.CompositionFilters `json:"filters"`
}

// DeleteItemRequest removes an item by id
type DeleteItemRequest struct {
	ProjectID string `json:"project_id"`
	ItemID    string `json:"item_id"`
}

// SyncGraphRequest derives a timeline from the content graph and merges it
// into the persisted timeline, promoting graph-derived items
type SyncGraphRequest struct {
	ProjectID string         `json:"project_id"`
	Graph     timeline.Graph `json:"graph"`
}

// MutationResult is returned by every mutation entry point: a success flag
// plus a human-readable message suitable for direct display, and whichever
// payload fields the operation produces. Conflict marks rejections caused by
// an interval collision rather than an invalid request.
type MutationResult struct {
	Success        bool                    `json:"success"`
	Conflict       bool                    `json:"conflict,omitempty"`
	Message        string                  `json:"message"`
	ItemID         string                  `json:"itemId,omitempty"`
	TrackID        string                  `json:"trackId,omitempty"`
	UpdatedItem    *timeline.TimelineItem  `json:"updatedItem,omitempty"`
	ReorderedItems []timeline.TimelineItem `json:"reorderedItems,omitempty"`
	Conflicts      []string                `json:"conflicts,omitempty"`
	Timeline       *timeline.TimelineData  `json:"timeline,omitempty"`
}

func failure(message string) *MutationResult {
	return &MutationResult{Success: false, Message: message}
}

// rejection converts an engine error into a failed result, flagging interval
// conflicts so the HTTP layer can map them to a distinct status
func rejection(err error) *MutationResult {
	var conflict *timeline.ConflictError
	return &MutationResult{
		Success:  false,
		Conflict: errors.As(err, &conflict),
		Message:  err.Error(),
	}
}
