package timeline

import (
	"fmt"
	"math"
)

// Snap thresholds, in seconds
const (
	NeighborSnapThreshold = 0.5
	GridSnapThreshold     = 0.25
)

// DragPhase is the state of the drag machine
type DragPhase string

const (
	DragIdle     DragPhase = "idle"
	DragDragging DragPhase = "dragging"
)

// DragState tracks a single in-progress drag. Pointer moves only update the
// candidate position; nothing is committed until the terminal End, so the
// machine tolerates move events arriving faster than commits.
type DragState struct {
	Phase          DragPhase
	ItemID         string
	OriginalStart  float64
	CandidateStart float64
	itemDuration   float64
	trackID        string
	mainTrack      bool
}

// BeginDrag starts a drag for the given item. The main track (first video
// track) is the only one where snapping applies.
func BeginDrag(data *TimelineData, itemID string) (DragState, error) {
	track, idx := data.FindItem(itemID)
	if track == nil {
		return DragState{}, fmt.Errorf("item %s not found", itemID)
	}
	item := track.Items[idx]
	return DragState{
		Phase:          DragDragging,
		ItemID:         itemID,
		OriginalStart:  item.StartTime,
		CandidateStart: item.StartTime,
		itemDuration:   item.Duration(),
		trackID:        track.ID,
		mainTrack:      track.ID == data.MainTrackID(),
	}, nil
}

// ComputeCandidate is the pure transition for a pointer-move event: it
// converts the pixel offset to seconds, clamps at zero, and applies the snap
// rules when the item sits on the main track. It never mutates the timeline.
func ComputeCandidate(data *TimelineData, state DragState, pixelOffset float64) DragState {
	if state.Phase != DragDragging {
		return state
	}

	scale := data.TimelineScale
	if scale <= 0 {
		scale = DefaultTimelineScale
	}

	candidate := state.OriginalStart + pixelOffset/scale
	if candidate < 0 {
		candidate = 0
	}

	if state.mainTrack {
		candidate = applySnap(data, state, candidate)
	}

	state.CandidateStart = candidate
	return state
}

// applySnap applies neighbor snap first, then grid snap. Neighbor snap is a
// tie-break rule, not a distance-minimizing search: the first neighbor
// boundary within threshold wins, in iteration order.
func applySnap(data *TimelineData, state DragState, candidate float64) float64 {
	track := data.FindTrack(state.trackID)
	if track == nil {
		return candidate
	}

	candidateEnd := candidate + state.itemDuration
	for _, neighbor := range track.Items {
		if neighbor.ID == state.ItemID {
			continue
		}
		if math.Abs(candidate-neighbor.StartTime) <= NeighborSnapThreshold {
			return neighbor.StartTime
		}
		if math.Abs(candidate-neighbor.EndTime) <= NeighborSnapThreshold {
			return neighbor.EndTime
		}
		if math.Abs(candidateEnd-neighbor.StartTime) <= NeighborSnapThreshold {
			snapped := neighbor.StartTime - state.itemDuration
			if snapped < 0 {
				snapped = 0
			}
			return snapped
		}
	}

	nearest := math.Round(candidate)
	if math.Abs(candidate-nearest) <= GridSnapThreshold && nearest >= 0 {
		return nearest
	}
	return candidate
}

// EndDrag commits the final candidate position through the modification
// engine and returns the machine to idle. Ephemeral items are never
// committed; dragging them is visual-only.
func EndDrag(data *TimelineData, state DragState) (DragState, error) {
	if state.Phase != DragDragging {
		return state, fmt.Errorf("no drag in progress")
	}

	done := state
	done.Phase = DragIdle

	track, idx := data.FindItem(state.ItemID)
	if track == nil {
		return done, fmt.Errorf("item %s not found", state.ItemID)
	}
	if track.Items[idx].IsEphemeral() {
		return done, nil
	}

	start := state.CandidateStart
	end := start + state.itemDuration
	if _, err := ModifyItem(data, ModifyRequest{
		ItemID:    state.ItemID,
		StartTime: &start,
		EndTime:   &end,
	}); err != nil {
		return done, err
	}
	return done, nil
}
