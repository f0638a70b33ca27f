package timeline

import (
	"fmt"
	"sort"
)

// TimingMode controls how item times are recomputed after a reorder
type TimingMode string

const (
	// TimingMaintainOriginal keeps every item's original times; the reorder
	// is conceptual only and may produce overlaps, which are reported
	TimingMaintainOriginal TimingMode = "maintain_original"
	// TimingSequential packs items back-to-back in list order, with an
	// optional fixed gap between consecutive items
	TimingSequential TimingMode = "sequential"
	// TimingPreserveGaps keeps the original spacing between consecutive
	// items but re-anchors the sequence to the new order
	TimingPreserveGaps TimingMode = "preserve_gaps"
)

// TrackAssignment moves one item to a target track at an ordinal position
type TrackAssignment struct {
	ItemID   string `json:"itemId"`
	TrackID  string `json:"trackId"`
	Position int    `json:"position"`
}

// ReorderResult carries the recomputed items and any timing conflicts. The
// engine reports conflicts as human-readable descriptions and never resolves
// them silently; the caller decides whether to accept them.
type ReorderResult struct {
	Items     []TimelineItem `json:"reorderedItems"`
	Conflicts []string       `json:"conflicts"`
}

// ReorderTrack reorders the items of a single track. orderedIDs must list
// every item on the track exactly once, in the desired new order.
func ReorderTrack(data *TimelineData, trackID string, orderedIDs []string, mode TimingMode, gapDuration float64) (*ReorderResult, error) {
	track := data.FindTrack(trackID)
	if track == nil {
		return nil, fmt.Errorf("track %s not found", trackID)
	}
	if len(orderedIDs) != len(track.Items) {
		return nil, fmt.Errorf("reorder must list all %d items on track %s, got %d ids", len(track.Items), trackID, len(orderedIDs))
	}

	byID := make(map[string]TimelineItem, len(track.Items))
	for _, item := range track.Items {
		byID[item.ID] = item
	}

	ordered := make([]TimelineItem, 0, len(orderedIDs))
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return nil, fmt.Errorf("item %s appears more than once in the reorder list", id)
		}
		seen[id] = true
		item, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("item %s is not on track %s", id, trackID)
		}
		ordered = append(ordered, item)
	}

	retimed := retime(ordered, track.Items, mode, gapDuration)
	track.Items = retimed
	if mode != TimingMaintainOriginal {
		track.SortItemsByStart()
	}
	data.RecomputeDuration()

	return &ReorderResult{
		Items:     append([]TimelineItem(nil), retimed...),
		Conflicts: detectConflicts(data, []string{trackID}),
	}, nil
}

// ReorderAcrossTracks moves a set of items to target tracks at ordinal
// positions, recomputing times with the same timing-mode semantics applied
// within each destination track. No item id may repeat across assignments.
func ReorderAcrossTracks(data *TimelineData, assignments []TrackAssignment, mode TimingMode, gapDuration float64) (*ReorderResult, error) {
	seen := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if seen[a.ItemID] {
			return nil, fmt.Errorf("item %s appears in more than one assignment", a.ItemID)
		}
		seen[a.ItemID] = true
	}

	// Validate every assignment before touching anything
	moved := make(map[string]TimelineItem, len(assignments))
	for _, a := range assignments {
		track, idx := data.FindItem(a.ItemID)
		if track == nil {
			return nil, fmt.Errorf("item %s not found", a.ItemID)
		}
		dest := data.FindTrack(a.TrackID)
		if dest == nil {
			return nil, fmt.Errorf("destination track %s not found", a.TrackID)
		}
		item := track.Items[idx]
		if TrackKindForItem(item.Kind) != dest.Kind {
			return nil, fmt.Errorf("item %s of kind %s cannot move to %s track %s", item.ID, item.Kind, dest.Kind, dest.ID)
		}
		moved[a.ItemID] = item
	}

	// Detach every assigned item from its current track
	for i := range data.Tracks {
		track := &data.Tracks[i]
		kept := track.Items[:0]
		for _, item := range track.Items {
			if _, ok := moved[item.ID]; !ok {
				kept = append(kept, item)
			}
		}
		track.Items = kept
	}

	// Insert into destination tracks at the requested ordinal positions,
	// stable within one track by assignment order
	touched := make(map[string]bool)
	perTrack := make(map[string][]TrackAssignment)
	for _, a := range assignments {
		perTrack[a.TrackID] = append(perTrack[a.TrackID], a)
		touched[a.TrackID] = true
	}

	var reordered []TimelineItem
	for trackID, trackAssignments := range perTrack {
		track := data.FindTrack(trackID)
		original := append([]TimelineItem(nil), track.Items...)

		sort.SliceStable(trackAssignments, func(i, j int) bool {
			return trackAssignments[i].Position < trackAssignments[j].Position
		})
		ordered := append([]TimelineItem(nil), track.Items...)
		for _, a := range trackAssignments {
			item := moved[a.ItemID]
			item.TrackID = trackID
			pos := a.Position
			if pos < 0 {
				pos = 0
			}
			if pos > len(ordered) {
				pos = len(ordered)
			}
			ordered = append(ordered[:pos], append([]TimelineItem{item}, ordered[pos:]...)...)
		}

		retimed := retime(ordered, original, mode, gapDuration)
		track.Items = retimed
		if mode != TimingMaintainOriginal {
			track.SortItemsByStart()
		}
		reordered = append(reordered, retimed...)
	}

	data.RecomputeDuration()

	trackIDs := make([]string, 0, len(touched))
	for id := range touched {
		trackIDs = append(trackIDs, id)
	}
	sort.Strings(trackIDs)

	return &ReorderResult{
		Items:     reordered,
		Conflicts: detectConflicts(data, trackIDs),
	}, nil
}

// retime recomputes times for the new order. The gap sequence for
// preserve_gaps and the anchor both come from the items' previous layout on
// the track (previous may be empty, in which case the anchor is zero).
func retime(ordered, previous []TimelineItem, mode TimingMode, gapDuration float64) []TimelineItem {
	result := append([]TimelineItem(nil), ordered...)

	switch mode {
	case TimingSequential:
		current := 0.0
		for i := range result {
			duration := result[i].Duration()
			if i > 0 {
				current += gapDuration
			}
			result[i].StartTime = current
			result[i].EndTime = current + duration
			current = result[i].EndTime
		}

	case TimingPreserveGaps:
		sorted := append([]TimelineItem(nil), previous...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartTime < sorted[j].StartTime
		})
		anchor := 0.0
		var gaps []float64
		if len(sorted) > 0 {
			anchor = sorted[0].StartTime
			for i := 1; i < len(sorted); i++ {
				gap := sorted[i].StartTime - sorted[i-1].EndTime
				if gap < 0 {
					gap = 0
				}
				gaps = append(gaps, gap)
			}
		}
		current := anchor
		for i := range result {
			if i > 0 {
				gap := 0.0
				if i-1 < len(gaps) {
					gap = gaps[i-1]
				}
				current += gap
			}
			duration := result[i].Duration()
			result[i].StartTime = current
			result[i].EndTime = current + duration
			current = result[i].EndTime
		}

	case TimingMaintainOriginal:
		// No timing change; the order is conceptual only
	}

	return result
}

// detectConflicts reports every overlapping item pair on the named tracks
func detectConflicts(data *TimelineData, trackIDs []string) []string {
	var conflicts []string
	for _, trackID := range trackIDs {
		track := data.FindTrack(trackID)
		if track == nil {
			continue
		}
		items := append([]TimelineItem(nil), track.Items...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].StartTime < items[j].StartTime
		})
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				if items[i].Overlaps(items[j]) {
					conflicts = append(conflicts, fmt.Sprintf(
						"items %s [%g, %g) and %s [%g, %g) overlap on track %s",
						items[i].ID, items[i].StartTime, items[i].EndTime,
						items[j].ID, items[j].StartTime, items[j].EndTime,
						trackID,
					))
				}
			}
		}
	}
	return conflicts
}
