package timeline

import (
	"strings"
	"testing"
)

func TestReorderSequentialWithGap(t *testing.T) {
	// Items of length 2, 3, 4
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5}, [2]float64{5, 9})
	trackID := data.MainTrackID()

	result, err := ReorderTrack(data, trackID, []string{"a-item", "b-item", "c-item"}, TimingSequential, 1)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	expected := [][2]float64{{0, 2}, {3, 6}, {7, 11}}
	for i, want := range expected {
		got := result.Items[i]
		if got.StartTime != want[0] || got.EndTime != want[1] {
			t.Errorf("Item %d should cover [%g, %g), got [%g, %g)", i, want[0], want[1], got.StartTime, got.EndTime)
		}
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Sequential packing cannot conflict, got %v", result.Conflicts)
	}
}

func TestReorderSequentialReversed(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5})
	trackID := data.MainTrackID()

	result, err := ReorderTrack(data, trackID, []string{"b-item", "a-item"}, TimingSequential, 0)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	if result.Items[0].ID != "b-item" || result.Items[0].StartTime != 0 || result.Items[0].EndTime != 3 {
		t.Errorf("Reversed first item should be b-item at [0, 3), got %s [%g, %g)",
			result.Items[0].ID, result.Items[0].StartTime, result.Items[0].EndTime)
	}
	if result.Items[1].ID != "a-item" || result.Items[1].StartTime != 3 || result.Items[1].EndTime != 5 {
		t.Errorf("Reversed second item should be a-item at [3, 5), got %s [%g, %g)",
			result.Items[1].ID, result.Items[1].StartTime, result.Items[1].EndTime)
	}
}

func TestReorderPreserveGaps(t *testing.T) {
	// Original layout: [0,2) gap 1 [3,6) gap 2 [8,12)
	data := timelineWithItems([2]float64{0, 2}, [2]float64{3, 6}, [2]float64{8, 12})
	trackID := data.MainTrackID()

	result, err := ReorderTrack(data, trackID, []string{"c-item", "a-item", "b-item"}, TimingPreserveGaps, 0)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	// New order re-anchored at 0 with the original gap sequence (1, 2)
	expected := []struct {
		id         string
		start, end float64
	}{
		{"c-item", 0, 4},
		{"a-item", 5, 7},
		{"b-item", 9, 12},
	}
	for i, want := range expected {
		got := result.Items[i]
		if got.ID != want.id || got.StartTime != want.start || got.EndTime != want.end {
			t.Errorf("Item %d: expected %s [%g, %g), got %s [%g, %g)",
				i, want.id, want.start, want.end, got.ID, got.StartTime, got.EndTime)
		}
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Preserved gaps cannot conflict, got %v", result.Conflicts)
	}
}

func TestReorderMaintainOriginalReportsOverlaps(t *testing.T) {
	// Two items already overlapping; maintain_original keeps their times
	data := timelineWithItems([2]float64{0, 5}, [2]float64{3, 8})
	trackID := data.MainTrackID()

	result, err := ReorderTrack(data, trackID, []string{"b-item", "a-item"}, TimingMaintainOriginal, 0)
	if err != nil {
		t.Fatalf("Reorder failed: %v", err)
	}

	if len(result.Conflicts) != 1 {
		t.Fatalf("Expected 1 reported conflict, got %d", len(result.Conflicts))
	}
	if !strings.Contains(result.Conflicts[0], "overlap") {
		t.Errorf("Conflict description should mention the overlap, got: %s", result.Conflicts[0])
	}
	// Times untouched
	for _, item := range result.Items {
		if item.ID == "a-item" && (item.StartTime != 0 || item.EndTime != 5) {
			t.Error("maintain_original must not retime items")
		}
	}
}

func TestReorderRejectsIncompleteList(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5})

	_, err := ReorderTrack(data, data.MainTrackID(), []string{"a-item"}, TimingSequential, 0)
	if err == nil {
		t.Fatal("Expected rejection when the reorder list misses items")
	}
}

func TestReorderRejectsDuplicateIDs(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5})

	_, err := ReorderTrack(data, data.MainTrackID(), []string{"a-item", "a-item"}, TimingSequential, 0)
	if err == nil {
		t.Fatal("Expected rejection for a duplicated item id")
	}
}

func TestReorderAcrossTracksSequential(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5})
	data.Tracks = append(data.Tracks, TimelineTrack{ID: "track-video-2", Kind: TrackKindVideo, Name: "Video 2"})

	result, err := ReorderAcrossTracks(data, []TrackAssignment{
		{ItemID: "b-item", TrackID: "track-video-2", Position: 0},
	}, TimingSequential, 0)
	if err != nil {
		t.Fatalf("Cross-track reorder failed: %v", err)
	}

	dest := data.FindTrack("track-video-2")
	if len(dest.Items) != 1 || dest.Items[0].ID != "b-item" {
		t.Fatal("Item should have moved to the destination track")
	}
	if dest.Items[0].StartTime != 0 || dest.Items[0].EndTime != 3 {
		t.Errorf("Sequential retime on destination should give [0, 3), got [%g, %g)",
			dest.Items[0].StartTime, dest.Items[0].EndTime)
	}
	if len(result.Conflicts) != 0 {
		t.Errorf("Expected no conflicts, got %v", result.Conflicts)
	}
	if err := data.Validate(); err != nil {
		t.Errorf("Invariants violated after cross-track reorder: %v", err)
	}
}

func TestReorderAcrossTracksMaintainOriginalConflict(t *testing.T) {
	data := timelineWithItems([2]float64{0, 5}, [2]float64{10, 15})
	data.Tracks = append(data.Tracks, TimelineTrack{
		ID:   "track-video-2",
		Kind: TrackKindVideo,
		Name: "Video 2",
		Items: []TimelineItem{{
			ID:           "blocker",
			Kind:         ItemKindVideo,
			StartTime:    0,
			EndTime:      8,
			AssetEndTime: 8,
			TrackID:      "track-video-2",
		}},
	})

	result, err := ReorderAcrossTracks(data, []TrackAssignment{
		{ItemID: "a-item", TrackID: "track-video-2", Position: 1},
	}, TimingMaintainOriginal, 0)
	if err != nil {
		t.Fatalf("Cross-track reorder failed: %v", err)
	}

	// a-item keeps [0, 5), which overlaps the blocker at [0, 8)
	if len(result.Conflicts) != 1 {
		t.Fatalf("Expected the overlap to be reported, got %v", result.Conflicts)
	}
}

func TestReorderAcrossTracksRejectsDuplicates(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2}, [2]float64{2, 5})

	_, err := ReorderAcrossTracks(data, []TrackAssignment{
		{ItemID: "a-item", TrackID: data.MainTrackID(), Position: 0},
		{ItemID: "a-item", TrackID: data.MainTrackID(), Position: 1},
	}, TimingSequential, 0)
	if err == nil {
		t.Fatal("Expected rejection for duplicate assignments")
	}
}

func TestReorderAcrossTracksRejectsKindMismatch(t *testing.T) {
	data := timelineWithItems([2]float64{0, 2})

	audioTrack := data.FirstTrackOfKind(TrackKindAudio)
	_, err := ReorderAcrossTracks(data, []TrackAssignment{
		{ItemID: "a-item", TrackID: audioTrack.ID, Position: 0},
	}, TimingSequential, 0)
	if err == nil {
		t.Fatal("Expected rejection moving a video item onto an audio track")
	}
}
