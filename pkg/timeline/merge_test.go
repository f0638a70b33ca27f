package timeline

import (
	"reflect"
	"testing"
)

func persistedWithItem(id string, start, end float64) *TimelineData {
	data := NewDefaultTimeline()
	track := data.FirstTrackOfKind(TrackKindVideo)
	track.Items = append(track.Items, TimelineItem{
		ID:           id,
		Kind:         ItemKindVideo,
		StartTime:    start,
		EndTime:      end,
		AssetEndTime: end - start,
		TrackID:      track.ID,
	})
	data.RecomputeDuration()
	return data
}

func TestMergeNilPersistedUsesSkeleton(t *testing.T) {
	ephemeral := PopulateTimeline([]Node{videoNode("v1", 10)}, nil)

	merged := MergeTimelines(nil, ephemeral)

	if len(merged.Tracks) != 2 {
		t.Fatalf("Expected default two-track skeleton, got %d tracks", len(merged.Tracks))
	}
	track := merged.FirstTrackOfKind(TrackKindVideo)
	if len(track.Items) != 1 {
		t.Errorf("Expected the ephemeral item to carry over, got %d items", len(track.Items))
	}
	if merged.Duration != 10 {
		t.Errorf("Expected recomputed duration 10, got %g", merged.Duration)
	}
}

func TestMergeDedupesPromotedItems(t *testing.T) {
	// A persisted item with id "v1" has already absorbed ephemeral "graph-v1"
	persisted := persistedWithItem("v1", 0, 10)
	ephemeral := PopulateTimeline([]Node{videoNode("v1", 10)}, nil)

	merged := MergeTimelines(persisted, ephemeral)

	track := merged.FirstTrackOfKind(TrackKindVideo)
	if len(track.Items) != 1 {
		t.Fatalf("Promoted item must not coexist with its ephemeral twin, got %d items", len(track.Items))
	}
	if track.Items[0].ID != "v1" {
		t.Errorf("Persisted item should win, got id %s", track.Items[0].ID)
	}
}

func TestMergeKeepsUnrelatedEphemeralItems(t *testing.T) {
	persisted := persistedWithItem("other", 0, 4)
	ephemeral := PopulateTimeline([]Node{videoNode("v1", 10)}, nil)
	// Shift the ephemeral item clear of the persisted one
	ephTrack := ephemeral.FirstTrackOfKind(TrackKindVideo)
	ephTrack.Items[0].StartTime = 4
	ephTrack.Items[0].EndTime = 14

	merged := MergeTimelines(persisted, ephemeral)

	track := merged.FirstTrackOfKind(TrackKindVideo)
	if len(track.Items) != 2 {
		t.Fatalf("Expected persisted + ephemeral item, got %d", len(track.Items))
	}
	// Sorted by start time
	if track.Items[0].ID != "other" || track.Items[1].ID != EphemeralIDPrefix+"v1" {
		t.Errorf("Unexpected merged order: %s, %s", track.Items[0].ID, track.Items[1].ID)
	}
}

func TestMergeIdempotence(t *testing.T) {
	persisted := persistedWithItem("v1", 0, 10)
	ephemeral := PopulateTimeline([]Node{videoNode("v1", 10), videoNode("v2", 5)}, nil)

	once := MergeTimelines(persisted, ephemeral)
	twice := MergeTimelines(once, ephemeral)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Merging the same ephemeral timeline twice must be idempotent\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeRecomputesDuration(t *testing.T) {
	persisted := persistedWithItem("v1", 0, 30)
	ephemeral := PopulateTimeline([]Node{videoNode("v2", 5)}, nil)

	merged := MergeTimelines(persisted, ephemeral)
	if merged.Duration != 30 {
		t.Errorf("Duration must be the max end time across tracks, got %g", merged.Duration)
	}
}
