package timeline

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    TimelineItem
		wantErr string
	}{
		{
			"valid item",
			TimelineItem{ID: "x", Kind: ItemKindVideo, StartTime: 0, EndTime: 5, AssetStartTime: 0, AssetEndTime: 5},
			"",
		},
		{
			"end before start",
			TimelineItem{ID: "x", Kind: ItemKindVideo, StartTime: 5, EndTime: 5, AssetEndTime: 1},
			"endTime",
		},
		{
			"trim window inverted",
			TimelineItem{ID: "x", Kind: ItemKindVideo, StartTime: 0, EndTime: 5, AssetStartTime: 3, AssetEndTime: 3},
			"assetEndTime",
		},
		{
			"negative start",
			TimelineItem{ID: "x", Kind: ItemKindVideo, StartTime: -1, EndTime: 5, AssetEndTime: 5},
			"negative",
		},
		{
			"overlay on audio item",
			TimelineItem{ID: "x", Kind: ItemKindAudio, StartTime: 0, EndTime: 5, AssetEndTime: 5, Overlay: &Overlay{Width: 100, Height: 100}},
			"audio",
		},
		{
			"volume out of range",
			TimelineItem{ID: "x", Kind: ItemKindAudio, StartTime: 0, EndTime: 5, AssetEndTime: 5, Volume: floatPtr(2.5)},
			"volume",
		},
		{
			"opacity out of range",
			TimelineItem{ID: "x", Kind: ItemKindVideo, StartTime: 0, EndTime: 5, AssetEndTime: 5, Opacity: floatPtr(1.5)},
			"opacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected valid item, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestOverlayValidate(t *testing.T) {
	if err := (Overlay{X: 1720, Y: 980, Width: 200, Height: 100}).Validate(); err != nil {
		t.Errorf("Overlay flush against the canvas edge should validate: %v", err)
	}
	if err := (Overlay{X: 1800, Y: 0, Width: 200, Height: 100}).Validate(); err == nil {
		t.Error("Overlay exceeding canvas width should fail")
	}
	if err := (Overlay{X: 0, Y: 1000, Width: 100, Height: 100}).Validate(); err == nil {
		t.Error("Overlay exceeding canvas height should fail")
	}
}

func TestRecomputeDuration(t *testing.T) {
	data := timelineWithItems([2]float64{0, 5}, [2]float64{10, 22})
	if data.Duration != 22 {
		t.Errorf("Expected duration 22, got %g", data.Duration)
	}

	if err := data.RemoveItem("b-item"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if data.Duration != 5 {
		t.Errorf("Duration should shrink after removal, got %g", data.Duration)
	}
}

func TestRemoveMissingItem(t *testing.T) {
	data := NewDefaultTimeline()
	if err := data.RemoveItem("nope"); err == nil {
		t.Error("Removing an unknown item should fail")
	}
}

func TestValidateCatchesKindMismatch(t *testing.T) {
	data := NewDefaultTimeline()
	audio := data.FirstTrackOfKind(TrackKindAudio)
	audio.Items = append(audio.Items, TimelineItem{
		ID:           "wrong",
		Kind:         ItemKindVideo,
		StartTime:    0,
		EndTime:      5,
		AssetEndTime: 5,
		TrackID:      audio.ID,
	})
	data.RecomputeDuration()

	if err := data.Validate(); err == nil {
		t.Error("A video item on an audio track must fail validation")
	}
}

func TestFiltersValidate(t *testing.T) {
	good := CompositionFilters{Contrast: floatPtr(1.2), HueRotate: floatPtr(-90)}
	if err := good.Validate(); err != nil {
		t.Errorf("Filters in range should validate: %v", err)
	}

	bad := CompositionFilters{Blur: floatPtr(11)}
	if err := bad.Validate(); err == nil {
		t.Error("Blur beyond 10 should fail")
	}
}

func TestFiltersIdentityOmittedFromWireFormat(t *testing.T) {
	data := NewDefaultTimeline()
	identity := CompositionFilters{Contrast: floatPtr(1.0)}
	if !identity.IsIdentity() {
		t.Error("All-default filters should report identity")
	}
	if identity.IsIdentity() {
		data.Filters = nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(raw), "compositionFilters") {
		t.Error("Identity filter block must be absent from the wire format")
	}

	data.Filters = &CompositionFilters{Grayscale: floatPtr(1.0)}
	raw, _ = json.Marshal(data)
	if !strings.Contains(string(raw), "compositionFilters") {
		t.Error("Non-identity filters must appear in the wire format")
	}
}
