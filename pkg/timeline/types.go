package timeline

import (
	"fmt"
	"sort"
	"strings"
)

// Canvas dimensions for the composed frame, in pixels
const (
	CanvasWidth  = 1920.0
	CanvasHeight = 1080.0
)

// EphemeralIDPrefix marks graph-derived items that only exist for display
// until they are promoted into persisted items with stable ids.
const EphemeralIDPrefix = "graph-"

// ItemKind identifies the media type of a timeline item
type ItemKind string

const (
	ItemKindVideo ItemKind = "video"
	ItemKindImage ItemKind = "image"
	ItemKindAudio ItemKind = "audio"
	ItemKindDraft ItemKind = "draft"
)

// TrackKind identifies the media type a track carries
type TrackKind string

const (
	TrackKindVideo TrackKind = "video"
	TrackKindAudio TrackKind = "audio"
)

// Overlay is the pixel-space position and size of a visual item within the
// composed frame
type Overlay struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ZIndex *int    `json:"zIndex,omitempty"`
}

// Validate checks that the overlay stays inside the canvas frame
func (o Overlay) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("overlay dimensions must be positive, got %gx%g", o.Width, o.Height)
	}
	if o.X < 0 || o.Y < 0 {
		return fmt.Errorf("overlay position must not be negative, got (%g, %g)", o.X, o.Y)
	}
	if o.X+o.Width > CanvasWidth {
		return fmt.Errorf("overlay exceeds canvas width: x=%g + width=%g > %g", o.X, o.Width, CanvasWidth)
	}
	if o.Y+o.Height > CanvasHeight {
		return fmt.Errorf("overlay exceeds canvas height: y=%g + height=%g > %g", o.Y, o.Height, CanvasHeight)
	}
	return nil
}

// TimelineItem is a single placed clip with a timeline position and a trim
// window into its source asset. Times are absolute seconds on the timeline.
type TimelineItem struct {
	ID             string   `json:"id"`
	AssetID        string   `json:"assetId,omitempty"`
	Kind           ItemKind `json:"kind"`
	StartTime      float64  `json:"startTime"`
	EndTime        float64  `json:"endTime"`
	AssetStartTime float64  `json:"assetStartTime"`
	AssetEndTime   float64  `json:"assetEndTime"`
	TrackID        string   `json:"trackId"`
	Overlay        *Overlay `json:"overlay,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Opacity        *float64 `json:"opacity,omitempty"`
	Name           string   `json:"name,omitempty"`
}

// IsEphemeral reports whether the item is graph-derived and not persisted
func (i TimelineItem) IsEphemeral() bool {
	return strings.HasPrefix(i.ID, EphemeralIDPrefix)
}

// Duration returns the item's length on the timeline in seconds
func (i TimelineItem) Duration() float64 {
	return i.EndTime - i.StartTime
}

// Overlaps reports whether two half-open intervals [StartTime, EndTime)
// intersect
func (i TimelineItem) Overlaps(other TimelineItem) bool {
	return i.StartTime < other.EndTime && other.StartTime < i.EndTime
}

// Validate checks the item's internal invariants
func (i TimelineItem) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("item id must not be empty")
	}
	if i.EndTime <= i.StartTime {
		return fmt.Errorf("item %s: endTime %g must be greater than startTime %g", i.ID, i.EndTime, i.StartTime)
	}
	if i.AssetEndTime <= i.AssetStartTime {
		return fmt.Errorf("item %s: assetEndTime %g must be greater than assetStartTime %g", i.ID, i.AssetEndTime, i.AssetStartTime)
	}
	if i.StartTime < 0 {
		return fmt.Errorf("item %s: startTime must not be negative, got %g", i.ID, i.StartTime)
	}
	if i.Overlay != nil {
		if i.Kind == ItemKindAudio {
			return fmt.Errorf("item %s: audio items cannot carry an overlay", i.ID)
		}
		if err := i.Overlay.Validate(); err != nil {
			return fmt.Errorf("item %s: %w", i.ID, err)
		}
	}
	if i.Volume != nil && (*i.Volume < 0 || *i.Volume > 2.0) {
		return fmt.Errorf("item %s: volume must be within [0.0, 2.0], got %g", i.ID, *i.Volume)
	}
	if i.Opacity != nil && (*i.Opacity < 0 || *i.Opacity > 1.0) {
		return fmt.Errorf("item %s: opacity must be within [0.0, 1.0], got %g", i.ID, *i.Opacity)
	}
	return nil
}

// TrackKindForItem maps an item kind to the track kind it must sit on.
// Image and draft items are treated as video for placement purposes.
func TrackKindForItem(kind ItemKind) TrackKind {
	if kind == ItemKindAudio {
		return TrackKindAudio
	}
	return TrackKindVideo
}

// TimelineTrack is an ordered lane of items of one medium kind
type TimelineTrack struct {
	ID     string         `json:"id"`
	Kind   TrackKind      `json:"kind"`
	Name   string         `json:"name"`
	Items  []TimelineItem `json:"items"`
	Muted  bool           `json:"muted,omitempty"`
	Locked bool           `json:"locked,omitempty"`
}

// FindItem returns the index of the item with the given id, or -1
func (t TimelineTrack) FindItem(itemID string) int {
	for idx, item := range t.Items {
		if item.ID == itemID {
			return idx
		}
	}
	return -1
}

// HasOverlapIn reports whether any item on the track, other than the one
// named by excludeID, intersects [start, end)
func (t TimelineTrack) HasOverlapIn(start, end float64, excludeID string) bool {
	for _, item := range t.Items {
		if item.ID == excludeID {
			continue
		}
		if start < item.EndTime && item.StartTime < end {
			return true
		}
	}
	return false
}

// SortItemsByStart orders the track's items by start time, keeping the
// relative order of items that start together
func (t *TimelineTrack) SortItemsByStart() {
	sort.SliceStable(t.Items, func(i, j int) bool {
		return t.Items[i].StartTime < t.Items[j].StartTime
	})
}

// TimelineData is the top-level aggregate handed to the renderer
type TimelineData struct {
	Tracks        []TimelineTrack     `json:"tracks"`
	Duration      float64             `json:"duration"`
	TimelineScale float64             `json:"timelineScale"`
	Filters       *CompositionFilters `json:"compositionFilters,omitempty"`
}

// DefaultTimelineScale is the display width of one second, in pixels
const DefaultTimelineScale = 50.0

// NewDefaultTimeline returns the fixed two-track skeleton used when no
// persisted timeline exists yet
func NewDefaultTimeline() *TimelineData {
	return &TimelineData{
		Tracks: []TimelineTrack{
			{ID: "track-video-1", Kind: TrackKindVideo, Name: "Video 1"},
			{ID: "track-audio-1", Kind: TrackKindAudio, Name: "Audio 1"},
		},
		TimelineScale: DefaultTimelineScale,
	}
}

// FindTrack returns a pointer to the track with the given id, or nil
func (d *TimelineData) FindTrack(trackID string) *TimelineTrack {
	for i := range d.Tracks {
		if d.Tracks[i].ID == trackID {
			return &d.Tracks[i]
		}
	}
	return nil
}

// FirstTrackOfKind returns a pointer to the first track of the given kind,
// or nil
func (d *TimelineData) FirstTrackOfKind(kind TrackKind) *TimelineTrack {
	for i := range d.Tracks {
		if d.Tracks[i].Kind == kind {
			return &d.Tracks[i]
		}
	}
	return nil
}

// MainTrackID returns the id of the designated main track (the first video
// track), or empty when the timeline has none
func (d *TimelineData) MainTrackID() string {
	if t := d.FirstTrackOfKind(TrackKindVideo); t != nil {
		return t.ID
	}
	return ""
}

// FindItem locates an item anywhere on the timeline, returning the owning
// track and the item's index, or (nil, -1)
func (d *TimelineData) FindItem(itemID string) (*TimelineTrack, int) {
	for i := range d.Tracks {
		if idx := d.Tracks[i].FindItem(itemID); idx >= 0 {
			return &d.Tracks[i], idx
		}
	}
	return nil, -1
}

// RemoveItem deletes an item by id and recomputes the derived duration.
// Removal has no cascading effects beyond the duration update.
func (d *TimelineData) RemoveItem(itemID string) error {
	track, idx := d.FindItem(itemID)
	if track == nil {
		return fmt.Errorf("item %s not found", itemID)
	}
	track.Items = append(track.Items[:idx], track.Items[idx+1:]...)
	d.RecomputeDuration()
	return nil
}

// RecomputeDuration derives the timeline duration from the maximum item end
// time across all tracks. Duration is never mutated independently.
func (d *TimelineData) RecomputeDuration() {
	var max float64
	for _, track := range d.Tracks {
		for _, item := range track.Items {
			if item.EndTime > max {
				max = item.EndTime
			}
		}
	}
	d.Duration = max
}

// Validate checks every timeline invariant: item ordering, track/item kind
// compatibility, overlay bounds, and the derived duration
func (d *TimelineData) Validate() error {
	seen := make(map[string]bool)
	var max float64
	for _, track := range d.Tracks {
		for _, item := range track.Items {
			if err := item.Validate(); err != nil {
				return err
			}
			if seen[item.ID] {
				return fmt.Errorf("duplicate item id %s", item.ID)
			}
			seen[item.ID] = true
			if item.TrackID != track.ID {
				return fmt.Errorf("item %s carries trackId %s but sits on track %s", item.ID, item.TrackID, track.ID)
			}
			if TrackKindForItem(item.Kind) != track.Kind {
				return fmt.Errorf("item %s of kind %s cannot sit on %s track %s", item.ID, item.Kind, track.Kind, track.ID)
			}
			if item.EndTime > max {
				max = item.EndTime
			}
		}
	}
	if d.Duration != max {
		return fmt.Errorf("duration %g is stale, max item end time is %g", d.Duration, max)
	}
	if d.Filters != nil {
		if err := d.Filters.Validate(); err != nil {
			return err
		}
	}
	return nil
}
