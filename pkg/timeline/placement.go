package timeline

import (
	"fmt"

	"github.com/google/uuid"
)

// AssetRef is the opaque reference to a source asset, carrying only the
// fields needed for default sizing
type AssetRef struct {
	ID       string        `json:"id"`
	Kind     ItemKind      `json:"kind"`
	URL      string        `json:"url"`
	Name     string        `json:"name,omitempty"`
	Metadata AssetMetadata `json:"metadata"`
}

// PlacementRequest asks for a single asset to be placed onto the timeline at
// a caller-specified time and track
type PlacementRequest struct {
	Asset          AssetRef
	StartTime      float64
	EndTime        *float64 // derived from the asset duration when nil
	AssetStartTime *float64 // trim window; defaults to the full asset
	AssetEndTime   *float64
	TrackKind      TrackKind
	TrackIndex     *int // preferred track, by index among tracks of TrackKind
	Overlay        *Overlay
	Volume         *float64
	Opacity        *float64
}

// PlacementResult reports where the new item landed
type PlacementResult struct {
	ItemID  string `json:"itemId"`
	TrackID string `json:"trackId"`
}

// PlaceAsset validates the request and places a brand-new item onto the
// timeline, auto-resolving track conflicts: the preferred track is tried
// first, then existing tracks of the requested kind in order, and when every
// one has an overlapping item in [startTime, endTime) a new track is created.
// This is the only path by which a new item enters the persisted timeline
// outside of reorder and merge.
func PlaceAsset(data *TimelineData, req PlacementRequest) (*PlacementResult, error) {
	if req.StartTime < 0 {
		return nil, fmt.Errorf("startTime must not be negative, got %g", req.StartTime)
	}

	assetDuration := req.Asset.Metadata.Duration
	if assetDuration <= 0 {
		switch req.Asset.Kind {
		case ItemKindImage:
			assetDuration = DefaultImageDuration
		case ItemKindAudio:
			assetDuration = DefaultAudioDuration
		default:
			assetDuration = DefaultVideoDuration
		}
	}

	endTime := req.StartTime + assetDuration
	if req.EndTime != nil {
		endTime = *req.EndTime
	}
	if endTime <= req.StartTime {
		return nil, fmt.Errorf("endTime %g must be greater than startTime %g", endTime, req.StartTime)
	}

	if req.Overlay != nil {
		if err := req.Overlay.Validate(); err != nil {
			return nil, err
		}
	}

	assetStart, assetEnd := 0.0, assetDuration
	if req.AssetStartTime != nil || req.AssetEndTime != nil {
		if req.AssetStartTime != nil {
			assetStart = *req.AssetStartTime
		}
		if req.AssetEndTime != nil {
			assetEnd = *req.AssetEndTime
		}
		if assetEnd <= assetStart {
			return nil, fmt.Errorf("assetEndTime %g must be greater than assetStartTime %g", assetEnd, assetStart)
		}
	}

	// Fully validate the item before touching the timeline: assignTrack may
	// append a new track, and a rejected placement must leave no trace.
	item := TimelineItem{
		ID:             uuid.NewString(),
		AssetID:        req.Asset.ID,
		Kind:           req.Asset.Kind,
		Name:           req.Asset.Name,
		StartTime:      req.StartTime,
		EndTime:        endTime,
		AssetStartTime: assetStart,
		AssetEndTime:   assetEnd,
		Overlay:        req.Overlay,
		Volume:         req.Volume,
		Opacity:        req.Opacity,
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	track := assignTrack(data, req.TrackKind, req.TrackIndex, req.StartTime, endTime)
	item.TrackID = track.ID

	track.Items = append(track.Items, item)
	track.SortItemsByStart()
	data.RecomputeDuration()

	return &PlacementResult{ItemID: item.ID, TrackID: track.ID}, nil
}

// assignTrack picks the destination track: the preferred one when free, else
// the first free existing track of the kind, else a freshly created track
func assignTrack(data *TimelineData, kind TrackKind, preferred *int, start, end float64) *TimelineTrack {
	if kind == "" {
		kind = TrackKindVideo
	}

	var ofKind []*TimelineTrack
	for i := range data.Tracks {
		if data.Tracks[i].Kind == kind {
			ofKind = append(ofKind, &data.Tracks[i])
		}
	}

	if preferred != nil && *preferred >= 0 && *preferred < len(ofKind) {
		if !ofKind[*preferred].HasOverlapIn(start, end, "") {
			return ofKind[*preferred]
		}
	}

	for _, track := range ofKind {
		if !track.HasOverlapIn(start, end, "") {
			return track
		}
	}

	name := fmt.Sprintf("Video %d", len(ofKind)+1)
	if kind == TrackKindAudio {
		name = fmt.Sprintf("Audio %d", len(ofKind)+1)
	}
	data.Tracks = append(data.Tracks, TimelineTrack{
		ID:   fmt.Sprintf("track-%s-%d", kind, len(ofKind)+1),
		Kind: kind,
		Name: name,
	})
	return &data.Tracks[len(data.Tracks)-1]
}
