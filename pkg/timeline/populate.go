package timeline

// Fallback durations, in seconds, for nodes whose real media length is not
// known yet
const (
	DefaultVideoDuration = 10.0
	DefaultImageDuration = 5.0
	DefaultAudioDuration = 10.0
	DefaultDraftDuration = 8.0
)

// nodeDuration computes the logical duration of a sequenced node
func nodeDuration(node Node) float64 {
	switch node.Kind {
	case NodeKindImage:
		return DefaultImageDuration
	case NodeKindVideo:
		if data, ok := node.Data.(AssetNodeData); ok && data.Metadata.Duration > 0 {
			return data.Metadata.Duration
		}
		return DefaultVideoDuration
	case NodeKindAudio:
		if data, ok := node.Data.(AssetNodeData); ok && data.Metadata.Duration > 0 {
			return data.Metadata.Duration
		}
		return DefaultAudioDuration
	case NodeKindDraft:
		if data, ok := node.Data.(DraftNodeData); ok && data.EstimatedDuration > 0 {
			return data.EstimatedDuration
		}
		return DefaultDraftDuration
	default:
		return DefaultVideoDuration
	}
}

// itemKindForNode maps a graph node kind to the timeline item kind it
// produces
func itemKindForNode(kind NodeKind) ItemKind {
	switch kind {
	case NodeKindImage:
		return ItemKindImage
	case NodeKindAudio:
		return ItemKindAudio
	case NodeKindDraft:
		return ItemKindDraft
	default:
		return ItemKindVideo
	}
}

// PopulateTimeline converts a sequenced node list into an ephemeral timeline:
// items are placed back-to-back on the first video track starting at zero, so
// the result has no gaps and no overlaps by construction. Every generated
// item id carries the ephemeral prefix; nothing here is persisted.
func PopulateTimeline(sequence []Node, base *TimelineData) *TimelineData {
	if base == nil {
		base = NewDefaultTimeline()
	}
	result := &TimelineData{
		Tracks:        make([]TimelineTrack, len(base.Tracks)),
		TimelineScale: base.TimelineScale,
		Filters:       base.Filters,
	}
	for i, track := range base.Tracks {
		result.Tracks[i] = track
		result.Tracks[i].Items = append([]TimelineItem(nil), track.Items...)
	}

	target := result.FirstTrackOfKind(TrackKindVideo)
	if target == nil {
		result.Tracks = append(result.Tracks, TimelineTrack{
			ID:   "track-video-1",
			Kind: TrackKindVideo,
			Name: "Video 1",
		})
		target = &result.Tracks[len(result.Tracks)-1]
	}

	currentTime := 0.0
	for _, node := range sequence {
		duration := nodeDuration(node)
		item := TimelineItem{
			ID:             EphemeralIDPrefix + node.ID,
			Kind:           itemKindForNode(node.Kind),
			StartTime:      currentTime,
			EndTime:        currentTime + duration,
			AssetStartTime: 0,
			AssetEndTime:   duration,
			TrackID:        target.ID,
		}
		switch data := node.Data.(type) {
		case AssetNodeData:
			item.AssetID = data.AssetID
			item.Name = data.Name
		case DraftNodeData:
			item.Name = data.Title
		}
		target.Items = append(target.Items, item)
		currentTime = item.EndTime
	}

	result.RecomputeDuration()
	return result
}
