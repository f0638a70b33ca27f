package timeline

// MergeTimelines combines the persisted timeline (source of truth) with an
// ephemeral graph-derived timeline for display. A nil persisted timeline is
// treated as the default two-track skeleton.
//
// Per track, matched by id, persisted items win: an ephemeral item is
// included only when no persisted item already represents it, where
// "represents" means a persisted id equal to the ephemeral id or to the
// ephemeral id with the prefix applied. This is what lets "sync graph to
// timeline" promote ephemeral items without ever duplicating them once
// promoted, and it makes the merge idempotent: merging the same ephemeral
// timeline twice against an already-synced persisted timeline is a no-op the
// second time.
func MergeTimelines(persisted, ephemeral *TimelineData) *TimelineData {
	if persisted == nil {
		persisted = NewDefaultTimeline()
	}

	result := &TimelineData{
		Tracks:        make([]TimelineTrack, 0, len(persisted.Tracks)),
		TimelineScale: persisted.TimelineScale,
		Filters:       persisted.Filters,
	}
	if result.TimelineScale == 0 {
		result.TimelineScale = DefaultTimelineScale
	}

	for _, track := range persisted.Tracks {
		merged := track
		merged.Items = append([]TimelineItem(nil), track.Items...)

		if ephemeral != nil {
			if ephTrack := ephemeral.FindTrack(track.ID); ephTrack != nil {
				for _, item := range ephTrack.Items {
					if !representedIn(merged.Items, item) {
						item.TrackID = merged.ID
						merged.Items = append(merged.Items, item)
					}
				}
			}
		}

		merged.SortItemsByStart()
		result.Tracks = append(result.Tracks, merged)
	}

	// Carry over ephemeral tracks the persisted timeline does not know about
	if ephemeral != nil {
		for _, ephTrack := range ephemeral.Tracks {
			if result.FindTrack(ephTrack.ID) != nil {
				continue
			}
			carried := ephTrack
			carried.Items = append([]TimelineItem(nil), ephTrack.Items...)
			carried.SortItemsByStart()
			result.Tracks = append(result.Tracks, carried)
		}
	}

	result.RecomputeDuration()
	return result
}

// PromoteEphemeralItems rewrites every graph-derived item id to its stable
// form by stripping the ephemeral prefix, so the items can be persisted.
// Together with the merge dedupe rule this keeps repeated syncs from
// duplicating promoted items.
func PromoteEphemeralItems(data *TimelineData) {
	for i := range data.Tracks {
		for j := range data.Tracks[i].Items {
			item := &data.Tracks[i].Items[j]
			if item.IsEphemeral() {
				item.ID = item.ID[len(EphemeralIDPrefix):]
			}
		}
	}
}

// representedIn reports whether the persisted item set already contains the
// ephemeral item, either under its own id or under the prefixed form
func representedIn(items []TimelineItem, ephemeral TimelineItem) bool {
	for _, item := range items {
		if item.ID == ephemeral.ID || EphemeralIDPrefix+item.ID == ephemeral.ID {
			return true
		}
	}
	return false
}
