package timeline

import "fmt"

// ModifyRequest is an in-place change to an existing persisted item. Every
// field is optional; only the supplied fields are patched, so a caller may
// adjust just the volume without touching timing.
type ModifyRequest struct {
	ItemID         string
	StartTime      *float64
	EndTime        *float64
	AssetStartTime *float64
	AssetEndTime   *float64
	Overlay        *Overlay
	ClearOverlay   bool
	Volume         *float64
	Opacity        *float64
	TargetTrackID  string     // move to this track, when set
	TargetKind     *TrackKind // or to the first free track of this kind
}

// ConflictError reports that a requested interval collides with an existing
// item on the destination track. Callers distinguish it from plain validation
// failures to pick the right response.
type ConflictError struct {
	TrackID string
	Start   float64
	End     float64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("track %s already has an item overlapping [%g, %g)", e.TrackID, e.Start, e.End)
}

// ModifyItem validates and applies the patch. Validation mirrors placement
// (time ordering, overlay bounds); a track move additionally checks the
// destination for overlap in the new interval and fails on conflict rather
// than silently overlapping. Nothing is mutated when any check fails.
func ModifyItem(data *TimelineData, req ModifyRequest) (*TimelineItem, error) {
	track, idx := data.FindItem(req.ItemID)
	if track == nil {
		return nil, fmt.Errorf("item %s not found", req.ItemID)
	}

	candidate := track.Items[idx]
	if req.StartTime != nil {
		candidate.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		candidate.EndTime = *req.EndTime
	}
	if req.AssetStartTime != nil {
		candidate.AssetStartTime = *req.AssetStartTime
	}
	if req.AssetEndTime != nil {
		candidate.AssetEndTime = *req.AssetEndTime
	}
	if req.ClearOverlay {
		candidate.Overlay = nil
	} else if req.Overlay != nil {
		candidate.Overlay = req.Overlay
	}
	if req.Volume != nil {
		candidate.Volume = req.Volume
	}
	if req.Opacity != nil {
		candidate.Opacity = req.Opacity
	}

	dest := track
	if req.TargetTrackID != "" && req.TargetTrackID != track.ID {
		dest = data.FindTrack(req.TargetTrackID)
		if dest == nil {
			return nil, fmt.Errorf("destination track %s not found", req.TargetTrackID)
		}
	} else if req.TargetKind != nil && *req.TargetKind != track.Kind {
		dest = data.FirstTrackOfKind(*req.TargetKind)
		if dest == nil {
			return nil, fmt.Errorf("no track of kind %s exists", *req.TargetKind)
		}
	}

	if dest.Kind != TrackKindForItem(candidate.Kind) {
		return nil, fmt.Errorf("item %s of kind %s cannot move to %s track %s", candidate.ID, candidate.Kind, dest.Kind, dest.ID)
	}
	candidate.TrackID = dest.ID

	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if dest.ID != track.ID {
		if dest.HasOverlapIn(candidate.StartTime, candidate.EndTime, candidate.ID) {
			return nil, &ConflictError{TrackID: dest.ID, Start: candidate.StartTime, End: candidate.EndTime}
		}
		track.Items = append(track.Items[:idx], track.Items[idx+1:]...)
		dest.Items = append(dest.Items, candidate)
		dest.SortItemsByStart()
	} else {
		track.Items[idx] = candidate
		track.SortItemsByStart()
	}

	data.RecomputeDuration()
	return &candidate, nil
}
