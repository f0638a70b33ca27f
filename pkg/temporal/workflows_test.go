package temporal

import (
	"strings"
	"testing"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

func TestGenerateMutationWorkflowID(t *testing.T) {
	id := GenerateMutationWorkflowID(PlacementWorkflowIDPrefix, "proj-1")
	if !strings.HasPrefix(id, PlacementWorkflowIDPrefix+"proj-1-") {
		t.Errorf("Workflow ID should carry prefix and project, got %s", id)
	}

	other := GenerateMutationWorkflowID(PlacementWorkflowIDPrefix, "proj-1")
	if id == other {
		t.Error("Mutation workflow IDs must be unique per invocation")
	}
}

func TestGenerateSyncWorkflowIDIsStable(t *testing.T) {
	first := GenerateSyncWorkflowID("proj-1")
	second := GenerateSyncWorkflowID("proj-1")
	if first != second {
		t.Error("Sync workflow IDs must be stable so concurrent syncs serialize")
	}
	if first != SyncWorkflowIDPrefix+"proj-1" {
		t.Errorf("Unexpected sync workflow ID %s", first)
	}
}

func TestReorderRequestModes(t *testing.T) {
	// Within-track shape
	within := ReorderRequest{
		ProjectID:  "proj",
		TrackID:    "track-video-1",
		OrderedIDs: []string{"a", "b"},
		TimingMode: timeline.TimingSequential,
	}
	if len(within.Assignments) != 0 {
		t.Error("Within-track request must carry no assignments")
	}

	// Cross-track shape
	across := ReorderRequest{
		ProjectID: "proj",
		Assignments: []timeline.TrackAssignment{
			{ItemID: "a", TrackID: "track-video-2", Position: 0},
		},
		TimingMode: timeline.TimingMaintainOriginal,
	}
	if len(across.Assignments) != 1 {
		t.Error("Cross-track request must carry assignments")
	}
}

func TestMutationResultFailureHelper(t *testing.T) {
	result := failure("endTime 5 must be greater than startTime 5")
	if result.Success {
		t.Error("failure() must produce an unsuccessful result")
	}
	if result.Message == "" {
		t.Error("Every rejection carries a specific reason")
	}
}
