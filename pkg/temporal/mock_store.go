package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cutroom/timeline-editor/pkg/timeline"
)

// MockTimelineStore implements TimelineStore in memory for testing. Values
// round-trip through JSON so tests see the same copy semantics as a real
// store.
type MockTimelineStore struct {
	mu        sync.RWMutex
	timelines map[string][]byte
	failSave  bool
}

// NewMockTimelineStore creates an empty mock store
func NewMockTimelineStore() *MockTimelineStore {
	return &MockTimelineStore{timelines: make(map[string][]byte)}
}

// FailSaves makes every subsequent SaveTimeline call return an error
func (m *MockTimelineStore) FailSaves() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSave = true
}

// LoadTimeline returns the stored timeline, or nil when the project is
// unknown
func (m *MockTimelineStore) LoadTimeline(ctx context.Context, projectID string) (*timeline.TimelineData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw, exists := m.timelines[projectID]
	if !exists {
		return nil, nil
	}
	var data timeline.TimelineData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("corrupt stored timeline: %w", err)
	}
	return &data, nil
}

// SaveTimeline stores a deep copy of the timeline, skipping ephemeral items
// the same way the sqlite store does
func (m *MockTimelineStore) SaveTimeline(ctx context.Context, projectID string, data *timeline.TimelineData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSave {
		return fmt.Errorf("store unavailable")
	}

	persisted := timeline.TimelineData{
		Tracks:        make([]timeline.TimelineTrack, len(data.Tracks)),
		TimelineScale: data.TimelineScale,
		Filters:       data.Filters,
	}
	for i, track := range data.Tracks {
		persisted.Tracks[i] = track
		persisted.Tracks[i].Items = nil
		for _, item := range track.Items {
			if item.IsEphemeral() {
				continue
			}
			persisted.Tracks[i].Items = append(persisted.Tracks[i].Items, item)
		}
	}
	persisted.RecomputeDuration()

	raw, err := json.Marshal(&persisted)
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	m.timelines[projectID] = raw
	return nil
}

// DeleteItem removes an item from the stored timeline
func (m *MockTimelineStore) DeleteItem(ctx context.Context, projectID, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, exists := m.timelines[projectID]
	if !exists {
		return fmt.Errorf("project %s not found", projectID)
	}
	var data timeline.TimelineData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("corrupt stored timeline: %w", err)
	}
	if err := data.RemoveItem(itemID); err != nil {
		return err
	}
	updated, err := json.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	m.timelines[projectID] = updated
	return nil
}
