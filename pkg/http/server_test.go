package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	sdkMocks "go.temporal.io/sdk/mocks"

	hclpkg "github.com/cutroom/timeline-editor/pkg/hcl"
	"github.com/cutroom/timeline-editor/pkg/temporal"
	"github.com/cutroom/timeline-editor/pkg/timeline"
)

func newTestServer() (*Server, *sdkMocks.Client) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	mockClient := &sdkMocks.Client{}
	return NewServer(logger, mockClient, ":8080"), mockClient
}

func TestServer_handlePlaceAsset_ValidJSON(t *testing.T) {
	server, mockClient := newTestServer()

	// The Temporal call is mocked to fail; the handler should map that to 500.
	placeReq := temporal.PlaceAssetRequest{
		Asset:     timeline.AssetRef{ID: "asset-1", Name: "clip", URL: "https://cdn/clip.mp4"},
		StartTime: 0,
	}
	body, _ := json.Marshal(placeReq)

	req := httptest.NewRequest("POST", "/projects/proj-1/assets", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	expectedReq := placeReq
	expectedReq.ProjectID = "proj-1"

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything, // Context
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.PlaceAssetRequest) (*temporal.MutationResult, error)"),
		expectedReq,
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /projects/{id}/assets", server.handlePlaceAsset)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handlePlaceAsset_InvalidJSON(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest("POST", "/projects/proj-1/assets", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("id", "proj-1")

	rr := httptest.NewRecorder()
	server.handlePlaceAsset(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_handleModifyAsset_SetsPathValues(t *testing.T) {
	server, mockClient := newTestServer()

	volume := 0.5
	modifyReq := temporal.ModifyAssetRequest{Volume: &volume}
	body, _ := json.Marshal(modifyReq)

	req := httptest.NewRequest("PATCH", "/projects/proj-1/items/item-9", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	// The handler must fill ProjectID and ItemID from the path before
	// executing the workflow.
	expectedReq := modifyReq
	expectedReq.ProjectID = "proj-1"
	expectedReq.ItemID = "item-9"

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.ModifyAssetRequest) (*temporal.MutationResult, error)"),
		expectedReq,
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /projects/{id}/items/{itemID}", server.handleModifyAsset)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handleReorder_DefaultsTimingMode(t *testing.T) {
	server, mockClient := newTestServer()

	body := []byte(`{"track_id":"track-video-1","ordered_ids":["a","b"]}`)
	req := httptest.NewRequest("POST", "/projects/proj-1/reorder", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	expectedReq := temporal.ReorderRequest{
		ProjectID:  "proj-1",
		TrackID:    "track-video-1",
		OrderedIDs: []string{"a", "b"},
		TimingMode: timeline.TimingMaintainOriginal,
	}

	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.ReorderRequest) (*temporal.MutationResult, error)"),
		expectedReq,
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /projects/{id}/reorder", server.handleReorder)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handleSyncGraph_HCLBody(t *testing.T) {
	server, mockClient := newTestServer()

	hclBody := `
node "start" {
  kind = "starting"
}

node "v1" {
  kind     = "video"
  asset_id = "asset-1"
  name     = "intro"
  url      = "https://cdn/intro.mp4"
  duration = 12
}

edge {
  source = "start"
  target = "v1"
}
`
	req := httptest.NewRequest("POST", "/projects/proj-1/sync", strings.NewReader(hclBody))
	req.Header.Set("Content-Type", hclpkg.ContentTypeHCL)

	// The parsed graph must reach the workflow intact.
	mockClient.On(
		"ExecuteWorkflow",
		mock.Anything,
		mock.AnythingOfType("StartWorkflowOptions"),
		mock.AnythingOfType("func(internal.Context, temporal.SyncGraphRequest) (*temporal.MutationResult, error)"),
		mock.MatchedBy(func(req temporal.SyncGraphRequest) bool {
			return req.ProjectID == "proj-1" && len(req.Graph.Nodes) == 2 && len(req.Graph.Edges) == 1
		}),
	).Return(nil, errors.New("mock temporal ExecuteWorkflow error")).Once()

	rr := httptest.NewRecorder()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /projects/{id}/sync", server.handleSyncGraph)
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	mockClient.AssertExpectations(t)
}

func TestServer_handleSyncGraph_BadHCL(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest("POST", "/projects/proj-1/sync", strings.NewReader(`node "x" {`))
	req.Header.Set("Content-Type", hclpkg.ContentTypeHCL)
	req.SetPathValue("id", "proj-1")

	rr := httptest.NewRecorder()
	server.handleSyncGraph(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestServer_respondMutation_StatusMapping(t *testing.T) {
	server, _ := newTestServer()

	tests := []struct {
		name     string
		result   *temporal.MutationResult
		expected int
	}{
		{"success", &temporal.MutationResult{Success: true, Message: "asset placed"}, http.StatusOK},
		{"validation failure", &temporal.MutationResult{Success: false, Message: "startTime -1 must be >= 0"}, http.StatusBadRequest},
		{"conflict", &temporal.MutationResult{Success: false, Conflict: true, Message: "track track-video-1 already has an item overlapping [0, 5)"}, http.StatusConflict},
		{"message wording does not decide", &temporal.MutationResult{Success: false, Message: "items may not overlap the playhead"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			server.respondMutation(rr, tt.result)
			if rr.Code != tt.expected {
				t.Errorf("Expected status %d, got %d", tt.expected, rr.Code)
			}

			var decoded temporal.MutationResult
			if err := json.NewDecoder(rr.Body).Decode(&decoded); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if decoded.Message != tt.result.Message {
				t.Errorf("Message lost in response: %q", decoded.Message)
			}
		})
	}
}

func TestServer_handleHealth(t *testing.T) {
	server, _ := newTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	rr := httptest.NewRecorder()

	server.handleHealth(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %s", response["status"])
	}
}

func TestServer_loggingMiddleware(t *testing.T) {
	server, _ := newTestServer()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	wrapped := server.loggingMiddleware(testHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	wrapped.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr.Body.String() != "test response" {
		t.Errorf("Expected 'test response', got %s", rr.Body.String())
	}
}

func TestResponseWrapper(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapper := &responseWrapper{ResponseWriter: rr, statusCode: http.StatusOK}

	wrapper.WriteHeader(http.StatusNotFound)

	if wrapper.statusCode != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, wrapper.statusCode)
	}
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected response code %d, got %d", http.StatusNotFound, rr.Code)
	}
}
