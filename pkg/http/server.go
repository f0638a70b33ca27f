package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/cutroom/timeline-editor/pkg/hcl"
	"github.com/cutroom/timeline-editor/pkg/temporal"
	"github.com/cutroom/timeline-editor/pkg/timeline"
)

// Server is the HTTP surface of the timeline editor. Every mutation is
// executed through a Temporal workflow; the server itself holds no timeline
// state.
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	addr           string
}

// NewServer creates a new HTTP server
func NewServer(logger *slog.Logger, temporalClient client.Client, addr string) *Server {
	return &Server{
		logger:         logger,
		temporalClient: temporalClient,
		addr:           addr,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /projects/{id}/timeline", s.handleGetTimeline)
	mux.HandleFunc("POST /projects/{id}/assets", s.handlePlaceAsset)
	mux.HandleFunc("PATCH /projects/{id}/items/{itemID}", s.handleModifyAsset)
	mux.HandleFunc("DELETE /projects/{id}/items/{itemID}", s.handleDeleteItem)
	mux.HandleFunc("POST /projects/{id}/reorder", s.handleReorder)
	mux.HandleFunc("PUT /projects/{id}/filters", s.handleApplyFilters)
	mux.HandleFunc("POST /projects/{id}/sync", s.handleSyncGraph)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.loggingMiddleware(mux)

	server := &http.Server{
		Addr:    s.addr,
		Handler: handler,
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// runMutation executes a mutation workflow and waits for its result
func (s *Server) runMutation(ctx context.Context, workflowID string, workflowFn interface{}, req interface{}) (*temporal.MutationResult, error) {
	run, err := s.temporalClient.ExecuteWorkflow(
		ctx,
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: temporal.TaskQueue,
		},
		workflowFn,
		req,
	)
	if err != nil {
		return nil, err
	}

	var result *temporal.MutationResult
	if err := run.Get(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// respondMutation maps a mutation result onto an HTTP status: conflicts are
// 409, other rejections 400, success 200
func (s *Server) respondMutation(w http.ResponseWriter, result *temporal.MutationResult) {
	if result.Success {
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	status := http.StatusBadRequest
	if result.Conflict {
		status = http.StatusConflict
	}
	s.respondJSON(w, status, result)
}

// Timeline fetch endpoint
func (s *Server) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	run, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        temporal.GenerateMutationWorkflowID(temporal.FetchWorkflowIDPrefix, projectID),
			TaskQueue: temporal.TaskQueue,
		},
		temporal.FetchTimelineWorkflow,
		projectID,
	)
	if err != nil {
		s.logger.Error("Failed to start fetch workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}

	var data *timeline.TimelineData
	if err := run.Get(r.Context(), &data); err != nil {
		s.logger.Error("Fetch workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load timeline")
		return
	}

	s.respondJSON(w, http.StatusOK, data)
}

// Asset placement endpoint
func (s *Server) handlePlaceAsset(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	var req temporal.PlaceAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ProjectID = projectID

	s.logger.Info("Placing asset", "projectID", projectID, "assetID", req.Asset.ID)

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateMutationWorkflowID(temporal.PlacementWorkflowIDPrefix, projectID),
		temporal.PlaceAssetWorkflow,
		req,
	)
	if err != nil {
		s.logger.Error("Placement workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to place asset")
		return
	}
	s.respondMutation(w, result)
}

// Item modification endpoint
func (s *Server) handleModifyAsset(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	itemID := r.PathValue("itemID")
	if projectID == "" || itemID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID and item ID are required")
		return
	}

	var req temporal.ModifyAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ProjectID = projectID
	req.ItemID = itemID

	s.logger.Info("Modifying item", "projectID", projectID, "itemID", itemID)

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateMutationWorkflowID(temporal.ModifyWorkflowIDPrefix, projectID),
		temporal.ModifyAssetWorkflow,
		req,
	)
	if err != nil {
		s.logger.Error("Modification workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to modify item")
		return
	}
	s.respondMutation(w, result)
}

// Item deletion endpoint
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	itemID := r.PathValue("itemID")
	if projectID == "" || itemID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID and item ID are required")
		return
	}

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateMutationWorkflowID(temporal.DeleteWorkflowIDPrefix, projectID),
		temporal.DeleteItemWorkflow,
		temporal.DeleteItemRequest{ProjectID: projectID, ItemID: itemID},
	)
	if err != nil {
		s.logger.Error("Delete workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	s.respondMutation(w, result)
}

// Reorder endpoint. Conflicts do not fail the request; they come back in the
// 200 body for the caller to accept or undo.
func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	var req temporal.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.ProjectID = projectID
	if req.TimingMode == "" {
		req.TimingMode = timeline.TimingMaintainOriginal
	}

	s.logger.Info("Reordering items", "projectID", projectID, "mode", req.TimingMode)

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateMutationWorkflowID(temporal.ReorderWorkflowIDPrefix, projectID),
		temporal.ReorderWorkflow,
		req,
	)
	if err != nil {
		s.logger.Error("Reorder workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to reorder items")
		return
	}
	if result.Success {
		s.respondJSON(w, http.StatusOK, result)
		return
	}
	s.respondJSON(w, http.StatusBadRequest, result)
}

// Composition filters endpoint
func (s *Server) handleApplyFilters(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	var filters *timeline.CompositionFilters
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateMutationWorkflowID(temporal.FiltersWorkflowIDPrefix, projectID),
		temporal.ApplyFiltersWorkflow,
		temporal.ApplyFiltersRequest{ProjectID: projectID, Filters: filters},
	)
	if err != nil {
		s.logger.Error("Filters workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to apply filters")
		return
	}
	s.respondMutation(w, result)
}

// Graph sync endpoint. The graph may be posted as JSON or as an HCL
// definition; content type is detected per request.
func (s *Server) handleSyncGraph(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		s.respondError(w, http.StatusBadRequest, "project ID is required")
		return
	}

	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var graph timeline.Graph
	switch contentType {
	case hcl.ContentTypeHCL:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		parsed, err := hcl.ParseGraph(body, "request.hcl")
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		graph = *parsed
	default:
		if err := json.NewDecoder(r.Body).Decode(&graph); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	s.logger.Info("Syncing graph", "projectID", projectID, "nodes", len(graph.Nodes), "contentType", contentType)

	result, err := s.runMutation(
		r.Context(),
		temporal.GenerateSyncWorkflowID(projectID),
		temporal.GraphSyncWorkflow,
		temporal.SyncGraphRequest{ProjectID: projectID, Graph: graph},
	)
	if err != nil {
		s.logger.Error("Sync workflow failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to sync graph")
		return
	}
	s.respondMutation(w, result)
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", duration,
			"user_agent", r.UserAgent(),
		)
	})
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
