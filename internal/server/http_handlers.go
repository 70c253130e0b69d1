package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"tailorflow/internal/types"
	"tailorflow/internal/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracer returns the API tracer, falling back to the global provider
// when the server runs without an observability manager (tests, CLI).
func (s *Server) tracer() oteltrace.Tracer {
	if s.obs != nil {
		return s.obs.Tracer("tailorflow.api")
	}
	return otel.Tracer("tailorflow.api")
}

// tailorHandler serves synchronous tailoring requests
func (s *Server) tailorHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer().Start(r.Context(), "api.tailor")
	defer span.End()

	var req types.WorkflowRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid tailoring request", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("operation", "tailor"),
		attribute.String("tailoring.template", string(req.Options.Template)),
	)

	result := s.Orchestrator.Tailor(ctx, req.OriginalResume, req.JobDescription, req.Options)

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("match.score", result.MatchScore),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// workflowStartHandler accepts a tailoring workflow for asynchronous execution
func (s *Server) workflowStartHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer().Start(r.Context(), "api.workflow.start")
	defer span.End()

	var req types.WorkflowRequest
	if err := parseJSONRequest(r, &req); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.Workflows.StartWorkflow(req)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		writeErrorResponse(w, "Invalid tailoring request", err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(attribute.String("workflow.id", id))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	response := WorkflowStartedResponse{ID: id, Status: string(types.WorkflowPending)}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		span.RecordError(err)
		log.Printf("Failed to encode workflow response: %v", err)
	}
}

// workflowStatusHandler reports the state of one workflow
func (s *Server) workflowStatusHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer().Start(r.Context(), "api.workflow.status")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("workflow.id", id))

	record, ok := s.Workflows.GetWorkflowStatus(id)
	if !ok {
		writeErrorResponse(w, "Workflow not found", fmt.Sprintf("No workflow with id %s", id), http.StatusNotFound)
		return
	}

	response := WorkflowStatusResponse{
		ID:              record.ID,
		Status:          string(record.Status),
		Progress:        record.Progress,
		ProgressMessage: workflow.ProgressMessage(record.Progress),
		Result:          record.Result,
		Error:           record.Error,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// workflowCancelHandler cancels a running workflow
func (s *Server) workflowCancelHandler(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer().Start(r.Context(), "api.workflow.cancel")
	defer span.End()

	id := r.PathValue("id")
	span.SetAttributes(attribute.String("workflow.id", id))

	record, ok := s.Workflows.GetWorkflowStatus(id)
	if !ok {
		writeErrorResponse(w, "Workflow not found", fmt.Sprintf("No workflow with id %s", id), http.StatusNotFound)
		return
	}

	if !s.Workflows.CancelWorkflow(id) {
		writeErrorResponse(w, "Workflow already finished",
			fmt.Sprintf("Workflow %s is %s and cannot be cancelled", id, record.Status), http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	response := map[string]any{"id": id, "cancelled": true}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// healthHandler provides a health check endpoint including backend chain status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"service":  "tailorflow",
		"version":  s.Version,
		"backends": s.Orchestrator.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statsHandler provides server statistics including workflow and rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service":   "tailorflow",
		"version":   s.Version,
		"workflows": s.Workflows.Stats(),
		"backends":  s.Orchestrator.Stats(),
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
