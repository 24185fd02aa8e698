package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/veogen/veogen-api/internal/artifact"
	"github.com/veogen/veogen-api/internal/job"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service   *job.Service
	artifacts *artifact.Store
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, artifacts *artifact.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		service:   service,
		artifacts: artifacts,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateGeneration handles POST /generations requests.
func (h *Handlers) CreateGeneration(w http.ResponseWriter, r *http.Request) {
	var req CreateGenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	jobID, err := h.service.Submit(r.Context(), job.Request{
		Credential:    req.APIKey,
		Prompt:        req.Prompt,
		Model:         job.Model(req.Model),
		Type:          job.GenerationType(req.Type),
		Orientation:   job.Orientation(req.Orientation),
		ImageBase64:   req.ImageBase64,
		ImageMIMEType: req.ImageMIMEType,
	})
	if err != nil {
		switch {
		case errors.Is(err, job.ErrCredentialRequired):
			writeError(w, http.StatusBadRequest, err.Error(), "CREDENTIAL_MISSING")
		case errors.Is(err, job.ErrPromptRequired),
			errors.Is(err, job.ErrImageRequired),
			errors.Is(err, job.ErrInvalidModel),
			errors.Is(err, job.ErrInvalidType),
			errors.Is(err, job.ErrInvalidOrientation):
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
		default:
			h.logger.Error("failed to submit generation",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to submit generation", "SUBMIT_FAILED")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, CreateGenerationResponse{
		ID:     jobID,
		Status: string(job.StatusProcessing),
	})
}

// ListGenerations handles GET /generations requests.
func (h *Handlers) ListGenerations(w http.ResponseWriter, r *http.Request) {
	records := h.service.ListJobs()

	resp := HistoryResponse{
		Generations: make([]GenerationResponse, 0, len(records)),
		Processing:  h.service.ProcessingCount(),
		Notice:      h.service.Advisory(),
	}
	for _, rec := range records {
		resp.Generations = append(resp.Generations, toGenerationResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetGeneration handles GET /generations/{id} requests.
func (h *Handlers) GetGeneration(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required", "MISSING_JOB_ID")
		return
	}

	rec, err := h.service.GetJob(jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to get generation",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get generation", "FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, toGenerationResponse(rec))
}

// ClearGenerations handles DELETE /generations requests. Clearing history
// releases every artifact handle owned by the discarded records.
func (h *Handlers) ClearGenerations(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearHistory(r.Context()); err != nil {
		h.logger.Error("failed to clear history",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to clear history", "CLEAR_FAILED")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetArtifact handles GET /artifacts/{id} requests, streaming the stored
// video bytes for a handle.
func (h *Handlers) GetArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID := r.PathValue("id")
	if artifactID == "" {
		writeError(w, http.StatusBadRequest, "artifact ID is required", "MISSING_ARTIFACT_ID")
		return
	}

	rc, handle, err := h.artifacts.Open(r.Context(), artifactID)
	if err != nil {
		if errors.Is(err, artifact.ErrHandleNotFound) {
			writeError(w, http.StatusNotFound, "artifact not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to open artifact",
			slog.String("artifact_id", artifactID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open artifact", "ARTIFACT_FAILED")
		return
	}
	defer func() { _ = rc.Close() }()

	w.Header().Set("Content-Type", handle.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(handle.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("artifact stream interrupted",
			slog.String("artifact_id", artifactID),
			slog.String("error", err.Error()),
		)
	}
}

// toGenerationResponse maps a job record to its HTTP representation.
func toGenerationResponse(rec *job.Job) GenerationResponse {
	resp := GenerationResponse{
		ID:          rec.ID,
		Prompt:      rec.Prompt,
		Model:       string(rec.Model),
		Type:        string(rec.Type),
		Orientation: string(rec.Orientation),
		Status:      string(rec.Status),
		Error:       rec.Error,
		Sample:      rec.Sample,
		CreatedAt:   rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.ArtifactID != "" {
		resp.ArtifactURL = "/artifacts/" + rec.ArtifactID
	}
	return resp
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
