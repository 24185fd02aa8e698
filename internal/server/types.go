// Package server provides the HTTP surface for the Veo generation service.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateGenerationRequest is the HTTP request body for submitting a generation.
type CreateGenerationRequest struct {
	// APIKey is the caller-supplied provider credential.
	APIKey string `json:"api_key" validate:"required"`
	// Prompt is the generation prompt text.
	Prompt string `json:"prompt" validate:"required"`
	// Model selects the Veo version: "VEO2" or "VEO3".
	Model string `json:"model" validate:"required,oneof=VEO2 VEO3"`
	// Type is "TEXT_TO_VIDEO" or "IMAGE_TO_VIDEO".
	Type string `json:"type" validate:"required,oneof=TEXT_TO_VIDEO IMAGE_TO_VIDEO"`
	// Orientation is "HORIZONTAL" (16:9) or "VERTICAL" (9:16).
	Orientation string `json:"orientation" validate:"required,oneof=HORIZONTAL VERTICAL"`
	// ImageBase64 is the base64-encoded conditioning image for image-to-video.
	ImageBase64 string `json:"image_base64,omitempty" validate:"omitempty,base64"`
	// ImageMIMEType is the media type of the conditioning image.
	ImageMIMEType string `json:"image_mime_type,omitempty"`
}

// CreateGenerationResponse is the HTTP response after submitting a generation.
type CreateGenerationResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// GenerationResponse is the HTTP representation of one job record.
type GenerationResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Prompt is the submitted prompt text.
	Prompt string `json:"prompt"`
	// Model is the selected Veo version.
	Model string `json:"model"`
	// Type is the generation type.
	Type string `json:"type"`
	// Orientation is the requested aspect ratio.
	Orientation string `json:"orientation"`
	// Status is the current job status.
	Status string `json:"status"`
	// ArtifactURL points at the streamable artifact (set when completed).
	ArtifactURL string `json:"artifact_url,omitempty"`
	// Error contains the settled error message (set when failed).
	Error string `json:"error,omitempty"`
	// Sample marks the artifact as a substituted placeholder.
	Sample bool `json:"sample,omitempty"`
	// CreatedAt is the submission timestamp in RFC 3339.
	CreatedAt string `json:"created_at"`
}

// HistoryResponse is the HTTP response for the history listing.
type HistoryResponse struct {
	// Generations lists all job records, newest first.
	Generations []GenerationResponse `json:"generations"`
	// Processing is the number of jobs still in flight.
	Processing int `json:"processing"`
	// Notice is the current process-wide advisory message, if any.
	Notice string `json:"notice,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
