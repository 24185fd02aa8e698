// Package job provides the Job aggregate for tracking video generation requests.
// It includes the Job entity with its state machine, the History store that
// orders records newest first, and the Service that orchestrates concurrent
// generation pipelines.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/veogen/veogen-api/internal/job/id"
)

// Model identifies the Veo model family used for a generation.
type Model string

const (
	// ModelVeo2 selects the Veo 2 model.
	ModelVeo2 Model = "VEO2"
	// ModelVeo3 selects the Veo 3 model.
	ModelVeo3 Model = "VEO3"
)

// IsValid returns true if the model is a known Veo version.
func (m Model) IsValid() bool {
	return m == ModelVeo2 || m == ModelVeo3
}

// GenerationType distinguishes text-only prompts from image-conditioned ones.
type GenerationType string

const (
	// TypeTextToVideo generates a video from a text prompt only.
	TypeTextToVideo GenerationType = "TEXT_TO_VIDEO"
	// TypeImageToVideo conditions the generation on an uploaded image.
	TypeImageToVideo GenerationType = "IMAGE_TO_VIDEO"
)

// IsValid returns true if the generation type is known.
func (t GenerationType) IsValid() bool {
	return t == TypeTextToVideo || t == TypeImageToVideo
}

// Orientation is the requested aspect ratio of the output video.
type Orientation string

const (
	// OrientationHorizontal requests a 16:9 video.
	OrientationHorizontal Orientation = "HORIZONTAL"
	// OrientationVertical requests a 9:16 video.
	OrientationVertical Orientation = "VERTICAL"
)

// IsValid returns true if the orientation is known.
func (o Orientation) IsValid() bool {
	return o == OrientationHorizontal || o == OrientationVertical
}

// AspectRatio returns the provider wire value for the orientation.
func (o Orientation) AspectRatio() string {
	if o == OrientationVertical {
		return "9:16"
	}
	return "16:9"
}

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the job was accepted but its pipeline has not started.
	StatusPending Status = "PENDING"
	// StatusProcessing indicates the remote generation is in flight.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates the job finished with an artifact.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the job settled with an error.
	StatusFailed Status = "FAILED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
// COMPLETED and FAILED are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one video generation request and its tracked lifecycle.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Prompt is the user-supplied prompt text.
	Prompt string
	// Model is the Veo model version selected for this job.
	Model Model
	// Type distinguishes text-to-video from image-to-video.
	Type GenerationType
	// Orientation is the requested output aspect ratio.
	Orientation Orientation
	// Status is the current job state.
	Status Status
	// ArtifactID references the fetched artifact handle. Set only on COMPLETED.
	ArtifactID string
	// Error contains the settled error message. Set only on FAILED.
	Error string
	// Sample marks the artifact as a substituted placeholder rather than a
	// genuine generation (quota fallback).
	Sample bool
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// CompletedAt is when the job settled.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID in PROCESSING state.
// The PENDING state is momentary: submission accepts the job and immediately
// hands it to its pipeline, so records enter the history already PROCESSING.
func New(prompt string, model Model, genType GenerationType, orientation Orientation) *Job {
	now := time.Now()
	return &Job{
		ID:          id.Generate(),
		Prompt:      prompt,
		Model:       model,
		Type:        genType,
		Orientation: orientation,
		Status:      StatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	if status == StatusCompleted || status == StatusFailed {
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Complete settles the job with the given artifact handle ID.
// When sample is true the artifact is a substituted placeholder.
// Returns ErrInvalidTransition if the job already settled; a terminal record
// is never modified.
func (j *Job) Complete(artifactID string, sample bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, StatusCompleted) {
		return ErrInvalidTransition
	}

	j.Status = StatusCompleted
	j.ArtifactID = artifactID
	j.Sample = sample
	j.UpdatedAt = time.Now()
	j.CompletedAt = j.UpdatedAt
	return nil
}

// Fail settles the job with an error message.
// Returns ErrInvalidTransition if the job already settled; a terminal record
// is never modified.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, StatusFailed) {
		return ErrInvalidTransition
	}

	j.Status = StatusFailed
	j.Error = errMsg
	j.UpdatedAt = time.Now()
	j.CompletedAt = j.UpdatedAt
	return nil
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// IsTerminal returns true if the job has settled.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Prompt:      j.Prompt,
		Model:       j.Model,
		Type:        j.Type,
		Orientation: j.Orientation,
		Status:      j.Status,
		ArtifactID:  j.ArtifactID,
		Error:       j.Error,
		Sample:      j.Sample,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
	}
}
