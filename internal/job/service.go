package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/veogen/veogen-api/internal/artifact"
	"github.com/veogen/veogen-api/internal/faults"
	"github.com/veogen/veogen-api/internal/generator"
	"github.com/veogen/veogen-api/internal/veo"
)

// Static errors for submission validation. These are rejected synchronously;
// no job record is created for them.
var (
	// ErrCredentialRequired is returned when a submission carries no API key.
	ErrCredentialRequired = errors.New("job: API key is required to generate video")
	// ErrPromptRequired is returned when the prompt is empty.
	ErrPromptRequired = errors.New("job: prompt is required")
	// ErrImageRequired is returned for image-to-video submissions without an image.
	ErrImageRequired = errors.New("job: image is required for image-to-video generation")
	// ErrInvalidModel is returned for unknown model versions.
	ErrInvalidModel = errors.New("job: invalid model version")
	// ErrInvalidType is returned for unknown generation types.
	ErrInvalidType = errors.New("job: invalid generation type")
	// ErrInvalidOrientation is returned for unknown orientations.
	ErrInvalidOrientation = errors.New("job: invalid orientation")
)

// QuotaFallbackNotice is the advisory posted when a generation falls back to
// the sample artifact because the provider reported quota exhaustion.
const QuotaFallbackNotice = "API quota limit reached. Displaying a sample video instead. " +
	"Please check your Google AI Studio dashboard."

// modelNames maps domain model versions to provider wire identifiers.
var modelNames = map[Model]string{
	ModelVeo2: veo.ModelVeo2Name,
	ModelVeo3: veo.ModelVeo3Name,
}

// ArtifactFetcher retrieves a finished artifact from its authenticated
// location and returns a revocable local handle.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, authenticatedURL string) (artifact.Handle, error)
}

// ArtifactStore is the subset of the artifact store the service needs:
// minting handles for fallback samples and releasing handles when history is
// cleared.
type ArtifactStore interface {
	Put(ctx context.Context, data []byte, contentType string) (artifact.Handle, error)
	Release(ctx context.Context, id string) error
}

// Request contains the parameters for one generation submission.
type Request struct {
	// Credential is the caller-supplied API key.
	Credential string
	// Prompt is the generation prompt text.
	Prompt string
	// Model selects the Veo model version.
	Model Model
	// Type distinguishes text-to-video from image-to-video.
	Type GenerationType
	// Orientation is the requested output aspect ratio.
	Orientation Orientation
	// ImageBase64 is the base64-encoded conditioning image. Required for
	// image-to-video submissions, ignored otherwise.
	ImageBase64 string
	// ImageMIMEType is the declared media type of the conditioning image.
	ImageMIMEType string
}

// Service orchestrates the concurrent set of in-flight generations.
//
// Submit never blocks on the network: it validates, inserts a PROCESSING
// record into the history, and hands the rest of the pipeline to a goroutine
// that owns the record's single settle-update. All pipeline failures are
// classified and converted into a terminal record; nothing propagates to the
// submitter after Submit returns.
type Service struct {
	history   *History
	gen       generator.Generator
	fetcher   ArtifactFetcher
	artifacts ArtifactStore
	notices   *Notices
	logger    *slog.Logger

	// inFlight counts unsettled jobs. Display only; settlement is keyed by
	// job ID and does not depend on this counter.
	inFlight atomic.Int64
	wg       sync.WaitGroup
}

// NewService creates a new orchestration service.
func NewService(history *History, gen generator.Generator, fetcher ArtifactFetcher, artifacts ArtifactStore, notices *Notices, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if notices == nil {
		notices = NewNotices()
	}
	return &Service{
		history:   history,
		gen:       gen,
		fetcher:   fetcher,
		artifacts: artifacts,
		notices:   notices,
		logger:    logger,
	}
}

// Submit validates the request, records a new PROCESSING job, and launches
// its generation pipeline. It returns the job ID immediately; callers may
// submit again without waiting for earlier jobs to settle.
func (s *Service) Submit(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	j := New(req.Prompt, req.Model, req.Type, req.Orientation)
	if err := s.history.Insert(j); err != nil {
		return "", err
	}

	spec := generator.Spec{
		Credential:  req.Credential,
		Model:       modelNames[req.Model],
		Prompt:      req.Prompt,
		AspectRatio: req.Orientation.AspectRatio(),
	}
	if req.Type == TypeImageToVideo {
		spec.Image = &generator.Image{
			Data:     req.ImageBase64,
			MIMEType: req.ImageMIMEType,
		}
	}

	s.logger.Info("job submitted",
		slog.String("job_id", j.ID),
		slog.String("model", string(req.Model)),
		slog.String("type", string(req.Type)),
		slog.String("orientation", string(req.Orientation)),
	)

	s.inFlight.Add(1)
	s.wg.Add(1)
	// The pipeline outlives the submitting request.
	go s.run(context.WithoutCancel(ctx), j.ID, spec)

	return j.ID, nil
}

// validate rejects malformed submissions before a record is created.
func validate(req Request) error {
	if req.Credential == "" {
		return ErrCredentialRequired
	}
	if req.Prompt == "" {
		return ErrPromptRequired
	}
	if !req.Model.IsValid() {
		return ErrInvalidModel
	}
	if !req.Type.IsValid() {
		return ErrInvalidType
	}
	if !req.Orientation.IsValid() {
		return ErrInvalidOrientation
	}
	if req.Type == TypeImageToVideo && req.ImageBase64 == "" {
		return ErrImageRequired
	}
	return nil
}

// run owns one job from submission to settlement. It performs exactly one
// settle-update for its job ID.
func (s *Service) run(ctx context.Context, jobID string, spec generator.Spec) {
	defer s.wg.Done()
	defer s.inFlight.Add(-1)

	artifactURL, err := s.gen.Generate(ctx, spec)
	if err != nil {
		s.settleError(ctx, jobID, err)
		return
	}

	handle, err := s.fetcher.Fetch(ctx, artifactURL)
	if err != nil {
		s.settleError(ctx, jobID, err)
		return
	}

	s.settleCompleted(ctx, jobID, handle.ID, false)
}

// settleError classifies a pipeline failure and settles the job: quota
// exhaustion falls back to a sample artifact, everything else fails the job
// with the classified message.
func (s *Service) settleError(ctx context.Context, jobID string, cause error) {
	c := faults.Classify(cause)

	s.logger.Warn("job pipeline failed",
		slog.String("job_id", jobID),
		slog.String("kind", string(c.Kind)),
		slog.String("error", cause.Error()),
	)

	if !c.FallbackEligible {
		s.settleFailed(jobID, c.Message)
		return
	}

	handle, err := s.artifacts.Put(ctx, artifact.Sample(), artifact.SampleContentType)
	if err != nil {
		s.logger.Error("sample fallback failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		s.settleFailed(jobID, c.Message)
		return
	}

	s.notices.Post(QuotaFallbackNotice)
	s.settleCompleted(ctx, jobID, handle.ID, true)
}

// settleCompleted writes the job's single COMPLETED update. When the update
// cannot land (the record was discarded by a concurrent history clear, or it
// already settled), the fetched handle has no owner left and is released here
// so its bytes do not leak.
func (s *Service) settleCompleted(ctx context.Context, jobID, artifactID string, sample bool) {
	j, err := s.history.Find(jobID)
	if err != nil {
		s.logger.Warn("settle on discarded job",
			slog.String("job_id", jobID),
			slog.String("artifact_id", artifactID),
		)
		s.releaseOrphan(ctx, artifactID)
		return
	}
	if err := j.Complete(artifactID, sample); err != nil {
		s.logger.Error("settle rejected",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		s.releaseOrphan(ctx, artifactID)
		return
	}
	if err := s.history.Update(j); err != nil {
		s.logger.Error("history update failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		s.releaseOrphan(ctx, artifactID)
		return
	}

	s.logger.Info("job completed",
		slog.String("job_id", jobID),
		slog.String("artifact_id", artifactID),
		slog.Bool("sample", sample),
	)
}

// releaseOrphan revokes a handle whose owning record is gone.
func (s *Service) releaseOrphan(ctx context.Context, artifactID string) {
	if err := s.artifacts.Release(ctx, artifactID); err != nil {
		s.logger.Error("orphaned artifact release failed",
			slog.String("artifact_id", artifactID),
			slog.String("error", err.Error()),
		)
	}
}

// settleFailed writes the job's single FAILED update.
func (s *Service) settleFailed(jobID, message string) {
	j, err := s.history.Find(jobID)
	if err != nil {
		s.logger.Error("settle on unknown job", slog.String("job_id", jobID))
		return
	}
	if err := j.Fail(message); err != nil {
		s.logger.Error("settle rejected",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.history.Update(j); err != nil {
		s.logger.Error("history update failed",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// GetJob returns a snapshot of the record with the given ID.
func (s *Service) GetJob(jobID string) (*Job, error) {
	return s.history.Find(jobID)
}

// ListJobs returns a snapshot of all records, newest first.
func (s *Service) ListJobs() []*Job {
	return s.history.List()
}

// ProcessingCount returns the number of jobs that have not settled yet.
func (s *Service) ProcessingCount() int {
	return int(s.inFlight.Load())
}

// Advisory returns the current process-wide advisory message.
func (s *Service) Advisory() string {
	return s.notices.Latest()
}

// ClearHistory discards all records, releases their artifact handles, and
// clears the advisory message.
func (s *Service) ClearHistory(ctx context.Context) error {
	s.notices.Clear()
	return s.history.Clear(ctx, s.artifacts.Release)
}

// Wait blocks until every in-flight pipeline has settled. Used on shutdown
// so settle-updates are not lost mid-write.
func (s *Service) Wait() {
	s.wg.Wait()
}
