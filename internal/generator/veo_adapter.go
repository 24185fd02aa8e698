package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/veogen/veogen-api/internal/veo"
)

// Static errors for the Veo generator.
var (
	// ErrCredentialMissing is returned before any remote call when the spec
	// carries no API key.
	ErrCredentialMissing = errors.New("generator: API key is required to generate video")
	// ErrNoResult is returned when the remote operation finished without
	// producing an artifact location. This is distinct from a remote failure
	// and is never treated as success.
	ErrNoResult = errors.New("generator: generation finished but returned no result")
)

// DefaultPollInterval is the cadence at which an in-flight operation is polled.
const DefaultPollInterval = 10 * time.Second

// VeoGenerator adapts the Veo client to the Generator interface. Each call to
// Generate owns one remote operation: it submits, polls at a fixed interval
// until the operation reports done, and resolves the authenticated artifact
// URL. Concurrent generations interleave freely; nothing is shared between
// them beyond the underlying HTTP client.
type VeoGenerator struct {
	client       veo.Client
	pollInterval time.Duration
	logger       *slog.Logger
}

// VeoOption configures a VeoGenerator.
type VeoOption func(*VeoGenerator)

// WithPollInterval overrides the polling cadence.
func WithPollInterval(d time.Duration) VeoOption {
	return func(g *VeoGenerator) {
		if d > 0 {
			g.pollInterval = d
		}
	}
}

// NewVeoGenerator creates a new Veo generator adapter.
func NewVeoGenerator(client veo.Client, logger *slog.Logger, opts ...VeoOption) *VeoGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	g := &VeoGenerator{
		client:       client,
		pollInterval: DefaultPollInterval,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate submits the spec and blocks until the remote operation settles.
// On success it returns the artifact location with the credential appended as
// the access parameter; the location is not fetchable without it.
func (g *VeoGenerator) Generate(ctx context.Context, spec Spec) (string, error) {
	if spec.Credential == "" {
		return "", ErrCredentialMissing
	}

	if spec.Resolution == "" {
		spec.Resolution = veo.DefaultResolution(spec.Model)
	}

	veoSpec := veo.GenerationSpec{
		Credential:  spec.Credential,
		Model:       spec.Model,
		Prompt:      spec.Prompt,
		AspectRatio: spec.AspectRatio,
		Resolution:  spec.Resolution,
	}
	if spec.Image != nil {
		veoSpec.Image = &veo.InlineImage{
			Data:     spec.Image.Data,
			MIMEType: spec.Image.MIMEType,
		}
	}

	operation, result, err := g.client.Submit(ctx, veoSpec)
	if err != nil {
		return "", fmt.Errorf("veo generator submit: %w", err)
	}

	g.logger.Debug("operation submitted",
		slog.String("operation", operation),
		slog.String("model", spec.Model),
		slog.Bool("done", result.Done),
	)

	// Some operations complete synchronously; only poll when the submit
	// response left the operation running.
	if !result.Done {
		result, err = g.waitForCompletion(ctx, operation, spec.Credential)
		if err != nil {
			return "", err
		}
	}

	if result.ResultURI == "" {
		return "", ErrNoResult
	}

	return veo.DownloadURL(result.ResultURI, spec.Credential), nil
}

// waitForCompletion polls the operation at the configured interval until the
// remote side reports done. There is no deadline at this layer; the loop runs
// until completion, a poll error, or context cancellation.
func (g *VeoGenerator) waitForCompletion(ctx context.Context, operation, credential string) (veo.PollResult, error) {
	for {
		select {
		case <-ctx.Done():
			return veo.PollResult{}, fmt.Errorf("veo generator: context cancelled: %w", ctx.Err())
		case <-time.After(g.pollInterval):
		}

		result, err := g.client.Poll(ctx, operation, credential)
		if err != nil {
			return veo.PollResult{}, fmt.Errorf("veo generator poll: %w", err)
		}

		if result.Done {
			return result, nil
		}

		g.logger.Debug("operation still running",
			slog.String("operation", operation),
		)
	}
}

// Compile-time check that VeoGenerator implements Generator.
var _ Generator = (*VeoGenerator)(nil)
