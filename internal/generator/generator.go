// Package generator provides the gateway interface for video generation
// providers and the Veo adapter that drives a submission to completion.
package generator

import "context"

// Image carries an optional conditioning image for image-to-video generation.
type Image struct {
	// Data is the base64-encoded image payload.
	Data string
	// MIMEType is the declared media type of the image.
	MIMEType string
}

// Spec is the immutable parameter bundle for one generation. It is consumed
// by Generate and not retained afterwards.
type Spec struct {
	// Credential is the caller-supplied API key.
	Credential string
	// Model is the provider wire model identifier.
	Model string
	// Prompt is the generation prompt text.
	Prompt string
	// AspectRatio is "16:9" or "9:16".
	AspectRatio string
	// Resolution is the optional output resolution. When empty, a
	// model-specific default is applied for models that support one.
	Resolution string
	// Image is the optional conditioning image.
	Image *Image
}

// Generator defines the interface for video generation providers.
// Generate submits a job, waits for the remote operation to finish, and
// returns the credential-authenticated location of the finished artifact.
// It may suspend for the full duration of remote processing.
type Generator interface {
	Generate(ctx context.Context, spec Spec) (artifactURL string, err error)
}
