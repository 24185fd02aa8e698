// Package veo provides an HTTP client for the Veo long-running video
// generation API.
package veo

// Wire names for the supported Veo model versions.
const (
	// ModelVeo2Name is the wire identifier for Veo 2.
	ModelVeo2Name = "veo-2.0-generate-001"
	// ModelVeo3Name is the wire identifier for Veo 3.
	ModelVeo3Name = "veo-3.0-generate-001"
)

// DefaultResolution returns the default output resolution for models that
// accept a resolution parameter, or empty for models that do not.
func DefaultResolution(model string) string {
	if model == ModelVeo3Name {
		return "1080p"
	}
	return ""
}

// InlineImage carries image bytes for image-conditioned generation.
type InlineImage struct {
	// Data is the base64-encoded image payload.
	Data string
	// MIMEType is the declared media type of the image (e.g. "image/png").
	MIMEType string
}

// GenerationSpec is the immutable parameter bundle for one submission.
// It is not retained after the request is built.
type GenerationSpec struct {
	// Credential is the caller-supplied API key.
	Credential string
	// Model is the wire model identifier.
	Model string
	// Prompt is the generation prompt text.
	Prompt string
	// AspectRatio is "16:9" or "9:16".
	AspectRatio string
	// Resolution is the optional output resolution (model-dependent).
	Resolution string
	// Image is the optional conditioning image.
	Image *InlineImage
}

// PollResult contains the outcome of polling an operation.
type PollResult struct {
	// Done reports whether the remote operation has finished.
	Done bool
	// ResultURI is the artifact location. Only set when Done is true, and may
	// still be empty when the operation finished without producing a result.
	ResultURI string
}

// predictRequest is the request body for the predictLongRunning endpoint.
type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

// predictInstance is a single generation instance in a predict request.
type predictInstance struct {
	Prompt string       `json:"prompt"`
	Image  *inlineImage `json:"image,omitempty"`
}

// inlineImage is the wire form of an inline conditioning image.
type inlineImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

// predictParameters holds the generation tuning parameters.
type predictParameters struct {
	AspectRatio string `json:"aspectRatio"`
	Resolution  string `json:"resolution,omitempty"`
	SampleCount int    `json:"sampleCount"`
}

// operationResponse is the response for both submit and poll calls.
type operationResponse struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Error    *operationError  `json:"error,omitempty"`
	Response *operationResult `json:"response,omitempty"`
}

// operationError is the remote error attached to a failed operation.
type operationError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// operationResult is the payload of a finished operation.
type operationResult struct {
	GenerateVideoResponse generateVideoResponse `json:"generateVideoResponse"`
}

// generateVideoResponse lists the generated samples.
type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples"`
}

// generatedSample is one generated video entry.
type generatedSample struct {
	Video videoRef `json:"video"`
}

// videoRef points at the stored video artifact.
type videoRef struct {
	URI string `json:"uri"`
}
