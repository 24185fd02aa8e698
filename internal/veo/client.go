package veo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Static errors for Veo client operations.
var (
	// ErrCredentialRequired is returned when a request carries no API key.
	ErrCredentialRequired = errors.New("veo: API key is required")
	// ErrModelRequired is returned when the model identifier is not provided.
	ErrModelRequired = errors.New("veo: model is required")
	// ErrOperationRequired is returned when the operation name is not provided.
	ErrOperationRequired = errors.New("veo: operation name is required")
	// ErrNoOperationReturned is returned when the submit response contains no operation name.
	ErrNoOperationReturned = errors.New("veo: submit failed: no operation returned")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("veo: server error")
	// ErrRequestFailed is returned when the request fails with a non-2xx status code.
	ErrRequestFailed = errors.New("veo: request failed")
	// ErrOperationFailed is returned when a polled operation carries a remote error.
	ErrOperationFailed = errors.New("veo: operation failed")
)

// Client defines the interface for interacting with the Veo API.
type Client interface {
	// Submit starts a long-running generation and returns the operation name
	// together with the operation's initial state. Some operations complete
	// synchronously; when initial.Done is true no polling is needed.
	Submit(ctx context.Context, spec GenerationSpec) (operation string, initial PollResult, err error)

	// Poll checks the state of an operation. The credential must be the one
	// the operation was submitted with.
	Poll(ctx context.Context, operation, credential string) (PollResult, error)
}

// HTTPClient is the HTTP implementation of the Veo Client interface.
// The credential travels with each request rather than with the client, so a
// single client instance serves every caller-supplied key.
type HTTPClient struct {
	baseURL     string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the Veo API.
func WithBaseURL(u string) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseURL = u
	}
}

// WithMaxRetries sets the maximum number of retries for transient failures.
func WithMaxRetries(n int) ClientOption {
	return func(hc *HTTPClient) {
		hc.maxRetries = n
	}
}

// WithBaseBackoff sets the initial backoff duration for retries.
func WithBaseBackoff(d time.Duration) ClientOption {
	return func(hc *HTTPClient) {
		hc.baseBackoff = d
	}
}

// NewClient creates a new Veo HTTP client.
func NewClient(opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     "https://generativelanguage.googleapis.com/v1beta",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxRetries:  3,
		baseBackoff: 1 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit starts a long-running video generation. It returns the operation
// name and the state the operation was already in when the call returned, so
// a synchronously completed generation never waits for a poll cycle.
func (c *HTTPClient) Submit(ctx context.Context, spec GenerationSpec) (string, PollResult, error) {
	if spec.Credential == "" {
		return "", PollResult{}, ErrCredentialRequired
	}
	if spec.Model == "" {
		return "", PollResult{}, ErrModelRequired
	}

	reqBody := predictRequest{
		Instances: []predictInstance{{Prompt: spec.Prompt}},
		Parameters: predictParameters{
			AspectRatio: spec.AspectRatio,
			Resolution:  spec.Resolution,
			SampleCount: 1,
		},
	}
	if spec.Image != nil {
		reqBody.Instances[0].Image = &inlineImage{
			BytesBase64Encoded: spec.Image.Data,
			MimeType:           spec.Image.MIMEType,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", PollResult{}, fmt.Errorf("veo: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s",
		c.baseURL, spec.Model, url.QueryEscape(spec.Credential))

	var resp operationResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, endpoint, bodyBytes, &resp); err != nil {
		return "", PollResult{}, err
	}

	if resp.Name == "" {
		if resp.Error != nil {
			return "", PollResult{}, fmt.Errorf("%w: %s", ErrOperationFailed, resp.Error.Message)
		}
		return "", PollResult{}, ErrNoOperationReturned
	}
	if resp.Error != nil {
		return "", PollResult{}, fmt.Errorf("%w: %s %s", ErrOperationFailed, resp.Error.Status, resp.Error.Message)
	}

	return resp.Name, extractResult(&resp), nil
}

// Poll checks the state of an operation and extracts the result URI when done.
// A remote operation error surfaces as ErrOperationFailed carrying the remote
// status and message verbatim, so callers can classify it.
func (c *HTTPClient) Poll(ctx context.Context, operation, credential string) (PollResult, error) {
	if operation == "" {
		return PollResult{}, ErrOperationRequired
	}
	if credential == "" {
		return PollResult{}, ErrCredentialRequired
	}

	endpoint := fmt.Sprintf("%s/%s?key=%s", c.baseURL, operation, url.QueryEscape(credential))

	var resp operationResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return PollResult{}, err
	}

	if resp.Error != nil {
		return PollResult{}, fmt.Errorf("%w: %s %s", ErrOperationFailed, resp.Error.Status, resp.Error.Message)
	}

	return extractResult(&resp), nil
}

// extractResult reads the done flag and result URI out of an operation payload.
func extractResult(resp *operationResponse) PollResult {
	result := PollResult{Done: resp.Done}
	if resp.Done && resp.Response != nil {
		samples := resp.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 {
			result.ResultURI = samples[0].Video.URI
		}
	}
	return result
}

// DownloadURL combines a result URI with the credential that submitted the
// generation. The provider serves artifact URIs only when the key is appended
// as an access parameter.
func DownloadURL(uri, credential string) string {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(credential)
}

// doRequestWithRetry performs an HTTP request with exponential backoff retry.
func (c *HTTPClient) doRequestWithRetry(ctx context.Context, method, endpoint string, body []byte, result interface{}) error {
	var lastErr error
	backoff := c.baseBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("veo: context cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		err := c.doRequest(ctx, method, endpoint, body, result)
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		lastErr = err
	}

	return fmt.Errorf("veo: max retries exceeded: %w", lastErr)
}

// doRequest performs a single HTTP request.
func (c *HTTPClient) doRequest(ctx context.Context, method, endpoint string, body []byte, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("veo: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("veo: request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &retryableError{err: fmt.Errorf("veo: read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 5xx errors are transient. 429 is not retried here: quota exhaustion
		// must surface to the caller so it can decide on fallback.
		if resp.StatusCode >= 500 {
			return &retryableError{err: fmt.Errorf("%w %d: %s", ErrServerError, resp.StatusCode, string(respBody))}
		}
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("veo: unmarshal response: %w", err)
		}
	}

	return nil
}

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
