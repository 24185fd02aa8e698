package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Static errors for artifact retrieval.
var (
	// ErrFetchFailed is returned when the artifact location responds with a
	// non-2xx status.
	ErrFetchFailed = errors.New("artifact: fetch failed")
	// ErrEmptyArtifact is returned when the retrieved payload has zero length.
	ErrEmptyArtifact = errors.New("artifact: fetched artifact is empty")
)

// defaultContentType is assumed when the artifact location does not declare one.
const defaultContentType = "video/mp4"

// Fetcher retrieves finished artifacts from their resolved locations and
// turns them into local handles.
//
// Precondition: the URL passed to Fetch must already carry the provider's
// access credential; the fetcher itself is provider-agnostic and performs a
// plain HTTP GET.
type Fetcher struct {
	httpClient *http.Client
	store      *Store
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetchHTTPClient sets a custom HTTP client for artifact retrieval.
func WithFetchHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// NewFetcher creates a Fetcher that stores retrieved bytes in the given store.
func NewFetcher(store *Store, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		store:      store,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the artifact bytes from an authenticated location and
// returns a revocable handle over them. A non-2xx response fails with the
// transport status and body; a zero-length payload fails as an empty
// artifact, never as success.
func (f *Fetcher) Fetch(ctx context.Context, authenticatedURL string) (Handle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authenticatedURL, nil)
	if err != nil {
		return Handle{}, fmt.Errorf("artifact: create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Handle{}, fmt.Errorf("artifact: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Handle{}, fmt.Errorf("artifact: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Handle{}, fmt.Errorf("%w: status %d: %s", ErrFetchFailed, resp.StatusCode, string(body))
	}

	if len(body) == 0 {
		return Handle{}, ErrEmptyArtifact
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	return f.store.Put(ctx, body, contentType)
}
