package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veogen/veogen-api/internal/artifact"
	"github.com/veogen/veogen-api/internal/generator"
	"github.com/veogen/veogen-api/internal/job"
	"github.com/veogen/veogen-api/internal/storage"
)

// stubGenerator settles every generation with a fixed outcome.
type stubGenerator struct {
	url string
	err error
}

func (g *stubGenerator) Generate(_ context.Context, _ generator.Spec) (string, error) {
	return g.url, g.err
}

// testEnv wires a real service over a stub generator and local storage.
type testEnv struct {
	service   *job.Service
	artifacts *artifact.Store
	router    http.Handler
}

func newTestEnv(t *testing.T, gen generator.Generator) *testEnv {
	t.Helper()

	backend, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	artifacts := artifact.NewStore(backend)
	fetcher := artifact.NewFetcher(artifacts)
	svc := job.NewService(job.NewHistory(), gen, fetcher, artifacts, job.NewNotices(), nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := NewHandlers(svc, artifacts, logger)
	return &testEnv{
		service:   svc,
		artifacts: artifacts,
		router:    NewRouter(handlers, logger, DefaultConfig()),
	}
}

func validBody() map[string]any {
	return map[string]any{
		"api_key":     "test-key",
		"prompt":      "a cat on a skateboard",
		"model":       "VEO2",
		"type":        "TEXT_TO_VIDEO",
		"orientation": "HORIZONTAL",
	}
}

func postGeneration(t *testing.T, env *testEnv, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/generations", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_Health(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHandlers_CreateGeneration(t *testing.T) {
	// Serve the finished artifact for the fetch step.
	artifactSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("video-bytes"))
	}))
	defer artifactSrv.Close()

	env := newTestEnv(t, &stubGenerator{url: artifactSrv.URL})

	rec := postGeneration(t, env, validBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var created CreateGenerationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "PROCESSING", created.Status)

	env.service.Wait()

	// The settled record is readable by ID.
	req := httptest.NewRequest(http.MethodGet, "/generations/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	env.router.ServeHTTP(getRec, req)
	require.Equal(t, http.StatusOK, getRec.Code)

	var gen GenerationResponse
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &gen))
	assert.Equal(t, "COMPLETED", gen.Status)
	assert.False(t, gen.Sample)
	assert.Empty(t, gen.Error)
	require.NotEmpty(t, gen.ArtifactURL)

	// The artifact URL streams the fetched bytes.
	artReq := httptest.NewRequest(http.MethodGet, gen.ArtifactURL, nil)
	artRec := httptest.NewRecorder()
	env.router.ServeHTTP(artRec, artReq)
	require.Equal(t, http.StatusOK, artRec.Code)
	assert.Equal(t, "video/mp4", artRec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(artRec.Body)
	assert.Equal(t, []byte("video-bytes"), body)
}

func TestHandlers_CreateGeneration_InvalidJSON(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodPost, "/generations", bytes.NewReader([]byte("{nope")))
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_JSON", resp.Code)
}

func TestHandlers_CreateGeneration_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"missing api key", func(b map[string]any) { delete(b, "api_key") }},
		{"missing prompt", func(b map[string]any) { delete(b, "prompt") }},
		{"bad model", func(b map[string]any) { b["model"] = "VEO9" }},
		{"bad type", func(b map[string]any) { b["type"] = "AUDIO" }},
		{"bad orientation", func(b map[string]any) { b["orientation"] = "SQUARE" }},
		{"invalid image encoding", func(b map[string]any) { b["image_base64"] = "!!not-base64!!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &stubGenerator{})
			body := validBody()
			tt.mutate(body)

			rec := postGeneration(t, env, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, 0, len(env.service.ListJobs()), "rejected submission must not create a record")
		})
	}
}

func TestHandlers_CreateGeneration_ImageRequired(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	body := validBody()
	body["type"] = "IMAGE_TO_VIDEO"

	rec := postGeneration(t, env, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REQUEST", resp.Code)
}

func TestHandlers_QuotaFallback(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("status 429: RESOURCE_EXHAUSTED")})

	rec := postGeneration(t, env, validBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.service.Wait()

	req := httptest.NewRequest(http.MethodGet, "/generations", nil)
	listRec := httptest.NewRecorder()
	env.router.ServeHTTP(listRec, req)
	require.Equal(t, http.StatusOK, listRec.Code)

	var history HistoryResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &history))
	require.Len(t, history.Generations, 1)
	assert.Equal(t, "COMPLETED", history.Generations[0].Status)
	assert.True(t, history.Generations[0].Sample)
	assert.NotEmpty(t, history.Generations[0].ArtifactURL)
	assert.NotEmpty(t, history.Notice)
	assert.Equal(t, 0, history.Processing)

	// The sample artifact streams like any other.
	artReq := httptest.NewRequest(http.MethodGet, history.Generations[0].ArtifactURL, nil)
	artRec := httptest.NewRecorder()
	env.router.ServeHTTP(artRec, artReq)
	require.Equal(t, http.StatusOK, artRec.Code)
	body, _ := io.ReadAll(artRec.Body)
	assert.Equal(t, artifact.Sample(), body)
}

func TestHandlers_FailedGeneration(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("API key not valid")})

	rec := postGeneration(t, env, validBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.service.Wait()

	req := httptest.NewRequest(http.MethodGet, "/generations", nil)
	listRec := httptest.NewRecorder()
	env.router.ServeHTTP(listRec, req)

	var history HistoryResponse
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &history))
	require.Len(t, history.Generations, 1)
	assert.Equal(t, "FAILED", history.Generations[0].Status)
	assert.Contains(t, history.Generations[0].Error, "Google AI Studio")
	assert.Empty(t, history.Generations[0].ArtifactURL)
	assert.Empty(t, history.Notice)
}

func TestHandlers_GetGeneration_NotFound(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/generations/nope", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_GetArtifact_NotFound(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/artifacts/nope", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlers_ClearGenerations(t *testing.T) {
	env := newTestEnv(t, &stubGenerator{err: errors.New("quota exceeded")})

	rec := postGeneration(t, env, validBody())
	require.Equal(t, http.StatusAccepted, rec.Code)
	env.service.Wait()

	records := env.service.ListJobs()
	require.Len(t, records, 1)
	artifactID := records[0].ArtifactID
	require.NotEmpty(t, artifactID)

	req := httptest.NewRequest(http.MethodDelete, "/generations", nil)
	delRec := httptest.NewRecorder()
	env.router.ServeHTTP(delRec, req)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	assert.Empty(t, env.service.ListJobs())

	// The cleared record's handle is revoked.
	artReq := httptest.NewRequest(http.MethodGet, "/artifacts/"+artifactID, nil)
	artRec := httptest.NewRecorder()
	env.router.ServeHTTP(artRec, artReq)
	assert.Equal(t, http.StatusNotFound, artRec.Code)
}
