package refinery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/refinery/ai/mock"
	"github.com/poiesic/refinery/api"
	"github.com/poiesic/refinery/config"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOCR struct{}

func (stubOCR) Recognize(ctx context.Context, path string) (string, error) {
	return "STOP", nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Path = filepath.Join(t.TempDir(), "cache")
	cfg.Cache.GCInterval = 0
	cfg.Fetch.TempDir = t.TempDir()
	cfg.Server.Workers = 2
	return cfg
}

func failingLoader() (engine.Engine, error) {
	return nil, errors.New("no model in tests")
}

func TestNew(t *testing.T) {
	t.Run("create new service", func(t *testing.T) {
		svc, err := New(testConfig(t), WithEngineLoader(failingLoader))
		require.NoError(t, err)
		require.NotNil(t, svc)
		defer svc.Close()

		assert.NotNil(t, svc.Pipeline())
		assert.NotNil(t, svc.Fetcher())
		assert.NotNil(t, svc.Cache())
		assert.NotNil(t, svc.Gatherer())
		assert.False(t, svc.Registry().Loaded(), "engine loads lazily")
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0o644))

		cfg := testConfig(t)
		cfg.Cache.Path = tmpFile
		svc, err := New(cfg, WithEngineLoader(failingLoader))
		assert.Error(t, err)
		assert.Nil(t, svc)
	})

	t.Run("error with invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Server.FanOut = 0
		_, err := New(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config")
	})
}

func TestService_Close(t *testing.T) {
	svc, err := New(testConfig(t), WithEngineLoader(failingLoader))
	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestService_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes.txt":
			w.Write([]byte("meeting at noon"))
		case "/sign.png":
			w.Write([]byte("\x89PNG\r\n\x1a\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.Cache.InMemory = true
	svc, err := New(cfg,
		WithEngineLoader(failingLoader),
		WithOCR(stubOCR{}),
		WithDescriber(mock.NewMockDescriber().WithDescribeFunc(func(ctx context.Context, path string) (string, error) {
			return "a red octagon", nil
		})),
	)
	require.NoError(t, err)
	defer svc.Close()

	reqs := []core.BatchItemRequest{
		{FileURL: srv.URL + "/notes.txt", Filename: "notes.txt"},
		{FileURL: srv.URL + "/sign.png", Filename: "sign.png"},
		{FileURL: srv.URL + "/missing.txt", Filename: "missing.txt"},
		{FileURL: srv.URL + "/clip.mp3", Filename: "clip.exe"},
	}
	out := svc.Pipeline().ProcessBatch(context.Background(), reqs)

	require.Len(t, out.Results, 4)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 2, out.Failed)
	assert.Equal(t, http.StatusMultiStatus, out.Status())
	assert.JSONEq(t, `{"text":"meeting at noon"}`, string(out.Results[0].Result))
	assert.JSONEq(t, `{"ocr_text":"STOP","vision_description":"a red octagon"}`, string(out.Results[1].Result))
	assert.Contains(t, out.Results[2].Error, "Processing failed")
	assert.Contains(t, out.Results[3].Error, "Processing failed")

	svc.Flush()
	cached, hit, err := svc.Cache().Get(context.Background(), "notes.txt")
	require.NoError(t, err)
	require.True(t, hit)
	assert.JSONEq(t, `{"text":"meeting at noon"}`, cached)

	families, err := svc.Gatherer().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "refinery_items_total")
	assert.Contains(t, names, "refinery_cache_writebacks_total")
}

func TestService_HTTPBatchIsolatesInvalidItems(t *testing.T) {
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("contents of " + strings.TrimPrefix(r.URL.Path, "/")))
	}))
	defer files.Close()

	cfg := testConfig(t)
	cfg.Cache.InMemory = true
	svc, err := New(cfg, WithEngineLoader(failingLoader), WithOCR(stubOCR{}))
	require.NoError(t, err)
	defer svc.Close()

	server, err := api.NewServer(svc.Pipeline(), svc.Fetcher(), api.WithGatherer(svc.Gatherer()))
	require.NoError(t, err)

	body := `{"requests":[
		{"file_url":"` + files.URL + `/a.txt","filename":"a.txt"},
		{"file_url":"` + files.URL + `/b.md","filename":"b.md"},
		{"file_url":"ftp://example.com/c.txt","filename":"c.txt"}
	]}`
	req := httptest.NewRequest(http.MethodPost, "/api/process/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusMultiStatus, rec.Code)
	var resp core.BatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Batch complete. Success: 2, Failed: 1", resp.Message)
	require.Len(t, resp.Data, 3)
	assert.JSONEq(t, `{"text":"contents of a.txt"}`, string(resp.Data[0].Result))
	assert.JSONEq(t, `{"text":"contents of b.md"}`, string(resp.Data[1].Result))
	assert.Equal(t, "c.txt", resp.Data[2].Filename)
	assert.Contains(t, resp.Data[2].Error, "unsupported url scheme")
}
