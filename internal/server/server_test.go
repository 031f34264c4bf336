package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/techtrack/internal/core/config"
	"github.com/colonyops/techtrack/internal/core/stats"
	"github.com/colonyops/techtrack/internal/core/tech"
	"github.com/colonyops/techtrack/internal/data/stores"
	"github.com/colonyops/techtrack/internal/enrich/github"
	"github.com/colonyops/techtrack/internal/enrich/jobs"
	"github.com/colonyops/techtrack/internal/techtrack"
	"github.com/colonyops/techtrack/pkg/iojson"
)

type stubRepos struct {
	err error
}

func (s stubRepos) SearchRepos(_ context.Context, query, _ string) ([]tech.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []tech.Item{{ID: "api-1", Title: query, Status: tech.StatusNotStarted, Notes: []tech.Note{}}}, nil
}

func (s stubRepos) Resources(context.Context, string) ([]github.Resource, error) {
	return nil, s.err
}

type stubJobs struct{}

func (stubJobs) Search(_ context.Context, q jobs.Query) ([]jobs.Job, error) {
	return []jobs.Job{{ID: 1, Name: q.Technology + " developer"}}, nil
}

type testEnv struct {
	tracker *techtrack.Tracker
	srv     *httptest.Server
}

func newTestEnv(t *testing.T, repos techtrack.RepoSearcher) *testEnv {
	t.Helper()

	tracker, err := techtrack.New(context.Background(), stores.NewMemoryStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	explorer := techtrack.NewExplorer(repos, stubJobs{}, zerolog.Nop())
	s := New(config.DefaultConfig().Server, tracker, explorer, zerolog.Nop())

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return &testEnv{tracker: tracker, srv: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decodeAs[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestListAndSearch(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodGet, "/api/technologies", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeAs[[]tech.Item](t, body), 4)

	_, body = env.do(t, http.MethodGet, "/api/technologies?q=jsx", "")
	items := decodeAs[[]tech.Item](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, tech.ID("2"), items[0].ID)

	_, body = env.do(t, http.MethodGet, "/api/technologies?category=Advanced%20React", "")
	items = decodeAs[[]tech.Item](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, "State Management", items[0].Title)
}

func TestItemLifecycle(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodPost, "/api/technologies", `{"title":"Go","category":"Backend"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decodeAs[tech.Item](t, body)
	assert.Equal(t, tech.StatusNotStarted, created.Status)

	path := "/api/technologies/" + created.ID.String()

	resp, body = env.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Go", decodeAs[tech.Item](t, body).Title)

	resp, body = env.do(t, http.MethodPatch, path, `{"description":"concurrency"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "concurrency", decodeAs[tech.Item](t, body).Description)

	resp, body = env.do(t, http.MethodPost, path+"/cycle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tech.StatusInProgress, decodeAs[tech.Item](t, body).Status)

	resp, body = env.do(t, http.MethodPut, path+"/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tech.StatusCompleted, decodeAs[tech.Item](t, body).Status)

	resp, _ = env.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotes(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodPost, "/api/technologies/3/notes", `{"text":"learn X"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	note := decodeAs[tech.Note](t, body)

	it, err := env.tracker.ByID("3")
	require.NoError(t, err)
	assert.Equal(t, tech.StatusInProgress, it.Status)

	notePath := "/api/technologies/3/notes/" + note.ID.String()

	resp, body = env.do(t, http.MethodPost, notePath+"/toggle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, tech.StatusCompleted, decodeAs[tech.Item](t, body).Status)

	resp, body = env.do(t, http.MethodPatch, notePath, `{"text":"learn Y"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "learn Y", decodeAs[tech.Item](t, body).Notes[0].Text)

	resp, body = env.do(t, http.MethodDelete, notePath, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeAs[tech.Item](t, body)
	assert.Empty(t, got.Notes)
	assert.Equal(t, tech.StatusNotStarted, got.Status)

	resp, _ = env.do(t, http.MethodPost, notePath+"/toggle", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing title", http.MethodPost, "/api/technologies", `{"title":" "}`},
		{"bad difficulty", http.MethodPost, "/api/technologies", `{"title":"Go","difficulty":"expert"}`},
		{"bad json", http.MethodPost, "/api/technologies", `{`},
		{"bad status", http.MethodPut, "/api/technologies/1/status", `{"status":"done"}`},
		{"empty note", http.MethodPost, "/api/technologies/1/notes", `{"text":""}`},
		{"non-array import", http.MethodPost, "/api/import", `{"technologies":"oops"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

			e := decodeAs[iojson.Error](t, body)
			assert.NotEmpty(t, e.Message)
			assert.Contains(t, e.Data, "fields")
		})
	}

	assert.Equal(t, tech.Seed(), env.tracker.Items(), "nothing applied")
}

func TestValidationErrorFields(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	_, body := env.do(t, http.MethodPost, "/api/technologies", `{"title":""}`)

	var e struct {
		Data struct {
			Fields []struct {
				Field string `json:"field"`
			} `json:"fields"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &e))
	require.NotEmpty(t, e.Data.Fields)
	assert.Equal(t, "title", e.Data.Fields[0].Field)
}

func TestBulkActions(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodPost, "/api/actions/complete-all", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 100, decodeAs[stats.Stats](t, body).ProgressPercent)

	_, body = env.do(t, http.MethodPost, "/api/actions/reset-all", "")
	assert.Equal(t, 0, decodeAs[stats.Stats](t, body).ProgressPercent)

	_, body = env.do(t, http.MethodPost, "/api/actions/clear", "")
	assert.Equal(t, 25, decodeAs[stats.Stats](t, body).ProgressPercent)
}

func TestExportImport(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, exported := env.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "technologies-backup-")

	doc := decodeAs[techtrack.ExportDocument](t, exported)
	assert.Len(t, doc.Technologies, 4)
	assert.Equal(t, 25, doc.Stats.ProgressPercent)

	_, err := env.tracker.Add(context.Background(), tech.NewItem{Title: "Go"})
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodPost, "/api/import", string(exported))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"imported":4}`, string(body))
	assert.Equal(t, tech.Seed(), env.tracker.Items())
}

func TestStatsAndCategories(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	_, body := env.do(t, http.MethodGet, "/api/stats", "")
	s := decodeAs[stats.Stats](t, body)
	assert.Equal(t, 4, s.TotalTechnologies)
	assert.Equal(t, 3, s.CompletedNotes)

	_, body = env.do(t, http.MethodGet, "/api/categories", "")
	assert.JSONEq(t, `["Advanced React","React Basics"]`, string(body))
}

func TestExplore(t *testing.T) {
	env := newTestEnv(t, stubRepos{})

	resp, body := env.do(t, http.MethodGet, "/api/explore/repos?q=vite", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeAs[[]tech.Item](t, body)
	require.Len(t, items, 1)
	assert.Equal(t, "vite", items[0].Title)

	resp, body = env.do(t, http.MethodGet, "/api/explore/jobs?tech=go", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "go developer", decodeAs[[]jobs.Job](t, body)[0].Name)

	resp, _ = env.do(t, http.MethodGet, "/api/explore/jobs", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/explore/jobs?tech=go&level=Guru", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExplore_UpstreamErrors(t *testing.T) {
	env := newTestEnv(t, stubRepos{err: errors.New("connection refused")})
	resp, _ := env.do(t, http.MethodGet, "/api/explore/repos", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	env = newTestEnv(t, stubRepos{err: github.ErrRateLimited})
	resp, _ = env.do(t, http.MethodGet, "/api/explore/repos", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestExplore_Disabled(t *testing.T) {
	tracker, err := techtrack.New(context.Background(), stores.NewMemoryStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	s := New(config.DefaultConfig().Server, tracker, nil, zerolog.Nop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/explore/repos", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPprof(t *testing.T) {
	tracker, err := techtrack.New(context.Background(), stores.NewMemoryStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	for _, enabled := range []bool{true, false} {
		cfg := config.DefaultConfig().Server
		cfg.Pprof = enabled
		s := New(cfg, tracker, nil, zerolog.Nop())

		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
		if enabled {
			assert.Equal(t, http.StatusOK, rec.Code)
		} else {
			assert.Equal(t, http.StatusNotFound, rec.Code)
		}
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	tracker, err := techtrack.New(context.Background(), stores.NewMemoryStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	s := New(cfg, tracker, nil, zerolog.Nop())

	assert.Empty(t, s.Addr())
	require.NoError(t, s.Start(context.Background()))

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, s.Shutdown(ctx))
}

func TestServer_Run(t *testing.T) {
	tracker, err := techtrack.New(context.Background(), stores.NewMemoryStore(), nil, zerolog.Nop())
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	cfg.Addr = "127.0.0.1:0"
	s := New(cfg, tracker, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(2 * startupGrace)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
