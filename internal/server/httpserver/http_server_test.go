package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repoexplorer/internal/config"
	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/github"
	"git.home.luguber.info/inful/repoexplorer/internal/metrics"
	"git.home.luguber.info/inful/repoexplorer/internal/session"
)

type emptySource struct{}

func (emptySource) ListRepositories(context.Context, github.OwnerKind, string) ([]github.Repository, error) {
	return []github.Repository{}, nil
}
func (emptySource) ListContents(context.Context, string, string, string) ([]github.Entry, error) {
	return []github.Entry{}, nil
}
func (emptySource) GetReadme(context.Context, string, string) (string, error) { return "", nil }
func (emptySource) GetFile(context.Context, string, string, string) (*github.File, error) {
	return &github.File{}, nil
}

type constGenerator struct{}

func (constGenerator) Generate(context.Context, string, string) (string, error) { return "ok", nil }

func newTestServer(t *testing.T, addr string) (*Server, *prom.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	mgr := session.NewManager(func(id string) (*explorer.Session, error) {
		return explorer.New(explorer.Options{ID: id, Source: emptySource{}, Generator: constGenerator{}, Logger: logger})
	}, time.Hour, time.Minute, rec)
	t.Cleanup(func() { _ = mgr.Stop() })

	srv := New(config.ServerConfig{Addr: addr}, Options{
		Sessions:        mgr,
		MetricsHandler:  metrics.HTTPHandler(reg),
		RequestObserver: rec,
		Logger:          logger,
	})
	return srv, reg
}

func TestHandlerRoutes(t *testing.T) {
	srv, _ := newTestServer(t, ":0")
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_sessions":1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "repoexplorer_active_sessions 1")
	assert.Contains(t, body, `route="POST /api/sessions"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/sessions", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStartStop(t *testing.T) {
	srv, _ := newTestServer(t, "127.0.0.1:0")
	assert.Equal(t, "", srv.Addr())

	require.NoError(t, srv.Start(context.Background()))
	addr := srv.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
}

func TestStartFailsOnBusyAddress(t *testing.T) {
	first, _ := newTestServer(t, "127.0.0.1:0")
	require.NoError(t, first.Start(context.Background()))
	t.Cleanup(func() { _ = first.Stop(context.Background()) })

	second, _ := newTestServer(t, first.Addr())
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "http startup failed"))
}

func TestStopBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, ":0")
	assert.NoError(t, srv.Stop(context.Background()))
}
