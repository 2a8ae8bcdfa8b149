package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/hearth/internal/domain"
	"github.com/codeready-toolchain/hearth/internal/engine"
	"github.com/codeready-toolchain/hearth/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.Open(context.Background(), filepath.Join(dir, "hearth.db"), filepath.Join(dir, "events.jsonl"), 8, 8, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	eng, err := engine.New(st, filepath.Join(dir, "recipes.yaml"), domain.DefaultVisionRadius, nil, slog.Default())
	require.NoError(t, err)

	runner := engine.NewRunner(eng, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	runner.Start(ctx)
	t.Cleanup(runner.Shutdown)

	return NewServer(eng, runner, slog.Default())
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEndpointReportsTickAndWeather(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(0), body["tick"])
	require.Equal(t, "clear", body["weather"])
}

func TestTickOnceCommandAdvancesSimulation(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/tick", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		tick, err := s.engine.World.CurrentTick(context.Background())
		return err == nil && tick == 1
	}, time.Second, 5*time.Millisecond)
}

func TestManualEventCommandRequiresDescription(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands/manual-event", nil)
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
