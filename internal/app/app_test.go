package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcheck/config"
	"fieldcheck/internal/history"
)

func redditStub(t *testing.T) *httptest.Server {
	t.Helper()
	account, err := os.ReadFile(filepath.Join("..", "models", "testdata", "account.json"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/spladug/about.json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(account)
	}))
	t.Cleanup(server.Close)
	return server
}

func loadConfig(t *testing.T) *config.LoadResult {
	t.Helper()
	t.Chdir(t.TempDir())
	result, err := config.Load("")
	require.NoError(t, err)
	return result
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{AppConfig: &config.LoadResult{}})
	assert.Error(t, err)
}

func TestNewRejectsUnknownPolicy(t *testing.T) {
	loaded := loadConfig(t)
	loaded.Config.Validation.OverridePolicy = "first_wins"

	_, err := New(context.Background(), Config{AppConfig: loaded})
	assert.Error(t, err)
}

func TestMetricsGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	other := prometheus.NewRegistry()

	assert.Same(t, reg, Config{Registerer: reg}.metricsGatherer())
	assert.Same(t, other, Config{Registerer: reg, Gatherer: other}.metricsGatherer())
	assert.Equal(t, prometheus.DefaultGatherer, Config{}.metricsGatherer())
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	stub := redditStub(t)

	loaded := loadConfig(t)
	cfg := loaded.Config
	cfg.Reddit.BaseURL = stub.URL
	cfg.Cache.Type = "local"
	cfg.Cache.Local.Dir = filepath.Join(t.TempDir(), "responses")
	cfg.Metrics.Enabled = true
	cfg.History.Enabled = true
	cfg.History.FlushInterval = 1
	cfg.Storage.Type = "sqlite"
	cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "fieldcheck.db")

	application, err := New(ctx, Config{AppConfig: loaded, Registerer: prometheus.NewRegistry()})
	require.NoError(t, err)

	result, err := application.Checker().Account(ctx, "spladug")
	require.NoError(t, err)
	assert.True(t, result.OK(), "unexpected failure: %v", result.Failure())

	rec := httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check/accounts/spladug", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/check/accounts/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	reader := application.HistoryReader()
	require.NotNil(t, reader)
	assert.Eventually(t, func() bool {
		entries, err := reader.Recent(ctx, history.Query{})
		return err == nil && len(entries) == 2
	}, 5*time.Second, 50*time.Millisecond)

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fieldcheck_validations_total{model_type="Account",outcome="pass"} 2`,
		"the endpoint must serve the registry the collectors were registered with")

	rec = httptest.NewRecorder()
	application.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/history/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Summary []history.SummaryRow `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []history.SummaryRow{{ModelType: "Account", Kind: "pass", Count: 2}}, body.Summary)

	require.NoError(t, application.Shutdown(ctx))
	assert.NoError(t, application.Shutdown(ctx), "Shutdown must be idempotent")
}
