//go:build integration

package integration

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"fieldcheck/config"
	"fieldcheck/internal/app"
)

// fixtureDir holds the recorded Reddit responses shared with unit tests.
var fixtureDir = filepath.Join("..", "..", "internal", "models", "testdata")

// TestServerConfig configures how the test server is set up.
type TestServerConfig struct {
	// DBType is either "postgresql" or "mongodb"
	DBType string

	// CacheType is "none", "local", or "redis"
	CacheType string

	// MasterKey sets the authentication master key (empty = unsafe mode)
	MasterKey string
}

// TestServerFixture holds test server resources.
type TestServerFixture struct {
	// ServerURL is the base URL of the test server
	ServerURL string

	// App is the running application
	App *app.App

	// Reddit is the stubbed upstream API
	Reddit *RedditStub

	// PgPool is the PostgreSQL connection pool (for DB assertions)
	PgPool *pgxpool.Pool

	// MongoDb is the MongoDB database (for DB assertions)
	MongoDb *mongo.Database

	// DBType is the configured database type
	DBType string

	cancelFunc context.CancelFunc
}

// SetupTestServer creates a test server with the specified configuration.
func SetupTestServer(t *testing.T, cfg TestServerConfig) *TestServerFixture {
	t.Helper()

	ctx, cancel := context.WithCancel(GetTestContext())

	reddit := NewRedditStub(t)

	port, err := findAvailablePort()
	require.NoError(t, err, "failed to find available port")

	appCfg := buildAppConfig(t, cfg, reddit.URL())

	application, err := app.New(ctx, app.Config{
		AppConfig:  appCfg,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err, "failed to create app")

	serverURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	go func() {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		_ = application.Start(addr)
	}()

	err = waitForServer(serverURL + "/health")
	require.NoError(t, err, "server failed to become healthy")

	fixture := &TestServerFixture{
		ServerURL:  serverURL,
		App:        application,
		Reddit:     reddit,
		DBType:     cfg.DBType,
		cancelFunc: cancel,
	}

	switch cfg.DBType {
	case "postgresql":
		fixture.PgPool = GetPostgreSQLPool()
	case "mongodb":
		fixture.MongoDb = GetMongoDatabase()
	}

	return fixture
}

// FlushAndClose flushes pending history entries and closes the app.
// Call this before making any DB assertions.
func (f *TestServerFixture) FlushAndClose(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if f.App != nil {
		err := f.App.Shutdown(ctx)
		require.NoError(t, err, "failed to shutdown app")
	}
}

// Shutdown gracefully shuts down the test server.
func (f *TestServerFixture) Shutdown(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if f.App != nil {
		_ = f.App.Shutdown(ctx)
	}

	if f.Reddit != nil {
		f.Reddit.Close()
	}

	if f.cancelFunc != nil {
		f.cancelFunc()
	}
}

// buildAppConfig creates an application config for testing.
func buildAppConfig(t *testing.T, cfg TestServerConfig, redditURL string) *config.LoadResult {
	t.Helper()

	loaded, err := config.Load("")
	require.NoError(t, err, "failed to load default config")

	c := loaded.Config
	c.Server.MasterKey = cfg.MasterKey
	c.Reddit.BaseURL = redditURL
	c.Reddit.Timeout = 5

	c.Cache.Type = cfg.CacheType
	switch cfg.CacheType {
	case "local":
		c.Cache.Local.Dir = filepath.Join(t.TempDir(), "responses")
	case "redis":
		c.Cache.Redis.URL = GetRedisURL()
		c.Cache.Redis.Key = fmt.Sprintf("fieldcheck:test:%d:", time.Now().UnixNano())
	}

	c.History.Enabled = true
	c.History.BufferSize = 100
	c.History.FlushInterval = 1
	c.History.RetentionDays = 0

	c.Storage.Type = cfg.DBType
	switch cfg.DBType {
	case "postgresql":
		c.Storage.PostgreSQL.URL = GetPostgreSQLURL()
		c.Storage.PostgreSQL.MaxConns = 5
	case "mongodb":
		c.Storage.MongoDB.URL = GetMongoURL()
		c.Storage.MongoDB.Database = "fieldcheck_test"
	}

	return loaded
}

// waitForServer waits for the server to become healthy.
func waitForServer(healthURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for i := 0; i < 50; i++ {
		resp, err := client.Get(healthURL)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("server did not become healthy within timeout")
}

// findAvailablePort finds an available TCP port on loopback.
func findAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer func() { _ = listener.Close() }()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// RedditStub serves recorded Reddit responses and counts upstream calls.
type RedditStub struct {
	server *httptest.Server
	calls  atomic.Int64
}

// NewRedditStub creates a stub serving the shared fixtures:
//
//	/user/spladug/about.json -> account.json
//	/comments/92dd8.json     -> comments_page.json
//	/.json                   -> frontpage.json
//	/comments/abc.json       -> a submission without a title
//
// Every other path answers 404.
func NewRedditStub(t *testing.T) *RedditStub {
	t.Helper()

	routes := map[string][]byte{
		"/user/spladug/about.json": readFixture(t, "account.json"),
		"/comments/92dd8.json":     readFixture(t, "comments_page.json"),
		"/.json":                   readFixture(t, "frontpage.json"),
		"/comments/abc.json":       untitledSubmission,
	}

	stub := &RedditStub{}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		body, ok := routes[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found", "error": 404}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	return stub
}

// URL returns the stub base URL.
func (s *RedditStub) URL() string {
	return s.server.URL
}

// Calls returns how many requests reached the stub.
func (s *RedditStub) Calls() int64 {
	return s.calls.Load()
}

// Close shuts the stub down.
func (s *RedditStub) Close() {
	s.server.Close()
}

var untitledSubmission = []byte(`[
	{"kind": "Listing", "data": {"children": [{"kind": "t3", "data": {"id": "abc", "name": "t3_abc"}}]}},
	{"kind": "Listing", "data": {"children": []}}
]`)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(fixtureDir, name))
	require.NoError(t, err, "failed to read fixture %s", name)
	return data
}
