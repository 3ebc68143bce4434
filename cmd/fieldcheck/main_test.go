package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunUsage(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{"NoCommand", nil, exitUsage},
		{"UnknownFlag", []string{"-nope"}, exitUsage},
		{"UnknownCommand", []string{"frobnicate"}, exitUsage},
		{"MissingArgument", []string{"account"}, exitUsage},
		{"ExtraArgument", []string{"submission", "a", "b"}, exitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.wantCode, run(tt.args, &stdout, &stderr))
		})
	}
}

func TestRunUsageCheckedBeforeBackends(t *testing.T) {
	t.Chdir(t.TempDir())
	// Nothing listens on port 1, so building the app fails.
	t.Setenv("CACHE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, run([]string{"account"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "account requires exactly one argument")

	stderr.Reset()
	assert.Equal(t, exitUsage, run([]string{"types", "extra"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "types takes no arguments")

	assert.Equal(t, exitRuntime, run([]string{"account", "spladug"}, &stdout, &stderr))
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitOK, run([]string{"-version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "fieldcheck dev")
}

func TestRunTypes(t *testing.T) {
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"types"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "Comment\n  Comment.Body()\n")
	assert.Contains(t, stdout.String(), "  Votable.Likes() (nullable)\n")
}

func TestRunAccount(t *testing.T) {
	dir := t.TempDir()
	account, err := os.ReadFile(filepath.Join("..", "..", "internal", "models", "testdata", "account.json"))
	require.NoError(t, err)

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/spladug/about.json":
			_, _ = w.Write(account)
		case "/user/broken/about.json":
			_, _ = w.Write([]byte(`{"kind": "t2", "data": {"id": "1"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer stub.Close()

	t.Chdir(dir)
	t.Setenv("REDDIT_BASE_URL", stub.URL)

	t.Run("Pass", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, exitOK, run([]string{"account", "spladug"}, &stdout, &stderr))
		assert.Contains(t, stdout.String(), `"subject": "account/spladug"`)
	})

	t.Run("Failure", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, exitFailed, run([]string{"account", "broken"}, &stdout, &stderr))
		assert.Contains(t, stdout.String(), `"kind": "nullability_violation"`)
	})

	t.Run("NotFound", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, exitRuntime, run([]string{"account", "nobody"}, &stdout, &stderr))
	})

	t.Run("HistoryDisabled", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, exitRuntime, run([]string{"history"}, &stdout, &stderr))
	})
}
