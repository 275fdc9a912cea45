// Package testutil provides HTTP test helpers for the dashboard server.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"palmopsim/internal/config"
)

// TestServer wraps httptest.Server with convenience methods
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	client  *http.Client
	t       *testing.T
}

// ProjectRoot returns the directory holding go.mod
func ProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("could not get caller info")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// TestConfig returns a server config that reads the real templates and
// writes exports and presets into a per-test temp directory.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	root := ProjectRoot()
	tmp := t.TempDir()

	return &config.Config{
		ListenAddr:         ":0",
		Debug:              false,
		TemplatesDirectory: filepath.Join(root, "web", "templates"),
		StaticDirectory:    filepath.Join(root, "web", "static"),
		ExportDirectory:    filepath.Join(tmp, "exports"),
		PresetFile:         filepath.Join(tmp, "presets.yaml"),
		CacheSize:          8,
	}
}

// NewTestServer starts router on a test server that is closed with the test.
// Redirects are not followed so tests can assert on them.
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()

	resp, err := ts.client.Get(ts.BaseURL + path)
	require.NoError(ts.t, err, "GET %s", path)
	return resp
}

// GETWithQuery performs a GET request with query parameters
func (ts *TestServer) GETWithQuery(path string, query url.Values) *http.Response {
	ts.t.Helper()

	target := ts.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := ts.client.Get(target)
	require.NoError(ts.t, err, "GET %s", target)
	return resp
}

// GETJSON performs a GET request and decodes the JSON body into v
func (ts *TestServer) GETJSON(path string, v interface{}) *http.Response {
	ts.t.Helper()

	resp := ts.GET(path)
	defer resp.Body.Close()
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v), "decode %s", path)
	return resp
}

// Close shuts down the test server early
func (ts *TestServer) Close() {
	ts.Server.Close()
}
