package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/daemon/internal/infrastructure/logging"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, string) {
	dir := t.TempDir()
	root := filepath.Join(dir, "survival")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.properties"), []byte("motd=hi\n"), 0o644))

	seed := filepath.Join(dir, "instances.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("instances:\n  - uuid: inst-1\n    nickname: survival\n    cwd: survival\n"), 0o644))

	cfg := config.Default()
	cfg.Instances.File = seed
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(cfg, logging.NewNop())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, root
}

func post(t *testing.T, ts *httptest.Server, path, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestNewServerLoadsInstances(t *testing.T) {
	srv, ts, _ := newTestServer(t)
	assert.True(t, srv.Registry().Exists("inst-1"))

	resp, err := http.Get(ts.URL + "/instances")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewServerRejectsBadSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Instances.File = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestFileRoutes(t *testing.T) {
	_, ts, root := newTestServer(t)

	code, body := post(t, ts, "/file/list", `{"instanceUuid":"inst-1","page":1,"pageSize":10}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "server.properties")

	code, _ = post(t, ts, "/file/mkdir", `{"instanceUuid":"inst-1","target":"world"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.DirExists(t, filepath.Join(root, "world"))

	code, body = post(t, ts, "/file/list", `{"instanceUuid":"nope"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, body, "nope")
}

func TestShutdownDrainsArchiveTasks(t *testing.T) {
	srv, ts, root := newTestServer(t)

	code, _ := post(t, ts, "/file/compress",
		`{"instanceUuid":"inst-1","source":"backup.zip","targets":["server.properties"],"type":1}`)
	require.Equal(t, http.StatusOK, code)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	assert.FileExists(t, filepath.Join(root, "backup.zip"))
	code, body := post(t, ts, "/file/status", `{"instanceUuid":"inst-1"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `"instanceFileTask":0`)
}

func TestMetricsExposition(t *testing.T) {
	_, ts, _ := newTestServer(t)
	post(t, ts, "/file/status", `{"instanceUuid":"inst-1"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "go_goroutines")
	assert.Contains(t, out, "filegate_instances_registered 1")
	assert.Contains(t, out, `filegate_events_total{event="file/status",status="ok"} 1`)
}
