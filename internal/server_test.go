package internal

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestBundle(t *testing.T) (root, bundle string) {
	t.Helper()
	root = t.TempDir()
	bundle = filepath.Join(root, "bundle")
	require.NoError(t, os.MkdirAll(filepath.Join(bundle, soundsDir, "piano"), 0o755))
	files := map[string]string{
		indexFile:             "<html>bundle</html>",
		projectFile:           `{"title":"served"}`,
		playerFile:            "player()",
		"sounds/piano/48.wav": "wav",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(bundle, filepath.FromSlash(name)), []byte(body), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("secret"), 0o644))
	return root, bundle
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewServerRequiresBundle(t *testing.T) {
	_, err := NewServer(t.TempDir(), 0, nil)
	assert.Error(t, err)
}

func TestServerRoutes(t *testing.T) {
	_, bundle := newTestBundle(t)
	s, err := NewServer(bundle, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	h := s.Router()

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>bundle</html>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-type"), "text/html")

	rec = get(t, h, "/player.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "player()", rec.Body.String())

	rec = get(t, h, "/sounds/piano/48.wav")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wav", rec.Body.String())

	rec = get(t, h, "/api/project")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"title":"served"}`, rec.Body.String())

	rec = get(t, h, "/api/username")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, HostUsername(), rec.Body.String())
	assert.NotEmpty(t, rec.Body.String())

	rec = get(t, h, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerStaysInsideBundle(t *testing.T) {
	_, bundle := newTestBundle(t)
	s, err := NewServer(bundle, 0, zaptest.NewLogger(t))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.serveFile(rec, "../secret.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.serveFile(rec, "sounds/../../secret.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerPushesReloadEvents(t *testing.T) {
	_, bundle := newTestBundle(t)
	s, err := NewServer(bundle, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		s.lock.Lock()
		defer s.lock.Unlock()
		return len(s.senders) == 1
	}, time.Second, 10*time.Millisecond)

	s.Reload("player.js")

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, `data: {"type":"reload","target":"player.js"}`, strings.TrimSpace(line))
}

func TestServerWatchReloadsOnChange(t *testing.T) {
	_, bundle := newTestBundle(t)
	s, err := NewServer(bundle, 0, zap.NewNop())
	require.NoError(t, err)

	events := make(chan interface{}, 10)
	s.lock.Lock()
	s.senders[0] = events
	s.nextID = 1
	s.lock.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, 10*time.Millisecond)
	}()

	content := "player()"
	require.Eventually(t, func() bool {
		content += "//"
		_ = os.WriteFile(filepath.Join(bundle, playerFile), []byte(content), 0o644)
		select {
		case e := <-events:
			reload, ok := e.(*reloadEvent)
			return ok && reload.Target == playerFile
		default:
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestHostUsername(t *testing.T) {
	t.Setenv("USER", "")
	t.Setenv("USERNAME", "")
	assert.NotEmpty(t, HostUsername())
}
