// widgets_test.go — Tests for template rendering, overrides and remote pages.
package widgets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_EveryCatalogPageRenders(t *testing.T) {
	t.Parallel()
	r := NewRenderer(WithBaseURL("https://demo.example.com/"))

	for _, p := range catalog.Pages() {
		t.Run(p.Name, func(t *testing.T) {
			html, err := r.HTML(context.Background(), Request{Page: p.Name, Title: p.Title, Description: p.Description, Hosted: true})
			require.NoError(t, err)
			assert.Contains(t, html, "<!DOCTYPE html>")
			assert.Contains(t, html, `data-widget="`+p.Name+`"`)
			assert.Contains(t, html, "openai:set_globals")
			assert.Contains(t, html, `<base href="https://demo.example.com">`)
			assert.NotContains(t, html, `id="standalone"`)
		})
	}
}

func TestRenderer_PagesMatchCatalog(t *testing.T) {
	t.Parallel()
	var want []string
	for _, p := range catalog.Pages() {
		want = append(want, p.Name)
	}
	assert.ElementsMatch(t, want, NewRenderer().Pages())
}

func TestRenderer_PreviewNote(t *testing.T) {
	t.Parallel()
	html, err := NewRenderer().HTML(context.Background(), Request{Page: "read-only", Title: "Read-Only Widget"})
	require.NoError(t, err)
	assert.Contains(t, html, `id="standalone"`)
	assert.NotContains(t, html, "<base")
	assert.NotContains(t, html, `id="dev-host"`)
}

func TestRenderer_DevHostShim(t *testing.T) {
	t.Parallel()
	r := NewRenderer()

	html, err := r.HTML(context.Background(), Request{Page: "state-demo", Title: "State", DevHost: true})
	require.NoError(t, err)
	assert.Contains(t, html, `id="dev-host"`)
	assert.Contains(t, html, "/host/events")
	assert.NotContains(t, html, `id="standalone"`)
	assert.Less(t, strings.Index(html, `id="dev-host"`), strings.Index(html, "window.demo = {"), "shim must install window.openai first")

	hosted, err := r.HTML(context.Background(), Request{Page: "state-demo", Title: "State", DevHost: true, Hosted: true})
	require.NoError(t, err)
	assert.NotContains(t, hosted, `id="dev-host"`, "resources served to a real host never carry the shim")
}

func TestRenderer_BridgeRuntime(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	plain, err := NewRenderer().HTML(ctx, Request{Page: "events-monitor", Title: "Events"})
	require.NoError(t, err)
	assert.NotContains(t, plain, `id="bridge-runtime"`)
	assert.NotContains(t, plain, "widget-bridge.wasm")
	assert.Contains(t, plain, "window.demo = {", "inline mirror stays without the runtime")

	r := NewRenderer(WithBridge(true), WithBaseURL("https://demo.example.com"))
	html, err := r.HTML(ctx, Request{Page: "events-monitor", Title: "Events"})
	require.NoError(t, err)
	assert.Contains(t, html, `<script id="bridge-runtime" src="https://demo.example.com/bridge/wasm_exec.js">`)
	assert.Contains(t, html, "widget-bridge.wasm")
	assert.Contains(t, html, "apps-sdk-bridge:ready")
	assert.Contains(t, html, "window.appsSdkBridge")
	assert.Less(t, strings.Index(html, `id="bridge-runtime"`), strings.Index(html, "window.demo = {"), "wasm_exec.js must load before the loader runs")

	// The events monitor reads the runtime's log when it is present.
	for _, call := range []string{"b.events()", "r.pause()", "r.resume()", "r.clear()"} {
		assert.Contains(t, html, call)
	}
}

func TestRenderer_EscapesData(t *testing.T) {
	t.Parallel()
	html, err := NewRenderer().HTML(context.Background(), Request{Page: "dashboard", Title: "<script>alert(1)</script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<title><script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderer_UnknownPages(t *testing.T) {
	t.Parallel()
	r := NewRenderer()
	for _, page := range []string{"", "nope", "layout", "../etc/passwd", "dashboard.html"} {
		_, err := r.HTML(context.Background(), Request{Page: page})
		assert.ErrorIs(t, err, ErrUnknownPage, page)
	}
}

func TestRenderer_OverrideDirShadowsEmbedded(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTemplate(t, dir, "read-only.html", "override one")
	writeTemplate(t, dir, "custom.html", "brand new page")

	r := NewRenderer(WithOverrideDir(dir))

	html, err := r.HTML(context.Background(), Request{Page: "read-only"})
	require.NoError(t, err)
	assert.Contains(t, html, "override one")

	html, err = r.HTML(context.Background(), Request{Page: "dashboard"})
	require.NoError(t, err)
	assert.Contains(t, html, `id="user-name"`, "embedded pages still render")

	assert.Contains(t, r.Pages(), "custom")

	writeTemplate(t, dir, "read-only.html", "override two")
	html, _ = r.HTML(context.Background(), Request{Page: "read-only"})
	assert.Contains(t, html, "override one", "parsed templates are cached")

	r.Invalidate()
	html, _ = r.HTML(context.Background(), Request{Page: "read-only"})
	assert.Contains(t, html, "override two")
}

func TestWatcher_InvalidatesOnChange(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTemplate(t, dir, "popover.html", "version A")

	r := NewRenderer(WithOverrideDir(dir))
	w := NewWatcher(dir, r, nil)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	html, err := r.HTML(ctx, Request{Page: "popover"})
	require.NoError(t, err)
	require.Contains(t, html, "version A")

	// The watch is registered asynchronously; keep rewriting until it lands.
	assert.Eventually(t, func() bool {
		writeTemplate(t, dir, "popover.html", "version B")
		html, err := r.HTML(ctx, Request{Page: "popover"})
		return err == nil && w.Reloads() > 0 && strings.Contains(html, "version B")
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_MissingDir(t *testing.T) {
	t.Parallel()
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), NewRenderer(), nil)
	err := w.Run(context.Background())
	assert.ErrorContains(t, err, "widget watcher")
}

func TestRemote_FetchesAndCaches(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("<body>page " + r.URL.Path + "</body>"))
	}))
	defer srv.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	remote := NewRemote(srv.URL+"/", srv.Client(), time.Minute, nil)
	remote.now = func() time.Time { return now }

	html, err := remote.HTML(context.Background(), Request{Path: "/widgets/read-only"})
	require.NoError(t, err)
	assert.Equal(t, "<body>page /widgets/read-only</body>", html)

	_, err = remote.HTML(context.Background(), Request{Path: "/widgets/read-only"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	html, err = remote.HTML(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "<body>page /</body>", html)
	assert.Equal(t, int32(2), hits.Load())

	now = now.Add(2 * time.Minute)
	_, err = remote.HTML(context.Background(), Request{Path: "/widgets/read-only"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load(), "expired entries are refetched")

	remote.Forget()
	_, err = remote.HTML(context.Background(), Request{Path: "/widgets/read-only"})
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestRemote_NoCacheWhenTTLZero(t *testing.T) {
	t.Parallel()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, srv.Client(), 0, nil)
	for i := 0; i < 3; i++ {
		_, err := remote.HTML(context.Background(), Request{Path: "/"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestRemote_BadStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	remote := NewRemote(srv.URL, srv.Client(), time.Minute, nil)
	_, err := remote.HTML(context.Background(), Request{Path: "/missing"})
	assert.ErrorContains(t, err, "unexpected status 404")
}

func TestRemote_CallerCancellation(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()
	defer close(release)

	remote := NewRemote(srv.URL, srv.Client(), time.Minute, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := remote.HTML(ctx, Request{Path: "/slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func writeTemplate(t *testing.T, dir, name, body string) {
	t.Helper()
	src := `{{define "content"}}` + body + `{{end}}{{define "script"}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}
