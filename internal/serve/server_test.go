package serve

import (
	"bufio"
	"context"
	"encoding/json"
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

	"inkpress/internal/domain/config"
	"inkpress/internal/domain/content"
	"inkpress/internal/logger"
	"inkpress/internal/prompt"
	"inkpress/internal/render"
	"inkpress/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(store.OpenOptions{Path: filepath.Join(dir, "drafts.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	tpl, err := render.NewTemplateRenderer("", "")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Import.InboxDir = filepath.Join(dir, "inbox")
	s := New(cfg, st, tpl, WithLogger(logger.Discard()), WithDebounce(20*time.Millisecond))
	t.Cleanup(func() { s.Close() })
	return s
}

func storedDraft(t *testing.T, s *Server, slug, title string) {
	t.Helper()
	require.NoError(t, s.store.Put(content.Draft{
		Meta:       content.ArticleMeta{Title: title, Slug: slug},
		Blocks:     []content.Block{content.NewParagraph("Hello from " + slug)},
		Source:     content.Source{Type: content.SourceMarkdown, FileName: slug + ".md"},
		Warnings:   []string{"no excerpt given; inferred from the first paragraph"},
		ImportedAt: time.Now(),
	}))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)
	storedDraft(t, s, "first-post", "First Post")
	h := s.Handler()

	rec := get(t, h, "/drafts/first-post")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "First Post")
	assert.Contains(t, body, "Hello from first-post")
	assert.Contains(t, body, "EventSource")
	assert.Contains(t, body, "no excerpt given")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/drafts/nope").Code)
}

func TestPreview_ReloadsOnUnnamedEvents(t *testing.T) {
	s := newTestServer(t)
	storedDraft(t, s, "live", "Live")
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	page := get(t, s.Handler(), "/drafts/live").Body.String()
	assert.Contains(t, page, `.onmessage = function (e) { if (e.data === "reload")`)
	assert.NotContains(t, page, "addEventListener")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/dev/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	r := bufio.NewReader(resp.Body)
	_, _ = r.ReadString('\n')
	_, _ = r.ReadString('\n')

	s.broadcastSSE("reload")
	frame, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(frame, "event:"), "named events never reach onmessage")
	assert.Equal(t, "data: reload\n", frame)
}

func TestDraftLists(t *testing.T) {
	s := newTestServer(t)
	storedDraft(t, s, "a-post", "A <Post>")
	h := s.Handler()

	rec := get(t, h, "/drafts")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []store.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "a-post", list[0].Slug)
	assert.Equal(t, 1, list[0].Warnings)

	rec = get(t, h, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<a href="/drafts/a-post">A &lt;Post&gt;</a>`)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/elsewhere").Code)
}

func TestDecisions_AnswerUnblocksImport(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	src := filepath.Join(t.TempDir(), "odd.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"heading1": "Mapped Title", "words": "Some body text."}`), 0o644))

	done := make(chan int, 1)
	go func() { done <- s.importPaths(context.Background(), []string{src}) }()

	var pending []prompt.Decision
	require.Eventually(t, func() bool {
		rec := get(t, h, "/decisions")
		pending = nil
		_ = json.Unmarshal(rec.Body.Bytes(), &pending)
		return len(pending) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, prompt.DecisionMapping, pending[0].Kind)
	assert.Contains(t, pending[0].Mapping.Keys, "heading1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decisions/"+pending[0].ID,
		strings.NewReader(`{"mapping": {"title": "heading1", "body": "words"}}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("import did not finish after the answer")
	}

	d, err := s.store.Get("mapped-title")
	require.NoError(t, err)
	assert.Equal(t, "Mapped Title", d.Meta.Title)
	assert.Equal(t, map[string]string{"title": "heading1", "body": "words"}, d.Source.FieldMap)
}

func TestDecisions_CancelAndErrors(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	src := filepath.Join(t.TempDir(), "odd.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"x": "1", "y": "2"}`), 0o644))

	done := make(chan int, 1)
	go func() { done <- s.importPaths(context.Background(), []string{src}) }()

	require.Eventually(t, func() bool { return len(s.broker.Pending()) == 1 }, 2*time.Second, 10*time.Millisecond)
	id := s.broker.Pending()[0].ID

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decisions/"+id, strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decisions/"+id, strings.NewReader(`{"cancel": true}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)

	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("import did not finish after cancel")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/decisions/"+id, strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSSE_Reload(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/dev/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: hello\n", line)
	_, _ = r.ReadString('\n')

	s.broadcastSSE("reload")
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "data: reload\n", line)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	storedDraft(t, s, "m", "M")
	_ = get(t, s.Handler(), "/drafts/m")

	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestWatch_ImportsInboxFiles(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.startWatch(ctx))
	go s.importWorker(ctx)

	inbox := s.cfg.Import.InboxDir
	require.NoError(t, os.WriteFile(filepath.Join(inbox, ".swap"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "note.md"),
		[]byte("---\ntitle: From the inbox\ntags: [a]\n---\n\nBody paragraph.\n"), 0o644))

	require.Eventually(t, func() bool {
		_, err := s.store.Get("from-the-inbox")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	list, err := s.store.List(store.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSkipInboxPath(t *testing.T) {
	tests := map[string]bool{
		"inbox/post.md":      false,
		"inbox/data.JSON":    false,
		"inbox/scan.pdf":     false,
		"inbox/.post.md.swp": true,
		"inbox/post.md~":     true,
		"inbox/image.png":    true,
	}
	for path, want := range tests {
		assert.Equal(t, want, skipInboxPath(path), path)
	}
}

func TestRelayDecisions(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan string, 8)
	s.sseMu.Lock()
	s.sseConns[ch] = struct{}{}
	s.sseMu.Unlock()

	go s.relayDecisions(ctx)
	go func() {
		_, _ = s.broker.ReviewText(ctx, prompt.ReviewRequest{FileName: "scan.pdf", Text: "x"})
	}()

	select {
	case msg := <-ch:
		assert.Equal(t, "decision", msg)
	case <-time.After(2 * time.Second):
		t.Fatal("no decision event relayed")
	}
}
