package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg := strings.Join([]string{
		"site:",
		"  title: Test Site",
		"  base_url: https://site.test",
		"import:",
		"  inbox_dir: " + filepath.Join(dir, "inbox"),
		"  store_path: " + filepath.Join(dir, "state", "drafts.db"),
		"export:",
		"  out_dir: " + filepath.Join(dir, "public"),
		"  feed_path: " + filepath.Join(dir, "public", "feed.json"),
		"  work_dir: " + filepath.Join(dir, "inbox"),
		"log:",
		"  level: error",
		"",
	}, "\n")
	path := filepath.Join(dir, "inkpress.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "inbox"), 0o755))
	return testEnv{dir: dir, config: path}
}

func (e testEnv) write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(e.dir, "inbox", name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func (e testEnv) run(stdin string, args ...string) (string, error) {
	var out, errOut bytes.Buffer
	root := NewRootCommand(strings.NewReader(stdin), &out, &errOut)
	root.SetArgs(append([]string{"--config", e.config, "--env-file", ""}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

const post = `---
title: Hello There
tags: [go, notes]
published_at: 2024-02-03
excerpt: A short hello.
---

First paragraph.
`

func TestImportDraftsExport(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "hello.md", post)
	env.write(t, "broken.json", `{"title": `)

	out, err := env.run("", "import", "--accept")
	require.Error(t, err)
	assert.Contains(t, out, "ok   hello.md -> hello-there (markdown, 1 blocks)")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "[malformed]")
	assert.Contains(t, out, "1 imported, 1 failed")

	out, err = env.run("", "drafts")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "hello-there")

	out, err = env.run("", "export", "hello-there")
	require.NoError(t, err)
	assert.Contains(t, out, "exported hello-there")

	_, err = os.Stat(filepath.Join(env.dir, "public", "articles", "hello-there", "index.html"))
	assert.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(env.dir, "public", "feed.json"))
	require.NoError(t, err)
	var feed []map[string]any
	require.NoError(t, json.Unmarshal(data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "https://site.test/articles/hello-there/", feed[0]["url"])
}

func TestImport_AcceptCancelsUnmappableJSON(t *testing.T) {
	env := newTestEnv(t)
	p := env.write(t, "odd.json", `{"x": "1", "y": "2"}`)

	out, err := env.run("", "import", "--accept", p)
	require.Error(t, err)
	assert.Contains(t, out, "[cancelled]")
	assert.Contains(t, out, "0 imported, 1 failed")
}

func TestImport_SlugCollisionFails(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "a.md", post)
	env.write(t, "b.md", post)

	out, err := env.run("", "import", "--accept")
	require.Error(t, err)
	assert.Contains(t, out, "ok   a.md -> hello-there")
	assert.Contains(t, out, "FAIL b.md [slug_taken]")
	assert.Contains(t, out, "1 imported, 1 failed")

	_, err = env.run("", "import", "--accept", filepath.Join(env.dir, "inbox", "a.md"))
	assert.NoError(t, err)
}

func TestImport_TerminalMapping(t *testing.T) {
	env := newTestEnv(t)
	p := env.write(t, "odd.json", `{"heading1": "Picked Title", "words": "Body words."}`)

	// title, ten optional fields left as suggested, then body
	answers := "heading1\n" + strings.Repeat("\n", 10) + "words\n"
	out, err := env.run(answers, "import", p)
	require.NoError(t, err, out)
	assert.Contains(t, out, "-> picked-title")
}

func TestExport_FileMissingFields(t *testing.T) {
	env := newTestEnv(t)
	p := env.write(t, "bare.md", "# Just a title\n\nBody.\n")

	_, err := env.run("", "export", "--file", p, "--accept")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags")

	_, statErr := os.Stat(filepath.Join(env.dir, "public"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExport_Args(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run("", "export")
	assert.Error(t, err)
	_, err = env.run("", "export", "slug", "--file", "x.md")
	assert.Error(t, err)

	_, err = env.run("", "export", "missing-draft")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.config, []byte("site:\n  base_url: not a url\n"), 0o644))
	_, err := env.run("", "drafts")
	assert.Error(t, err)
}
