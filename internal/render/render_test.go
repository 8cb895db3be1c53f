package render_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"inkpress/internal/domain/config"
	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/ingest"
	"inkpress/internal/render"
)

func TestBlockHTML_HeadingLevelsClamped(t *testing.T) {
	for level := -1; level <= 9; level++ {
		b := content.Block{ID: "x", Type: content.BlockHeading, Text: "Title", Level: level}
		out := string(render.BlockHTML(b))
		for _, bad := range []string{"<h1", "<h5", "<h6"} {
			assert.NotContains(t, out, bad, "level %d", level)
		}
	}
	assert.Equal(t, "<h3>Title</h3>", string(render.BlockHTML(content.NewHeading("Title", 3))))
}

func TestBlockHTML(t *testing.T) {
	tests := []struct {
		name  string
		block content.Block
		want  string
	}{
		{"paragraph inline", content.NewParagraph("Hello *there* & <b>x</b>"), "<p>Hello <em>there</em> &amp; <!-- raw HTML omitted -->x<!-- raw HTML omitted --></p>"},
		{"empty list", content.NewList(content.ListOrdered, nil), ""},
		{"ordered list", content.NewList(content.ListOrdered, []string{"a", "b"}), "<ol><li>a</li><li>b</li></ol>"},
		{"unordered list", content.NewList("", []string{"a"}), "<ul><li>a</li></ul>"},
		{"quote with cite", content.NewQuote("One\n\nTwo", "Ada <L>"), "<blockquote><p>One</p><p>Two</p><cite>Ada &lt;L&gt;</cite></blockquote>"},
		{"code", content.NewCode("a < b", "go"), `<pre><code class="language-go">a &lt; b</code></pre>`},
		{"code no lang", content.NewCode("x", ""), `<pre><code>x</code></pre>`},
		{"embed html", content.NewEmbed("https://v.test", `<iframe src="v"></iframe>`), `<div class="embed"><iframe src="v"></iframe></div>`},
		{"embed link", content.NewEmbed("https://v.test", ""), `<div class="embed embed--link"><a href="https://v.test" rel="noopener">https://v.test</a></div>`},
		{"embed empty", content.NewEmbed("", ""), ""},
		{"note", content.NewNote("Heads up"), `<aside class="note"><p>Heads up</p></aside>`},
		{"unknown type", content.Block{Type: "poll", Text: "Vote"}, "<p>Vote</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(render.BlockHTML(tt.block)))
		})
	}
}

func TestBlockHTML_Image(t *testing.T) {
	img := content.NewImage("/a.png", "", "A caption")
	img.Layout = "wide"
	img.Width = 800
	out := string(render.BlockHTML(img))
	assert.Contains(t, out, `<figure class="figure figure--wide">`)
	assert.Contains(t, out, `alt="A caption"`)
	assert.Contains(t, out, `width="800"`)
	assert.Contains(t, out, `<figcaption>A caption</figcaption>`)

	bare := string(render.BlockHTML(content.NewImage("/b.png", "", "")))
	assert.Contains(t, bare, `alt="Article image"`)
	assert.Contains(t, bare, `figure--default`)
	assert.NotContains(t, bare, "figcaption")

	assert.Empty(t, render.BlockHTML(content.NewImage("javascript:alert(1)", "", "")))
}

func TestMarkdownRoundTrip(t *testing.T) {
	blocks := []content.Block{
		content.NewHeading("Section *one*", 2),
		content.NewParagraph("A paragraph with **bold** text."),
		content.NewHeading("Deeper", 4),
		content.NewQuote("First line.\n\nSecond paragraph.", ""),
		content.NewQuote("Quoted.", "Grace Hopper"),
		content.NewParagraph("Closing words."),
	}

	back := ingest.MarkdownBlocks([]byte(render.Markdown(blocks)))
	require.Len(t, back, len(blocks))
	for i := range blocks {
		assert.Equal(t, blocks[i].Type, back[i].Type, "block %d", i)
		assert.Equal(t, blocks[i].Text, back[i].Text, "block %d", i)
		assert.Equal(t, blocks[i].Level, back[i].Level, "block %d", i)
		assert.Equal(t, blocks[i].Cite, back[i].Cite, "block %d", i)
		assert.NotEqual(t, blocks[i].ID, back[i].ID)
	}
}

func TestMarkdownRoundTrip_MarkerLikeParagraphs(t *testing.T) {
	texts := []string{
		"1984. A year to remember.",
		"2) Second thoughts.",
		"- not a list item",
		"+ nor this",
		"* or this",
		"# not a heading",
		"###### six deep",
		"> not a quote",
		"---",
		"```not code",
		`\*kept* escape`,
		"#hashtag stays",
	}
	for _, text := range texts {
		back := ingest.MarkdownBlocks([]byte(render.Markdown([]content.Block{content.NewParagraph(text)})))
		require.Len(t, back, 1, text)
		assert.Equal(t, content.BlockParagraph, back[0].Type, text)
		assert.Equal(t, text, back[0].Text)
	}

	quote := content.NewQuote("- listed?\n\n3. numbered?", "")
	back := ingest.MarkdownBlocks([]byte(render.Markdown([]content.Block{quote})))
	require.Len(t, back, 1)
	assert.Equal(t, content.BlockQuote, back[0].Type)
	assert.Equal(t, quote.Text, back[0].Text)
}

func TestMarkdownRoundTrip_OtherBlocks(t *testing.T) {
	blocks := []content.Block{
		content.NewList(content.ListOrdered, []string{"one", "two"}),
		content.NewCode("fmt.Println(\"```\")", "go"),
		content.NewImage("img.png", "Alt", "Cap"),
		content.NewEmbed("https://example.com/x", ""),
		content.NewNote("Remember."),
	}
	back := ingest.MarkdownBlocks([]byte(render.Markdown(blocks)))
	require.Len(t, back, len(blocks))

	assert.Equal(t, []string{"one", "two"}, back[0].Items)
	assert.Equal(t, content.ListOrdered, back[0].Style)
	assert.Equal(t, blocks[1].Code, back[1].Code)
	assert.Equal(t, "go", back[1].Language)
	assert.Equal(t, "img.png", back[2].Src)
	assert.Equal(t, "Cap", back[2].Caption)
	assert.Equal(t, "https://example.com/x", back[3].URL)
	assert.Equal(t, content.BlockNote, back[4].Type)
	assert.Equal(t, "Remember.", back[4].Text)
}

func TestBlockMarkdown(t *testing.T) {
	assert.Equal(t, "#### Deep", render.BlockMarkdown(content.NewHeading("Deep", 6)))
	assert.Equal(t, "> a\n>\n> b\n>\n> — C", render.BlockMarkdown(content.NewQuote("a\n\nb", "C")))
	assert.Equal(t, "````\nx ``` y\n````", render.BlockMarkdown(content.NewCode("x ``` y", "")))
	assert.Equal(t, `![A](s.png "say \"hi\"")`, render.BlockMarkdown(content.NewImage("s.png", "A", `say "hi"`)))
	assert.Equal(t, "plain", render.BlockMarkdown(content.Block{Type: "future", Text: "plain"}))
	assert.Equal(t, `1984\. A year`, render.BlockMarkdown(content.NewParagraph("1984. A year")))
	assert.Equal(t, `\# hi`, render.BlockMarkdown(content.NewParagraph("# hi")))
}

func sampleDraft() content.Draft {
	return content.Draft{
		Meta: content.ArticleMeta{
			Title:       "Hello: World",
			Author:      "Ada",
			Category:    "Essays",
			Tags:        []string{"go", "yes"},
			PublishedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Excerpt:     "Short & sweet.",
			HeroImage:   "/assets/hello/hero-abc123.png",
			HeroCaption: "The hero",
			Links:       []content.Link{{Label: "Go", URL: "https://go.dev"}},
			Slug:        "hello-world",
		},
		Blocks: []content.Block{
			content.NewHeading("Intro", 2),
			content.NewParagraph("Body text."),
		},
		AdditionalMetadata: map[string]any{"series": "Basics", "weight": 3, "title": "shadowed"},
	}
}

func TestArchive(t *testing.T) {
	out, err := render.Archive(sampleDraft())
	require.NoError(t, err)
	s := string(out)

	require.True(t, strings.HasPrefix(s, "---\n"))
	assert.Contains(t, s, `title: "Hello: World"`)
	assert.Contains(t, s, `published_at: "2024-03-01T09:30:00Z"`)
	assert.Contains(t, s, "tags:\n  - \"go\"\n  - \"yes\"")
	assert.Contains(t, s, `series: "Basics"`)
	assert.Contains(t, s, "weight: 3")
	assert.NotContains(t, s, "shadowed")
	assert.Contains(t, s, "---\n\n## Intro\n\nBody text.\n")

	parts := strings.SplitN(s, "---\n", 3)
	require.Len(t, parts, 3)
	var fm map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "yes", fm["tags"].([]any)[1], "quoted so YAML 1.1 readers keep it a string")
	assert.Equal(t, []any{map[string]any{"label": "Go", "url": "https://go.dev"}}, fm["links"])
}

func TestArchive_ReimportsCleanly(t *testing.T) {
	out, err := render.Archive(sampleDraft())
	require.NoError(t, err)

	p, err := ingest.ParseMarkdown("hello-world.md", out)
	require.NoError(t, err)
	d := p.Draft(time.Now())
	assert.Equal(t, "Hello: World", d.Meta.Title)
	assert.Equal(t, []string{"go", "yes"}, d.Meta.Tags)
	assert.Equal(t, "hello-world", d.Meta.Slug)
	assert.Equal(t, "Basics", d.AdditionalMetadata["series"])
	assert.Len(t, d.Blocks, 2)
}

func TestJSONLD(t *testing.T) {
	d := sampleDraft()
	raw := render.JSONLD(d.Meta, "https://site.test/articles/hello-world/", "https://site.test/hero.png", "Inkpress")

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, "Article", got["@type"])
	assert.Equal(t, "Hello: World", got["headline"])
	assert.Equal(t, "2024-03-01T09:30:00Z", got["datePublished"])
	assert.Equal(t, "go, yes", got["keywords"])
	assert.Equal(t, map[string]any{"@type": "Person", "name": "Ada"}, got["author"])
	assert.NotContains(t, string(raw), "&", "ampersand is escaped for script context")
}

func TestMetaLine(t *testing.T) {
	m := sampleDraft().Meta
	assert.Equal(t, "By Ada · March 1, 2024 · Essays", render.MetaLine(m, ""))
	assert.Equal(t, "2024-03-01", render.MetaLine(content.ArticleMeta{PublishedAt: m.PublishedAt}, "2006-01-02"))
}

func TestTemplateRenderer_Builtin(t *testing.T) {
	r, err := render.NewTemplateRenderer("", "")
	require.NoError(t, err)

	site := config.Default().Site
	site.BaseURL = "https://site.test"
	page := render.NewArticlePage(site, sampleDraft())
	out, err := r.RenderArticle(context.Background(), page)
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, `<link rel="canonical" href="https://site.test/articles/hello-world/">`)
	assert.Contains(t, html, `<meta property="og:image" content="https://site.test/assets/hello/hero-abc123.png">`)
	assert.Contains(t, html, `<meta name="description" content="Short &amp; sweet.">`)
	assert.Contains(t, html, `<script type="application/ld+json">{"@context":"https://schema.org"`)
	assert.Contains(t, html, "By Ada · March 1, 2024 · Essays")
	assert.Contains(t, html, "<h2>Intro</h2>")
	assert.Contains(t, html, `<a href="https://go.dev" rel="noopener">Go</a>`)
	assert.Contains(t, html, `href="/assets/article.css"`)
	assert.NotContains(t, html, "EventSource")
}

func TestTemplateRenderer_ThemeAndEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	tplDir := filepath.Join(dir, "plain", "templates")
	require.NoError(t, os.MkdirAll(tplDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(tplDir, "article.tmpl"), []byte("{{if .Preview}}<p>{{.Title}}</p>{{end}}  \n"), 0o644))

	r, err := render.NewTemplateRenderer(dir, "plain")
	require.NoError(t, err)

	_, err = r.RenderArticle(context.Background(), render.ArticlePage{Title: "T"})
	assert.ErrorIs(t, err, domainerr.ErrRender)

	out, err := r.RenderArticle(context.Background(), render.ArticlePage{Title: "T", Preview: true})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<p>T</p>")

	_, err = render.NewTemplateRenderer(dir, "missing")
	assert.Error(t, err)
}
