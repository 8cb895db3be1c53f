package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inkpress/internal/domain/content"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults and slug", func(t *testing.T) {
		meta, warns := Normalize(map[string]any{
			FieldTitle: "  Café Déjà Vu!  ",
			FieldTags:  []any{"Tech", "tech", "TECH", " "},
		}, now)
		assert.Equal(t, "Café Déjà Vu!", meta.Title)
		assert.Equal(t, "cafe-deja-vu", meta.Slug)
		assert.Equal(t, []string{"Tech"}, meta.Tags)
		assert.Equal(t, now, meta.PublishedAt)
		assert.Empty(t, warns)
	})

	t.Run("explicit slug wins", func(t *testing.T) {
		meta, _ := Normalize(map[string]any{FieldTitle: "Title", FieldSlug: "Custom Slug"}, now)
		assert.Equal(t, "custom-slug", meta.Slug)
	})

	t.Run("empty title falls back to literal slug", func(t *testing.T) {
		meta, _ := Normalize(map[string]any{FieldTitle: "!!!"}, now)
		assert.Equal(t, content.DefaultSlug, meta.Slug)
	})

	t.Run("bad date warns", func(t *testing.T) {
		meta, warns := Normalize(map[string]any{FieldTitle: "T", FieldPublishedAt: "someday"}, now)
		assert.Equal(t, now, meta.PublishedAt)
		require.Len(t, warns, 1)
		assert.Contains(t, warns[0], "someday")
	})

	t.Run("object shaped author and hero", func(t *testing.T) {
		meta, _ := Normalize(map[string]any{
			FieldTitle:     "T",
			FieldAuthor:    map[string]any{"name": "Ada"},
			FieldHeroImage: map[string]any{"url": "hero.jpg"},
		}, now)
		assert.Equal(t, "Ada", meta.Author)
		assert.Equal(t, "hero.jpg", meta.HeroImage)
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Time
		ok   bool
	}{
		{"rfc3339", "2024-03-04T05:06:07Z", time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), true},
		{"date only", "2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"long form", "March 4, 2024", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"unix seconds", int64(1700000000), time.Unix(1700000000, 0).UTC(), true},
		{"unix millis", float64(1700000000000), time.UnixMilli(1700000000000).UTC(), true},
		{"time value", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"garbage", "not a date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
		{"negative", -5, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"Tech"}, NormalizeTags([]any{"Tech", "tech", "TECH"}))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags("a, b, A"))
	assert.Equal(t, []string{"x", "y"}, NormalizeTags([]string{"x,y"}))
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags(" , "))
}

func TestNormalizeLinks(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []content.Link
	}{
		{"url string", "https://a.test", []content.Link{{URL: "https://a.test"}}},
		{"label map", map[string]any{"Home": "https://h.test", "About": "/about"},
			[]content.Link{{Label: "About", URL: "/about"}, {Label: "Home", URL: "https://h.test"}}},
		{"single object", map[string]any{"label": "Docs", "url": "https://d.test"},
			[]content.Link{{Label: "Docs", URL: "https://d.test"}}},
		{"mixed array", []any{map[string]any{"text": "T"}, "plain label", map[string]any{"other": 1}, ""},
			[]content.Link{{Label: "T"}, {Label: "plain label"}}},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLinks(tt.in))
		})
	}
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Hello world.", FirstSentence("Hello world. Second one."))
	assert.Equal(t, "Version 1.2 is out!", FirstSentence("Version 1.2 is out! Go get it."))
	assert.Equal(t, "No terminator here", FirstSentence("  No   terminator\nhere "))
	assert.Equal(t, "", FirstSentence("   "))

	long := ""
	for i := 0; i < 100; i++ {
		long += "word "
	}
	got := FirstSentence(long)
	assert.LessOrEqual(t, len([]rune(got)), maxExcerptRunes)
	assert.True(t, len(got) > 0 && got[len(got)-len("…"):] == "…")
}

func TestInferExcerpt(t *testing.T) {
	blocks := []content.Block{
		content.NewHeading("Heading", 2),
		content.NewImage("a.png", "", ""),
		content.NewParagraph("Some **bold** claim. And more."),
	}
	assert.Equal(t, "Some bold claim.", InferExcerpt(blocks, content.SourceMarkdown))
	assert.Equal(t, "", InferExcerpt(nil, content.SourceMarkdown))
}

func TestInferExcerpt_QuotesOnlyForJSON(t *testing.T) {
	blocks := []content.Block{
		content.NewHeading("Heading", 2),
		content.NewQuote("Quoted first.", "Someone"),
		content.NewParagraph("Plain second. More."),
	}
	assert.Equal(t, "Plain second.", InferExcerpt(blocks, content.SourceMarkdown))
	assert.Equal(t, "Quoted first.", InferExcerpt(blocks, content.SourceJSON))
	assert.Equal(t, "", InferExcerpt(blocks[:2], content.SourceMarkdown))
}
