package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutes(t *testing.T) {
	a := ArticleRoute("hello")
	assert.Equal(t, "articles/hello/index.html", a.OutPath)
	assert.Equal(t, "/articles/hello/", a.URLPath)

	assert.Equal(t, "archive/hello.md", ArchiveRoute("hello").OutPath)
	assert.Empty(t, ArchiveRoute("hello").URLPath)

	img := AssetRoute("assets", "hello", "hero-abc123.png")
	assert.Equal(t, "assets/hello/hero-abc123.png", img.OutPath)
	assert.Equal(t, "/assets/hello/hero-abc123.png", img.URLPath)

	assert.Equal(t, "asset slug=hello out=assets/hello/hero-abc123.png url=/assets/hello/hero-abc123.png", img.String())
	assert.Equal(t, "feed out=public/feed.json", FeedRoute("public/feed.json").String())
}
