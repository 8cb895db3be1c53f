// Package site fixes where exported files live on disk and on the web.
package site

import (
	"path"
	"strings"
)

type RouteKind string

const (
	RouteArticle RouteKind = "article"
	RouteArchive RouteKind = "archive"
	RouteAsset   RouteKind = "asset"
	RouteFeed    RouteKind = "feed"
)

// Route pairs an output file, relative to the export root, with the path it
// is served under. Archive routes are not published and have no URLPath.
type Route struct {
	Kind    RouteKind
	Slug    string
	OutPath string
	URLPath string
}

func (r Route) String() string {
	parts := []string{string(r.Kind)}
	if r.Slug != "" {
		parts = append(parts, "slug="+r.Slug)
	}
	if r.OutPath != "" {
		parts = append(parts, "out="+r.OutPath)
	}
	if r.URLPath != "" {
		parts = append(parts, "url="+r.URLPath)
	}
	return strings.Join(parts, " ")
}

func ArticleRoute(slug string) Route {
	return Route{
		Kind:    RouteArticle,
		Slug:    slug,
		OutPath: path.Join("articles", slug, "index.html"),
		URLPath: "/articles/" + slug + "/",
	}
}

func ArchiveRoute(slug string) Route {
	return Route{
		Kind:    RouteArchive,
		Slug:    slug,
		OutPath: path.Join("archive", slug+".md"),
	}
}

// AssetRoute places an article's asset under assetDir/slug.
func AssetRoute(assetDir, slug, name string) Route {
	out := path.Join(assetDir, slug, name)
	return Route{
		Kind:    RouteAsset,
		Slug:    slug,
		OutPath: out,
		URLPath: "/" + out,
	}
}

// FeedRoute is the feed file as configured; it may live outside the export
// root.
func FeedRoute(feedPath string) Route {
	return Route{Kind: RouteFeed, OutPath: feedPath}
}
