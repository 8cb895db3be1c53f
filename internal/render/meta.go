package render

import (
	"strings"

	"inkpress/internal/domain/content"
	"inkpress/internal/domain/site"
)

const metaSeparator = " · "

// MetaLine joins byline, publish date and category for display under a title.
func MetaLine(meta content.ArticleMeta, dateLayout string) string {
	if dateLayout == "" {
		dateLayout = "January 2, 2006"
	}
	var parts []string
	if a := strings.TrimSpace(meta.Author); a != "" {
		parts = append(parts, "By "+a)
	}
	if !meta.PublishedAt.IsZero() {
		parts = append(parts, meta.PublishedAt.Format(dateLayout))
	}
	if c := strings.TrimSpace(meta.Category); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, metaSeparator)
}

// ArticlePath is the site-relative location of an exported article.
func ArticlePath(slug string) string {
	return site.ArticleRoute(slug).URLPath
}

// AbsoluteURL resolves a site-relative path against base. Absolute URLs and
// data URLs pass through.
func AbsoluteURL(base, path string) string {
	if path == "" {
		return ""
	}
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
