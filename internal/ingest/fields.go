package ingest

import (
	"sort"
	"strings"

	"inkpress/internal/prompt"
)

// Canonical article fields recognized in front matter and JSON sources.
const (
	FieldTitle       = "title"
	FieldSubtitle    = "subtitle"
	FieldAuthor      = "author"
	FieldCategory    = "category"
	FieldTags        = "tags"
	FieldPublishedAt = "published_at"
	FieldExcerpt     = "excerpt"
	FieldHeroImage   = "hero_image"
	FieldHeroCaption = "hero_caption"
	FieldLinks       = "links"
	FieldSlug        = "slug"
	FieldBody        = "body"
)

// Fields lists the mappable fields in the order they are offered to a person.
var Fields = []string{
	FieldTitle, FieldSubtitle, FieldAuthor, FieldCategory, FieldTags,
	FieldPublishedAt, FieldExcerpt, FieldHeroImage, FieldHeroCaption,
	FieldLinks, FieldSlug, FieldBody,
}

// RequiredJSONFields must resolve before a JSON source can become a draft.
var RequiredJSONFields = []string{FieldTitle, FieldBody}

var aliases = map[string][]string{
	FieldTitle:       {"title", "headline", "name", "heading"},
	FieldSubtitle:    {"subtitle", "subheadline", "dek", "standfirst", "tagline"},
	FieldAuthor:      {"author", "byline", "writer", "author_name", "creator"},
	FieldCategory:    {"category", "section", "topic", "kicker"},
	FieldTags:        {"tags", "keywords", "labels", "topics"},
	FieldPublishedAt: {"published_at", "published", "date", "pubdate", "publish_date", "created_at", "datetime"},
	FieldExcerpt:     {"excerpt", "summary", "description", "abstract", "lede", "teaser"},
	FieldHeroImage:   {"hero_image", "hero", "image", "cover", "cover_image", "thumbnail", "featured_image"},
	FieldHeroCaption: {"hero_caption", "caption", "image_caption"},
	FieldLinks:       {"links", "references", "sources", "related"},
	FieldSlug:        {"slug", "permalink", "url_slug"},
	FieldBody:        {"body", "content", "sections", "text", "article", "blocks", "html", "markdown"},
}

// aliasIndex maps a folded alias to its field.
var aliasIndex = func() map[string]string {
	idx := make(map[string]string)
	for field, names := range aliases {
		for _, name := range names {
			idx[foldKey(name)] = field
		}
	}
	return idx
}()

// foldKey lowercases k and drops separators so that publishedAt,
// published-at and PUBLISHED_AT compare equal.
func foldKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		switch r {
		case '_', '-', ' ', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fieldForKey(key string) (string, bool) {
	f, ok := aliasIndex[foldKey(key)]
	return f, ok
}

func listField(field string) bool {
	return field == FieldTags
}

// ResolveFields guesses which source key feeds each field. For every field
// the earliest alias in its list wins, so "title" beats "name" when both are
// present.
func ResolveFields(keys []string) prompt.Mapping {
	byFolded := make(map[string]string, len(keys))
	for _, k := range keys {
		f := foldKey(k)
		if _, ok := byFolded[f]; !ok {
			byFolded[f] = k
		}
	}

	out := prompt.Mapping{}
	used := map[string]bool{}
	for _, field := range Fields {
		for _, alias := range aliases[field] {
			key, ok := byFolded[foldKey(alias)]
			if !ok || used[key] {
				continue
			}
			out[field] = key
			used[key] = true
			break
		}
	}
	return out
}

// missingFields returns the required fields m leaves unmapped.
func missingFields(m prompt.Mapping, required []string) []string {
	var out []string
	for _, f := range required {
		if m[f] == "" {
			out = append(out, f)
		}
	}
	return out
}

// splitKnown separates canonical fields from pass-through keys using the
// alias table. The first key resolving to a field wins; later duplicates are
// kept as additional metadata.
func splitKnown(values map[string]any) (known, extra map[string]any) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mapping := ResolveFields(keys)
	known = make(map[string]any)
	used := make(map[string]bool, len(mapping))
	for field, key := range mapping {
		known[field] = values[key]
		used[key] = true
	}
	for _, k := range keys {
		if !used[k] {
			if extra == nil {
				extra = make(map[string]any)
			}
			extra[k] = values[k]
		}
	}
	return known, extra
}
