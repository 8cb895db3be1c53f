package ingest

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"inkpress/internal/domain/content"
)

const maxExcerptRunes = 300

var stripPolicy = bluemonday.StrictPolicy()

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateTime,
	"2006-01-02 15:04",
	time.DateOnly,
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// Normalize turns raw field values keyed by canonical field name into
// metadata. It never fails: values it cannot use are dropped or replaced by
// defaults, and each replacement of a present value is reported as a warning.
func Normalize(fields map[string]any, now time.Time) (content.ArticleMeta, []string) {
	var warnings []string

	meta := content.ArticleMeta{
		Title:       plainText(stringValue(fields[FieldTitle])),
		Subtitle:    plainText(stringValue(fields[FieldSubtitle])),
		Author:      authorValue(fields[FieldAuthor]),
		Category:    stringValue(fields[FieldCategory]),
		Tags:        NormalizeTags(fields[FieldTags]),
		Excerpt:     plainText(stringValue(fields[FieldExcerpt])),
		HeroImage:   imageValue(fields[FieldHeroImage]),
		HeroCaption: plainText(stringValue(fields[FieldHeroCaption])),
		Links:       NormalizeLinks(fields[FieldLinks]),
	}

	raw, present := fields[FieldPublishedAt]
	published, ok := ParseDate(raw)
	if !ok {
		published = now
		if present && stringValue(raw) != "" {
			warnings = append(warnings, fmt.Sprintf("unrecognized published_at %q; using the import time", stringValue(raw)))
		}
	}
	meta.PublishedAt = published

	meta.Slug = stringValue(fields[FieldSlug])
	if strings.TrimSpace(meta.Slug) == "" {
		meta.Slug = meta.Title
	}
	meta.Normalize()
	return meta, warnings
}

// ParseDate accepts time values, date strings in common layouts and unix
// timestamps in seconds or milliseconds.
func ParseDate(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, !t.IsZero()
	case int:
		return unixTime(float64(t))
	case int64:
		return unixTime(float64(t))
	case float64:
		return unixTime(t)
	case string:
		return parseDateString(t)
	case fmt.Stringer:
		return parseDateString(t.String())
	}
	return time.Time{}, false
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return unixTime(n)
	}
	return time.Time{}, false
}

func unixTime(n float64) (time.Time, bool) {
	if n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return time.Time{}, false
	}
	// Values this large only make sense as milliseconds.
	if n > 1e11 {
		return time.UnixMilli(int64(n)).UTC(), true
	}
	return time.Unix(int64(n), 0).UTC(), true
}

// NormalizeTags accepts a list or a comma separated string.
func NormalizeTags(v any) []string {
	var tags []string
	switch t := v.(type) {
	case string:
		tags = strings.Split(t, ",")
	case []string:
		for _, s := range t {
			tags = append(tags, strings.Split(s, ",")...)
		}
	case []any:
		for _, item := range t {
			tags = append(tags, strings.Split(stringValue(item), ",")...)
		}
	default:
		if s := stringValue(v); s != "" {
			tags = []string{s}
		}
	}
	out := content.DedupeFold(tags)
	if len(out) == 0 {
		return nil
	}
	return out
}

// NormalizeLinks accepts a bare URL string, a label to URL map, a single
// {label, url} object or a list of objects and strings.
func NormalizeLinks(v any) []content.Link {
	var out []content.Link
	add := func(l content.Link) {
		l.Label = strings.TrimSpace(l.Label)
		l.URL = strings.TrimSpace(l.URL)
		if l.Label == "" && l.URL == "" {
			return
		}
		out = append(out, l)
	}

	switch t := v.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(t, ",") {
			add(linkFromString(part))
		}
	case []any:
		for _, item := range t {
			switch it := item.(type) {
			case string:
				add(linkFromString(it))
			case map[string]any:
				add(linkFromObject(it))
			}
		}
	case []string:
		for _, s := range t {
			add(linkFromString(s))
		}
	case map[string]any:
		if isLinkObject(t) {
			add(linkFromObject(t))
			break
		}
		for _, label := range sortedKeys(t) {
			add(content.Link{Label: label, URL: stringValue(t[label])})
		}
	}
	return out
}

var (
	linkLabelKeys = []string{"label", "title", "text", "name"}
	linkURLKeys   = []string{"url", "href", "link", "src"}
)

func isLinkObject(m map[string]any) bool {
	for _, k := range append(append([]string{}, linkLabelKeys...), linkURLKeys...) {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func linkFromObject(m map[string]any) content.Link {
	return content.Link{
		Label: firstString(m, linkLabelKeys...),
		URL:   firstString(m, linkURLKeys...),
	}
}

func linkFromString(s string) content.Link {
	s = strings.TrimSpace(s)
	if looksLikeURL(s) {
		return content.Link{URL: s}
	}
	return content.Link{Label: s}
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(s, "/")
}

// InferExcerpt takes the first sentence of the first paragraph. JSON
// documents also accept a quote.
func InferExcerpt(blocks []content.Block, source content.SourceType) string {
	for _, b := range blocks {
		switch {
		case b.Type == content.BlockParagraph:
		case b.Type == content.BlockQuote && source == content.SourceJSON:
		default:
			continue
		}
		if s := FirstSentence(markdownPlain(b.Text)); s != "" {
			return s
		}
	}
	return ""
}

// FirstSentence returns text up to and including the first sentence
// terminator followed by whitespace, capped at a readable length.
func FirstSentence(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	end := len(text)
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next == len(text) || text[next] == ' ' {
			end = next
			break
		}
	}
	return truncateRunes(text[:end], maxExcerptRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n-1])) + "…"
}

// plainText drops any markup from a metadata value.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := stringValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// authorValue also accepts {name: ...} objects.
func authorValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		return firstString(m, "name", "display_name", "displayName", "username")
	}
	return stringValue(v)
}

// imageValue also accepts {src|url: ...} objects.
func imageValue(v any) string {
	if m, ok := v.(map[string]any); ok {
		return firstString(m, "src", "url", "href")
	}
	return stringValue(v)
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}
