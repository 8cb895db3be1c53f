package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/prompt"
)

// ParseJSON maps an object with unknown key names onto the article schema.
// When title or body cannot be matched automatically the resolver is asked,
// and the import waits for its answer.
func ParseJSON(ctx context.Context, name string, data []byte, resolver prompt.Resolver) (*Parsed, error) {
	var root any
	dec := json.NewDecoder(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", domainerr.ErrMalformed, err)
	}

	if arr, ok := root.([]any); ok {
		if len(arr) == 0 {
			return nil, fmt.Errorf("%w: empty JSON array", domainerr.ErrMalformed)
		}
		root = arr[0]
	}
	obj, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: JSON root is %T, want an object", domainerr.ErrMalformed, root)
	}

	keys := sortedKeys(obj)
	mapping := ResolveFields(keys)

	if missing := missingFields(mapping, RequiredJSONFields); len(missing) > 0 {
		if resolver == nil {
			return nil, fmt.Errorf("%w: %s", domainerr.ErrMissingField, strings.Join(missing, ", "))
		}
		answer, err := resolver.ResolveMapping(ctx, prompt.MappingRequest{
			FileName:  filepath.Base(name),
			Keys:      keys,
			Fields:    Fields,
			Required:  RequiredJSONFields,
			Suggested: mapping,
		})
		if err != nil {
			return nil, err
		}
		mapping = validMapping(answer, obj)
		if missing := missingFields(mapping, RequiredJSONFields); len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", domainerr.ErrMissingField, strings.Join(missing, ", "))
		}
	}

	fields := make(map[string]any, len(mapping))
	used := make(map[string]bool, len(mapping))
	for field, key := range mapping {
		fields[field] = obj[key]
		used[key] = true
	}

	var extra map[string]any
	for _, k := range keys {
		if used[k] {
			continue
		}
		if extra == nil {
			extra = map[string]any{}
		}
		extra[k] = obj[k]
	}

	body := fields[FieldBody]
	delete(fields, FieldBody)

	return &Parsed{
		Fields: fields,
		Extra:  extra,
		Blocks: SectionBlocks(body),
		Source: content.Source{
			Type:     content.SourceJSON,
			FileName: filepath.Base(name),
			FieldMap: map[string]string(mapping),
		},
	}, nil
}

// validMapping drops answers that point at keys the object does not have.
func validMapping(m prompt.Mapping, obj map[string]any) prompt.Mapping {
	out := prompt.Mapping{}
	for field, key := range m {
		if _, ok := obj[key]; ok && key != "" {
			out[field] = key
		}
	}
	return out
}

// SectionBlocks converts a JSON body value into blocks. Strings are
// segmented as text (or converted first when they hold HTML), arrays are
// converted element by element and an object is a single section.
func SectionBlocks(v any) []content.Block {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return textBlocks(t)
	case []any:
		var out []content.Block
		for _, item := range t {
			out = append(out, SectionBlocks(item)...)
		}
		return out
	case map[string]any:
		return sectionBlocks(t)
	default:
		if s := stringValue(t); s != "" {
			return []content.Block{content.NewParagraph(s)}
		}
	}
	return nil
}

// sectionBlocks dispatches on the section's type. Unknown types become
// paragraphs instead of failing the import.
func sectionBlocks(m map[string]any) []content.Block {
	kind := strings.ToLower(firstString(m, "type", "kind", "_type"))
	text := firstString(m, "text", "content", "body", "value")

	switch kind {
	case "heading", "header", "title", "h1", "h2", "h3", "h4", "h5", "h6":
		level := intValue(m["level"])
		if level == 0 && len(kind) == 2 && kind[0] == 'h' {
			level = int(kind[1] - '0')
		}
		if level == 0 {
			level = content.MinHeadingLevel
		}
		if text == "" {
			text = firstString(m, "title", "heading")
		}
		if text == "" {
			return nil
		}
		return []content.Block{content.NewHeading(text, level)}

	case "quote", "blockquote", "pullquote":
		if text == "" {
			text = firstString(m, "quote")
		}
		return []content.Block{content.NewQuote(text, firstString(m, "cite", "author", "attribution", "source"))}

	case "list", "ul", "ol", "bullets":
		style := content.ListUnordered
		if kind == "ol" || strings.EqualFold(firstString(m, "style"), "ordered") || m["ordered"] == true {
			style = content.ListOrdered
		}
		items := stringItems(m["items"])
		if len(items) == 0 && text != "" {
			for _, line := range strings.Split(text, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					items = append(items, line)
				}
			}
		}
		return []content.Block{content.NewList(style, items)}

	case "image", "img", "figure", "photo":
		src := imageValue(firstNonNil(m, "src", "url", "image"))
		if src == "" {
			return nil
		}
		b := content.NewImage(src, firstString(m, "alt", "alt_text"), firstString(m, "caption", "credit"))
		b.Layout = firstString(m, "layout")
		b.Width = intValue(m["width"])
		b.Height = intValue(m["height"])
		return []content.Block{b}

	case "html", "raw":
		h := firstString(m, "html", "content", "text", "value")
		if h == "" {
			return nil
		}
		return []content.Block{content.NewEmbed("", h)}

	case "embed", "video", "tweet", "iframe":
		return []content.Block{content.NewEmbed(firstString(m, "url", "src", "href"), firstString(m, "html", "code"))}

	case "code", "pre", "snippet":
		return []content.Block{content.NewCode(firstString(m, "code", "text", "content", "value"), firstString(m, "language", "lang"))}

	case "note", "aside", "callout":
		return []content.Block{content.NewNote(text)}
	}

	var out []content.Block
	if h := firstString(m, "title", "heading", "headline"); h != "" {
		out = append(out, content.NewHeading(h, content.MinHeadingLevel))
	}
	if body := firstNonNil(m, "text", "content", "body", "value", "paragraphs", "blocks", "sections"); body != nil {
		out = append(out, SectionBlocks(body)...)
	}
	return out
}

// textBlocks segments a body string. HTML is converted to Markdown and parsed
// as such; anything else splits into paragraphs on blank lines.
func textBlocks(s string) []content.Block {
	if looksLikeHTML(s) {
		if md, err := htmltomarkdown.ConvertString(s); err == nil {
			return MarkdownBlocks([]byte(md))
		}
	}

	var out []content.Block
	for _, para := range splitParagraphs(s) {
		out = append(out, content.NewParagraph(strings.Join(strings.Fields(para), " ")))
	}
	return out
}

func splitParagraphs(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	var cur []string
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.Join(cur, "\n"))
			cur = nil
		}
	}
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		cur = append(cur, strings.TrimSpace(line))
	}
	flush()
	return out
}

var htmlHints = []string{"<p", "<div", "<h1", "<h2", "<h3", "<h4", "<ul", "<ol", "<blockquote", "<figure", "<img", "<br", "<section", "<article"}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	for _, h := range htmlHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func stringItems(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			var s string
			if m, ok := item.(map[string]any); ok {
				s = firstString(m, "text", "content", "value", "label")
			} else {
				s = stringValue(item)
			}
			if s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func intValue(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		var n int
		if _, err := fmt.Sscan(strings.TrimSpace(t), &n); err == nil {
			return n
		}
	}
	return 0
}

func firstNonNil(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				continue
			}
			return v
		}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
