package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	domainerr "inkpress/internal/domain/errors"
)

const (
	FrontMatterYAML  = "yaml"
	FrontMatterTOML  = "toml"
	FrontMatterLines = "lines"
)

// FrontMatter is the decoded metadata header of a Markdown document.
type FrontMatter struct {
	Format string
	Raw    string
	Fields map[string]any
}

// ParseFrontMatter splits a leading fenced metadata block from the body. A
// document without a fence has no front matter and is returned whole as the
// body. An opened fence that never closes is malformed.
func ParseFrontMatter(raw []byte) (FrontMatter, []byte, error) {
	norm := bytes.TrimPrefix(raw, utf8BOM)
	norm = bytes.ReplaceAll(norm, []byte("\r\n"), []byte("\n"))
	norm = bytes.ReplaceAll(norm, []byte("\r"), []byte("\n"))

	lines := strings.Split(string(norm), "\n")
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return FrontMatter{}, norm, nil
	}

	var format string
	var closes func(string) bool
	switch open := strings.TrimSpace(lines[start]); {
	case isDashFence(open):
		format = FrontMatterYAML
		closes = isDashFence
	case open == "+++":
		format = FrontMatterTOML
		closes = func(s string) bool { return s == "+++" }
	default:
		return FrontMatter{}, norm, nil
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if closes(strings.TrimSpace(lines[i])) {
			end = i
			break
		}
	}
	if end < 0 {
		return FrontMatter{}, nil, fmt.Errorf("%w: front matter opened on line %d is never closed", domainerr.ErrMalformed, start+1)
	}

	header := strings.Join(lines[start+1:end], "\n")
	body := []byte(strings.TrimLeft(strings.Join(lines[end+1:], "\n"), "\n"))

	fm := FrontMatter{Format: format, Raw: header, Fields: map[string]any{}}
	if strings.TrimSpace(header) == "" {
		return fm, body, nil
	}

	var err error
	switch format {
	case FrontMatterTOML:
		err = toml.Unmarshal([]byte(header), &fm.Fields)
	default:
		err = yaml.Unmarshal([]byte(header), &fm.Fields)
	}
	if err != nil || fm.Fields == nil {
		fm.Format = FrontMatterLines
		fm.Fields = parseFrontMatterLines(header)
	}
	return fm, body, nil
}

func isDashFence(s string) bool {
	return len(s) >= 3 && strings.Trim(s, "-") == ""
}

// parseFrontMatterLines reads "key: value" pairs. A key with no inline value
// collects the "- item" lines below it into a list.
func parseFrontMatterLines(header string) map[string]any {
	fields := map[string]any{}
	listKey := ""

	for _, line := range strings.Split(header, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if listKey != "" && (trimmed == "-" || strings.HasPrefix(trimmed, "- ")) {
			item := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
			items, _ := fields[listKey].([]any)
			fields[listKey] = append(items, coerceScalar(item))
			continue
		}

		idx := strings.Index(trimmed, ":")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(trimmed[:idx])
		value := strings.TrimSpace(trimmed[idx+1:])
		if value == "" {
			listKey = key
			fields[key] = []any{}
			continue
		}
		listKey = ""
		fields[key] = coerceLineValue(key, value)
	}

	for k, v := range fields {
		if items, ok := v.([]any); ok && len(items) == 0 {
			fields[k] = ""
		}
	}
	return fields
}

func coerceLineValue(key, value string) any {
	v := coerceScalar(value)
	s, ok := v.(string)
	if !ok || s != value || !strings.Contains(s, ",") {
		return v
	}
	// Comma lists only make sense for list-valued fields; a title with a
	// comma stays a title.
	if f, ok := fieldForKey(key); ok && listField(f) {
		var items []any
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		return items
	}
	return s
}

func coerceScalar(value string) any {
	if unq, ok := unquote(value); ok {
		return unq
	}

	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
		var v any
		if err := json.Unmarshal([]byte(value), &v); err == nil {
			return v
		}
	}
	return value
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return s, false
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' || first == '\'') && first == last {
		return s[1 : len(s)-1], true
	}
	return s, false
}
