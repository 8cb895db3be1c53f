package render

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"inkpress/internal/domain/content"
)

var archiveKeys = map[string]bool{
	"title": true, "subtitle": true, "author": true, "category": true, "tags": true,
	"published_at": true, "excerpt": true, "hero_image": true, "hero_caption": true,
	"links": true, "slug": true,
}

// Archive renders a draft as a Markdown file with YAML front matter. String
// values are always double quoted; additional metadata follows the known
// fields in key order.
func Archive(d content.Draft) ([]byte, error) {
	m := d.Meta
	doc := &yaml.Node{Kind: yaml.MappingNode}

	addString := func(key, value string, always bool) {
		if value == "" && !always {
			return
		}
		doc.Content = append(doc.Content, keyNode(key), quoted(value))
	}

	addString("title", m.Title, true)
	addString("subtitle", m.Subtitle, false)
	addString("author", m.Author, false)
	addString("category", m.Category, false)
	if len(m.Tags) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, t := range m.Tags {
			seq.Content = append(seq.Content, quoted(t))
		}
		doc.Content = append(doc.Content, keyNode("tags"), seq)
	}
	addString("published_at", m.PublishedAt.UTC().Format(time.RFC3339), true)
	addString("excerpt", m.Excerpt, false)
	addString("hero_image", m.HeroImage, false)
	addString("hero_caption", m.HeroCaption, false)
	if len(m.Links) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, l := range m.Links {
			item := &yaml.Node{Kind: yaml.MappingNode}
			if l.Label != "" {
				item.Content = append(item.Content, keyNode("label"), quoted(l.Label))
			}
			if l.URL != "" {
				item.Content = append(item.Content, keyNode("url"), quoted(l.URL))
			}
			seq.Content = append(seq.Content, item)
		}
		doc.Content = append(doc.Content, keyNode("links"), seq)
	}
	addString("slug", m.Slug, true)

	extraKeys := make([]string, 0, len(d.AdditionalMetadata))
	for k := range d.AdditionalMetadata {
		if !archiveKeys[k] {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		var v yaml.Node
		if err := v.Encode(d.AdditionalMetadata[k]); err != nil {
			return nil, fmt.Errorf("archive: encode %q: %w", k, err)
		}
		quoteStrings(&v)
		doc.Content = append(doc.Content, keyNode(k), &v)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	buf.WriteString("---\n")
	if body := Markdown(d.Blocks); body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}

func keyNode(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

func quoted(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v, Style: yaml.DoubleQuotedStyle}
}

func quoteStrings(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		n.Style = yaml.DoubleQuotedStyle
	}
	for i, c := range n.Content {
		// Mapping keys stay plain.
		if n.Kind == yaml.MappingNode && i%2 == 0 {
			continue
		}
		quoteStrings(c)
	}
}
