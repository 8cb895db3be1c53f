package content

import (
	"strings"
	"time"
)

type Link struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

type ArticleMeta struct {
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Author      string    `json:"author,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Excerpt     string    `json:"excerpt,omitempty"`
	HeroImage   string    `json:"hero_image,omitempty"`
	HeroCaption string    `json:"hero_caption,omitempty"`
	Links       []Link    `json:"links,omitempty"`
	Slug        string    `json:"slug"`
}

type SourceType string

const (
	SourceMarkdown SourceType = "markdown"
	SourceJSON     SourceType = "json"
	SourcePDF      SourceType = "pdf"
)

// Source records where a draft came from plus format specific details.
type Source struct {
	Type     SourceType `json:"type"`
	FileName string     `json:"fileName"`

	// markdown
	FrontMatter string `json:"frontMatter,omitempty"`

	// json
	FieldMap map[string]string `json:"fieldMap,omitempty"`

	// pdf
	PageCount int  `json:"pageCount,omitempty"`
	Reviewed  bool `json:"reviewed,omitempty"`
}

// Draft is the normalized result of importing one file. Parsers hand it off
// complete and never touch it again.
type Draft struct {
	Meta               ArticleMeta    `json:"metadata"`
	Blocks             []Block        `json:"blocks"`
	Assets             []string       `json:"assets,omitempty"`
	AdditionalMetadata map[string]any `json:"additionalMetadata,omitempty"`
	Source             Source         `json:"source"`
	Warnings           []string       `json:"warnings"`
	ImportedAt         time.Time      `json:"importedAt"`
}

func (m *ArticleMeta) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	m.Subtitle = strings.TrimSpace(m.Subtitle)
	m.Author = strings.TrimSpace(m.Author)
	m.Category = strings.TrimSpace(m.Category)
	m.Excerpt = strings.TrimSpace(m.Excerpt)
	m.HeroImage = strings.TrimSpace(m.HeroImage)
	m.HeroCaption = strings.TrimSpace(m.HeroCaption)

	m.Tags = DedupeFold(m.Tags)
	m.Slug = Slugify(m.Slug)
}

// DedupeFold trims items, drops empties and removes case-insensitive
// duplicates. The first spelling seen is kept.
func DedupeFold(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
