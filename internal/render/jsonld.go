package render

import (
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"inkpress/internal/domain/content"
)

type ldThing struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type ldArticle struct {
	Context       string   `json:"@context"`
	Type          string   `json:"@type"`
	Headline      string   `json:"headline"`
	Alternative   string   `json:"alternativeHeadline,omitempty"`
	Description   string   `json:"description,omitempty"`
	DatePublished string   `json:"datePublished"`
	Author        *ldThing `json:"author,omitempty"`
	Publisher     *ldThing `json:"publisher,omitempty"`
	Image         string   `json:"image,omitempty"`
	Keywords      string   `json:"keywords,omitempty"`
	Section       string   `json:"articleSection,omitempty"`
	URL           string   `json:"url,omitempty"`
	MainEntity    string   `json:"mainEntityOfPage,omitempty"`
}

// JSONLD builds the schema.org Article block for a page head. The encoder
// escapes <, > and & so the result is safe inside a script element.
func JSONLD(meta content.ArticleMeta, canonicalURL, imageURL, publisher string) template.JS {
	a := ldArticle{
		Context:       "https://schema.org",
		Type:          "Article",
		Headline:      meta.Title,
		Alternative:   meta.Subtitle,
		Description:   meta.Excerpt,
		DatePublished: meta.PublishedAt.UTC().Format(time.RFC3339),
		Image:         imageURL,
		Keywords:      strings.Join(meta.Tags, ", "),
		Section:       meta.Category,
		URL:           canonicalURL,
		MainEntity:    canonicalURL,
	}
	if meta.Author != "" {
		a.Author = &ldThing{Type: "Person", Name: meta.Author}
	}
	if publisher != "" {
		a.Publisher = &ldThing{Type: "Organization", Name: publisher}
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return "{}"
	}
	return template.JS(raw)
}
