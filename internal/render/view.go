package render

import (
	"html/template"

	"inkpress/internal/domain/config"
	"inkpress/internal/domain/content"
)

// ArticlePage is everything the article template consumes.
type ArticlePage struct {
	Site config.SiteConfig
	Meta content.ArticleMeta

	Title        string
	Subtitle     string
	CanonicalURL string
	Description  string
	OGImage      string
	Tags         []string
	JSONLD       template.JS
	Category     string
	MetaLine     string
	HeroImage    string
	HeroCaption  template.HTML
	Body         template.HTML
	Links        []content.Link
	Stylesheet   string

	// Preview pages get the live-reload script.
	Preview  bool
	Warnings []string
}

// NewArticlePage derives the page model from a draft.
func NewArticlePage(site config.SiteConfig, d content.Draft) ArticlePage {
	m := d.Meta
	canonical := AbsoluteURL(site.BaseURL, ArticlePath(m.Slug))
	ogImage := AbsoluteURL(site.BaseURL, m.HeroImage)

	return ArticlePage{
		Site:         site,
		Meta:         m,
		Title:        m.Title,
		Subtitle:     m.Subtitle,
		CanonicalURL: canonical,
		Description:  m.Excerpt,
		OGImage:      ogImage,
		Tags:         m.Tags,
		JSONLD:       JSONLD(m, canonical, ogImage, site.Title),
		Category:     m.Category,
		MetaLine:     MetaLine(m, site.DateLayout),
		HeroImage:    safeURL(m.HeroImage),
		HeroCaption:  Inline(m.HeroCaption),
		Body:         HTML(d.Blocks),
		Links:        m.Links,
		Stylesheet:   site.Stylesheet,
		Warnings:     d.Warnings,
	}
}
