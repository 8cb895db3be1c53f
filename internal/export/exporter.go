// Package export publishes a draft: static HTML, a Markdown archive,
// content-addressed image assets and an entry in the JSON feed.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"inkpress/internal/domain/config"
	"inkpress/internal/domain/content"
	"inkpress/internal/domain/site"
	"inkpress/internal/logger"
	"inkpress/internal/metrics"
	"inkpress/internal/render"
)

type Exporter struct {
	cfg      config.Config
	renderer render.Renderer
	log      *slog.Logger
}

func NewExporter(cfg config.Config, r render.Renderer, log *slog.Logger) *Exporter {
	if log == nil {
		log = logger.Component("export")
	}
	return &Exporter{cfg: cfg, renderer: r, log: log}
}

// Result lists what one export wrote. Paths are relative to the output
// directory except FeedPath, which is as configured.
type Result struct {
	Slug        string
	HTMLPath    string
	ArchivePath string
	FeedPath    string
	Assets      []string
	Reused      int
	Static      []string
	Warnings    []string
	Feed        []FeedEntry
}

// Export validates d and writes every output. Missing required metadata
// fails before anything touches the disk. d itself is not modified.
func (e *Exporter) Export(ctx context.Context, d content.Draft) (res *Result, err error) {
	defer func() { metrics.RecordExport(err) }()

	if err := Validate(d.Meta); err != nil {
		return nil, err
	}

	d.Meta.Tags = append([]string(nil), d.Meta.Tags...)
	d.Blocks = content.CloneBlocks(d.Blocks)
	slug := content.Slugify(d.Meta.Slug)
	d.Meta.Slug = slug
	log := e.log.With("slug", slug)

	out := e.cfg.Export.OutDir
	st := NewAssetState()
	article, archiveRoute, feed := site.ArticleRoute(slug), site.ArchiveRoute(slug), site.FeedRoute(e.cfg.Export.FeedPath)
	res = &Result{Slug: slug, FeedPath: feed.OutPath}
	res.Warnings = RewriteAssets(&d, st, AssetOptions{
		WorkDir:  e.cfg.Export.WorkDir,
		OutDir:   out,
		AssetDir: e.cfg.Export.AssetDir,
		Slug:     slug,
	})
	res.Assets = st.Written
	res.Reused = st.Reused
	for _, w := range res.Warnings {
		log.Warn(w)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := render.NewArticlePage(e.cfg.Site, d)
	html, err := e.renderer.RenderArticle(ctx, page)
	if err != nil {
		return nil, err
	}
	archive, err := render.Archive(d)
	if err != nil {
		return nil, err
	}

	for _, w := range []struct {
		route site.Route
		data  []byte
	}{{article, html}, {archiveRoute, archive}} {
		if err := writeFile(out, w.route.OutPath, w.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", w.route.OutPath, err)
		}
		log.Debug("wrote", "route", w.route.String())
	}
	res.HTMLPath = article.OutPath
	res.ArchivePath = archiveRoute.OutPath

	if e.cfg.Export.ThemeDir != "" {
		res.Static, err = copyStaticAssets(e.cfg.Export.ThemeDir, e.cfg.Export.ThemeName, out)
		if err != nil {
			return nil, fmt.Errorf("copy static assets: %w", err)
		}
	}

	if res.FeedPath != "" {
		res.Feed, err = UpdateFeed(res.FeedPath, FeedEntry{
			Title:       d.Meta.Title,
			Slug:        slug,
			URL:         render.AbsoluteURL(e.cfg.Site.BaseURL, article.URLPath),
			Hero:        d.Meta.HeroImage,
			Excerpt:     d.Meta.Excerpt,
			PublishedAt: d.Meta.PublishedAt,
		})
		if err != nil {
			return nil, fmt.Errorf("update feed: %w", err)
		}
		log.Debug("wrote", "route", feed.String())
	}

	log.Info("exported",
		"html", filepath.Join(out, res.HTMLPath),
		"assets", len(res.Assets),
		"reused", res.Reused,
	)
	return res, nil
}
