package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/logger"
	"inkpress/internal/metrics"
	"inkpress/internal/prompt"
)

// Parsed is a parser's output before metadata normalization. Fields are keyed
// by canonical field name and still hold raw source values.
type Parsed struct {
	Fields   map[string]any
	Extra    map[string]any
	Blocks   []content.Block
	Source   content.Source
	Warnings []string
}

// Draft fills in inferred metadata, normalizes it and assembles the draft.
func (p *Parsed) Draft(now time.Time) content.Draft {
	fields := make(map[string]any, len(p.Fields)+2)
	for k, v := range p.Fields {
		fields[k] = v
	}
	warnings := append([]string(nil), p.Warnings...)

	if plainText(stringValue(fields[FieldTitle])) == "" {
		stem := strings.TrimSuffix(p.Source.FileName, filepath.Ext(p.Source.FileName))
		if stem == "" {
			stem = content.DefaultSlug
		}
		fields[FieldTitle] = stem
		warnings = append(warnings, fmt.Sprintf("no title found; using the file name %q", stem))
	}
	if stringValue(fields[FieldExcerpt]) == "" {
		if ex := InferExcerpt(p.Blocks, p.Source.Type); ex != "" {
			fields[FieldExcerpt] = ex
			warnings = append(warnings, "no excerpt given; inferred from the first paragraph")
		}
	}

	meta, metaWarnings := Normalize(fields, now)
	warnings = append(warnings, metaWarnings...)

	blocks := p.Blocks
	if blocks == nil {
		blocks = []content.Block{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return content.Draft{
		Meta:               meta,
		Blocks:             blocks,
		Assets:             collectAssets(meta, blocks),
		AdditionalMetadata: p.Extra,
		Source:             p.Source,
		Warnings:           warnings,
		ImportedAt:         now,
	}
}

func collectAssets(meta content.ArticleMeta, blocks []content.Block) []string {
	var out []string
	seen := map[string]bool{}
	add := func(src string) {
		if src != "" && !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	add(meta.HeroImage)
	for _, b := range blocks {
		if b.Type == content.BlockImage {
			add(b.Src)
		}
	}
	return out
}

// Importer runs one file at a time through detection, parsing and
// normalization.
type Importer struct {
	resolver prompt.Resolver
	pdf      PDFLoader
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*Importer)

func WithPDFLoader(l PDFLoader) Option {
	return func(im *Importer) { im.pdf = l }
}

func WithLogger(l *slog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

func NewImporter(resolver prompt.Resolver, opts ...Option) *Importer {
	im := &Importer{
		resolver: resolver,
		pdf:      DefaultPDFLoader,
		log:      logger.Component("ingest"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import produces a draft from one file. Any parser failure aborts the file;
// no partial draft is returned.
func (im *Importer) Import(ctx context.Context, name string, data []byte) (content.Draft, error) {
	start := im.now()
	format := Detect(data, name)
	log := im.log.With("file", name, "format", string(format))

	var (
		p   *Parsed
		err error
	)
	switch format {
	case content.SourceMarkdown:
		p, err = ParseMarkdown(name, data)
	case content.SourceJSON:
		p, err = ParseJSON(ctx, name, data, im.resolver)
	case content.SourcePDF:
		p, err = ParsePDF(ctx, name, data, im.pdf, im.resolver)
	default:
		err = fmt.Errorf("%w: %s", domainerr.ErrUnsupported, format)
	}
	metrics.RecordImport(string(format), err, im.now().Sub(start).Seconds())
	if err != nil {
		log.Error("import failed", "kind", domainerr.Kind(err), "err", err)
		return content.Draft{}, &domainerr.FileError{File: name, Err: err}
	}

	d := p.Draft(im.now())
	for _, w := range d.Warnings {
		log.Warn(w, "slug", d.Meta.Slug)
	}
	log.Info("imported", "slug", d.Meta.Slug, "blocks", len(d.Blocks))
	return d, nil
}

// BatchResult holds the drafts that imported and one error per file that
// did not, in input order.
type BatchResult struct {
	Drafts   []content.Draft
	Failures []*domainerr.FileError
}

func (r BatchResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// ImportBatch imports files strictly one after another. A failing file is
// recorded and the batch moves on; a cancelled context marks every file not
// yet started as cancelled.
func (im *Importer) ImportBatch(ctx context.Context, files []SourceFile) BatchResult {
	var res BatchResult
	for _, f := range files {
		if f.Err != nil {
			res.Failures = append(res.Failures, asFileError(f.Path, f.Err))
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Failures = append(res.Failures, &domainerr.FileError{File: f.Path, Err: prompt.Cancelled(err.Error())})
			continue
		}
		d, err := im.Import(ctx, f.Path, f.Data)
		if err != nil {
			res.Failures = append(res.Failures, asFileError(f.Path, err))
			continue
		}
		res.Drafts = append(res.Drafts, d)
	}
	return res
}

func asFileError(path string, err error) *domainerr.FileError {
	var fe *domainerr.FileError
	if errors.As(err, &fe) {
		return fe
	}
	return &domainerr.FileError{File: path, Err: err}
}
