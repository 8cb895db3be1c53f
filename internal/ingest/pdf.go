package ingest

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"inkpress/internal/domain/content"
	domainerr "inkpress/internal/domain/errors"
	"inkpress/internal/prompt"
)

// PDFLoader pulls linear text out of a PDF document.
type PDFLoader interface {
	ExtractText(ctx context.Context, data []byte) (text string, pages int, err error)
}

type PDFLoaderFunc func(ctx context.Context, data []byte) (string, int, error)

func (f PDFLoaderFunc) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	return f(ctx, data)
}

// DefaultPDFLoader extracts text with github.com/ledongthuc/pdf.
var DefaultPDFLoader PDFLoader = PDFLoaderFunc(ExtractPDFText)

// ExtractPDFText reads every page in order. The trimmed text runs of a page
// are joined by single spaces and pages by a blank line.
func ExtractPDFText(ctx context.Context, data []byte) (text string, pages int, err error) {
	// The reader panics on some broken files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: unreadable PDF: %v", domainerr.ErrMalformed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("%w: unreadable PDF: %v", domainerr.ErrMalformed, err)
	}

	pages = r.NumPage()
	out := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", pages, prompt.Cancelled(err.Error())
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			return "", pages, fmt.Errorf("%w: page %d: %v", domainerr.ErrMalformed, i, err)
		}
		if t := pageText(rows); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, "\n\n"), pages, nil
}

// pageText flattens the rows of one page into a single line. Row breaks
// carry no meaning; structure comes from the reviewed text.
func pageText(rows pdf.Rows) string {
	var runs []string
	for _, row := range rows {
		for _, run := range row.Content {
			if s := strings.TrimSpace(run.S); s != "" {
				runs = append(runs, s)
			}
		}
	}
	return strings.Join(runs, " ")
}

// ParsePDF extracts text, hands it to the resolver for review and segments
// what comes back. Review is not optional: the extracted text has no reliable
// structure until a person has looked at it.
func ParsePDF(ctx context.Context, name string, data []byte, loader PDFLoader, resolver prompt.Resolver) (*Parsed, error) {
	if loader == nil {
		loader = DefaultPDFLoader
	}
	raw, pages, err := loader.ExtractText(ctx, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: no extractable text (scanned or image-only PDF?)", domainerr.ErrMalformed)
	}

	if resolver == nil {
		return nil, prompt.Cancelled("PDF text needs review and no resolver is available")
	}
	reviewed, err := resolver.ReviewText(ctx, prompt.ReviewRequest{
		FileName:  filepath.Base(name),
		Text:      raw,
		PageCount: pages,
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reviewed) == "" {
		return nil, fmt.Errorf("%w: reviewed text is empty", domainerr.ErrMalformed)
	}

	blocks := SegmentText(reviewed)
	p := &Parsed{
		Fields: map[string]any{},
		Blocks: blocks,
		Source: content.Source{
			Type:      content.SourcePDF,
			FileName:  filepath.Base(name),
			PageCount: pages,
			Reviewed:  true,
		},
	}

	for _, b := range blocks {
		if b.Type == content.BlockHeading {
			p.Fields[FieldTitle] = b.Text
			break
		}
	}
	if p.Fields[FieldTitle] == nil && len(blocks) > 0 {
		if s := FirstSentence(blocks[0].PlainText()); s != "" {
			p.Fields[FieldTitle] = s
		}
	}
	return p, nil
}
