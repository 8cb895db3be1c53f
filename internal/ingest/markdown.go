package ingest

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"inkpress/internal/domain/content"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Strikethrough,
		extension.Table,
	),
)

// ParseMarkdown reads an optionally front-mattered Markdown document.
func ParseMarkdown(name string, data []byte) (*Parsed, error) {
	fm, body, err := ParseFrontMatter(data)
	if err != nil {
		return nil, err
	}

	known, extra := splitKnown(fm.Fields)
	if v, ok := known[FieldBody]; ok {
		if extra == nil {
			extra = map[string]any{}
		}
		extra[FieldBody] = v
		delete(known, FieldBody)
	}

	p := &Parsed{
		Fields: known,
		Extra:  extra,
		Blocks: MarkdownBlocks(body),
		Source: content.Source{
			Type:        content.SourceMarkdown,
			FileName:    filepath.Base(name),
			FrontMatter: fm.Format,
		},
	}
	if fm.Format == FrontMatterLines {
		p.Warnings = append(p.Warnings, "front matter is not valid YAML; read it line by line")
	}

	if stringValue(p.Fields[FieldTitle]) == "" {
		for _, b := range p.Blocks {
			if b.Type == content.BlockHeading {
				p.Fields[FieldTitle] = markdownPlain(b.Text)
				break
			}
		}
	}
	return p, nil
}

// MarkdownBlocks converts a Markdown body into blocks. Block text keeps its
// inline Markdown so renderers can format it.
func MarkdownBlocks(src []byte) []content.Block {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var blocks []content.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, nodeBlocks(n, src)...)
	}
	return blocks
}

func nodeBlocks(n ast.Node, src []byte) []content.Block {
	switch node := n.(type) {
	case *ast.Heading:
		return []content.Block{content.NewHeading(rawLines(node, src, " "), node.Level)}

	case *ast.Paragraph, *ast.TextBlock:
		if b, ok := soloInline(n, src); ok {
			return []content.Block{b}
		}
		if t := paragraphLines(n, src, " "); t != "" {
			return []content.Block{content.NewParagraph(t)}
		}

	case *ast.Blockquote:
		return []content.Block{quoteBlock(node, src)}

	case *ast.List:
		style := content.ListUnordered
		if node.IsOrdered() {
			style = content.ListOrdered
		}
		return []content.Block{content.NewList(style, listItems(node, src))}

	case *ast.FencedCodeBlock:
		return []content.Block{content.NewCode(codeText(node, src), string(node.Language(src)))}

	case *ast.CodeBlock:
		return []content.Block{content.NewCode(codeText(node, src), "")}

	case *ast.HTMLBlock:
		var b bytes.Buffer
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		if node.HasClosure() {
			b.Write(node.ClosureLine.Value(src))
		}
		if h := strings.TrimSpace(b.String()); h != "" {
			return []content.Block{content.NewEmbed("", h)}
		}

	case *ast.ThematicBreak:

	default:
		if t := strings.TrimSpace(markdownNodePlain(n, src)); t != "" {
			return []content.Block{content.NewParagraph(t)}
		}
	}
	return nil
}

// soloInline recognizes paragraphs holding a single image or a bare link.
func soloInline(n ast.Node, src []byte) (content.Block, bool) {
	var only ast.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok && len(bytes.TrimSpace(t.Segment.Value(src))) == 0 {
			continue
		}
		if only != nil {
			return content.Block{}, false
		}
		only = c
	}

	switch c := only.(type) {
	case *ast.Image:
		return content.NewImage(string(c.Destination), markdownNodePlain(c, src), string(c.Title)), true
	case *ast.AutoLink:
		if c.AutoLinkType == ast.AutoLinkURL {
			return content.NewEmbed(string(c.URL(src)), ""), true
		}
	case *ast.Link:
		if dest := string(c.Destination); dest != "" && markdownNodePlain(c, src) == dest {
			return content.NewEmbed(dest, ""), true
		}
	}
	return content.Block{}, false
}

var citePrefixes = []string{"— ", "– ", "-- ", "―"}

func quoteBlock(q *ast.Blockquote, src []byte) content.Block {
	var paras []string
	for c := q.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Lines() != nil && c.Lines().Len() > 0 {
			paras = append(paras, paragraphLines(c, src, "\n"))
		} else if t := markdownNodePlain(c, src); t != "" {
			paras = append(paras, t)
		}
	}

	if len(paras) > 0 && isNoteMarker(firstLine(paras[0])) {
		paras[0] = strings.TrimSpace(strings.TrimPrefix(paras[0], firstLine(paras[0])))
		if paras[0] == "" {
			paras = paras[1:]
		}
		return content.NewNote(joinParagraphs(paras))
	}

	var cite string
	if len(paras) > 0 {
		last := paras[len(paras)-1]
		lines := strings.Split(last, "\n")
		if c, ok := citeLine(lines[len(lines)-1]); ok && (len(lines) > 1 || len(paras) > 1) {
			cite = c
			rest := strings.TrimSpace(strings.Join(lines[:len(lines)-1], "\n"))
			if rest == "" {
				paras = paras[:len(paras)-1]
			} else {
				paras[len(paras)-1] = rest
			}
		}
	}
	return content.NewQuote(joinParagraphs(paras), cite)
}

func citeLine(line string) (string, bool) {
	line = strings.TrimSpace(line)
	for _, p := range citePrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimPrefix(line, p)), true
		}
	}
	return "", false
}

func isNoteMarker(line string) bool {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "[!NOTE]", "[!TIP]", "[!INFO]", "[!IMPORTANT]", "[!WARNING]", "[!CAUTION]":
		return true
	}
	return false
}

// joinParagraphs joins quote paragraphs; lines inside one paragraph flow
// together.
func joinParagraphs(paras []string) string {
	out := make([]string, 0, len(paras))
	for _, p := range paras {
		if p = strings.Join(strings.Fields(strings.ReplaceAll(p, "\n", " ")), " "); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func listItems(l *ast.List, src []byte) []string {
	var items []string
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		var parts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if sub, ok := c.(*ast.List); ok {
				items = appendItem(items, parts)
				parts = nil
				items = append(items, listItems(sub, src)...)
				continue
			}
			if t := rawLines(c, src, " "); t != "" {
				parts = append(parts, t)
			}
		}
		items = appendItem(items, parts)
	}
	return items
}

func appendItem(items, parts []string) []string {
	if len(parts) == 0 {
		return items
	}
	return append(items, strings.Join(parts, " "))
}

func codeText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// rawLines returns the source lines of a leaf block, each trimmed.
func rawLines(n ast.Node, src []byte, sep string) string {
	lines := n.Lines()
	if lines == nil {
		return ""
	}
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if s := strings.TrimSpace(string(seg.Value(src))); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}

// paragraphLines is rawLines with escaped block markers restored.
func paragraphLines(n ast.Node, src []byte, sep string) string {
	lines := strings.Split(rawLines(n, src, "\n"), "\n")
	for i, l := range lines {
		lines[i] = content.UnescapeBlockStart(l)
	}
	return strings.Join(lines, sep)
}

// markdownNodePlain collects the visible text below n.
func markdownNodePlain(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.URL(src))
			return ast.WalkSkipChildren, nil
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// markdownPlain renders inline Markdown as plain text.
func markdownPlain(s string) string {
	if s == "" {
		return ""
	}
	src := []byte(s)
	doc := markdown.Parser().Parse(text.NewReader(src))
	var parts []string
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if t := markdownNodePlain(n, src); t != "" {
			parts = append(parts, t)
		}
	}
	return plainText(strings.Join(parts, " "))
}
