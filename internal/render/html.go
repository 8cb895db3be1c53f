package render

import (
	"fmt"
	"html/template"
	"strings"

	"inkpress/internal/domain/content"
)

const defaultImageAlt = "Article image"

var esc = template.HTMLEscapeString

// HTML renders a block sequence, one fragment per line.
func HTML(blocks []content.Block) template.HTML {
	var b strings.Builder
	for _, block := range blocks {
		if frag := BlockHTML(block); frag != "" {
			b.WriteString(string(frag))
			b.WriteByte('\n')
		}
	}
	return template.HTML(b.String())
}

// BlockHTML renders one block. Block types it does not know are rendered as
// paragraphs of their text.
func BlockHTML(b content.Block) template.HTML {
	switch b.Type {
	case content.BlockHeading:
		if strings.TrimSpace(b.Text) == "" {
			return ""
		}
		level := content.ClampLevel(b.Level)
		return template.HTML(fmt.Sprintf("<h%d>%s</h%d>", level, Inline(b.Text), level))

	case content.BlockList:
		if len(b.Items) == 0 {
			return ""
		}
		tag := "ul"
		if b.Style == content.ListOrdered {
			tag = "ol"
		}
		var s strings.Builder
		s.WriteString("<" + tag + ">")
		for _, item := range b.Items {
			s.WriteString("<li>")
			s.WriteString(string(Inline(item)))
			s.WriteString("</li>")
		}
		s.WriteString("</" + tag + ">")
		return template.HTML(s.String())

	case content.BlockQuote:
		body := paragraphs(b.Text)
		if body == "" && b.Cite == "" {
			return ""
		}
		if b.Cite != "" {
			body += "<cite>" + esc(b.Cite) + "</cite>"
		}
		return template.HTML("<blockquote>" + body + "</blockquote>")

	case content.BlockCode:
		class := ""
		if lang := strings.TrimSpace(b.Language); lang != "" {
			class = ` class="language-` + esc(lang) + `"`
		}
		return template.HTML("<pre><code" + class + ">" + esc(b.Code) + "</code></pre>")

	case content.BlockImage:
		return imageHTML(b)

	case content.BlockEmbed:
		if strings.TrimSpace(b.HTML) != "" {
			// Embed HTML comes from the author's own source file.
			return template.HTML(`<div class="embed">` + b.HTML + `</div>`)
		}
		if u := safeURL(b.URL); u != "" {
			return template.HTML(`<div class="embed embed--link"><a href="` + esc(u) + `" rel="noopener">` + esc(b.URL) + `</a></div>`)
		}
		return ""

	case content.BlockNote:
		body := paragraphs(b.Text)
		if body == "" {
			return ""
		}
		return template.HTML(`<aside class="note">` + body + `</aside>`)

	default:
		text := b.Text
		if text == "" {
			text = b.PlainText()
		}
		if h := Inline(text); h != "" {
			return template.HTML("<p>" + string(h) + "</p>")
		}
		return ""
	}
}

func imageHTML(b content.Block) template.HTML {
	src := safeURL(b.Src)
	if src == "" {
		return ""
	}
	layout := strings.TrimSpace(b.Layout)
	if layout == "" {
		layout = "default"
	}
	alt := b.Alt
	if alt == "" {
		alt = b.Caption
	}
	if alt == "" {
		alt = defaultImageAlt
	}

	var s strings.Builder
	fmt.Fprintf(&s, `<figure class="figure figure--%s">`, esc(layout))
	fmt.Fprintf(&s, `<img src="%s" alt="%s" loading="lazy"`, esc(src), esc(alt))
	if b.Width > 0 {
		fmt.Fprintf(&s, ` width="%d"`, b.Width)
	}
	if b.Height > 0 {
		fmt.Fprintf(&s, ` height="%d"`, b.Height)
	}
	s.WriteString(">")
	if b.Caption != "" {
		s.WriteString("<figcaption>" + string(Inline(b.Caption)) + "</figcaption>")
	}
	s.WriteString("</figure>")
	return template.HTML(s.String())
}

// safeURL drops script URLs. Relative paths and data images pass.
func safeURL(u string) string {
	u = strings.TrimSpace(u)
	lower := strings.ToLower(u)
	switch {
	case u == "":
		return ""
	case strings.HasPrefix(lower, "javascript:"), strings.HasPrefix(lower, "vbscript:"):
		return ""
	case strings.HasPrefix(lower, "data:") && !strings.HasPrefix(lower, "data:image/"):
		return ""
	}
	return u
}
