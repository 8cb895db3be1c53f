package render

import (
	"strconv"
	"strings"

	"inkpress/internal/domain/content"
)

// Markdown serializes blocks back to Markdown, blocks separated by a blank
// line. The output parses back into the same block sequence.
func Markdown(blocks []content.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if md := BlockMarkdown(b); md != "" {
			parts = append(parts, md)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func BlockMarkdown(b content.Block) string {
	switch b.Type {
	case content.BlockHeading:
		if b.Text == "" {
			return ""
		}
		return strings.Repeat("#", content.ClampLevel(b.Level)) + " " + oneLine(b.Text)

	case content.BlockList:
		lines := make([]string, 0, len(b.Items))
		for i, item := range b.Items {
			marker := "-"
			if b.Style == content.ListOrdered {
				marker = strconv.Itoa(i+1) + "."
			}
			lines = append(lines, marker+" "+oneLine(item))
		}
		return strings.Join(lines, "\n")

	case content.BlockQuote:
		text := b.Text
		if b.Cite != "" {
			if text != "" {
				text += "\n\n"
			}
			text += "— " + b.Cite
		}
		return quoteLines(escapeLines(text))

	case content.BlockCode:
		fence := "```"
		for strings.Contains(b.Code, fence) {
			fence += "`"
		}
		return fence + strings.TrimSpace(b.Language) + "\n" + b.Code + "\n" + fence

	case content.BlockImage:
		if b.Src == "" {
			return ""
		}
		md := "![" + escapeBrackets(b.Alt) + "](" + b.Src
		if b.Caption != "" {
			md += ` "` + strings.ReplaceAll(oneLine(b.Caption), `"`, `\"`) + `"`
		}
		return md + ")"

	case content.BlockEmbed:
		if h := strings.TrimSpace(b.HTML); h != "" {
			return h
		}
		if b.URL != "" {
			return "<" + b.URL + ">"
		}
		return ""

	case content.BlockNote:
		return quoteLines("[!NOTE]\n" + escapeLines(b.Text))

	default:
		text := b.Text
		if text == "" {
			text = b.PlainText()
		}
		return escapeLines(text)
	}
}

func quoteLines(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

// escapeLines keeps every line of block text from opening a new block.
func escapeLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = content.EscapeBlockStart(l)
	}
	return strings.Join(lines, "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func escapeBrackets(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(oneLine(s))
}
