package content

import (
	"strings"

	"github.com/google/uuid"
)

type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockList      BlockType = "list"
	BlockQuote     BlockType = "quote"
	BlockCode      BlockType = "code"
	BlockImage     BlockType = "image"
	BlockEmbed     BlockType = "embed"
	BlockNote      BlockType = "note"
)

type ListStyle string

const (
	ListOrdered   ListStyle = "ordered"
	ListUnordered ListStyle = "unordered"
)

const (
	MinHeadingLevel = 2
	MaxHeadingLevel = 4
)

// Block is one body unit. Type selects which of the remaining fields are
// meaningful; unknown types are treated as paragraphs by renderers.
type Block struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`

	Text  string    `json:"text,omitempty"`
	Level int       `json:"level,omitempty"`
	Style ListStyle `json:"style,omitempty"`
	Items []string  `json:"items,omitempty"`
	Cite  string    `json:"cite,omitempty"`

	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`

	Src     string `json:"src,omitempty"`
	Alt     string `json:"alt,omitempty"`
	Caption string `json:"caption,omitempty"`
	Layout  string `json:"layout,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`

	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
}

// NewBlockID returns a fresh identifier. IDs are random so a deleted block's
// ID is never handed out again.
func NewBlockID() string {
	return "blk_" + uuid.NewString()
}

// ClampLevel forces a heading level into the 2..4 range.
func ClampLevel(level int) int {
	if level < MinHeadingLevel {
		return MinHeadingLevel
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

func NewParagraph(text string) Block {
	return Block{ID: NewBlockID(), Type: BlockParagraph, Text: text}
}

func NewHeading(text string, level int) Block {
	return Block{ID: NewBlockID(), Type: BlockHeading, Text: text, Level: ClampLevel(level)}
}

func NewList(style ListStyle, items []string) Block {
	if style != ListOrdered {
		style = ListUnordered
	}
	return Block{ID: NewBlockID(), Type: BlockList, Style: style, Items: items}
}

func NewQuote(text, cite string) Block {
	return Block{ID: NewBlockID(), Type: BlockQuote, Text: text, Cite: cite}
}

func NewCode(code, language string) Block {
	return Block{ID: NewBlockID(), Type: BlockCode, Code: code, Language: language}
}

func NewImage(src, alt, caption string) Block {
	return Block{ID: NewBlockID(), Type: BlockImage, Src: src, Alt: alt, Caption: caption}
}

func NewEmbed(url, html string) Block {
	return Block{ID: NewBlockID(), Type: BlockEmbed, URL: url, HTML: html}
}

func NewNote(text string) Block {
	return Block{ID: NewBlockID(), Type: BlockNote, Text: text}
}

// PlainText returns the readable text carried by the block, if any.
func (b Block) PlainText() string {
	switch b.Type {
	case BlockList:
		return strings.Join(b.Items, " ")
	case BlockCode:
		return b.Code
	case BlockImage:
		if b.Caption != "" {
			return b.Caption
		}
		return b.Alt
	case BlockEmbed:
		return b.URL
	default:
		return b.Text
	}
}

// CloneBlocks copies the slice and every nested item list.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		if b.Items != nil {
			b.Items = append([]string(nil), b.Items...)
		}
		out[i] = b
	}
	return out
}
