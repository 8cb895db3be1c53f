package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"inkpress/internal/domain/content"
)

const (
	headingMaxRunes      = 80
	headingMaxWords      = 12
	headingShortMaxWords = 8
)

// SegmentText splits plain text into paragraphs on blank lines. Inside a
// paragraph, lines that look like headings are pulled out as heading blocks
// and the remaining lines flow together.
func SegmentText(text string) []content.Block {
	var blocks []content.Block
	for _, para := range splitParagraphs(text) {
		var pending []string
		flush := func() {
			if len(pending) > 0 {
				blocks = append(blocks, content.NewParagraph(strings.Join(pending, " ")))
				pending = nil
			}
		}
		for _, line := range strings.Split(para, "\n") {
			line = strings.Join(strings.Fields(line), " ")
			if line == "" {
				continue
			}
			if IsHeadingLine(line) {
				flush()
				level := content.MinHeadingLevel + 1
				if isUpper(line) {
					level = content.MinHeadingLevel
				}
				blocks = append(blocks, content.NewHeading(line, level))
				continue
			}
			pending = append(pending, line)
		}
		flush()
	}
	return blocks
}

// IsHeadingLine reports whether a line of extracted text reads like a
// heading: short, not ending a sentence, and either very short or all caps.
func IsHeadingLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || utf8.RuneCountInString(line) > headingMaxRunes {
		return false
	}
	words := len(strings.Fields(line))
	if words > headingMaxWords {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(line)
	switch last {
	case '.', '!', '?', ',', ';', ':':
		return false
	}
	if !hasLetter(line) {
		return false
	}
	return words <= headingShortMaxWords || isUpper(line)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// isUpper reports whether every letter in s is upper case.
func isUpper(s string) bool {
	letters := 0
	for _, r := range s {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return letters > 0
}
