package content

import "strings"

// StartsBlock reports whether line, placed at the start of a Markdown
// paragraph line, would open some other block: a heading, quote, list item,
// thematic break, setext underline or code fence.
func StartsBlock(line string) bool {
	line = strings.TrimLeft(line, " \t")
	if line == "" {
		return false
	}
	switch c := line[0]; {
	case c == '#':
		n := len(line) - len(strings.TrimLeft(line, "#"))
		return n <= 6 && markerEnd(line[n:])
	case c == '>':
		return true
	case c == '-' || c == '+' || c == '*':
		if markerEnd(line[1:]) {
			return true
		}
		return ruleLine(line)
	case c == '_' || c == '=':
		return ruleLine(line)
	case strings.HasPrefix(line, "```"), strings.HasPrefix(line, "~~~"):
		return true
	case c >= '0' && c <= '9':
		n := leadingDigits(line)
		return n <= 9 && n < len(line) && (line[n] == '.' || line[n] == ')') && markerEnd(line[n+1:])
	}
	return false
}

// EscapeBlockStart backslash-escapes the marker of a line that would
// otherwise open a block, so it stays paragraph text.
func EscapeBlockStart(line string) string {
	if !StartsBlock(line) {
		return line
	}
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]
	if n := leadingDigits(body); n > 0 {
		return indent + body[:n] + `\` + body[n:]
	}
	return indent + `\` + body
}

// UnescapeBlockStart reverses EscapeBlockStart. Escapes that were not
// guarding a block marker are kept.
func UnescapeBlockStart(line string) string {
	body := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(body)]
	var plain string
	if n := leadingDigits(body); n > 0 && strings.HasPrefix(body[n:], `\`) {
		plain = body[:n] + body[n+1:]
	} else if strings.HasPrefix(body, `\`) {
		plain = body[1:]
	} else {
		return line
	}
	if !StartsBlock(plain) {
		return line
	}
	return indent + plain
}

func markerEnd(rest string) bool {
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

// ruleLine matches lines made of one repeated marker character and spaces.
func ruleLine(line string) bool {
	c := line[0]
	for i := 0; i < len(line); i++ {
		if line[i] != c && line[i] != ' ' && line[i] != '\t' {
			return false
		}
	}
	return true
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}
