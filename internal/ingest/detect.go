package ingest

import (
	"bytes"
	"path/filepath"
	"strings"

	"inkpress/internal/domain/content"
)

var (
	pdfMagic = []byte("%PDF")
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// Detect classifies raw input. Content wins over the file name; the extension
// only decides when the bytes carry no recognizable signal.
func Detect(data []byte, name string) content.SourceType {
	if bytes.HasPrefix(data, pdfMagic) {
		return content.SourcePDF
	}

	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	if len(trimmed) > 0 {
		switch trimmed[0] {
		case '{', '[':
			return content.SourceJSON
		case '#':
			return content.SourceMarkdown
		}
		if bytes.HasPrefix(trimmed, []byte("---")) || bytes.HasPrefix(trimmed, []byte("+++")) {
			return content.SourceMarkdown
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return content.SourcePDF
	case ".json":
		return content.SourceJSON
	}
	return content.SourceMarkdown
}

func supportedExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".txt", ".json", ".pdf":
		return true
	}
	return false
}
