package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	domainerr "inkpress/internal/domain/errors"
)

// SourceFile is one input read from disk. Err is set when the file could not
// be read; the batch reports it alongside the import failures.
type SourceFile struct {
	Path string
	Data []byte
	Err  error
}

// ReadFiles loads the given paths in order. Directories are walked for
// supported extensions, sorted by path. maxSize <= 0 disables the size check.
func ReadFiles(paths []string, maxSize int64) []SourceFile {
	var out []SourceFile
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			out = append(out, SourceFile{Path: p, Err: err})
			continue
		}
		if !st.IsDir() {
			out = append(out, readFile(p, st.Size(), maxSize))
			continue
		}

		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && len(d.Name()) > 0 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if supportedExt(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			out = append(out, SourceFile{Path: p, Err: err})
			continue
		}
		sort.Strings(found)
		for _, f := range found {
			info, err := os.Stat(f)
			if err != nil {
				out = append(out, SourceFile{Path: f, Err: err})
				continue
			}
			out = append(out, readFile(f, info.Size(), maxSize))
		}
	}
	return out
}

func readFile(path string, size, maxSize int64) SourceFile {
	if maxSize > 0 && size > maxSize {
		return SourceFile{Path: path, Err: fmt.Errorf("%w: file is %d bytes, limit is %d", domainerr.ErrUnsupported, size, maxSize)}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SourceFile{Path: path, Err: err}
	}
	return SourceFile{Path: path, Data: data}
}
