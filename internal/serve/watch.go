package serve

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"inkpress/internal/ingest"
)

func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		dir := s.cfg.Import.InboxDir
		if dir == "" {
			return
		}
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return
		}
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		if err = w.Add(dir); err != nil {
			w.Close()
			return
		}
		s.watcher = w
		go s.watchLoop(ctx)
	})
	return err
}

// watchLoop collects changed inbox files and hands them to the import worker
// once the directory has been quiet for the debounce interval.
func (s *Server) watchLoop(ctx context.Context) {
	s.log.Info("watching inbox", "dir", s.cfg.Import.InboxDir)
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || skipInboxPath(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			debounce.Reset(s.debounce)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "err", err)
		case <-debounce.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			s.enqueue(paths)
		}
	}
}

// skipInboxPath ignores editor swap files, hidden files and formats the
// importer does not read.
func skipInboxPath(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".md", ".markdown", ".txt", ".json", ".pdf":
		return false
	}
	return true
}

func (s *Server) enqueue(paths []string) {
	if len(paths) == 0 {
		return
	}
	select {
	case s.queue <- paths:
	default:
		s.log.Warn("import queue full; dropping change", "files", len(paths))
	}
}

// importWorker is the only goroutine that imports, so files are processed
// one at a time in arrival order.
func (s *Server) importWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case paths := <-s.queue:
			s.importPaths(ctx, paths)
		}
	}
}

func (s *Server) importPaths(ctx context.Context, paths []string) (stored int) {
	files := ingest.ReadFiles(paths, s.cfg.Import.MaxFileSize)
	res := s.importer.ImportBatch(ctx, files)

	for _, d := range res.Drafts {
		if err := s.store.Put(d); err != nil {
			s.log.Error("store draft", "slug", d.Meta.Slug, "err", err)
			continue
		}
		stored++
	}
	for _, f := range res.Failures {
		s.log.Warn("inbox import failed", "file", f.File, "err", f.Err)
	}
	if stored > 0 {
		s.broadcastSSE("reload")
	}
	return stored
}
