// Package serve is the local preview server: it lists stored drafts, renders
// them through the export page template, exposes pending import decisions
// and imports files dropped into the inbox directory.
package serve

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkpress/internal/domain/config"
	"inkpress/internal/ingest"
	"inkpress/internal/logger"
	"inkpress/internal/prompt"
	"inkpress/internal/render"
	"inkpress/internal/store"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

var indexTpl = template.Must(template.New("drafts.tmpl").Funcs(template.FuncMap{
	"stamp": func(t time.Time) string { return t.Local().Format("2006-01-02 15:04") },
}).ParseFS(pageFS, "templates/drafts.tmpl"))

const defaultDebounce = 300 * time.Millisecond

type Server struct {
	cfg      config.Config
	store    *store.Store
	tpl      render.Renderer
	broker   *prompt.Broker
	importer *ingest.Importer
	log      *slog.Logger

	debounce time.Duration
	queue    chan []string

	sseMu    sync.Mutex
	sseConns map[chan string]struct{}

	watcher   *fsnotify.Watcher
	watchOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithDebounce(d time.Duration) Option {
	return func(s *Server) { s.debounce = d }
}

func New(cfg config.Config, st *store.Store, tpl render.Renderer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		store:    st,
		tpl:      tpl,
		broker:   prompt.NewBroker(16),
		log:      logger.Component("serve"),
		debounce: defaultDebounce,
		queue:    make(chan []string, 64),
		sseConns: make(map[chan string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.importer = ingest.NewImporter(s.broker, ingest.WithLogger(s.log))
	return s
}

func (s *Server) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /drafts", s.handleDrafts)
	mux.HandleFunc("GET /drafts/{slug}", s.handlePreview)
	mux.HandleFunc("GET /decisions", s.handleDecisions)
	mux.HandleFunc("POST /decisions/{id}", s.handleAnswer)
	mux.HandleFunc("GET /dev/events", s.handleSSE)
	mux.Handle("GET /metrics", promhttp.Handler())

	if s.cfg.Export.ThemeDir != "" {
		staticDir := filepath.Join(s.cfg.Export.ThemeDir, s.cfg.Export.ThemeName, "static")
		mux.Handle("GET /assets/", http.FileServer(http.Dir(staticDir)))
	}
	return mux
}

// ListenAndServe watches the inbox, runs the import worker and serves until
// ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := s.startWatch(ctx); err != nil {
		return err
	}
	go s.importWorker(ctx)
	go s.relayDecisions(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("listening", "addr", addr, "inbox", s.cfg.Import.InboxDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type indexPage struct {
	Site      config.SiteConfig
	Drafts    []store.Summary
	Decisions []prompt.Decision
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.store.List(store.ListOptions{})
	if err != nil {
		s.log.Error("list drafts", "err", err)
		http.Error(w, "list drafts error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTpl.Execute(w, indexPage{
		Site:      s.cfg.Site,
		Drafts:    drafts,
		Decisions: s.broker.Pending(),
	})
	if err != nil {
		s.log.Error("render index", "err", err)
	}
}

func (s *Server) handleDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := s.store.List(store.ListOptions{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.PathValue("slug"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("load draft", "err", err)
		http.Error(w, "load draft error", http.StatusInternalServerError)
		return
	}

	page := render.NewArticlePage(s.cfg.Site, d)
	page.Preview = true
	htmlBytes, err := s.tpl.RenderArticle(r.Context(), page)
	if err != nil {
		s.log.Error("render preview", "slug", d.Meta.Slug, "err", err)
		http.Error(w, "render preview error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, htmlBytes)
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.broker.Pending())
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var ans prompt.Answer
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<20))
	if err := dec.Decode(&ans); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode answer: %w", err))
		return
	}
	if err := s.broker.Answer(r.PathValue("id"), ans); err != nil {
		if errors.Is(err, prompt.ErrUnknownDecision) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeHTML(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
