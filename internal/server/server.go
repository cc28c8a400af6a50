package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chuhlomin/diff/internal/git"
	"github.com/chuhlomin/diff/internal/logging"
	"github.com/chuhlomin/diff/internal/site"
)

// Repository is what the server reads tags, change lists and contents from.
type Repository interface {
	site.Source
	HasTag(name string) bool
	FileContent(tag, path string) (string, error)
}

// Server serves the same layout the generator writes to disk.
type Server struct {
	router chi.Router
	repo   Repository
	tmpl   atomic.Pointer[template.Template]
	log    logging.Logger
}

func New(repo Repository, tmpl *template.Template, log logging.Logger) *Server {
	if log == nil {
		log = logging.Nop()
	}
	s := &Server{
		router: chi.NewRouter(),
		repo:   repo,
		log:    log,
	}
	s.tmpl.Store(tmpl)
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTemplates swaps the templates used for subsequent requests.
func (s *Server) SetTemplates(tmpl *template.Template) {
	s.tmpl.Store(tmpl)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.StripSlashes)

	s.router.Get("/", s.handlerIndex)
	s.router.Get("/index.html", s.handlerIndex)
	s.router.Get("/files/{from}/{file}", s.handlerFiles)
	s.router.Get("/content/{tag}/*", s.handlerContent)
	s.router.Get("/versions", s.handlerVersions)
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handlerIndex(w http.ResponseWriter, r *http.Request) {
	tags, err := s.repo.Tags()
	if err != nil {
		s.error(w, fmt.Errorf("get tags: %w", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := site.RenderIndex(w, s.tmpl.Load(), tags); err != nil {
		s.error(w, err, http.StatusInternalServerError)
	}
}

func (s *Server) handlerFiles(w http.ResponseWriter, r *http.Request) {
	tag1 := urlParam(r, "from")
	file := urlParam(r, "file")
	tag2, ok := strings.CutSuffix(file, ".html")
	if !ok {
		http.NotFound(w, r)
		return
	}

	for _, tag := range []string{tag1, tag2} {
		if !s.repo.HasTag(tag) {
			http.Error(w, fmt.Sprintf("tag %s not found", tag), http.StatusNotFound)
			return
		}
	}

	changes, err := s.repo.Changes(r.Context(), tag1, tag2)
	if err != nil {
		s.error(w, fmt.Errorf("changes %s..%s: %w", tag1, tag2, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := site.RenderFiles(w, s.tmpl.Load(), tag1, tag2, changes); err != nil {
		s.error(w, err, http.StatusInternalServerError)
	}
}

func (s *Server) handlerContent(w http.ResponseWriter, r *http.Request) {
	tag := urlParam(r, "tag")
	path := urlParam(r, "*")

	content, err := s.content(tag, path)
	if err != nil {
		if errors.Is(err, git.ErrNotFound) || errors.Is(err, git.ErrTagNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		s.error(w, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(content))
}

func (s *Server) handlerVersions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag1 := strings.Trim(q.Get("tag1"), "\"")
	tag2 := strings.Trim(q.Get("tag2"), "\"")
	file := strings.Trim(q.Get("file"), "\"")

	content1, err1 := s.content(tag1, file)
	content2, err2 := s.content(tag2, file)
	for _, err := range []error{err1, err2} {
		if err != nil && !errors.Is(err, git.ErrNotFound) && !errors.Is(err, git.ErrTagNotFound) {
			s.error(w, err, http.StatusInternalServerError)
			return
		}
	}
	if err1 != nil && err2 != nil {
		http.Error(w, fmt.Sprintf("file %s not found in tags %s and %s", file, tag1, tag2), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Content1 string `json:"content1"`
		Content2 string `json:"content2"`
	}{
		Content1: content1,
		Content2: content2,
	}); err != nil {
		s.log.Error("encode versions", "error", err)
	}
}

func (s *Server) content(tag, path string) (string, error) {
	if !s.repo.HasTag(tag) {
		return "", fmt.Errorf("%w: %s", git.ErrTagNotFound, tag)
	}
	return s.repo.FileContent(tag, path)
}

func (s *Server) error(w http.ResponseWriter, err error, status int) {
	s.log.Error("request failed", "error", err)
	http.Error(w, err.Error(), status)
}

// urlParam returns the decoded route parameter. chi matches on RawPath
// when the request path needed escaping.
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// ListenAndServe runs the server on addr until ctx is done.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
