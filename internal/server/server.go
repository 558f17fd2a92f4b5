// Package server serves a read-only review UI over recorded novelty runs.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/dissnovelty/internal/database"
	"github.com/TobiSchelling/dissnovelty/internal/dataset"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Server is the HTTP server for reviewing runs.
type Server struct {
	db    *database.DB
	pages map[string]*template.Template
	mux   *chi.Mux
}

// New creates a new Server.
func New(db *database.DB) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"count":    dataset.FormatCount,
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	// Parse base template first
	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// For each page template, clone the base and parse the page into the clone.
	// This gives each page its own {{define "content"}} and {{define "title"}}.
	pageNames := []string{"index.html", "run.html", "year.html", "phrases.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		_, err = clone.ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{db: db, pages: pages, mux: chi.NewRouter()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.Use(middleware.Recoverer)

	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.Get("/", s.handleIndex)
	s.mux.Get("/phrases", s.handlePhrases)
	s.mux.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/", s.handleRun)
		r.Get("/years/{year}", s.handleYear)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.GetAllRuns()
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, "index.html", map[string]any{
		"Runs": runs,
	})
}

// runFromURL resolves {runID}; it writes a 404 and returns nil when the run
// does not exist.
func (s *Server) runFromURL(w http.ResponseWriter, r *http.Request) *database.Run {
	id, err := strconv.ParseInt(chi.URLParam(r, "runID"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil
	}
	run, err := s.db.GetRun(id)
	if err != nil {
		s.serverError(w, err)
		return nil
	}
	if run == nil {
		http.NotFound(w, r)
		return nil
	}
	return run
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	run := s.runFromURL(w, r)
	if run == nil {
		return
	}
	years, err := s.db.GetRunYears(run.ID)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, "run.html", map[string]any{
		"Run":   run,
		"Years": years,
	})
}

func (s *Server) handleYear(w http.ResponseWriter, r *http.Request) {
	run := s.runFromURL(w, r)
	if run == nil {
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	onlyNovel := r.URL.Query().Get("novel") == "1"
	docs, err := s.db.GetRunDocuments(run.ID, year, onlyNovel)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.render(w, "year.html", map[string]any{
		"Run":       run,
		"Year":      year,
		"Documents": docs,
		"OnlyNovel": onlyNovel,
	})
}

func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	var run *database.Run
	var err error
	if v := r.URL.Query().Get("run"); v != "" {
		id, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			http.Error(w, "invalid run", http.StatusBadRequest)
			return
		}
		run, err = s.db.GetRun(id)
	} else {
		run, err = s.db.GetLatestRun()
	}
	if err != nil {
		s.serverError(w, err)
		return
	}

	var hits []database.PhraseOccurrence
	if run != nil && q != "" {
		hits, err = s.db.FindPhrase(run.ID, q, 200)
		if err != nil {
			s.serverError(w, err)
			return
		}
	}
	s.render(w, "phrases.html", map[string]any{
		"Run":   run,
		"Query": q,
		"Hits":  hits,
	})
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		s.serverError(w, fmt.Errorf("rendering %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve runs the HTTP server on the given port until ctx is cancelled.
func Serve(ctx context.Context, db *database.DB, port int) error {
	srv, err := New(db)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", "http://"+httpSrv.Addr).Msg("server listening")
	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
