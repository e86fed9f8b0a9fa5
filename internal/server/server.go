// Package server exposes page audits and run history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/page-audit/internal/audit"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/store"
)

// maxRequestBytes bounds POST /audits bodies, which may carry inline HTML.
const maxRequestBytes = 4 << 20

// Auditor runs one audit. *audit.Auditor implements it.
type Auditor interface {
	Run(ctx context.Context, target model.AuditTarget) (*audit.Outcome, error)
}

// Server routes API requests to the auditor and the run store.
type Server struct {
	auditor Auditor
	store   store.Store
	router  chi.Router
}

// New builds a Server. allowedOrigins configures CORS; empty allows any.
func New(a Auditor, st store.Store, allowedOrigins []string) *Server {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s := &Server{auditor: a, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/audits", func(r chi.Router) {
		r.Post("/", s.handleCreateAudit)
		r.Get("/", s.handleListAudits)
		r.Get("/{id}", s.handleGetAudit)
	})

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

type auditRequest struct {
	URL    string            `json:"url"`
	HTML   string            `json:"html"`
	Inputs model.AuditInputs `json:"inputs"`
}

type auditResponse struct {
	RunID  string        `json:"run_id,omitempty"`
	Report *model.Report `json:"report"`
}

type listResponse struct {
	Runs   []model.Run `json:"runs"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" && req.HTML == "" {
		writeError(w, http.StatusBadRequest, "url or html is required")
		return
	}

	if req.HTML == "" && !isWebURL(req.URL) {
		writeError(w, http.StatusBadRequest, "url must be an absolute http or https URL")
		return
	}

	out, err := s.auditor.Run(r.Context(), model.AuditTarget{URL: req.URL, HTML: req.HTML, Inputs: req.Inputs})
	if err != nil {
		var loadErr *audit.LoadError
		switch {
		case errors.Is(err, audit.ErrNoSource):
			writeError(w, http.StatusBadRequest, "url or html is required")
		case errors.As(err, &loadErr):
			zap.L().Warn("server: page load failed", zap.String("url", req.URL), zap.Error(err))
			writeError(w, http.StatusBadGateway, "failed to load page")
		default:
			zap.L().Error("server: audit failed", zap.String("url", req.URL), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "audit failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, auditResponse{RunID: out.RunID, Report: out.Report})
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), store.DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	filter := store.RunFilter{
		Status: model.RunStatus(q.Get("status")),
		URL:    q.Get("url"),
		Limit:  limit,
		Offset: offset,
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs failed")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{Runs: runs, Limit: limit, Offset: offset})
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		zap.L().Error("server: get run failed", zap.String("run_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// isWebURL reports whether raw is an absolute http or https URL with a host.
func isWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}

// queryInt parses a non-negative integer query value, returning def when
// the value is absent.
func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
