// Package httpapi serves the read-only status API used in daemon mode.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/pingwatch/internal/httpapi/middleware"
	"github.com/hamed0406/pingwatch/internal/repo"
	"github.com/hamed0406/pingwatch/internal/targets"
)

const (
	defaultReportLimit = 10
	maxReportLimit     = 100
)

type Server struct {
	Logger   *zap.Logger
	Targets  *targets.Set
	Reports  repo.ReportStore
	Gatherer prometheus.Gatherer

	APIKeys []string
	RPS     float64
	Burst   int

	// TrustProxy rewrites the client address from X-Real-IP/X-Forwarded-For.
	TrustProxy bool
}

func NewServer(l *zap.Logger, ts *targets.Set, rs repo.ReportStore, g prometheus.Gatherer) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{Logger: l, Targets: ts, Reports: rs, Gatherer: g}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if s.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(s.RPS, s.Burst))
		r.Use(middleware.RequireKey(s.APIKeys))

		r.Get("/targets", s.handleListTargets)
		r.Get("/reports/latest", s.handleLatestReport)
		r.Get("/reports", s.handleListReports)
	})

	return r
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Targets.All())
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Reports.Latest(r.Context())
	if errors.Is(err, repo.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed run yet"})
		return
	}
	if err != nil {
		s.Logger.Warn("latest_report_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report error"})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit := defaultReportLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxReportLimit)
	}

	reps, err := s.Reports.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("list_reports_error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "report error"})
		return
	}
	writeJSON(w, http.StatusOK, reps)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
