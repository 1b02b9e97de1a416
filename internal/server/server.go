// Package server exposes the facility dashboard over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/facility-match/internal/dashboard"
	"github.com/sells-group/facility-match/internal/dataset"
)

// Snapshots is the dataset the server reads from.
type Snapshots interface {
	Snapshot(ctx context.Context) (*dataset.Snapshot, error)
	Refresh(ctx context.Context) (*dataset.Snapshot, error)
}

// Server serves the dashboard API.
type Server struct {
	data        Snapshots
	corsOrigins []string
}

// New creates a Server. An empty corsOrigins allows any origin.
func New(data Snapshots, corsOrigins []string) *Server {
	return &Server{data: data, corsOrigins: corsOrigins}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", s.handleFacilities)
			r.Get("/summary", s.handleSummary)
			r.Get("/options", s.handleOptions)
			r.Get("/map", s.handleMap)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})
		r.Post("/refresh", s.handleRefresh)
	})

	return r
}

// filterFrom reads the state, county and q query parameters.
func filterFrom(r *http.Request) dashboard.Filter {
	q := r.URL.Query()
	return dashboard.Filter{
		State:  q.Get("state"),
		County: q.Get("county"),
		Search: q.Get("q"),
	}
}

// writeJSON encodes v before writing the status, so a value that cannot be
// encoded becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
		buf.Reset()
		buf.WriteString(`{"error":"failed to encode response"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
