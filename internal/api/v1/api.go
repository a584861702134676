// Package v1 implements the native REST API.
package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/internal/refresh"
)

// Refresher runs one catalog refresh pass on demand.
type Refresher interface {
	Refresh(ctx context.Context) (refresh.Summary, error)
}

// Server is the v1 API server.
type Server struct {
	library   *library.Store
	refresher Refresher
	version   string
}

// New creates a new v1 API server.
func New(db *sql.DB, version string) *Server {
	return &Server{
		library: library.NewStore(db),
		version: version,
	}
}

// SetRefresher configures the on-demand refresh trigger.
func (s *Server) SetRefresher(r Refresher) {
	s.refresher = r
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Catalog
	mux.HandleFunc("GET /api/v1/catalog", s.listCatalog)
	mux.HandleFunc("GET /api/v1/catalog/search", s.searchCatalog)
	mux.HandleFunc("GET /api/v1/catalog/{id}", s.getCatalogTitle)
	mux.HandleFunc("GET /api/v1/catalog/{id}/episodes", s.listEpisodes)
	mux.HandleFunc("POST /api/v1/catalog/refresh", s.requireRefresher(s.triggerRefresh))

	// Library
	mux.HandleFunc("GET /api/v1/library", s.listLibrary)
	mux.HandleFunc("POST /api/v1/library", s.addLibraryEntry)
	mux.HandleFunc("PATCH /api/v1/library/{id}", s.updateLibraryEntry)
	mux.HandleFunc("DELETE /api/v1/library/{id}", s.deleteLibraryEntry)

	// System
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
}

// requireRefresher wraps a handler and returns 503 if no refresher is configured.
func (s *Server) requireRefresher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.refresher == nil {
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Refresher not configured")
			return
		}
		next(w, r)
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// pathID extracts an integer ID from the URL path.
func pathID(r *http.Request, name string) (int64, error) {
	idStr := r.PathValue(name)
	if idStr == "" {
		return 0, fmt.Errorf("missing path parameter: %s", name)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// queryString extracts an optional string from query string.
func queryString(r *http.Request, name string) *string {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil
	}
	return &val
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Version: s.version})
}
