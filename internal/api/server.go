// Package api serves the read-only JSON query layer over the summary
// and raw trip tables. It is a stateless projection: every handler maps
// straight onto one storage query in internal/db.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/trip.report/internal/db"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.healthCheck)
	mux.HandleFunc("/api/boroughs", s.listBoroughs)
	mux.HandleFunc("/api/stats", s.showStats)
	mux.HandleFunc("/api/hourly", s.showHourlyPattern)
	mux.HandleFunc("/api/patterns-daily", s.showDailyPattern)
	mux.HandleFunc("/api/patterns-borough", s.showBoroughPattern)
	mux.HandleFunc("/api/trips", s.listTrips)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// requireGet sets the JSON content type and rejects non-GET methods.
func (s *Server) requireGet(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}
	return true
}

// filterFromQuery pulls the shared start_date/end_date/borough filter
// out of the query string. Empty values mean unfiltered; the borough
// sentinel is handled by the storage layer.
func filterFromQuery(r *http.Request) db.TripFilter {
	q := r.URL.Query()
	return db.TripFilter{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Borough:   q.Get("borough"),
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) listBoroughs(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	boroughs, err := s.db.Boroughs(r.Context())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve boroughs")
		return
	}
	if boroughs == nil {
		boroughs = []string{}
	}
	s.writeJSON(w, boroughs)
}

func (s *Server) showStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	stats, err := s.db.Stats(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}
	s.writeJSON(w, stats)
}

func (s *Server) showHourlyPattern(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	pattern, err := s.db.HourlyPattern(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve hourly pattern")
		return
	}
	if pattern == nil {
		pattern = []db.HourCount{}
	}
	s.writeJSON(w, pattern)
}

func (s *Server) showDailyPattern(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	pattern, err := s.db.DailyPattern(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve daily pattern")
		return
	}
	if pattern == nil {
		pattern = []db.DateCount{}
	}
	s.writeJSON(w, pattern)
}

func (s *Server) showBoroughPattern(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	pattern, err := s.db.BoroughPattern(r.Context(), filterFromQuery(r))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve borough pattern")
		return
	}
	if pattern == nil {
		pattern = []db.BoroughCount{}
	}
	s.writeJSON(w, pattern)
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	if !s.requireGet(w, r) {
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'page' parameter")
			return
		}
		page = parsed
	}

	perPage := 50
	if pp := r.URL.Query().Get("per_page"); pp != "" {
		parsed, err := strconv.Atoi(pp)
		if err != nil || parsed < 1 || parsed > 1000 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'per_page' parameter")
			return
		}
		perPage = parsed
	}

	trips, err := s.db.ListTrips(r.Context(), filterFromQuery(r), page, perPage)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to retrieve trips")
		return
	}
	if trips.Trips == nil {
		trips.Trips = []db.Trip{}
	}
	s.writeJSON(w, trips)
}
