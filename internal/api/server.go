package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pbaille/dreamlog/internal/cluster"
	"github.com/pbaille/dreamlog/internal/domain"
	"github.com/pbaille/dreamlog/internal/journal"
	"github.com/pbaille/dreamlog/internal/trend"
)

// Options tunes the analysis endpoints
type Options struct {
	Clusters    int
	ProfileDays int
	HeatmapDays int
}

// Server handles HTTP requests for the dream journal API
type Server struct {
	journal *journal.Journal
	logger  *zap.Logger
	addr    string
	opts    Options
}

// New creates a new API server
func New(j *journal.Journal, addr string, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Clusters <= 0 {
		opts.Clusters = 4
	}
	return &Server{journal: j, logger: logger, addr: addr, opts: opts}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Route("/dreams", func(r chi.Router) {
		r.Get("/", s.listDreams)
		r.Post("/", s.addDream)
		r.Delete("/", s.clearDreams)
		r.Get("/{id}", s.getDream)
		r.Put("/{id}", s.editDream)
		r.Delete("/{id}", s.deleteDream)
		r.Get("/{id}/similar", s.similarDreams)
	})

	r.Get("/search", s.searchDreams)
	r.Get("/trends", s.trends)
	r.Get("/clusters", s.clusters)

	return r
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", s.addr))
	return srv.ListenAndServe()
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// DreamRequest is the request body for adding or editing a dream
type DreamRequest struct {
	Text string `json:"text"`
}

// AddDreamResponse is the response for adding a dream
type AddDreamResponse struct {
	Entry          domain.Entry     `json:"entry"`
	Analysis       journal.Analysis `json:"analysis"`
	Duplicate      bool             `json:"duplicate"`
	Alert          trend.Alert      `json:"alert"`
	Interpretation string           `json:"interpretation"`
}

func (s *Server) addDream(w http.ResponseWriter, r *http.Request) {
	var req DreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.journal.Record(req.Text)
	if err != nil {
		s.fail(w, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, AddDreamResponse{
		Entry:          res.Entry,
		Analysis:       res.Analysis,
		Duplicate:      res.Duplicate,
		Alert:          res.Alert,
		Interpretation: journal.Interpret(res.Analysis),
	})
}

func (s *Server) listDreams(w http.ResponseWriter, r *http.Request) {
	entries, err := s.journal.Entries()
	if err != nil {
		s.fail(w, err)
		return
	}

	if entries == nil {
		entries = []domain.Entry{}
	}
	total := len(entries)
	limit := queryInt(r, "limit", total)
	offset := queryInt(r, "offset", 0)
	if offset > total {
		offset = total
	}
	end := total
	if limit >= 0 && offset+limit < total {
		end = offset + limit
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries[offset:end],
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (s *Server) getDream(w http.ResponseWriter, r *http.Request) {
	entry, err := s.journal.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) editDream(w http.ResponseWriter, r *http.Request) {
	var req DreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := s.journal.Edit(chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) deleteDream(w http.ResponseWriter, r *http.Request) {
	entry, err := s.journal.Delete(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": entry.ID})
}

func (s *Server) clearDreams(w http.ResponseWriter, r *http.Request) {
	if err := s.journal.Clear(); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) similarDreams(w http.ResponseWriter, r *http.Request) {
	ref, similar, err := s.journal.Similar(chi.URLParam(r, "id"), queryInt(r, "n", 5))
	if err != nil {
		s.fail(w, err)
		return
	}
	if similar == nil {
		similar = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entry":   ref,
		"similar": similar,
	})
}

func (s *Server) searchDreams(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	entries, err := s.journal.Entries()
	if err != nil {
		s.fail(w, err)
		return
	}

	found := journal.Search(entries, query)
	if found == nil {
		found = []domain.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": found,
		"query":   query,
	})
}

func (s *Server) trends(w http.ResponseWriter, r *http.Request) {
	report, err := s.journal.Trends(journal.ReportOptions{
		ProfileDays: queryInt(r, "days", s.opts.ProfileDays),
		HeatmapDays: s.opts.HeatmapDays,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ClusteredDream pairs an entry id with its cluster for one run
type ClusteredDream struct {
	ID      string `json:"id"`
	Cluster int    `json:"cluster"`
	Text    string `json:"dream"`
}

func (s *Server) clusters(w http.ResponseWriter, r *http.Request) {
	k := queryInt(r, "k", s.opts.Clusters)
	if k < 1 || k > 20 {
		writeError(w, http.StatusBadRequest, "k must be between 1 and 20")
		return
	}

	entries, res, err := s.journal.Clusters(k)
	if err != nil {
		s.fail(w, err)
		return
	}

	dreams := make([]ClusteredDream, len(entries))
	for i, e := range entries {
		dreams[i] = ClusteredDream{ID: e.ID, Cluster: e.ClusterID, Text: e.Text}
	}
	summaries := res.Clusters
	if summaries == nil {
		summaries = []cluster.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"k":        k,
		"dreams":   dreams,
		"clusters": summaries,
	})
}

// fail maps journal errors onto status codes
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, journal.ErrAmbiguousID):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
