package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviemate/apiservice/internal/discovery"
	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/common"
)

type DiscoveryService interface {
	Trending(ctx context.Context) (domain.MovieList, error)
	Search(ctx context.Context, request domain.SearchRequest) (domain.SearchPage, error)
	Details(ctx context.Context, id string) (domain.MovieDetail, error)
	Filter(ctx context.Context, request domain.FilterRequest) (domain.MovieList, error)
	Suggest(ctx context.Context, request domain.SuggestRequest) (domain.Suggestion, error)
}

type Server struct {
	discovery   DiscoveryService
	logger      *slog.Logger
	staticDir   string
	posterHosts map[string]struct{}
	rateRPS     float64
	rateBurst   int
}

const (
	maxQueryLength   = 500
	maxPrefsLength   = 2000
	defaultRateRPS   = 50
	defaultRateBurst = 100
	geminiKeyHint    = "https://ai.google.dev/"
)

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStaticDir sets the directory holding the single-page client.
func WithStaticDir(dir string) ServerOption {
	return func(s *Server) {
		s.staticDir = strings.TrimSpace(dir)
	}
}

// WithPosterHosts limits which hosts the poster proxy may fetch from.
func WithPosterHosts(hosts []string) ServerOption {
	return func(s *Server) {
		s.posterHosts = make(map[string]struct{}, len(hosts))
		for _, host := range hosts {
			if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
				s.posterHosts[host] = struct{}{}
			}
		}
	}
}

func WithRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		if rps > 0 {
			s.rateRPS = rps
		}
		if burst > 0 {
			s.rateBurst = burst
		}
	}
}

func NewServer(discoveryService DiscoveryService, options ...ServerOption) *Server {
	server := &Server{
		discovery: discoveryService,
		logger:    slog.Default(),
		staticDir: "public",
		rateRPS:   defaultRateRPS,
		rateBurst: defaultRateBurst,
	}
	WithPosterHosts(DefaultPosterHosts)(server)
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/trending", s.handleTrending)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/movie", s.handleMovie)
	mux.HandleFunc("/api/filter", s.handleFilter)
	mux.HandleFunc("/api/suggest", s.handleSuggest)
	mux.HandleFunc("/api/poster", s.handlePosterProxy)
	mux.HandleFunc("/", s.handleStatic)
	traced := otelhttp.NewHandler(requestIDMiddleware(loggingMiddleware(s.logger, corsMiddleware(mux))), "moviemate",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/api/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(s.rateRPS, s.rateBurst, metricsMiddleware(traced)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/health" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "/api/trending", http.MethodGet) {
		return
	}
	list, err := s.discovery.Trending(r.Context())
	if err != nil {
		s.writeServiceError(w, r, "Failed to fetch trending movies", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "/api/search", http.MethodGet) {
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if utf8.RuneCountInString(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long (max 500 characters)", "")
		return
	}
	page, err := parsePositiveInt(r, "page", 1)
	if err != nil || page > discovery.MaxSearchPage {
		writeError(w, http.StatusBadRequest, "invalid page", "")
		return
	}

	result, err := s.discovery.Search(r.Context(), domain.SearchRequest{
		Query: query,
		Year:  strings.TrimSpace(q.Get("year")),
		Page:  page,
	})
	if err != nil {
		s.writeServiceError(w, r, "Failed to fetch movies", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMovie(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "/api/movie", http.MethodGet) {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, discovery.ErrInvalidID.Error(), "")
		return
	}
	detail, err := s.discovery.Details(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, "Failed to fetch movie details", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "/api/filter", http.MethodPost) {
		return
	}
	var request domain.FilterRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	list, err := s.discovery.Filter(r.Context(), request)
	if err != nil {
		s.writeServiceError(w, r, "Failed to filter movies", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w, r, "/api/suggest", http.MethodPost) {
		return
	}
	var request domain.SuggestRequest
	if err := decodeJSONBody(r, &request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if utf8.RuneCountInString(request.Prefs) > maxPrefsLength {
		writeError(w, http.StatusBadRequest, "prefs too long (max 2000 characters)", "")
		return
	}
	suggestion, err := s.discovery.Suggest(r.Context(), request)
	if err != nil {
		s.writeServiceError(w, r, "Failed to generate suggestion", err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}

// handleStatic serves the client bundle; unknown paths get index.html so
// client-side routes survive a reload.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.staticDir == "" {
		http.NotFound(w, r)
		return
	}
	root, err := filepath.Abs(s.staticDir)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	cleaned := path.Clean("/" + r.URL.Path)
	if cleaned != "/" {
		candidate := filepath.Join(root, filepath.FromSlash(cleaned))
		if info, statErr := os.Stat(candidate); statErr == nil && !info.IsDir() {
			http.ServeFile(w, r, candidate)
			return
		}
	}

	index := filepath.Join(root, "index.html")
	if _, statErr := os.Stat(index); statErr != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

func (s *Server) allow(w http.ResponseWriter, r *http.Request, route, method string) bool {
	if r.URL.Path != route {
		http.NotFound(w, r)
		return false
	}
	if r.Method != method {
		w.Header().Set("Allow", method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if s.discovery == nil {
		writeError(w, http.StatusInternalServerError, "discovery service is not configured", "")
		return false
	}
	return true
}

// writeServiceError maps discovery errors onto the client's error contract.
// Credential errors are passed through verbatim; upstream failures get the
// operation prefix and the raw upstream body as details.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var (
		configErr *discovery.ConfigError
		statusErr *common.StatusError
	)
	switch {
	case errors.As(err, &configErr):
		writeError(w, http.StatusInternalServerError, configErr.Error(), "")
		return
	case errors.Is(err, discovery.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	case errors.Is(err, discovery.ErrInvalidID), errors.Is(err, discovery.ErrInvalidGenre):
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	s.logger.Warn("request failed",
		slog.String("path", r.URL.Path),
		slog.String("requestID", requestIDFrom(r.Context())),
		slog.String("error", err.Error()),
	)
	if errors.As(err, &statusErr) && statusErr.Service == "gemini" {
		writeError(w, http.StatusInternalServerError,
			fmt.Sprintf("Gemini API error: %d. Check your API key at %s", statusErr.StatusCode, geminiKeyHint),
			statusErr.Body,
		)
		return
	}
	writeError(w, http.StatusInternalServerError, operation+": "+err.Error(), "")
}

func decodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

func parsePositiveInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.New("invalid integer")
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes the flat {"error", "details"} body the client reads.
func writeError(w http.ResponseWriter, status int, message, details string) {
	body := map[string]string{"error": message}
	if details != "" {
		body["details"] = details
	}
	writeJSON(w, status, body)
}
