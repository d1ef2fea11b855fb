package discovery

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/gemini"
	"moviemate/apiservice/internal/providers/omdb"
)

// defaultFanoutWidth bounds how many sub-calls one operation runs at once.
// The catalog client applies its own process-wide limit on top of this.
const defaultFanoutWidth = 12

var (
	ErrNotConfigured = errors.New("upstream credential not configured")
	ErrNotFound      = errors.New("movie not found")
	ErrInvalidID     = errors.New("id required")
	ErrInvalidGenre  = errors.New("genre required")
)

// ConfigError reports a missing credential together with where to get one.
type ConfigError struct {
	Key  string
	Hint string
}

func (e *ConfigError) Error() string {
	return e.Key + " not set. Get your free key at " + e.Hint
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured
}

// NotFoundError carries the catalog's own not-found message.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return ErrNotFound.Error()
	}
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

var (
	errCatalogNotConfigured   = &ConfigError{Key: "OMDB_API_KEY", Hint: "https://www.omdbapi.com/apikey.aspx"}
	errGeneratorNotConfigured = &ConfigError{Key: "GEMINI_API_KEY", Hint: "https://ai.google.dev/"}
)

// Catalog is the movie metadata upstream.
type Catalog interface {
	Enabled() bool
	Search(ctx context.Context, query omdb.SearchQuery) (omdb.SearchPage, error)
	ByID(ctx context.Context, id string) (omdb.Title, error)
	ByTitle(ctx context.Context, title, year string, fullPlot bool) (omdb.Title, error)
}

// Generator is the generative-language upstream.
type Generator interface {
	Enabled() bool
	Generate(ctx context.Context, prompt gemini.Prompt) (gemini.Generation, error)
}

type Service struct {
	catalog       Catalog
	generator     Generator
	cache         Cache
	cacheDisabled bool
	logger        *slog.Logger
	shuffle       func([]domain.Movie)
	trendingTerms []string
	fanoutWidth   int
}

type ServiceOption func(*Service)

func WithCache(cache Cache) ServiceOption {
	return func(s *Service) {
		if cache != nil {
			s.cache = cache
		}
	}
}

func WithCacheDisabled(disabled bool) ServiceOption {
	return func(s *Service) {
		s.cacheDisabled = disabled
	}
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithShuffle replaces the trending shuffle, mainly so tests get a stable order.
func WithShuffle(shuffle func([]domain.Movie)) ServiceOption {
	return func(s *Service) {
		if shuffle != nil {
			s.shuffle = shuffle
		}
	}
}

func WithTrendingTerms(terms []string) ServiceOption {
	return func(s *Service) {
		if len(terms) > 0 {
			s.trendingTerms = append([]string(nil), terms...)
		}
	}
}

func WithFanoutWidth(width int) ServiceOption {
	return func(s *Service) {
		if width > 0 {
			s.fanoutWidth = width
		}
	}
}

func NewService(catalog Catalog, generator Generator, opts ...ServiceOption) *Service {
	svc := &Service{
		catalog:       catalog,
		generator:     generator,
		cache:         NewMemoryCache(MemoryCacheConfig{}),
		logger:        slog.Default(),
		shuffle:       randomShuffle,
		trendingTerms: append([]string(nil), defaultTrendingTerms...),
		fanoutWidth:   defaultFanoutWidth,
	}
	for _, opt := range opts {
		opt(svc)
	}
	svc.logger = svc.logger.With(slog.String("component", "discovery"))
	return svc
}

func (s *Service) catalogReady() error {
	if s.catalog == nil || !s.catalog.Enabled() {
		return errCatalogNotConfigured
	}
	return nil
}

func (s *Service) generatorReady() error {
	if s.generator == nil || !s.generator.Enabled() {
		return errGeneratorNotConfigured
	}
	return nil
}

func randomShuffle(movies []domain.Movie) {
	rand.Shuffle(len(movies), func(i, j int) {
		movies[i], movies[j] = movies[j], movies[i]
	})
}
