package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/metrics"
	"moviemate/apiservice/internal/providers/omdb"
)

const (
	filterCandidates  = 12
	filterRatingFloor = 7.0
)

var (
	errNoPoster   = errors.New("no poster")
	errUnrated    = errors.New("rating unavailable")
	errBelowFloor = errors.New("rating below floor")
)

// Filter asks the generator for well-rated titles in a genre and keeps the
// ones the catalog confirms: poster present and rating at or above the floor.
// Later pages ask the model to skip earlier picks; repeats across pages are
// still possible since nothing but the prompt enforces it.
func (s *Service) Filter(ctx context.Context, request domain.FilterRequest) (domain.MovieList, error) {
	genre := strings.TrimSpace(request.Genre)
	if genre == "" {
		return domain.MovieList{}, ErrInvalidGenre
	}
	page := request.Page
	if page < 1 {
		page = 1
	}

	key := Fingerprint("filter", genre, strconv.Itoa(page))
	var cached domain.MovieList
	if s.cacheLoad(ctx, "filter", key, &cached) {
		return cached, nil
	}
	if err := s.generatorReady(); err != nil {
		return domain.MovieList{}, err
	}
	if err := s.catalogReady(); err != nil {
		return domain.MovieList{}, err
	}

	ctx = context.WithoutCancel(ctx)
	generation, err := s.generator.Generate(ctx, filterPrompt(genre, page))
	if err != nil {
		return domain.MovieList{}, fmt.Errorf("generate %s picks: %w", genre, err)
	}

	candidates := ParseCandidateList(generation.Text, filterCandidates)
	s.logger.Debug("genre candidates parsed",
		slog.String("genre", genre),
		slog.Int("page", page),
		slog.Int("candidates", len(candidates)),
		slog.String("model", generation.Model),
	)

	errs := make([]error, len(candidates))
	lookups := gather(ctx, s.fanoutWidth, len(candidates), func(ctx context.Context, i int) (domain.Movie, error) {
		title, err := s.catalog.ByTitle(ctx, candidates[i].Title, candidates[i].Year, false)
		if err != nil {
			return domain.Movie{}, err
		}
		movie, rated := NormalizeRated(title)
		switch {
		case movie.ID == "" || !movie.HasPoster():
			return domain.Movie{}, errNoPoster
		case !rated:
			return domain.Movie{}, errUnrated
		case movie.Rating < filterRatingFloor:
			return domain.Movie{}, errBelowFloor
		}
		return movie, nil
	}, func(i int, err error) {
		errs[i] = err
		metrics.FanoutDropsTotal.WithLabelValues("filter").Inc()
		s.logger.Debug("genre candidate dropped",
			slog.String("title", candidates[i].Title),
			slog.String("year", candidates[i].Year),
			slog.String("reason", err.Error()),
		)
	})

	if err := lookupOutage(lookups, errs); err != nil {
		return domain.MovieList{}, fmt.Errorf("look up %s picks: %w", genre, err)
	}

	movies := make([]domain.Movie, 0, len(lookups))
	seen := make(map[string]struct{}, len(lookups))
	for _, lookup := range lookups {
		if !lookup.OK {
			continue
		}
		if _, dup := seen[lookup.Value.ID]; dup {
			continue
		}
		seen[lookup.Value.ID] = struct{}{}
		movies = append(movies, lookup.Value)
	}
	sortByRating(movies)

	result := domain.MovieList{Results: movies, TotalResults: len(movies)}
	s.logger.Info("genre filter loaded",
		slog.String("genre", genre),
		slog.Int("page", page),
		slog.Int("candidates", len(candidates)),
		slog.Int("movies", len(movies)),
	)
	s.cacheStore(ctx, key, result)
	return result, nil
}

// lookupOutage returns the first catalog failure when no lookup got a title
// back. Not-found answers and quality drops are not failures.
func lookupOutage(lookups []Option[domain.Movie], errs []error) error {
	var outage error
	for i, lookup := range lookups {
		if lookup.OK {
			return nil
		}
		switch err := errs[i]; {
		case err == nil, errors.Is(err, omdb.ErrNotFound):
		case errors.Is(err, errNoPoster), errors.Is(err, errUnrated), errors.Is(err, errBelowFloor):
			return nil
		default:
			if outage == nil {
				outage = err
			}
		}
	}
	return outage
}

// sortByRating orders movies by rating descending, then by title.
func sortByRating(movies []domain.Movie) {
	sort.SliceStable(movies, func(i, j int) bool {
		if movies[i].Rating != movies[j].Rating {
			return movies[i].Rating > movies[j].Rating
		}
		return strings.ToLower(movies[i].Title) < strings.ToLower(movies[j].Title)
	})
}
