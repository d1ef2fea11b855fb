package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/metrics"
	"moviemate/apiservice/internal/providers/omdb"
)

const (
	trendingCacheKey = "trending:movies:v2"
	trendingPerTerm  = 4
	trendingCap      = 72
)

// The catalog has no trending endpoint, so trending is synthesized from
// searches for popular franchises.
var defaultTrendingTerms = []string{
	"Avengers", "Star Wars", "Batman", "Spider-Man", "Harry Potter",
	"Marvel", "Iron Man", "Thor", "Superman", "X-Men", "Deadpool",
	"Fast Furious", "Mission Impossible", "James Bond", "Jurassic",
	"Lord Rings", "Pirates Caribbean", "Transformers", "Indiana Jones",
	"Captain America", "Guardians Galaxy", "Ant-Man", "Doctor Strange",
}

// Trending merges the first few hits of every franchise search, drops
// duplicates and poster-less titles, shuffles and caps the list.
// Individual search failures are skipped; only when every search fails is
// the first failure returned.
func (s *Service) Trending(ctx context.Context) (domain.MovieList, error) {
	var cached domain.MovieList
	if s.cacheLoad(ctx, "trending", trendingCacheKey, &cached) {
		return cached, nil
	}
	if err := s.catalogReady(); err != nil {
		return domain.MovieList{}, err
	}

	ctx = context.WithoutCancel(ctx)
	terms := s.trendingTerms
	errs := make([]error, len(terms))
	pages := gather(ctx, s.fanoutWidth, len(terms), func(ctx context.Context, i int) ([]omdb.SearchItem, error) {
		page, err := s.catalog.Search(ctx, omdb.SearchQuery{Query: terms[i], Page: 1})
		if errors.Is(err, omdb.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		items := page.Items
		if len(items) > trendingPerTerm {
			items = items[:trendingPerTerm]
		}
		return items, nil
	}, func(i int, err error) {
		errs[i] = err
		metrics.FanoutDropsTotal.WithLabelValues("trending").Inc()
		s.logger.Warn("trending search failed",
			slog.String("term", terms[i]),
			slog.String("error", err.Error()),
		)
	})

	movies := make([]domain.Movie, 0, len(terms)*trendingPerTerm)
	seen := make(map[string]struct{}, len(terms)*trendingPerTerm)
	succeeded := 0
	for _, page := range pages {
		if !page.OK {
			continue
		}
		succeeded++
		for _, item := range page.Value {
			movie := NormalizeSearchItem(item)
			if movie.ID == "" || !movie.HasPoster() {
				continue
			}
			if _, dup := seen[movie.ID]; dup {
				continue
			}
			seen[movie.ID] = struct{}{}
			movies = append(movies, movie)
		}
	}
	if succeeded == 0 && len(terms) > 0 {
		return domain.MovieList{}, fmt.Errorf("fetch trending movies: %w", firstError(errs))
	}

	s.shuffle(movies)
	if len(movies) > trendingCap {
		movies = movies[:trendingCap]
	}

	result := domain.MovieList{Results: movies, TotalResults: len(movies)}
	s.logger.Info("trending loaded",
		slog.Int("movies", len(movies)),
		slog.Int("searches", len(terms)),
		slog.Int("failedSearches", len(terms)-succeeded),
	)
	s.cacheStore(ctx, trendingCacheKey, result)
	return result, nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return errors.New("no results")
}
