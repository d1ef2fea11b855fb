package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/omdb"
)

const defaultSearchQuery = "avengers"

// MaxSearchPage is the last catalog page a search may ask for.
const MaxSearchPage = 100

// Search runs one catalog search. A catalog "not found" is a successful,
// empty page carrying the catalog's message; such pages are not cached.
func (s *Service) Search(ctx context.Context, request domain.SearchRequest) (domain.SearchPage, error) {
	query := strings.TrimSpace(request.Query)
	if query == "" {
		query = defaultSearchQuery
	}
	year := strings.TrimSpace(request.Year)
	page := request.Page
	if page < 1 {
		page = 1
	}
	if page > MaxSearchPage {
		page = MaxSearchPage
	}

	key := Fingerprint("search", query, year, strconv.Itoa(page))
	var cached domain.SearchPage
	if s.cacheLoad(ctx, "search", key, &cached) {
		return cached, nil
	}
	if err := s.catalogReady(); err != nil {
		return domain.SearchPage{}, err
	}

	ctx = context.WithoutCancel(ctx)
	result, err := s.catalog.Search(ctx, omdb.SearchQuery{Query: query, Year: year, Page: page})
	if err != nil {
		var notFound *omdb.NotFoundError
		if errors.As(err, &notFound) {
			s.logger.Info("search returned no match",
				slog.String("query", query),
				slog.String("message", notFound.Message),
			)
			return domain.SearchPage{
				Results: []domain.Movie{},
				Page:    page,
				Message: notFound.Message,
			}, nil
		}
		return domain.SearchPage{}, fmt.Errorf("search movies: %w", err)
	}

	movies := make([]domain.Movie, 0, len(result.Items))
	for _, item := range result.Items {
		movie := NormalizeSearchItem(item)
		if movie.ID == "" || !movie.HasPoster() {
			continue
		}
		movies = append(movies, movie)
	}

	response := domain.SearchPage{
		Results:      movies,
		TotalResults: parseTotal(result.TotalResults),
		Page:         page,
	}
	s.cacheStore(ctx, key, response)
	return response, nil
}

// Details fetches one title by catalog id.
func (s *Service) Details(ctx context.Context, id string) (domain.MovieDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.MovieDetail{}, ErrInvalidID
	}

	key := Fingerprint("movie", id)
	var cached domain.MovieDetail
	if s.cacheLoad(ctx, "movie", key, &cached) {
		return cached, nil
	}
	if err := s.catalogReady(); err != nil {
		return domain.MovieDetail{}, err
	}

	ctx = context.WithoutCancel(ctx)
	title, err := s.catalog.ByID(ctx, id)
	if err != nil {
		var notFound *omdb.NotFoundError
		if errors.As(err, &notFound) {
			return domain.MovieDetail{}, &NotFoundError{Message: notFound.Message}
		}
		return domain.MovieDetail{}, fmt.Errorf("fetch movie %s: %w", id, err)
	}

	detail := NormalizeDetail(title)
	s.cacheStore(ctx, key, detail)
	return detail, nil
}
