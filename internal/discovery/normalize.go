package discovery

import (
	"math"
	"strconv"
	"strings"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/omdb"
)

// isMissing reports OMDb's "no value" sentinels.
func isMissing(raw string) bool {
	value := strings.TrimSpace(raw)
	return value == "" || strings.EqualFold(value, "N/A") || strings.EqualFold(value, "unknown")
}

func clean(raw string) string {
	if isMissing(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

// ParseRating converts an OMDb rating string. ok is false when the value is
// missing or not a finite number.
func ParseRating(raw string) (float64, bool) {
	value := clean(raw)
	if value == "" {
		return 0, false
	}
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
		return 0, false
	}
	return rating, true
}

// parseTotal reads OMDb's totalResults; anything unreadable counts as zero.
func parseTotal(raw string) int {
	total, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || total < 0 {
		return 0
	}
	return total
}

// NormalizeSearchItem maps an "s=" search entry to a Movie.
func NormalizeSearchItem(item omdb.SearchItem) domain.Movie {
	return domain.Movie{
		ID:          strings.TrimSpace(item.ImdbID),
		Title:       clean(item.Title),
		ReleaseDate: clean(item.Year),
		PosterURL:   clean(item.Poster),
	}
}

// NormalizeRated maps a full title to a Movie carrying its rating.
// rated is false when the rating could not be parsed.
func NormalizeRated(title omdb.Title) (movie domain.Movie, rated bool) {
	rating, rated := ParseRating(title.ImdbRating)
	return domain.Movie{
		ID:          strings.TrimSpace(title.ImdbID),
		Title:       clean(title.Title),
		ReleaseDate: clean(title.Year),
		PosterURL:   clean(title.Poster),
		Overview:    clean(title.Plot),
		Rating:      rating,
	}, rated
}

// NormalizeDetail maps a full title to the detail view.
func NormalizeDetail(title omdb.Title) domain.MovieDetail {
	released := clean(title.Released)
	if released == "" {
		released = clean(title.Year)
	}
	voteAverage, _ := ParseRating(title.ImdbRating)
	return domain.MovieDetail{
		Movie: domain.Movie{
			ID:          strings.TrimSpace(title.ImdbID),
			Title:       clean(title.Title),
			ReleaseDate: released,
			PosterURL:   clean(title.Poster),
			Overview:    clean(title.Plot),
		},
		Year:        clean(title.Year),
		VoteAverage: voteAverage,
		Runtime:     clean(title.Runtime),
		Genre:       clean(title.Genre),
		Director:    clean(title.Director),
		Actors:      clean(title.Actors),
		Awards:      clean(title.Awards),
	}
}

// NormalizeSuggested maps a full title to the suggestion card.
func NormalizeSuggested(title omdb.Title) domain.SuggestedMovie {
	movie := domain.SuggestedMovie{
		ID:       strings.TrimSpace(title.ImdbID),
		Title:    clean(title.Title),
		Year:     clean(title.Year),
		Plot:     clean(title.Plot),
		Rating:   "N/A",
		Genre:    clean(title.Genre),
		Director: clean(title.Director),
		Actors:   clean(title.Actors),
		Runtime:  clean(title.Runtime),
		Awards:   clean(title.Awards),
	}
	if poster := clean(title.Poster); poster != "" {
		movie.Poster = &poster
	}
	if rating := clean(title.ImdbRating); rating != "" {
		movie.Rating = rating
	}
	return movie
}
