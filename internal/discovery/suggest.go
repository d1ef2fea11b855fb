package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/omdb"
)

const maxSampleMovies = 5

// Suggest names one movie for free-text preferences. The pick is resolved
// against the catalog and, when found, explained by a second generation.
// An unresolvable pick comes back as text only. Results are never cached.
func (s *Service) Suggest(ctx context.Context, request domain.SuggestRequest) (domain.Suggestion, error) {
	if err := s.generatorReady(); err != nil {
		return domain.Suggestion{}, err
	}
	if err := s.catalogReady(); err != nil {
		return domain.Suggestion{}, err
	}
	prefs := strings.TrimSpace(request.Prefs)
	samples := request.SampleMovies
	if len(samples) > maxSampleMovies {
		samples = samples[:maxSampleMovies]
	}

	ctx = context.WithoutCancel(ctx)
	pick, err := s.generator.Generate(ctx, pickPrompt(prefs, samples))
	if err != nil {
		return domain.Suggestion{}, fmt.Errorf("generate suggestion: %w", err)
	}
	raw := strings.TrimSpace(pick.Text)

	candidate, outcome := ParseSuggestion(raw)
	s.logger.Debug("suggestion parsed",
		slog.String("raw", raw),
		slog.String("outcome", outcome.String()),
		slog.String("model", pick.Model),
	)
	if outcome == ParseUnusable {
		return textOnlySuggestion(raw, prefs), nil
	}

	title, err := s.catalog.ByTitle(ctx, candidate.Title, candidate.Year, true)
	if err != nil {
		if errors.Is(err, omdb.ErrNotFound) {
			s.logger.Info("suggested title not in catalog",
				slog.String("title", candidate.Title),
				slog.String("year", candidate.Year),
			)
			return textOnlySuggestion(raw, prefs), nil
		}
		return domain.Suggestion{}, fmt.Errorf("resolve suggestion %q: %w", candidate.Title, err)
	}
	movie := NormalizeSuggested(title)

	explanation := s.explain(ctx, movie, prefs)
	return domain.Suggestion{
		MovieData:      &movie,
		Explanation:    explanation,
		SuggestionText: fmt.Sprintf("**%s (%s)**\n\n%s", movie.Title, movie.Year, explanation),
	}, nil
}

// explain never fails: a generation error or an empty answer falls back to a
// sentence built from the movie's genre.
func (s *Service) explain(ctx context.Context, movie domain.SuggestedMovie, prefs string) string {
	generation, err := s.generator.Generate(ctx, explainPrompt(movie, prefs))
	if err != nil {
		s.logger.Warn("suggestion explanation failed",
			slog.String("title", movie.Title),
			slog.String("error", err.Error()),
		)
	}
	if text := strings.TrimSpace(generation.Text); err == nil && text != "" {
		return text
	}
	return fallbackExplanation(movie, prefs)
}

func fallbackExplanation(movie domain.SuggestedMovie, prefs string) string {
	genre := movie.Genre
	if genre == "" {
		genre = "movie"
	}
	return fmt.Sprintf("This %s film matches your preference for %s.", genre, strings.ToLower(prefs))
}

func textOnlySuggestion(raw, prefs string) domain.Suggestion {
	return domain.Suggestion{
		SuggestionText: fmt.Sprintf("I recommend: %s\n\nThis movie matches your preferences: \"%s\"", raw, prefs),
	}
}
