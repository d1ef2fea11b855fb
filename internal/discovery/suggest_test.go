package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/omdb"
)

func arrivalCatalog() *fakeCatalog {
	catalog := newFakeCatalog()
	catalog.titles[titleKey("Arrival", "2016")] = omdb.Title{
		Title:      "Arrival",
		Year:       "2016",
		Released:   "11 Nov 2016",
		Genre:      "Drama, Sci-Fi",
		Director:   "Denis Villeneuve",
		Plot:       "A linguist works with the military to communicate with alien lifeforms.",
		ImdbRating: "7.9",
		ImdbID:     "tt2543164",
		Poster:     "https://img/arrival.jpg",
	}
	return catalog
}

func TestSuggestResolvesAndExplains(t *testing.T) {
	generator := &scriptedGenerator{answers: []scriptedAnswer{
		{text: "Arrival (2016)"},
		{text: "A thoughtful, moving first-contact story."},
	}}
	service := NewService(arrivalCatalog(), generator)

	suggestion, err := service.Suggest(context.Background(), domain.SuggestRequest{
		Prefs: "Cerebral sci-fi",
		SampleMovies: []domain.SampleMovie{
			{Title: "Interstellar", ReleaseDate: "2014"},
		},
	})
	if err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	if suggestion.MovieData == nil || suggestion.MovieData.ID != "tt2543164" {
		t.Fatalf("expected resolved movie, got %+v", suggestion.MovieData)
	}
	if suggestion.Explanation != "A thoughtful, moving first-contact story." {
		t.Fatalf("unexpected explanation: %q", suggestion.Explanation)
	}
	if suggestion.SuggestionText != "**Arrival (2016)**\n\nA thoughtful, moving first-contact story." {
		t.Fatalf("unexpected suggestion text: %q", suggestion.SuggestionText)
	}

	pick, explain := generator.prompts[0], generator.prompts[1]
	if !strings.Contains(pick.Text, `Based on these preferences: "Cerebral sci-fi"`) ||
		!strings.Contains(pick.Text, "Current search results include: Interstellar (2014)") {
		t.Fatalf("unexpected pick prompt: %q", pick.Text)
	}
	if pick.MaxOutputTokens != 50 {
		t.Fatalf("unexpected pick budget: %d", pick.MaxOutputTokens)
	}
	if !strings.Contains(explain.Text, "Denis Villeneuve") || !strings.Contains(explain.Text, `"Arrival (2016)"`) {
		t.Fatalf("unexpected explain prompt: %q", explain.Text)
	}
}

func TestSuggestMovieDataUsesCardKeys(t *testing.T) {
	catalog := arrivalCatalog()
	catalog.titles[titleKey("Primer", "2004")] = omdb.Title{
		Title: "Primer", Year: "2004", ImdbID: "tt0390384", Poster: "N/A", ImdbRating: "N/A", Plot: "N/A",
	}
	generator := &scriptedGenerator{answers: []scriptedAnswer{
		{text: "Arrival (2016)"}, {text: "Great."},
		{text: "Primer (2004)"}, {text: "Twisty."},
	}}
	service := NewService(catalog, generator)

	suggestion, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "aliens"})
	if err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	body, err := json.Marshal(suggestion.MovieData)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var card map[string]any
	if err := json.Unmarshal(body, &card); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "title", "year", "poster", "plot", "rating", "genre", "director", "actors", "runtime", "awards"} {
		if _, ok := card[key]; !ok {
			t.Fatalf("movieData missing %q: %s", key, body)
		}
	}
	for _, key := range []string{"poster_path", "overview", "vote_average"} {
		if _, ok := card[key]; ok {
			t.Fatalf("movieData carries listing key %q: %s", key, body)
		}
	}
	if card["poster"] != "https://img/arrival.jpg" || card["rating"] != "7.9" || !strings.HasPrefix(card["plot"].(string), "A linguist") {
		t.Fatalf("unexpected card values: %s", body)
	}

	sparse, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "time travel"})
	if err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	body, _ = json.Marshal(sparse.MovieData)
	if !strings.Contains(string(body), `"poster":null`) || !strings.Contains(string(body), `"rating":"N/A"`) ||
		!strings.Contains(string(body), `"plot":""`) {
		t.Fatalf("unexpected sparse card: %s", body)
	}
}

func TestSuggestUnresolvedTitleIsTextOnly(t *testing.T) {
	generator := &scriptedGenerator{answers: []scriptedAnswer{{text: "Imaginary Film (2031)"}}}
	service := NewService(arrivalCatalog(), generator)

	suggestion, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "something new"})
	if err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	if suggestion.MovieData != nil || suggestion.Explanation != "" {
		t.Fatalf("expected text-only suggestion, got %+v", suggestion)
	}
	want := "I recommend: Imaginary Film (2031)\n\nThis movie matches your preferences: \"something new\""
	if suggestion.SuggestionText != want {
		t.Fatalf("unexpected text: %q", suggestion.SuggestionText)
	}
	if generator.calls() != 1 {
		t.Fatalf("expected no second generation, got %d calls", generator.calls())
	}
}

func TestSuggestTitleWithoutYearStillResolves(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.titles[titleKey("Inception", "")] = omdb.Title{Title: "Inception", Year: "2010", ImdbID: "tt1375666", Genre: "Action"}
	generator := &scriptedGenerator{answers: []scriptedAnswer{{text: "Inception"}, {text: ""}}}
	service := NewService(catalog, generator)

	suggestion, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "Mind-Bending"})
	if err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	if suggestion.MovieData == nil || suggestion.MovieData.ID != "tt1375666" {
		t.Fatalf("expected resolved movie, got %+v", suggestion)
	}
	// Empty explanation falls back to the genre sentence.
	if suggestion.Explanation != "This Action film matches your preference for mind-bending." {
		t.Fatalf("unexpected fallback explanation: %q", suggestion.Explanation)
	}
}

func TestSuggestExplanationFailureDegrades(t *testing.T) {
	generator := &scriptedGenerator{answers: []scriptedAnswer{
		{text: "Arrival (2016)"},
		{err: errors.New("gemini HTTP 500: internal")},
	}}
	service := NewService(arrivalCatalog(), generator)

	suggestion, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "aliens"})
	if err != nil {
		t.Fatalf("explanation failure must not be fatal, got %v", err)
	}
	if !strings.HasPrefix(suggestion.Explanation, "This Drama, Sci-Fi film matches") {
		t.Fatalf("unexpected explanation: %q", suggestion.Explanation)
	}
}

func TestSuggestCapsSampleMovies(t *testing.T) {
	generator := &scriptedGenerator{answers: []scriptedAnswer{{text: ""}}}
	service := NewService(arrivalCatalog(), generator)

	samples := make([]domain.SampleMovie, 0, 8)
	for _, title := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		samples = append(samples, domain.SampleMovie{Title: "Sample " + title, ReleaseDate: "2000"})
	}
	if _, err := service.Suggest(context.Background(), domain.SuggestRequest{Prefs: "x", SampleMovies: samples}); err != nil {
		t.Fatalf("suggest error: %v", err)
	}
	prompt := generator.prompts[0].Text
	if !strings.Contains(prompt, "Sample E (2000)") || strings.Contains(prompt, "Sample F") {
		t.Fatalf("expected exactly five samples in prompt: %q", prompt)
	}
}

func TestSuggestErrors(t *testing.T) {
	disabled := NewService(arrivalCatalog(), &scriptedGenerator{disabled: true})
	if _, err := disabled.Suggest(context.Background(), domain.SuggestRequest{Prefs: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected config error, got %v", err)
	}

	upstream := errors.New("gemini HTTP 503: unavailable")
	failing := NewService(arrivalCatalog(), &scriptedGenerator{answers: []scriptedAnswer{{err: upstream}}})
	if _, err := failing.Suggest(context.Background(), domain.SuggestRequest{Prefs: "x"}); !errors.Is(err, upstream) {
		t.Fatalf("expected generation failure, got %v", err)
	}

	catalog := arrivalCatalog()
	lookupErr := errors.New("omdb HTTP 401: invalid key")
	catalog.failing[titleKey("Arrival", "2016")] = lookupErr
	broken := NewService(catalog, &scriptedGenerator{answers: []scriptedAnswer{{text: "Arrival (2016)"}}})
	if _, err := broken.Suggest(context.Background(), domain.SuggestRequest{Prefs: "x"}); !errors.Is(err, lookupErr) {
		t.Fatalf("expected catalog failure, got %v", err)
	}
}
