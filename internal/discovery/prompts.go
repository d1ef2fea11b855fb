package discovery

import (
	"fmt"
	"strings"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/gemini"
)

func filterPrompt(genre string, page int) gemini.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "List exactly %d highly-rated, critically acclaimed %s movies released after 2000.\n", filterCandidates, genre)
	b.WriteString("Focus on movies that are:\n")
	b.WriteString("- IMDb rating 7.5 or higher\n")
	b.WriteString("- Released between 2000-2024\n")
	b.WriteString("- Well-known and widely available\n")
	b.WriteString("- Diverse in style and themes\n")
	if skip := (page - 1) * filterCandidates; skip > 0 {
		fmt.Fprintf(&b, "\nIMPORTANT: Skip the first %d most popular movies and give me the next %d different ones.\n", skip, filterCandidates)
	}
	b.WriteString("\nFormat: Movie Title (Year)\n")
	b.WriteString("One movie per line. No explanations, just title and year.")
	return gemini.Prompt{
		Text:            b.String(),
		Temperature:     0.8,
		TopK:            40,
		TopP:            0.9,
		MaxOutputTokens: 300,
	}
}

func pickPrompt(prefs string, samples []domain.SampleMovie) gemini.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a movie recommendation expert. Based on these preferences: \"%s\"\n\n", prefs)
	if len(samples) > 0 {
		titles := make([]string, 0, len(samples))
		for _, sample := range samples {
			titles = append(titles, fmt.Sprintf("%s (%s)", sample.Title, sample.ReleaseDate))
		}
		fmt.Fprintf(&b, "Current search results include: %s\n\n", strings.Join(titles, ", "))
	}
	b.WriteString("Please suggest ONE specific movie that matches these preferences.\n")
	b.WriteString("IMPORTANT: Respond with ONLY the movie title and year in this exact format:\n")
	b.WriteString("Movie Title (Year)\n\n")
	b.WriteString("Example: Edge of Tomorrow (2014)\n\n")
	b.WriteString("Do not include any explanation, just the title and year.")
	return gemini.Prompt{
		Text:            b.String(),
		Temperature:     0.7,
		TopK:            20,
		TopP:            0.8,
		MaxOutputTokens: 50,
	}
}

func explainPrompt(movie domain.SuggestedMovie, prefs string) gemini.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Why is \"%s (%s)\" a perfect match for someone who wants: \"%s\"?\n\n", movie.Title, movie.Year, prefs)
	fmt.Fprintf(&b, "Movie details: %s | %s | %s\n\n", movie.Genre, movie.Director, movie.Plot)
	b.WriteString("Provide a 2-3 sentence enthusiastic explanation of why this movie fits their preferences.")
	return gemini.Prompt{
		Text:            b.String(),
		Temperature:     0.9,
		MaxOutputTokens: 150,
	}
}
