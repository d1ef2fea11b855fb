package discovery

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"moviemate/apiservice/internal/domain"
	"moviemate/apiservice/internal/providers/gemini"
	"moviemate/apiservice/internal/providers/omdb"
)

type fakeCatalog struct {
	disabled bool
	searches map[string][]omdb.SearchItem
	failing  map[string]error
	titles   map[string]omdb.Title
	byID     map[string]omdb.Title

	hits        atomic.Int32
	mu          sync.Mutex
	titleLookup []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		searches: map[string][]omdb.SearchItem{},
		failing:  map[string]error{},
		titles:   map[string]omdb.Title{},
		byID:     map[string]omdb.Title{},
	}
}

func titleKey(title, year string) string {
	return strings.ToLower(title) + "|" + year
}

func (c *fakeCatalog) Enabled() bool { return !c.disabled }

func (c *fakeCatalog) Search(ctx context.Context, query omdb.SearchQuery) (omdb.SearchPage, error) {
	_ = ctx
	c.hits.Add(1)
	key := strings.ToLower(query.Query)
	if err, ok := c.failing[key]; ok {
		return omdb.SearchPage{}, err
	}
	items, ok := c.searches[key]
	if !ok {
		return omdb.SearchPage{}, &omdb.NotFoundError{Message: "Movie not found!"}
	}
	return omdb.SearchPage{Items: append([]omdb.SearchItem(nil), items...), TotalResults: "42"}, nil
}

func (c *fakeCatalog) ByID(ctx context.Context, id string) (omdb.Title, error) {
	_ = ctx
	c.hits.Add(1)
	title, ok := c.byID[id]
	if !ok {
		return omdb.Title{}, &omdb.NotFoundError{Message: "Incorrect IMDb ID."}
	}
	return title, nil
}

func (c *fakeCatalog) ByTitle(ctx context.Context, title, year string, fullPlot bool) (omdb.Title, error) {
	_ = ctx
	_ = fullPlot
	c.hits.Add(1)
	c.mu.Lock()
	c.titleLookup = append(c.titleLookup, titleKey(title, year))
	c.mu.Unlock()
	if err, ok := c.failing[titleKey(title, year)]; ok {
		return omdb.Title{}, err
	}
	found, ok := c.titles[titleKey(title, year)]
	if !ok {
		return omdb.Title{}, &omdb.NotFoundError{Message: "Movie not found!"}
	}
	return found, nil
}

// scriptedGenerator answers prompts in order and records them.
type scriptedGenerator struct {
	disabled bool
	answers  []scriptedAnswer

	mu      sync.Mutex
	prompts []gemini.Prompt
}

type scriptedAnswer struct {
	text string
	err  error
}

func (g *scriptedGenerator) Enabled() bool { return !g.disabled }

func (g *scriptedGenerator) Generate(ctx context.Context, prompt gemini.Prompt) (gemini.Generation, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	index := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if index >= len(g.answers) {
		return gemini.Generation{}, errors.New("unexpected generate call")
	}
	answer := g.answers[index]
	if answer.err != nil {
		return gemini.Generation{}, answer.err
	}
	return gemini.Generation{Text: answer.text, Model: "test-model", Attempts: 1}, nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func identityShuffle([]domain.Movie) {}
