package domain

// Movie is the uniform record every listing endpoint returns.
type Movie struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	PosterURL   string  `json:"poster_path,omitempty"`
	Overview    string  `json:"overview"`
	Rating      float64 `json:"rating,omitempty"`
}

// HasPoster reports whether the record can be shown on a card.
func (m Movie) HasPoster() bool {
	return m.PosterURL != ""
}

// MovieDetail is the single-title view. Missing upstream values are empty or zero.
type MovieDetail struct {
	Movie
	Year        string  `json:"year,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	Runtime     string  `json:"runtime"`
	Genre       string  `json:"genre"`
	Director    string  `json:"director"`
	Actors      string  `json:"actors"`
	Awards      string  `json:"awards"`
}

type MovieList struct {
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
}

type SearchPage struct {
	Results      []Movie `json:"results"`
	TotalResults int     `json:"total_results"`
	Page         int     `json:"page"`
	Message      string  `json:"message,omitempty"`
}

type SearchRequest struct {
	Query string
	Year  string
	Page  int
}

type FilterRequest struct {
	Genre string `json:"genre"`
	Page  int    `json:"page"`
}

// SampleMovie is a title from the client's current view, used as prompt context.
type SampleMovie struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

type SuggestRequest struct {
	Prefs        string        `json:"prefs"`
	SampleMovies []SampleMovie `json:"sampleMovies"`
}

// SuggestedMovie is the card the client renders for a suggestion. Poster is
// null when the catalog has none; Rating keeps the catalog string or "N/A".
type SuggestedMovie struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Year     string  `json:"year"`
	Poster   *string `json:"poster"`
	Plot     string  `json:"plot"`
	Rating   string  `json:"rating"`
	Genre    string  `json:"genre"`
	Director string  `json:"director"`
	Actors   string  `json:"actors"`
	Runtime  string  `json:"runtime"`
	Awards   string  `json:"awards"`
}

// Suggestion is the result of the two-stage suggestion pipeline.
// MovieData is nil when the suggested title is not in the catalog.
type Suggestion struct {
	MovieData      *SuggestedMovie `json:"movieData"`
	Explanation    string       `json:"explanation"`
	SuggestionText string       `json:"suggestion"`
}
