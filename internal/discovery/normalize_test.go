package discovery

import (
	"math"
	"testing"

	"moviemate/apiservice/internal/providers/omdb"
)

func TestParseRating(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"7.8", 7.8, true},
		{" 8 ", 8, true},
		{"N/A", 0, false},
		{"", 0, false},
		{"unknown", 0, false},
		{"eight", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseRating(tc.raw)
		if ok != tc.ok || math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("ParseRating(%q) = %v, %v; want %v, %v", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeSearchItemDropsSentinels(t *testing.T) {
	movie := NormalizeSearchItem(omdb.SearchItem{
		Title:  " Heat ",
		Year:   "1995",
		ImdbID: "tt0113277",
		Poster: "N/A",
	})
	if movie.ID != "tt0113277" || movie.Title != "Heat" || movie.ReleaseDate != "1995" {
		t.Fatalf("unexpected mapping: %+v", movie)
	}
	if movie.HasPoster() {
		t.Fatalf("expected N/A poster to be treated as missing")
	}
}

func TestNormalizeIsTotalOnEmptyInput(t *testing.T) {
	movie := NormalizeSearchItem(omdb.SearchItem{})
	if movie.ID != "" || movie.HasPoster() {
		t.Fatalf("expected empty movie, got %+v", movie)
	}

	rated, ok := NormalizeRated(omdb.Title{ImdbRating: "garbage"})
	if ok || rated.Rating != 0 {
		t.Fatalf("expected unrated zero movie, got %+v ok=%v", rated, ok)
	}

	detail := NormalizeDetail(omdb.Title{Runtime: "N/A", Genre: "unknown", ImdbRating: "N/A"})
	if detail.Runtime != "" || detail.Genre != "" || detail.VoteAverage != 0 {
		t.Fatalf("expected sentinels to become empty, got %+v", detail)
	}
}

func TestNormalizeDetailReleaseDateFallsBackToYear(t *testing.T) {
	detail := NormalizeDetail(omdb.Title{
		Title:      "Arrival",
		Year:       "2016",
		Released:   "N/A",
		ImdbID:     "tt2543164",
		ImdbRating: "7.9",
		Director:   "Denis Villeneuve",
		Plot:       "A linguist works with the military.",
		Poster:     "https://img/arrival.jpg",
	})
	if detail.ReleaseDate != "2016" || detail.Year != "2016" {
		t.Fatalf("unexpected dates: %+v", detail)
	}
	if detail.VoteAverage != 7.9 || detail.Director != "Denis Villeneuve" || !detail.HasPoster() {
		t.Fatalf("unexpected detail: %+v", detail)
	}

	withRelease := NormalizeDetail(omdb.Title{Year: "2016", Released: "11 Nov 2016"})
	if withRelease.ReleaseDate != "11 Nov 2016" {
		t.Fatalf("expected full release date, got %q", withRelease.ReleaseDate)
	}
}
