package omdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"moviemate/apiservice/internal/providers/common"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL + "/",
		Client:  server.Client(),
		Retry:   common.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	})
}

func TestSearchBuildsQueryAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "test-key" || q.Get("s") != "batman" || q.Get("type") != "movie" ||
			q.Get("page") != "2" || q.Get("y") != "2008" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Search":[{"Title":"The Dark Knight","Year":"2008","imdbID":"tt0468569","Type":"movie","Poster":"https://img/dk.jpg"}],"totalResults":"1","Response":"True"}`))
	})

	page, err := client.Search(context.Background(), SearchQuery{Query: "batman", Year: "2008", Page: 2})
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].ImdbID != "tt0468569" || page.TotalResults != "1" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestResponseFalseIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Incorrect IMDb ID."}`))
	})

	_, err := client.ByID(context.Background(), "tt9999999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var notFound *NotFoundError
	if !errors.As(err, &notFound) || notFound.Message != "Incorrect IMDb ID." {
		t.Fatalf("expected upstream message, got %v", err)
	}
}

func TestByTitleParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("t") != "Arrival" || q.Get("y") != "2016" || q.Get("plot") != "full" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"Title":"Arrival","Year":"2016","imdbRating":"7.9","imdbID":"tt2543164","Response":"True"}`))
	})

	title, err := client.ByTitle(context.Background(), "Arrival", "2016", true)
	if err != nil {
		t.Fatalf("by title error: %v", err)
	}
	if title.ImdbID != "tt2543164" || title.ImdbRating != "7.9" {
		t.Fatalf("unexpected title: %+v", title)
	}
}

func TestStatusErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"Response":"False","Error":"Invalid API key!"}`))
	})

	_, err := client.ByID(context.Background(), "tt0133093")
	var statusErr *common.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if !strings.Contains(statusErr.Body, "Invalid API key!") {
		t.Fatalf("expected raw body kept, got %q", statusErr.Body)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", hits.Load())
	}
}

func TestTransientFailureIsRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`{"Title":"Heat","imdbID":"tt0113277","Response":"True"}`))
	})

	title, err := client.ByID(context.Background(), "tt0113277")
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if title.ImdbID != "tt0113277" || hits.Load() < 2 {
		t.Fatalf("unexpected result %+v after %d hits", title, hits.Load())
	}
}

func TestTransportErrorHidesAPIKey(t *testing.T) {
	client := NewClient(Config{
		APIKey:  "secret-key",
		BaseURL: "http://127.0.0.1:1/",
		Retry:   common.RetryConfig{MaxAttempts: 1},
	})
	_, err := client.ByID(context.Background(), "tt1")
	if err == nil {
		t.Fatalf("expected dial error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("api key leaked into error: %v", err)
	}
}

func TestDisabledWithoutKey(t *testing.T) {
	client := NewClient(Config{})
	if client.Enabled() {
		t.Fatalf("expected client without key to be disabled")
	}
	if _, err := client.Search(context.Background(), SearchQuery{Query: "x"}); err == nil {
		t.Fatalf("expected error without key")
	}
}
