package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"moviemate/apiservice/internal/providers/common"
)

const (
	serviceName          = "omdb"
	defaultBaseURL       = "https://www.omdbapi.com/"
	defaultMaxConcurrent = 8
	maxResponseBytes     = 512 * 1024
)

// ErrNotFound matches every NotFoundError.
var ErrNotFound = errors.New("omdb: not found")

// NotFoundError is returned when OMDb answers with Response "False".
// OMDb reports this with HTTP 200, so the payload flag is the only signal.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	if e == nil || strings.TrimSpace(e.Message) == "" {
		return "omdb: not found"
	}
	return "omdb: " + e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

type Config struct {
	APIKey        string
	BaseURL       string
	Client        *http.Client
	MaxConcurrent int64
	Retry         common.RetryConfig
}

type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	sem     *semaphore.Weighted
	retry   common.RetryConfig
}

// SearchItem is one entry of an OMDb "s=" search.
type SearchItem struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	ImdbID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// Title is a full OMDb record as returned by "i=" and "t=" lookups.
type Title struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Writer     string `json:"Writer"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	ImdbRating string `json:"imdbRating"`
	ImdbVotes  string `json:"imdbVotes"`
	ImdbID     string `json:"imdbID"`
	Type       string `json:"Type"`
}

type SearchQuery struct {
	Query string
	Year  string
	Page  int
}

// SearchPage holds one page of search results. TotalResults is OMDb's raw string.
type SearchPage struct {
	Items        []SearchItem
	TotalResults string
}

type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

type searchResponse struct {
	envelope
	Search       []SearchItem `json:"Search"`
	TotalResults string       `json:"totalResults"`
}

type titleResponse struct {
	envelope
	Title
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	retryCfg := cfg.Retry
	if retryCfg.MaxAttempts == 0 {
		retryCfg = common.DefaultRetryConfig()
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		baseURL: baseURL,
		http:    httpClient,
		sem:     semaphore.NewWeighted(maxConcurrent),
		retry:   retryCfg,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Search runs a paginated title search restricted to movies.
func (c *Client) Search(ctx context.Context, query SearchQuery) (SearchPage, error) {
	page := query.Page
	if page <= 0 {
		page = 1
	}
	params := url.Values{
		"s":    {strings.TrimSpace(query.Query)},
		"type": {"movie"},
		"page": {strconv.Itoa(page)},
	}
	if year := strings.TrimSpace(query.Year); year != "" {
		params.Set("y", year)
	}

	var response searchResponse
	if err := c.get(ctx, params, &response); err != nil {
		return SearchPage{}, err
	}
	if err := checkEnvelope(response.envelope); err != nil {
		return SearchPage{}, err
	}
	return SearchPage{Items: response.Search, TotalResults: response.TotalResults}, nil
}

// ByID fetches a single title with the full plot.
func (c *Client) ByID(ctx context.Context, id string) (Title, error) {
	params := url.Values{
		"i":    {strings.TrimSpace(id)},
		"plot": {"full"},
	}
	return c.title(ctx, params)
}

// ByTitle resolves an exact title, optionally narrowed by year.
func (c *Client) ByTitle(ctx context.Context, title, year string, fullPlot bool) (Title, error) {
	params := url.Values{
		"t":    {strings.TrimSpace(title)},
		"type": {"movie"},
	}
	if year = strings.TrimSpace(year); year != "" {
		params.Set("y", year)
	}
	if fullPlot {
		params.Set("plot", "full")
	}
	return c.title(ctx, params)
}

func (c *Client) title(ctx context.Context, params url.Values) (Title, error) {
	var response titleResponse
	if err := c.get(ctx, params, &response); err != nil {
		return Title{}, err
	}
	if err := checkEnvelope(response.envelope); err != nil {
		return Title{}, err
	}
	return response.Title, nil
}

func checkEnvelope(env envelope) error {
	if strings.EqualFold(strings.TrimSpace(env.Response), "false") {
		return &NotFoundError{Message: strings.TrimSpace(env.Error)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, params url.Values, dest any) error {
	if !c.Enabled() {
		return errors.New("omdb api key not configured")
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer c.sem.Release(1)

	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + "?" + params.Encode()

	startedAt := time.Now()
	err := common.Retry(ctx, c.retry, func() error {
		return c.fetch(ctx, reqURL, dest)
	})
	common.Observe(serviceName, startedAt, err)
	return err
}

func (c *Client) fetch(ctx context.Context, reqURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return common.RedactURLError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return common.NewStatusError(serviceName, resp)
	}

	body, err := common.ReadBody(resp, maxResponseBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode omdb response: %w", err)
	}
	return nil
}
