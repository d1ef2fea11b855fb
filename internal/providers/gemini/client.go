package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"moviemate/apiservice/internal/metrics"
	"moviemate/apiservice/internal/providers/common"
)

const (
	serviceName          = "gemini"
	defaultBaseURL       = "https://generativelanguage.googleapis.com/v1beta"
	DefaultPrimaryModel  = "gemini-2.0-flash-exp"
	DefaultFallbackModel = "gemini-1.5-flash"
	defaultRPS           = 5
	maxResponseBytes     = 1 << 20
)

var ErrNotConfigured = errors.New("gemini api key not configured")

type Config struct {
	APIKey            string
	BaseURL           string
	PrimaryModel      string
	FallbackModel     string
	RequestsPerSecond float64
	Client            *http.Client
	Logger            *slog.Logger
}

type Client struct {
	apiKey   string
	baseURL  string
	primary  string
	fallback string
	http     *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Prompt is one generateContent call: the text plus sampling settings.
type Prompt struct {
	Text            string
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// Generation is the trimmed model output. Text may be empty; callers treat
// that as a low-confidence answer rather than a failure.
type Generation struct {
	Text     string
	Model    string
	Attempts int
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	primary := strings.TrimSpace(cfg.PrimaryModel)
	if primary == "" {
		primary = DefaultPrimaryModel
	}
	fallback := strings.TrimSpace(cfg.FallbackModel)
	if fallback == "" {
		fallback = DefaultFallbackModel
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:   strings.TrimSpace(cfg.APIKey),
		baseURL:  baseURL,
		primary:  primary,
		fallback: fallback,
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// SelectModel returns the model for a zero-based attempt. Attempt 0 is the
// primary model, attempt 1 the stable fallback; there is no attempt 1 when
// both are the same model.
func (c *Client) SelectModel(attempt int) (string, bool) {
	switch {
	case attempt == 0:
		return c.primary, true
	case attempt == 1 && !strings.EqualFold(c.fallback, c.primary):
		return c.fallback, true
	default:
		return "", false
	}
}

// Generate runs the prompt against the primary model and, only if that call
// fails at the transport level, exactly once against the fallback model.
func (c *Client) Generate(ctx context.Context, prompt Prompt) (Generation, error) {
	if !c.Enabled() {
		return Generation{}, ErrNotConfigured
	}

	var lastErr error
	attempts := 0
	for attempt := 0; ; attempt++ {
		model, ok := c.SelectModel(attempt)
		if !ok {
			break
		}
		if attempt > 0 {
			metrics.ModelFallbacksTotal.Inc()
			c.logger.Warn("gemini model failed, trying fallback",
				slog.String("failedModel", c.primary),
				slog.String("fallbackModel", model),
				slog.String("error", lastErr.Error()),
			)
		}
		attempts++
		text, err := c.generate(ctx, model, prompt)
		if err == nil {
			return Generation{Text: text, Model: model, Attempts: attempts}, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Generation{Attempts: attempts}, lastErr
}

func (c *Client) generate(ctx context.Context, model string, prompt Prompt) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt.Text}}}},
		GenerationConfig: &generationConfig{
			Temperature:     prompt.Temperature,
			TopK:            prompt.TopK,
			TopP:            prompt.TopP,
			MaxOutputTokens: prompt.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/models/" + url.PathEscape(model) + ":generateContent"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	startedAt := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		err = common.RedactURLError(err)
		common.Observe(serviceName, startedAt, err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := common.NewStatusError(serviceName, resp)
		common.Observe(serviceName, startedAt, statusErr)
		return "", statusErr
	}
	common.Observe(serviceName, startedAt, nil)

	body, err := common.ReadBody(resp, maxResponseBytes)
	if err != nil {
		c.logger.Warn("gemini response unreadable, treating as empty",
			slog.String("model", model),
			slog.String("error", err.Error()),
		)
		return "", nil
	}
	return extractText(body), nil
}

// extractText pulls the first candidate's text out of a response body.
// Anything unexpected yields "".
func extractText(body []byte) string {
	var response generateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ""
	}
	if len(response.Candidates) == 0 {
		return ""
	}
	var builder strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		builder.WriteString(p.Text)
	}
	return strings.TrimSpace(builder.String())
}
