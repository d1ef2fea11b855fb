package app

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder credentials shipped in .env.example; treated as unset.
var placeholderKeys = map[string]struct{}{
	"your_omdb_api_key_here":   {},
	"your_gemini_key_here":     {},
	"your_gemini_api_key_here": {},
}

type Config struct {
	HTTPAddr            string
	LogLevel            string
	LogFormat           string
	LogFile             string
	StaticDir           string
	UpstreamTimeout     time.Duration
	OMDbAPIKey          string
	OMDbBaseURL         string
	OMDbMaxConcurrent   int
	GeminiAPIKey        string
	GeminiBaseURL       string
	GeminiModel         string
	GeminiFallbackModel string
	GeminiRPS           float64
	RedisURL            string
	CacheTTL            time.Duration
	CacheMaxEntries     int
	CacheDisabled       bool
	RateLimitRPS        float64
	RateLimitBurst      int
	PosterHosts         []string
}

// LoadDotEnv reads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:            resolveHTTPAddr(),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:             getEnv("LOG_FILE", ""),
		StaticDir:           getEnv("STATIC_DIR", "public"),
		UpstreamTimeout:     time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 15)) * time.Second,
		OMDbAPIKey:          getCredential("OMDB_API_KEY"),
		OMDbBaseURL:         getEnv("OMDB_BASE_URL", "https://www.omdbapi.com/"),
		OMDbMaxConcurrent:   getEnvInt("OMDB_MAX_CONCURRENT", 8),
		GeminiAPIKey:        getCredential("GEMINI_API_KEY"),
		GeminiBaseURL:       getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:         getEnv("GEMINI_MODEL", "gemini-2.0-flash-exp"),
		GeminiFallbackModel: getEnv("GEMINI_FALLBACK_MODEL", "gemini-1.5-flash"),
		GeminiRPS:           getEnvFloat("GEMINI_RPS", 5),
		RedisURL:            getEnv("REDIS_URL", ""),
		CacheTTL:            time.Duration(getEnvInt("CACHE_TTL_SECONDS", 300)) * time.Second,
		CacheMaxEntries:     getEnvInt("CACHE_MAX_ENTRIES", 1000),
		CacheDisabled:       getEnvBool("CACHE_DISABLED", false),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 100),
		PosterHosts:         getEnvList("POSTER_HOSTS", []string{"m.media-amazon.com", "ia.media-imdb.com", "img.omdbapi.com"}),
	}
}

// resolveHTTPAddr prefers HTTP_ADDR, then PORT, then :3000.
func resolveHTTPAddr() string {
	if addr := getEnv("HTTP_ADDR", ""); addr != "" {
		return addr
	}
	port := getEnv("PORT", "3000")
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func getCredential(key string) string {
	value := getEnv(key, "")
	if _, placeholder := placeholderKeys[strings.ToLower(value)]; placeholder {
		return ""
	}
	return value
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	out := make([]string, 0, 4)
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
