package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "PORT", "OMDB_API_KEY", "GEMINI_API_KEY", "CACHE_TTL_SECONDS", "POSTER_HOSTS"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()

	if cfg.HTTPAddr != ":3000" {
		t.Fatalf("expected :3000, got %q", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != 5*time.Minute || cfg.CacheMaxEntries != 1000 {
		t.Fatalf("unexpected cache defaults: %v %d", cfg.CacheTTL, cfg.CacheMaxEntries)
	}
	if cfg.GeminiModel != "gemini-2.0-flash-exp" || cfg.GeminiFallbackModel != "gemini-1.5-flash" {
		t.Fatalf("unexpected model defaults: %q %q", cfg.GeminiModel, cfg.GeminiFallbackModel)
	}
	if cfg.OMDbAPIKey != "" || cfg.GeminiAPIKey != "" {
		t.Fatalf("expected empty credentials")
	}
	if len(cfg.PosterHosts) != 3 {
		t.Fatalf("unexpected poster hosts: %v", cfg.PosterHosts)
	}
}

func TestPlaceholderCredentialsAreUnset(t *testing.T) {
	t.Setenv("OMDB_API_KEY", "your_omdb_api_key_here")
	t.Setenv("GEMINI_API_KEY", "your_gemini_key_here")
	cfg := LoadConfig()

	if cfg.OMDbAPIKey != "" || cfg.GeminiAPIKey != "" {
		t.Fatalf("placeholders must read as unset: %q %q", cfg.OMDbAPIKey, cfg.GeminiAPIKey)
	}
}

func TestHTTPAddrResolution(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "8080")
	if got := LoadConfig().HTTPAddr; got != ":8080" {
		t.Fatalf("expected :8080, got %q", got)
	}

	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	if got := LoadConfig().HTTPAddr; got != "127.0.0.1:9000" {
		t.Fatalf("expected HTTP_ADDR to win, got %q", got)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CACHE_TTL_SECONDS", "-5")
	t.Setenv("GEMINI_RPS", "fast")
	t.Setenv("CACHE_DISABLED", "maybe")
	cfg := LoadConfig()

	if cfg.CacheTTL != 300*time.Second || cfg.GeminiRPS != 5 || cfg.CacheDisabled {
		t.Fatalf("expected fallbacks, got %v %v %v", cfg.CacheTTL, cfg.GeminiRPS, cfg.CacheDisabled)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("OMDB_API_KEY=from-file\nMOVIEMATE_TEST_ONLY=loaded\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("OMDB_API_KEY", "from-env")
	t.Setenv("MOVIEMATE_TEST_ONLY", "")
	os.Unsetenv("MOVIEMATE_TEST_ONLY")

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("OMDB_API_KEY"); got != "from-env" {
		t.Fatalf("existing value overridden: %q", got)
	}
	if got := os.Getenv("MOVIEMATE_TEST_ONLY"); got != "loaded" {
		t.Fatalf("expected value from file, got %q", got)
	}
}
