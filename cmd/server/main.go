package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/natefinch/lumberjack.v2"

	apihttp "moviemate/apiservice/internal/api/http"
	"moviemate/apiservice/internal/app"
	"moviemate/apiservice/internal/discovery"
	"moviemate/apiservice/internal/metrics"
	"moviemate/apiservice/internal/providers/gemini"
	"moviemate/apiservice/internal/providers/omdb"
	"moviemate/apiservice/internal/telemetry"
)

const serviceName = "moviemate"

var version = "dev"

func main() {
	dotenvErr := app.LoadDotEnv()
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	slog.SetDefault(logger)
	if dotenvErr != nil {
		logger.Warn("failed to read .env", slog.String("error", dotenvErr.Error()))
	}
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), serviceName, version)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Bool("hasLogFile", cfg.LogFile != ""),
		slog.String("staticDir", cfg.StaticDir),
		slog.Duration("upstreamTimeout", cfg.UpstreamTimeout),
		slog.Bool("hasOMDbKey", cfg.OMDbAPIKey != ""),
		slog.Bool("hasGeminiKey", cfg.GeminiAPIKey != ""),
		slog.String("geminiModel", cfg.GeminiModel),
		slog.String("geminiFallbackModel", cfg.GeminiFallbackModel),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
		slog.Int("cacheMaxEntries", cfg.CacheMaxEntries),
		slog.Bool("cacheDisabled", cfg.CacheDisabled),
	)
	if cfg.OMDbAPIKey == "" {
		logger.Warn("OMDB_API_KEY not set, catalog endpoints will fail. Get your free key at https://www.omdbapi.com/apikey.aspx")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, filter and suggest will fail. Get your free key at https://ai.google.dev/")
	}

	omdbClient := omdb.NewClient(omdb.Config{
		APIKey:        cfg.OMDbAPIKey,
		BaseURL:       cfg.OMDbBaseURL,
		Client:        &http.Client{Timeout: cfg.UpstreamTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		MaxConcurrent: int64(cfg.OMDbMaxConcurrent),
	})
	geminiClient := gemini.NewClient(gemini.Config{
		APIKey:            cfg.GeminiAPIKey,
		BaseURL:           cfg.GeminiBaseURL,
		PrimaryModel:      cfg.GeminiModel,
		FallbackModel:     cfg.GeminiFallbackModel,
		RequestsPerSecond: cfg.GeminiRPS,
		Client:            &http.Client{Timeout: 2 * cfg.UpstreamTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		Logger:            logger.With(slog.String("component", "gemini")),
	})

	discoveryService := discovery.NewService(omdbClient, geminiClient, buildServiceOptions(cfg, logger)...)

	handler := apihttp.NewServer(discoveryService,
		apihttp.WithLogger(logger),
		apihttp.WithStaticDir(cfg.StaticDir),
		apihttp.WithPosterHosts(cfg.PosterHosts),
		apihttp.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Filter fans out a generation plus a dozen lookups; leave room for both.
		WriteTimeout: 4 * cfg.UpstreamTimeout,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("moviemate service started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("moviemate service stopped")
}

// newLogger writes to stdout and, when file is set, to a rotated log file.
func newLogger(levelRaw, formatRaw, file string) *slog.Logger {
	var out io.Writer = os.Stdout
	if file = strings.TrimSpace(file); file != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	options := &slog.HandlerOptions{Level: parseLogLevel(levelRaw)}
	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		return slog.New(slog.NewJSONHandler(out, options))
	}
	return slog.New(slog.NewTextHandler(out, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildServiceOptions(cfg app.Config, logger *slog.Logger) []discovery.ServiceOption {
	opts := []discovery.ServiceOption{discovery.WithLogger(logger)}

	if cfg.CacheDisabled {
		return append(opts, discovery.WithCacheDisabled(true))
	}

	memory := discovery.NewMemoryCache(discovery.MemoryCacheConfig{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.CacheMaxEntries,
	})
	opts = append(opts, discovery.WithCache(memory))

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return opts
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return opts
	}
	redisCache := discovery.NewRedisCache(redis.NewClient(redisOpts), cfg.CacheTTL, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		return opts
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return append(opts, discovery.WithCache(redisCache))
}
