package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains application-wide settings sourced from the environment.
// Only the database is mandatory; the scrape API and LLM keys are optional
// because the pipeline degrades gracefully without them.
type Config struct {
	DatabaseURL    string
	Addr           string
	AllowedOrigins []string

	FirecrawlAPIKey string
	OpenAIAPIKey    string
	ScrapeProxies   []string

	CacheDir   string
	VenuesFile string

	LogLevel  string
	LogFormat string
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return Config{}, errors.New("DATABASE_URL env var is required")
	}

	addr := fmt.Sprintf(":%s", envOrDefault("PORT", "8080"))

	origins := parseAllowedOrigins(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	return Config{
		DatabaseURL:     dsn,
		Addr:            addr,
		AllowedOrigins:  origins,
		FirecrawlAPIKey: os.Getenv("FIRECRAWL_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		ScrapeProxies:   splitList(os.Getenv("SCRAPE_PROXIES")),
		CacheDir:        envOrDefault("CACHE_DIR", "cache"),
		VenuesFile:      os.Getenv("VENUES_FILE"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseAllowedOrigins(raw string) []string {
	return splitList(raw)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
