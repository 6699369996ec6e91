package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds process configuration. It is built once at startup and
// treated as immutable for the process lifetime.
type Config struct {
	Port             string
	Env              string
	DataDir          string
	IngestToken      string
	CORSAllowOrigins []string
	RateLimitPerSec  float64
	RateLimitBurst   int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	_ = godotenv.Load(".env", "cmd/.env")

	return Config{
		Port:             getEnv("PORT", "3000"),
		Env:              normalizeEnv(getEnv("ENV", "dev")),
		DataDir:          getEnv("DATA_DIR", "./data"),
		IngestToken:      os.Getenv("INGEST_TOKEN"),
		CORSAllowOrigins: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		RateLimitPerSec:  getEnvFloat("INGEST_RATE_PER_SEC", 0),
		RateLimitBurst:   getEnvInt("INGEST_RATE_BURST", 0),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return val
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
