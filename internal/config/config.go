// README: Config loader with env defaults for HTTP, AI provider, rate limits, and job settings.
package config

import (
	"os"
	"strconv"
)

type RateLimitConfig struct {
	JobsMax               int
	JobsWindowSeconds     int
	GenerateMax           int
	GenerateWindowSeconds int
}

type JobsConfig struct {
	Workers              int
	TTLSeconds           int
	PruneIntervalSeconds int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	AI struct {
		GeminiKey      string
		Model          string
		TimeoutSeconds int
	}
	Maps struct {
		APIKey string
	}
	Redis struct {
		Addr string
	}
	Limits struct {
		MaxBodyBytes int64
	}
	RateLimit RateLimitConfig
	Jobs      JobsConfig
	Currency  struct {
		TTLSeconds int
	}
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("ATLAS_HTTP_ADDR", ":8080")
	cfg.AI.GeminiKey = envOrError("GEMINI_API_KEY")
	cfg.AI.Model = envOrDefault("ATLAS_AI_MODEL", "gemini-2.0-flash")
	cfg.AI.TimeoutSeconds = envOrDefaultInt("ATLAS_AI_TIMEOUT_SECONDS", 90)
	cfg.Maps.APIKey = envOrDefault("MAPS_API_KEY", "")
	cfg.Redis.Addr = envOrDefault("ATLAS_REDIS_ADDR", "")
	cfg.Limits.MaxBodyBytes = int64(envOrDefaultInt("ATLAS_MAX_BODY_BYTES", 10*1024))
	cfg.RateLimit.JobsMax = envOrDefaultInt("ATLAS_RATE_JOBS_MAX", 5)
	cfg.RateLimit.JobsWindowSeconds = envOrDefaultInt("ATLAS_RATE_JOBS_WINDOW", 300)
	cfg.RateLimit.GenerateMax = envOrDefaultInt("ATLAS_RATE_GENERATE_MAX", 10)
	cfg.RateLimit.GenerateWindowSeconds = envOrDefaultInt("ATLAS_RATE_GENERATE_WINDOW", 60)
	cfg.Jobs.Workers = envOrDefaultInt("ATLAS_JOB_WORKERS", 4)
	cfg.Jobs.TTLSeconds = envOrDefaultInt("ATLAS_JOB_TTL_SECONDS", 3600)
	cfg.Jobs.PruneIntervalSeconds = envOrDefaultInt("ATLAS_JOB_PRUNE_INTERVAL", 300)
	cfg.Currency.TTLSeconds = envOrDefaultInt("ATLAS_CURRENCY_TTL_SECONDS", 3600)
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrError(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	panic("environment variable " + key + " is required")
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
