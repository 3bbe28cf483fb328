package config

import (
	"log"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration.
type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	Env              string `envconfig:"ENV" default:"dev"`
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	CORSAllowOrigins string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	AuthJWTSecret    string `envconfig:"AUTH_JWT_SECRET"`

	LLMProvider          string `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMModel             string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAITimeoutSeconds int    `envconfig:"OPENAI_TIMEOUT_SECONDS" default:"120"`

	RedisURL         string `envconfig:"REDIS_URL"`
	RateLimitBackend string `envconfig:"RATE_LIMIT_BACKEND"`

	// Raw limit strings. Parsed once into Limits by Load.
	GenerationRateLimit      string `envconfig:"CV_GENERATION_RATE_LIMIT"`
	GenerationRateWindow     string `envconfig:"CV_GENERATION_RATE_WINDOW"`
	GenerationMonthlyLimit   string `envconfig:"CV_GENERATION_MONTHLY_LIMIT"`
	OptimizationRateLimit    string `envconfig:"CV_OPTIMIZE_RATE_LIMIT"`
	OptimizationRateWindow   string `envconfig:"CV_OPTIMIZE_RATE_WINDOW"`
	OptimizationMonthlyLimit string `envconfig:"CV_OPTIMIZE_MONTHLY_LIMIT"`

	Limits LimitDefaults `ignored:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.RateLimitBackend = strings.ToLower(strings.TrimSpace(cfg.RateLimitBackend))
	cfg.Limits = cfg.limitDefaults()

	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if cfg.Env == "production" && cfg.AuthJWTSecret == "" {
		log.Printf("AUTH_JWT_SECRET is required in production")
	}
	return cfg, nil
}

// CORSOrigins splits the configured origin list.
func (c Config) CORSOrigins() []string {
	return splitAndTrim(c.CORSAllowOrigins)
}

// IsDevLike reports whether the environment allows in-memory fallbacks and header identity.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func (c Config) limitDefaults() LimitDefaults {
	return LimitDefaults{
		Generation: ActionLimits{
			RateLimit:     ParseLimit(c.GenerationRateLimit, DefaultGenerationRateLimit),
			WindowSeconds: ParseWindowSeconds(c.GenerationRateWindow, DefaultWindowSeconds),
			MonthlyLimit:  ParseLimit(c.GenerationMonthlyLimit, DefaultGenerationMonthlyLimit),
		},
		Optimization: ActionLimits{
			RateLimit:     ParseLimit(c.OptimizationRateLimit, DefaultOptimizationRateLimit),
			WindowSeconds: ParseWindowSeconds(c.OptimizationRateWindow, DefaultWindowSeconds),
			MonthlyLimit:  ParseLimit(c.OptimizationMonthlyLimit, DefaultOptimizationMonthlyLimit),
		},
	}
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
	case "test":
		return "test"
	default:
		return "dev"
	}
}
