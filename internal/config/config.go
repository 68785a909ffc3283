// Package config loads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"codeplay/internal/db"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	MinJWTSecretLength = 32
)

// Continuation conflict policies
const (
	PolicyLastWriterWins = "last_writer_wins"
	PolicyRejectStale    = "reject_stale"
)

// DefaultFallbackRoutes are materialized as subpages when a generated page
// links nowhere.
var DefaultFallbackRoutes = []string{"/about", "/contact", "/privacy", "/terms", "/faq", "/blog"}

// GeminiConfig configures the primary provider
type GeminiConfig struct {
	Keys    []string
	Model   string
	BaseURL string
}

// GatewayConfig configures the OpenAI-compatible fallback provider
type GatewayConfig struct {
	APIKey string
	URL    string
	Model  string
}

// Config is the complete runtime configuration
type Config struct {
	Port        string
	Environment string
	Database    *db.Config
	RedisURL    string
	JWTSecret   string
	JWTIssuer   string

	AllowedOrigins []string

	Gemini  GeminiConfig
	Gateway GatewayConfig

	RotationInterval time.Duration
	RotationSweep    string

	SubpageFallbackRoutes []string
	SubpageMinChars       int

	ContinuePolicy     string
	PublicCacheTTL     time.Duration
	BuildRatePerMinute int
}

// Load reads the process environment
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	e := env{getenv}
	cfg := &Config{
		Port:        e.str("PORT", "8080"),
		Environment: e.str("ENVIRONMENT", EnvDevelopment),
		RedisURL:    e.str("REDIS_URL", ""),
		JWTSecret:   e.str("JWT_SECRET", ""),
		JWTIssuer:   e.str("JWT_ISSUER", ""),

		AllowedOrigins: e.list("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),

		Gemini: GeminiConfig{
			Keys:    loadKeyPool(getenv, "GEMINI_API_KEY"),
			Model:   e.str("GEMINI_MODEL", "gemini-2.0-flash-exp"),
			BaseURL: e.str("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		},
		Gateway: GatewayConfig{
			APIKey: normalizeAPIKey(e.first([]string{"AI_GATEWAY_API_KEY", "LOVABLE_API_KEY"}, "")),
			URL:    e.str("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev/v1/chat/completions"),
			Model:  e.str("AI_GATEWAY_MODEL", "google/gemini-2.5-flash"),
		},

		RotationInterval: e.dur("KEY_ROTATION_INTERVAL", time.Hour),
		RotationSweep:    e.str("KEY_ROTATION_SWEEP", "@every 15m"),

		SubpageFallbackRoutes: e.routes("SUBPAGE_FALLBACK_ROUTES", DefaultFallbackRoutes),
		SubpageMinChars:       e.num("SUBPAGE_MIN_CHARS", 800),

		ContinuePolicy:     e.str("CONTINUE_CONFLICT_POLICY", PolicyLastWriterWins),
		PublicCacheTTL:     e.dur("PUBLIC_CACHE_TTL", 5*time.Minute),
		BuildRatePerMinute: e.num("BUILD_RATE_PER_MINUTE", 6),
	}

	if cfg.RotationSweep == "off" {
		cfg.RotationSweep = ""
	}

	cfg.Database = parseDatabaseURL(getenv("DATABASE_URL"))
	if cfg.Database == nil {
		cfg.Database = &db.Config{
			Host:     e.str("DB_HOST", "localhost"),
			Port:     e.num("DB_PORT", 5432),
			User:     e.str("DB_USER", "postgres"),
			Password: e.str("DB_PASSWORD", "postgres"),
			DBName:   e.str("DB_NAME", "codeplay"),
			SSLMode:  e.str("DB_SSL_MODE", "disable"),
			TimeZone: e.str("DB_TIMEZONE", "UTC"),
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether ENVIRONMENT is production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	var problems []string
	switch c.ContinuePolicy {
	case PolicyLastWriterWins, PolicyRejectStale:
	default:
		problems = append(problems, fmt.Sprintf("CONTINUE_CONFLICT_POLICY must be %s or %s, got %q",
			PolicyLastWriterWins, PolicyRejectStale, c.ContinuePolicy))
	}
	if c.RotationInterval <= 0 {
		problems = append(problems, "KEY_ROTATION_INTERVAL must be positive")
	}
	if c.SubpageMinChars < 0 {
		problems = append(problems, "SUBPAGE_MIN_CHARS must not be negative")
	}
	if c.IsProduction() {
		if len(c.JWTSecret) < MinJWTSecretLength {
			problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d characters in production", MinJWTSecretLength))
		}
		if len(c.Gemini.Keys) == 0 {
			problems = append(problems, "GEMINI_API_KEY is required in production")
		}
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

func parseDatabaseURL(databaseURL string) *db.Config {
	if databaseURL == "" {
		return nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return nil
	}

	password, _ := u.User.Password()
	port := 5432
	if u.Port() != "" {
		if p, err := strconv.Atoi(u.Port()); err == nil {
			port = p
		}
	}
	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return &db.Config{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
		TimeZone: "UTC",
	}
}
