package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr            = ":8080"
	defaultDatabaseURL         = "identity.db"
	defaultJWTSecret           = "change-me-jwt-secret"
	defaultRefreshTokenPepper  = "change-me-refresh-pepper"
	defaultJWTAccessTTLMinutes = "15"
	defaultRefreshTTL          = "168h"
	defaultMailConfirmationTTL = "24h"
	defaultForgotPasswordTTL   = "1h"
	defaultBcryptCost          = "10"
	defaultMailQueue           = "identity.mail"
	defaultGoogleJWKSURL       = "https://www.googleapis.com/oauth2/v3/certs"
	defaultFacebookGraphURL    = "https://graph.facebook.com"
)

// Config is the full runtime configuration. Values are resolved from, in
// increasing priority: built-in defaults, the YAML file named by
// AUTH_CONFIG_FILE, a .env file, and the process environment.
type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret    string
	JWTAccessTTL time.Duration

	RefreshTTL         time.Duration
	RefreshTokenPepper string
	RefreshRotate      bool

	MailConfirmationRequired bool
	MailConfirmationTTL      time.Duration
	ForgotPasswordTTL        time.Duration
	BcryptCost               int

	RedisAddr string
	RateLimit RateLimitConfig

	RabbitMQURL string
	MailQueue   string

	GoogleClientID   string
	GoogleJWKSURL    string
	FacebookGraphURL string

	CORSAllowedOrigins []string
}

// RateLimitConfig drives the token bucket in front of credential endpoints.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Load reads .env (if present), the optional YAML file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	file, err := readFileValues(os.Getenv("AUTH_CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	cfg := &Config{}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(src.get("APP_ENV", "dev")))
	cfg.HTTPAddr = strings.TrimSpace(src.get("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(src.get("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(src.get("JWT_SECRET", defaultJWTSecret))
	cfg.RefreshTokenPepper = strings.TrimSpace(src.get("REFRESH_TOKEN_PEPPER", defaultRefreshTokenPepper))
	cfg.RefreshRotate = src.getBool("REFRESH_ROTATE", "true")
	cfg.MailConfirmationRequired = src.getBool("MAIL_CONFIRMATION_REQUIRED", "true")

	minutes, err := src.getInt("JWT_ACCESS_TTL_MINUTES", defaultJWTAccessTTLMinutes)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL = time.Duration(minutes) * time.Minute

	if cfg.RefreshTTL, err = src.getDuration("REFRESH_TTL", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.MailConfirmationTTL, err = src.getDuration("MAIL_CONFIRMATION_TTL", defaultMailConfirmationTTL); err != nil {
		return nil, err
	}
	if cfg.ForgotPasswordTTL, err = src.getDuration("FORGOT_PASSWORD_TTL", defaultForgotPasswordTTL); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = src.getInt("BCRYPT_COST", defaultBcryptCost); err != nil {
		return nil, err
	}

	cfg.RedisAddr = strings.TrimSpace(src.get("REDIS_ADDR", ""))
	if cfg.RateLimit, err = loadRateLimit(src); err != nil {
		return nil, err
	}

	cfg.RabbitMQURL = strings.TrimSpace(src.get("RABBITMQ_URL", ""))
	cfg.MailQueue = strings.TrimSpace(src.get("MAIL_QUEUE", defaultMailQueue))

	cfg.GoogleClientID = strings.TrimSpace(src.get("GOOGLE_CLIENT_ID", ""))
	cfg.GoogleJWKSURL = strings.TrimSpace(src.get("GOOGLE_JWKS_URL", defaultGoogleJWKSURL))
	cfg.FacebookGraphURL = strings.TrimRight(strings.TrimSpace(src.get("FACEBOOK_GRAPH_URL", defaultFacebookGraphURL)), "/")

	cfg.CORSAllowedOrigins = splitList(src.get("CORS_ALLOWED_ORIGINS", ""))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s mail_confirmation_required=%t refresh_rotate=%t",
		cfg.AppEnv, cfg.HTTPAddr, cfg.MailConfirmationRequired, cfg.RefreshRotate)

	return cfg, nil
}

func loadRateLimit(src source) (RateLimitConfig, error) {
	rl := RateLimitConfig{
		Enabled: src.getBool("RATE_LIMIT_ENABLED", "true"),
		Prefix:  src.get("RATE_LIMIT_PREFIX", "rl"),
	}
	var err error
	if rl.Capacity, err = src.getInt("RATE_LIMIT_CAPACITY", "10"); err != nil {
		return rl, err
	}
	if rl.RefillTokens, err = src.getInt("RATE_LIMIT_REFILL_TOKENS", "1"); err != nil {
		return rl, err
	}
	if rl.RefillInterval, err = src.getDuration("RATE_LIMIT_REFILL_INTERVAL", "6s"); err != nil {
		return rl, err
	}
	if rl.TTL, err = src.getDuration("RATE_LIMIT_TTL", "10m"); err != nil {
		return rl, err
	}

	if rl.Capacity < 1 {
		rl.Capacity = 1
	}
	if rl.RefillTokens < 1 {
		rl.RefillTokens = 1
	}
	if rl.RefillInterval <= 0 {
		rl.RefillInterval = time.Second
	}
	if minTTL := 5 * rl.RefillInterval; rl.TTL < minTTL {
		rl.TTL = minTTL
	}
	return rl, nil
}

func validateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL_MINUTES must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if cfg.MailConfirmationTTL <= 0 {
		return fmt.Errorf("MAIL_CONFIRMATION_TTL must be > 0")
	}
	if cfg.ForgotPasswordTTL <= 0 {
		return fmt.Errorf("FORGOT_PASSWORD_TTL must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.RefreshTokenPepper, defaultRefreshTokenPepper) {
			return fmt.Errorf("in prod/release REFRESH_TOKEN_PEPPER must be set and not default")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

// readFileValues loads a flat KEY: value YAML document.
func readFileValues(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}

type source struct {
	file map[string]string
}

func (s source) get(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	if v, ok := s.file[name]; ok && v != "" {
		return v
	}
	return fallback
}

func (s source) getDuration(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(s.get(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func (s source) getInt(name, fallback string) (int, error) {
	value := strings.TrimSpace(s.get(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func (s source) getBool(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(s.get(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
