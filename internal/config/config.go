package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/10mm-gms/blueprint/internal/ui/layout"
)

// ProductNamePlaceholder is the product name a fresh blueprint ships with.
// Deployments are expected to replace it.
const ProductNamePlaceholder = "PRODUCT_NAME"

// Config holds all configuration for the application.
type Config struct {
	// Server
	Port                string
	WebPort             string
	BaseURL             string
	Environment         string // development, staging, production
	LogLevel            string
	ShutdownGracePeriod time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	RateLimitRPS        float64
	RateLimitBurst      int

	// Site
	ProductName string
	Layout      layout.Config

	// Database
	DatabaseURL  string
	AutoSeedData bool

	// Tokens
	SecretKey          string
	JWTAlgorithm       string
	AccessTokenExpire  time.Duration
	RefreshTokenExpire time.Duration
	AllowedDomain      string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	SessionSecret      string
	SessionMaxAge      time.Duration

	// Messaging
	SESRegion            string
	SESAccessKey         string
	SESSecretKey         string
	SESFromEmail         string
	MockSES              bool
	GoogleChatWebhookURL string

	// Telemetry
	ServiceName  string
	OTLPEndpoint string

	// Assets
	AssetsS3Bucket string
	AssetsS3Prefix string
	AssetsS3Region string
}

// Overrides holds values supplied on the command line. Empty fields are ignored.
type Overrides struct {
	SiteFile string
	Port     string
	WebPort  string
}

// Load reads configuration from environment variables.
// In development, it will also load from a .env file if present.
// Precedence: command line > environment > site file > defaults.
func Load(overrides *Overrides) (*Config, error) {
	// Load .env file in development (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	cfg := defaults()

	siteFile := getEnv("SITE_CONFIG", "")
	if overrides != nil && overrides.SiteFile != "" {
		siteFile = overrides.SiteFile
	}
	if siteFile != "" {
		site, err := loadSiteFile(siteFile)
		if err != nil {
			return nil, fmt.Errorf("load site config: %w", err)
		}
		if err := site.apply(cfg); err != nil {
			return nil, fmt.Errorf("load site config %s: %w", siteFile, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if overrides != nil {
		if overrides.Port != "" {
			cfg.Port = overrides.Port
		}
		if overrides.WebPort != "" {
			cfg.WebPort = overrides.WebPort
		}
	}

	cfg.GoogleCallbackURL = strings.TrimRight(cfg.BaseURL, "/") + "/auth/callback"

	if err := cfg.finalizeSecrets(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:                "8000",
		WebPort:             "5173",
		BaseURL:             "http://localhost:5173",
		Environment:         "development",
		LogLevel:            "info",
		ShutdownGracePeriod: 30 * time.Second,
		ReadTimeout:         15 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         60 * time.Second,
		RateLimitRPS:        25,
		RateLimitBurst:      50,

		ProductName: ProductNamePlaceholder,
		ServiceName: "blueprint",
		Layout:      layout.Defaults(),

		JWTAlgorithm:       "HS256",
		AccessTokenExpire:  60 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		AllowedDomain:      "10mm.net",
		SessionMaxAge:      7 * 24 * time.Hour, // 1 week
	}
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.WebPort = getEnv("WEB_PORT", cfg.WebPort)
	cfg.BaseURL = getEnv("BASE_URL", cfg.BaseURL)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.ProductName = getEnv("PRODUCT_NAME", cfg.ProductName)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.AutoSeedData = getEnv("AUTO_SEED_DATA", "") == "true"

	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.JWTAlgorithm = getEnv("JWT_ALGORITHM", cfg.JWTAlgorithm)
	cfg.AllowedDomain = getEnv("ALLOWED_DOMAIN", cfg.AllowedDomain)
	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", cfg.GoogleClientID)
	cfg.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", cfg.GoogleClientSecret)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)

	cfg.SESRegion = getEnv("SES_REGION", cfg.SESRegion)
	cfg.SESAccessKey = getEnv("SES_ACCESS_KEY", cfg.SESAccessKey)
	cfg.SESSecretKey = getEnv("SES_SECRET_KEY", cfg.SESSecretKey)
	cfg.SESFromEmail = getEnv("SES_FROM_EMAIL", cfg.SESFromEmail)
	cfg.MockSES = getEnv("MOCK_SES", "") == "true"
	cfg.GoogleChatWebhookURL = getEnv("GOOGLE_CHAT_WEBHOOK_URL", cfg.GoogleChatWebhookURL)

	cfg.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.ServiceName)
	cfg.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint)

	cfg.AssetsS3Bucket = getEnv("ASSETS_S3_BUCKET", cfg.AssetsS3Bucket)
	cfg.AssetsS3Prefix = getEnv("ASSETS_S3_PREFIX", cfg.AssetsS3Prefix)
	cfg.AssetsS3Region = getEnv("ASSETS_S3_REGION", cfg.AssetsS3Region)

	var err error
	if cfg.AccessTokenExpire, err = getMinutes("ACCESS_TOKEN_EXPIRE_MINUTES", cfg.AccessTokenExpire); err != nil {
		return err
	}
	if cfg.RefreshTokenExpire, err = getDays("REFRESH_TOKEN_EXPIRE_DAYS", cfg.RefreshTokenExpire); err != nil {
		return err
	}
	if cfg.ShutdownGracePeriod, err = getDuration("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod); err != nil {
		return err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return err
	}
	return nil
}

// finalizeSecrets fills in development secrets so a fresh checkout runs
// without a .env file. Production must provide real ones.
func (c *Config) finalizeSecrets() error {
	if c.SecretKey == "" {
		if c.IsProduction() {
			return fmt.Errorf("SECRET_KEY is required in production")
		}
		c.SecretKey = "development-secret-key-not-for-production-use"
	}

	if c.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.SessionSecret = deriveSecret(c.SecretKey)
	}
	return nil
}

// deriveSecret stretches key into the 64 characters the session store needs.
func deriveSecret(key string) string {
	sum := sha256.Sum256([]byte("session:" + key))
	return hex.EncodeToString(sum[:])
}

func (c *Config) validate() error {
	if c.IsProduction() && len(c.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters in production, got %d", len(c.SecretKey))
	}
	// Need 64 bytes for hash key + block key
	if len(c.SessionSecret) < 64 {
		return fmt.Errorf("SESSION_SECRET must be at least 64 characters, got %d", len(c.SessionSecret))
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("SHUTDOWN_GRACE_PERIOD must be positive, got %s", c.ShutdownGracePeriod)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if c.AccessTokenExpire <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.RefreshTokenExpire <= 0 {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SESConfigured reports whether every SES setting is present.
func (c *Config) SESConfigured() bool {
	return c.SESRegion != "" && c.SESAccessKey != "" && c.SESSecretKey != "" && c.SESFromEmail != ""
}

// GoogleOAuthConfigured reports whether staff sign-in can be offered.
func (c *Config) GoogleOAuthConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// getEnv returns the value of an environment variable or a fallback default.
func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, raw)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", key, raw)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return v, nil
}

func getMinutes(key string, fallback time.Duration) (time.Duration, error) {
	n, err := getInt(key, -1)
	if err != nil || n == -1 {
		return fallback, err
	}
	return time.Duration(n) * time.Minute, nil
}

func getDays(key string, fallback time.Duration) (time.Duration, error) {
	n, err := getInt(key, -1)
	if err != nil || n == -1 {
		return fallback, err
	}
	return time.Duration(n) * 24 * time.Hour, nil
}
