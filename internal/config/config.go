package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Identity verification mode constants
const (
	IdentityModeSession = "session"
	IdentityModeHTTPAPI = "http_api"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory     = "memory"
	MetricsCacheTypeRedis      = "redis"
	MetricsCacheTypeRedisAside = "redis_aside"
)

// BitBadges SIWBB endpoints (vendor-defined, overridable for testing)
const (
	DefaultAuthorizeURL = "https://bitbadges.io/siwbb/authorize"
	DefaultTokenURL     = "https://api.bitbadges.io/api/v0/siwbb/token"
	DefaultRevokeURL    = "https://api.bitbadges.io/api/v0/siwbb/token/revoke"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string
	DBInitTimeout  time.Duration

	// BitBadges OAuth settings
	BitBadgesClientID       string
	BitBadgesClientSecret   string
	BitBadgesAPIKey         string
	BitBadgesRedirectURI    string
	AuthorizeURL            string
	TokenURL                string
	RevokeURL               string
	SuccessRedirectPath     string // where the callback sends the browser
	OAuthTimeout            time.Duration
	OAuthInsecureSkipVerify bool

	// Identity provider
	IdentityMode string // "session" or "http_api"

	// HTTP API identity verification
	IdentityAPIURL                string
	IdentityAPITimeout            time.Duration
	IdentityAPIInsecureSkipVerify bool
	IdentityAPIAuthMode           string // "none", "simple", or "hmac"
	IdentityAPIAuthSecret         string
	IdentityAPIAuthHeader         string
	IdentityAPIMaxRetries         int
	IdentityAPIRetryDelay         time.Duration
	IdentityAPIMaxRetryDelay      time.Duration

	// Audit logging
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration

	// Revoke reconciliation
	RevokeSweepInterval time.Duration
	RevokePendingMaxAge time.Duration

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	ConnectRateLimit         int    // requests per minute for connect/disconnect
	CallbackRateLimit        int    // requests per minute for the OAuth callback
	RateLimitCleanupInterval time.Duration

	// Redis (rate limiting + metrics cache)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string
	MetricsCacheClientTTL      time.Duration
	MetricsCacheSizePerConn    int // MB, for redis_aside client-side cache
	CacheInitTimeout           time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "badgelink.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction:  getEnvBool("PRODUCTION", false),
		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 3600),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		// BitBadges OAuth settings
		BitBadgesClientID:       getEnv("BITBADGES_CLIENT_ID", ""),
		BitBadgesClientSecret:   getEnv("BITBADGES_CLIENT_SECRET", ""),
		BitBadgesAPIKey:         getEnv("BITBADGES_API_KEY", ""),
		BitBadgesRedirectURI:    getEnv("BITBADGES_REDIRECT_URI", ""),
		AuthorizeURL:            getEnv("BITBADGES_AUTHORIZE_URL", DefaultAuthorizeURL),
		TokenURL:                getEnv("BITBADGES_TOKEN_URL", DefaultTokenURL),
		RevokeURL:               getEnv("BITBADGES_REVOKE_URL", DefaultRevokeURL),
		SuccessRedirectPath:     getEnv("SUCCESS_REDIRECT_PATH", "/protected"),
		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		// Identity provider
		IdentityMode: getEnv("IDENTITY_MODE", IdentityModeSession),

		// HTTP API identity verification
		IdentityAPIURL:                getEnv("IDENTITY_API_URL", ""),
		IdentityAPITimeout:            getEnvDuration("IDENTITY_API_TIMEOUT", 10*time.Second),
		IdentityAPIInsecureSkipVerify: getEnvBool("IDENTITY_API_INSECURE_SKIP_VERIFY", false),
		IdentityAPIAuthMode:           getEnv("IDENTITY_API_AUTH_MODE", "none"),
		IdentityAPIAuthSecret:         getEnv("IDENTITY_API_AUTH_SECRET", ""),
		IdentityAPIAuthHeader:         getEnv("IDENTITY_API_AUTH_HEADER", "X-API-Secret"),
		IdentityAPIMaxRetries:         getEnvInt("IDENTITY_API_MAX_RETRIES", 3),
		IdentityAPIRetryDelay:         getEnvDuration("IDENTITY_API_RETRY_DELAY", 1*time.Second),
		IdentityAPIMaxRetryDelay:      getEnvDuration("IDENTITY_API_MAX_RETRY_DELAY", 10*time.Second),

		// Audit logging
		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),

		// Revoke reconciliation
		RevokeSweepInterval: getEnvDuration("REVOKE_SWEEP_INTERVAL", 1*time.Hour),
		RevokePendingMaxAge: getEnvDuration("REVOKE_PENDING_MAX_AGE", 24*time.Hour),

		// Rate limiting
		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", "memory"),
		ConnectRateLimit:         getEnvInt("CONNECT_RATE_LIMIT", 10),
		CallbackRateLimit:        getEnvInt("CALLBACK_RATE_LIMIT", 30),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),

		// Redis
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		// Metrics
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", true),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 30*time.Second),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),
		MetricsCacheClientTTL:      getEnvDuration("METRICS_CACHE_CLIENT_TTL", 30*time.Second),
		MetricsCacheSizePerConn:    getEnvInt("METRICS_CACHE_SIZE_PER_CONN", 128),
		CacheInitTimeout:           getEnvDuration("CACHE_INIT_TIMEOUT", 10*time.Second),
	}
}

// Validate checks that the configuration is internally consistent and that the
// vendor credentials required for the link flow are present.
func (c *Config) Validate() error {
	if c.BitBadgesClientID == "" {
		return errors.New("BITBADGES_CLIENT_ID is required")
	}
	if c.BitBadgesClientSecret == "" {
		return errors.New("BITBADGES_CLIENT_SECRET is required")
	}
	if c.BitBadgesAPIKey == "" {
		return errors.New("BITBADGES_API_KEY is required")
	}
	if c.BitBadgesRedirectURI == "" {
		return errors.New("BITBADGES_REDIRECT_URI is required")
	}

	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("invalid DATABASE_DRIVER: %s (must be: sqlite, postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == "" {
		return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
	}

	if !strings.HasPrefix(c.SuccessRedirectPath, "/") {
		return fmt.Errorf("SUCCESS_REDIRECT_PATH must be a relative path: %s", c.SuccessRedirectPath)
	}

	switch c.MetricsCacheType {
	case MetricsCacheTypeMemory, MetricsCacheTypeRedis, MetricsCacheTypeRedisAside:
	default:
		return fmt.Errorf(
			"invalid METRICS_CACHE_TYPE: %s (must be: memory, redis, redis_aside)",
			c.MetricsCacheType,
		)
	}

	if c.RateLimitStore != "memory" && c.RateLimitStore != "redis" {
		return fmt.Errorf("invalid RATE_LIMIT_STORE: %s (must be: memory, redis)", c.RateLimitStore)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
