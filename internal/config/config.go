package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Database DatabaseConfig
	Feed     FeedConfig
	Auth     AuthConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr     string
	RateLimitDur time.Duration
}

// CacheConfig holds cache/KV store configuration
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Prefix        string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// FeedConfig holds feed engine tuning
type FeedConfig struct {
	TierTimeout time.Duration
}

// AuthConfig holds token validation configuration
type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	rateLimitDur := flag.Duration("rate-limit", 200*time.Millisecond, "Minimum delay between feed requests per user")
	cacheBackend := flag.String("cache-backend", "redis", "Cache backend: memory or redis")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	cachePrefix := flag.String("cache-prefix", "streamforge:", "Key prefix for the cache store")
	tierTimeout := flag.Duration("feed-tier-timeout", 2*time.Second, "Per-tier candidate query deadline")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "streamforge", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	flag.Parse()

	applyEnvOverrides(httpAddr, rateLimitDur, cacheBackend, redisAddr, cachePrefix, tierTimeout, logLevel, dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode)

	return &Config{
		Server: ServerConfig{
			HTTPAddr:     *httpAddr,
			RateLimitDur: *rateLimitDur,
		},
		Cache: CacheConfig{
			Backend:       *cacheBackend,
			RedisAddr:     *redisAddr,
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       envInt("REDIS_DB", 0),
			Prefix:        *cachePrefix,
		},
		Database: DatabaseConfig{
			Host:     *dbHost,
			Port:     *dbPort,
			User:     *dbUser,
			Password: *dbPassword,
			Database: *dbName,
			SSLMode:  *dbSSLMode,
		},
		Feed: FeedConfig{
			TierTimeout: *tierTimeout,
		},
		Auth: loadAuthConfig(),
		Logging: LoggingConfig{
			Level: *logLevel,
		},
	}
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		JWTSecret:   getEnvOrDefault("AUTH_JWT_SECRET", "change-me-in-production"),
		JWTIssuer:   getEnvOrDefault("AUTH_JWT_ISSUER", "streamforge"),
		JWTAudience: getEnvOrDefault("AUTH_JWT_AUDIENCE", "streamforge-users"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func applyEnvOverrides(
	httpAddr *string,
	rateLimitDur *time.Duration,
	cacheBackend *string,
	redisAddr *string,
	cachePrefix *string,
	tierTimeout *time.Duration,
	logLevel *string,
	dbHost *string,
	dbPort *int,
	dbUser *string,
	dbPassword *string,
	dbName *string,
	dbSSLMode *string,
) {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		*httpAddr = v
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*rateLimitDur = d
		}
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		*cacheBackend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		*redisAddr = v
	}
	if v := os.Getenv("CACHE_PREFIX"); v != "" {
		*cachePrefix = v
	}
	if v := os.Getenv("FEED_TIER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*tierTimeout = d
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		*logLevel = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		*dbHost = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			*dbPort = p
		}
	}
	if v := os.Getenv("DB_USER"); v != "" {
		*dbUser = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		*dbPassword = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		*dbName = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		*dbSSLMode = v
	}
}
