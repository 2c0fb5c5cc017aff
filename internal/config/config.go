package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type AppConfig struct {
	AppName          string
	Environment      string
	HTTPPort         string
	CORSOrigins      []string
	MigrationsDir    string
	MigrationsAuto   bool
	SchedulerEnabled bool
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads the process environment. A .env file in the working directory
// is loaded first when present; real environment variables win over it.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:          req("APP_NAME"),
		Environment:      req("APP_ENV"),
		HTTPPort:         req("HTTP_PORT"),
		CORSOrigins:      splitList(opt("CORS_ORIGINS", "http://localhost:3000")),
		MigrationsDir:    opt("MIGRATIONS_DIR", ""),
		MigrationsAuto:   getBool("MIGRATIONS_AUTO", true),
		SchedulerEnabled: getBool("SCHEDULER_ENABLED", true),
	}

	cfg.Database = DatabaseConfig{
		DBHost:                opt("DB_HOST", "localhost"),
		DBPort:                opt("DB_PORT", "5432"),
		DBName:                opt("DB_NAME", "fixitnow"),
		DBUser:                opt("DB_USER", "postgres"),
		DBPassword:            opt("DB_PASSWORD", ""),
		DBSSLMode:             opt("DB_SSL_MODE", "disable"),
		ConnectTimeout:        getDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(getInt("DB_POOL_MAX_CONNS", 10)),
		PoolMinConns:          int32(getInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   getDuration("DB_POOL_MAX_CONN_LIFETIME", time.Hour),
		PoolMaxConnIdleTime:   getDuration("DB_POOL_MAX_CONN_IDLE_TIME", 30*time.Minute),
		PoolHealthCheckPeriod: getDuration("DB_POOL_HEALTH_CHECK_PERIOD", time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
		DB:       getInt("REDIS_DB", 0),
		TTL:      time.Duration(getInt("REDIS_TTL", 600)) * time.Second,
	}

	access := req("JWT_SECRET")
	cfg.JWT = JWTConfig{
		AccessSecret:     access,
		RefreshSecret:    opt("JWT_REFRESH_SECRET", access),
		AccessExpiresIn:  getDuration("JWT_ACCESS_TTL", 24*time.Hour),
		RefreshExpiresIn: getDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
	}

	cfg.RateLimit = RateLimitConfig{
		Max:    getInt("RATE_LIMIT_MAX", 100),
		Window: getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
	}

	cfg.Seed = SeedConfig{
		AdminEmail:    opt("ADMIN_EMAIL", ""),
		AdminPassword: opt("ADMIN_PASSWORD", ""),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func getInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// getDuration accepts Go duration strings ("15m") or plain seconds.
func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
