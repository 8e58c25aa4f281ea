package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Export storage backends.
const (
	ExportsBackendFilesystem = "filesystem"
	ExportsBackendS3         = "s3"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Analytics AnalyticsConfig
	Events    EventsConfig
	Scheduler SchedulerConfig
	Exports   ExportsConfig
	Sentry    SentryConfig
}

type DatabaseConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxOpenConns   int
	MaxIdleConns   int
	ConnectRetries int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the verification settings for bearer tokens issued by the identity provider.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs caching and sizing of snag list analytics payloads.
type AnalyticsConfig struct {
	CacheEnabled   bool
	CacheTTL       time.Duration
	LocalCacheSize int
	TimelineLimit  int
}

// EventsConfig configures the snag event publisher.
type EventsConfig struct {
	Channel    string
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// SchedulerConfig controls cron driven maintenance tasks.
type SchedulerConfig struct {
	Enabled           bool
	Timezone          string
	CacheResetCron    string
	OverdueDigestCron string
}

// ExportsConfig selects where rendered snag reports are stored.
type ExportsConfig struct {
	Backend         string
	StorageDir      string
	S3Bucket        string
	S3Prefix        string
	S3Region        string
	S3Endpoint      string
	S3AccessKeyID   string
	S3SecretKey     string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

type SentryConfig struct {
	DSN string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:   v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled:   v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL:       parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 5*time.Minute),
		LocalCacheSize: v.GetInt("LOCAL_CACHE_SIZE"),
		TimelineLimit:  v.GetInt("TIMELINE_LIMIT"),
	}

	cfg.Events = EventsConfig{
		Channel:    v.GetString("EVENTS_CHANNEL"),
		Workers:    v.GetInt("EVENTS_WORKERS"),
		MaxRetries: v.GetInt("EVENTS_RETRIES"),
		RetryDelay: parseDuration(v.GetString("EVENTS_RETRY_DELAY"), time.Second),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:           v.GetBool("SCHEDULER_ENABLED"),
		Timezone:          v.GetString("SCHEDULER_TIMEZONE"),
		CacheResetCron:    v.GetString("CACHE_RESET_CRON"),
		OverdueDigestCron: v.GetString("OVERDUE_DIGEST_CRON"),
	}

	cfg.Exports = ExportsConfig{
		Backend:         strings.ToLower(v.GetString("EXPORTS_BACKEND")),
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		S3Bucket:        v.GetString("EXPORTS_S3_BUCKET"),
		S3Prefix:        v.GetString("EXPORTS_S3_PREFIX"),
		S3Region:        v.GetString("EXPORTS_S3_REGION"),
		S3Endpoint:      v.GetString("EXPORTS_S3_ENDPOINT"),
		S3AccessKeyID:   v.GetString("EXPORTS_S3_ACCESS_KEY_ID"),
		S3SecretKey:     v.GetString("EXPORTS_S3_SECRET_ACCESS_KEY"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Sentry = SentryConfig{DSN: v.GetString("SENTRY_DSN")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "propie")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_RETRIES", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ANALYTICS_CACHE", true)
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")
	v.SetDefault("LOCAL_CACHE_SIZE", 512)
	v.SetDefault("TIMELINE_LIMIT", 20)

	v.SetDefault("EVENTS_CHANNEL", "propie:snag-events")
	v.SetDefault("EVENTS_WORKERS", 2)
	v.SetDefault("EVENTS_RETRIES", 3)
	v.SetDefault("EVENTS_RETRY_DELAY", "1s")

	v.SetDefault("SCHEDULER_ENABLED", true)
	v.SetDefault("SCHEDULER_TIMEZONE", "Europe/Dublin")
	v.SetDefault("CACHE_RESET_CRON", "0 0 * * *")
	v.SetDefault("OVERDUE_DIGEST_CRON", "0 7 * * *")

	v.SetDefault("EXPORTS_BACKEND", ExportsBackendFilesystem)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_S3_BUCKET", "")
	v.SetDefault("EXPORTS_S3_PREFIX", "snag-reports")
	v.SetDefault("EXPORTS_S3_REGION", "eu-west-1")
	v.SetDefault("EXPORTS_S3_ENDPOINT", "")
	v.SetDefault("EXPORTS_S3_ACCESS_KEY_ID", "")
	v.SetDefault("EXPORTS_S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")

	v.SetDefault("SENTRY_DSN", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
