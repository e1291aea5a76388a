package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Presence   PresenceConfig
	Anomalies  AnomaliesConfig
	Attendance AttendanceConfig
	Reports    ReportsConfig
	Security   SecurityConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PresenceConfig governs cache behaviour and the default reporting window for presence endpoints.
type PresenceConfig struct {
	Enabled           bool
	CacheTTL          time.Duration
	DefaultWindowDays int
}

// AnomaliesConfig governs the anomaly reporting endpoints.
type AnomaliesConfig struct {
	Enabled           bool
	CacheTTL          time.Duration
	DefaultWindowDays int
}

// AttendanceConfig holds fallback working-time parameters used when no
// database-stored configuration exists.
type AttendanceConfig struct {
	WorkStartHour     int
	WorkEndHour       int
	LunchBreakEnabled bool
	LunchStartHour    int
	LunchEndHour      int
	LunchDurationMin  int
	ContinuousDays    string
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// SecurityConfig carries fallback password policy knobs applied when the
// security_settings table is empty.
type SecurityConfig struct {
	PasswordMinLength int
	PreventReuse      int
	SingleSession     bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Presence = PresenceConfig{
		Enabled:           v.GetBool("ENABLE_PRESENCE"),
		CacheTTL:          parseDuration(v.GetString("PRESENCE_CACHE_TTL"), 10*time.Minute),
		DefaultWindowDays: v.GetInt("PRESENCE_DEFAULT_WINDOW_DAYS"),
	}

	cfg.Anomalies = AnomaliesConfig{
		Enabled:           v.GetBool("ENABLE_ANOMALIES"),
		CacheTTL:          parseDuration(v.GetString("ANOMALIES_CACHE_TTL"), 5*time.Minute),
		DefaultWindowDays: v.GetInt("ANOMALIES_DEFAULT_WINDOW_DAYS"),
	}

	cfg.Attendance = AttendanceConfig{
		WorkStartHour:     v.GetInt("ATTENDANCE_WORK_START_HOUR"),
		WorkEndHour:       v.GetInt("ATTENDANCE_WORK_END_HOUR"),
		LunchBreakEnabled: v.GetBool("ATTENDANCE_LUNCH_BREAK"),
		LunchStartHour:    v.GetInt("ATTENDANCE_LUNCH_START_HOUR"),
		LunchEndHour:      v.GetInt("ATTENDANCE_LUNCH_END_HOUR"),
		LunchDurationMin:  v.GetInt("ATTENDANCE_LUNCH_DURATION_MIN"),
		ContinuousDays:    v.GetString("ATTENDANCE_CONTINUOUS_DAYS"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	cfg.Security = SecurityConfig{
		PasswordMinLength: v.GetInt("SECURITY_PASSWORD_MIN_LENGTH"),
		PreventReuse:      v.GetInt("SECURITY_PREVENT_REUSE"),
		SingleSession:     v.GetBool("SECURITY_SINGLE_SESSION"),
	}

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
	v.SetDefault("DB_NAME", "senator_access")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_PRESENCE", true)
	v.SetDefault("PRESENCE_CACHE_TTL", "10m")
	v.SetDefault("PRESENCE_DEFAULT_WINDOW_DAYS", 14)

	v.SetDefault("ENABLE_ANOMALIES", true)
	v.SetDefault("ANOMALIES_CACHE_TTL", "5m")
	v.SetDefault("ANOMALIES_DEFAULT_WINDOW_DAYS", 7)

	v.SetDefault("ATTENDANCE_WORK_START_HOUR", 9)
	v.SetDefault("ATTENDANCE_WORK_END_HOUR", 17)
	v.SetDefault("ATTENDANCE_LUNCH_BREAK", true)
	v.SetDefault("ATTENDANCE_LUNCH_START_HOUR", 12)
	v.SetDefault("ATTENDANCE_LUNCH_END_HOUR", 14)
	v.SetDefault("ATTENDANCE_LUNCH_DURATION_MIN", 60)
	v.SetDefault("ATTENDANCE_CONTINUOUS_DAYS", "")

	v.SetDefault("ENABLE_REPORTS", false)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)

	v.SetDefault("SECURITY_PASSWORD_MIN_LENGTH", 8)
	v.SetDefault("SECURITY_PREVENT_REUSE", 5)
	v.SetDefault("SECURITY_SINGLE_SESSION", false)
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
