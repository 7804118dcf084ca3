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

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Oracle   OracleConfig
	Practice PracticeConfig
	Grading  GradingConfig
	Jobs     JobsConfig
	Exports  ExportsConfig
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
	Host         string
	Port         int
	Password     string
	DB           int
	CacheEnabled bool
	DefaultTTL   time.Duration
}

// AuthConfig governs token issuance for presentation gateways (bot, voice, web).
type AuthConfig struct {
	JWTSecret      string
	JWTExpiration  time.Duration
	GatewayKeyHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// OracleConfig points the grading and generation clients at the external
// assistants API.
type OracleConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	GraderName     string
	GeneratorName  string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	PollTimeout    time.Duration
	MaxAttempts    int
	RetryBackoff   time.Duration
	AssistantTTL   time.Duration
}

// PracticeConfig tunes the daily practice workflow.
type PracticeConfig struct {
	SetSize              int
	MaxRecurringMistakes int
	MasteryRecurring     int
	MasteryFirstTry      int
	GenerationRounds     int
	DefaultTopic         string
}

// GradingConfig controls the asynchronous grading queue.
type GradingConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// JobsConfig toggles the scheduled sweeps.
type JobsConfig struct {
	FinalizeEnabled  bool
	FinalizeAt       string
	WeeklyEnabled    bool
	WeeklyDay        string
	WeeklyAt         string
	MissedDayPenalty int
}

// ExportsConfig controls rendered summary storage and download links.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
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
		Host:         v.GetString("REDIS_HOST"),
		Port:         v.GetInt("REDIS_PORT"),
		Password:     v.GetString("REDIS_PASSWORD"),
		DB:           v.GetInt("REDIS_DB"),
		CacheEnabled: v.GetBool("REDIS_CACHE_ENABLED"),
		DefaultTTL:   parseDuration(v.GetString("REDIS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpiration:  parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		GatewayKeyHash: v.GetString("GATEWAY_KEY_HASH"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Oracle = OracleConfig{
		BaseURL:        v.GetString("ORACLE_BASE_URL"),
		APIKey:         v.GetString("ORACLE_API_KEY"),
		Model:          v.GetString("ORACLE_MODEL"),
		GraderName:     v.GetString("ORACLE_GRADER_NAME"),
		GeneratorName:  v.GetString("ORACLE_GENERATOR_NAME"),
		RequestTimeout: parseDuration(v.GetString("ORACLE_REQUEST_TIMEOUT"), 30*time.Second),
		PollInterval:   parseDuration(v.GetString("ORACLE_POLL_INTERVAL"), 2*time.Second),
		PollTimeout:    parseDuration(v.GetString("ORACLE_POLL_TIMEOUT"), 90*time.Second),
		MaxAttempts:    v.GetInt("ORACLE_MAX_ATTEMPTS"),
		RetryBackoff:   parseDuration(v.GetString("ORACLE_RETRY_BACKOFF"), 2*time.Second),
		AssistantTTL:   parseDuration(v.GetString("ORACLE_ASSISTANT_CACHE_TTL"), 12*time.Hour),
	}

	cfg.Practice = PracticeConfig{
		SetSize:              v.GetInt("PRACTICE_SET_SIZE"),
		MaxRecurringMistakes: v.GetInt("PRACTICE_MAX_RECURRING"),
		MasteryRecurring:     v.GetInt("PRACTICE_MASTERY_RECURRING"),
		MasteryFirstTry:      v.GetInt("PRACTICE_MASTERY_FIRST_TRY"),
		GenerationRounds:     v.GetInt("PRACTICE_GENERATION_ROUNDS"),
		DefaultTopic:         v.GetString("PRACTICE_DEFAULT_TOPIC"),
	}

	cfg.Grading = GradingConfig{
		Workers:    v.GetInt("GRADING_WORKERS"),
		BufferSize: v.GetInt("GRADING_BUFFER_SIZE"),
		MaxRetries: v.GetInt("GRADING_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("GRADING_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Jobs = JobsConfig{
		FinalizeEnabled:  v.GetBool("ENABLE_SESSION_FINALIZER"),
		FinalizeAt:       v.GetString("SESSION_FINALIZE_AT"),
		WeeklyEnabled:    v.GetBool("ENABLE_WEEKLY_SUMMARY"),
		WeeklyDay:        v.GetString("WEEKLY_SUMMARY_DAY"),
		WeeklyAt:         v.GetString("WEEKLY_SUMMARY_AT"),
		MissedDayPenalty: v.GetInt("WEEKLY_MISSED_DAY_PENALTY"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
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
	v.SetDefault("DB_NAME", "satzwerk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CACHE_ENABLED", true)
	v.SetDefault("REDIS_CACHE_TTL", "10m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("GATEWAY_KEY_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ORACLE_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("ORACLE_API_KEY", "")
	v.SetDefault("ORACLE_MODEL", "gpt-4o")
	v.SetDefault("ORACLE_GRADER_NAME", "translation-grader")
	v.SetDefault("ORACLE_GENERATOR_NAME", "sentence-generator")
	v.SetDefault("ORACLE_REQUEST_TIMEOUT", "30s")
	v.SetDefault("ORACLE_POLL_INTERVAL", "2s")
	v.SetDefault("ORACLE_POLL_TIMEOUT", "90s")
	v.SetDefault("ORACLE_MAX_ATTEMPTS", 3)
	v.SetDefault("ORACLE_RETRY_BACKOFF", "2s")
	v.SetDefault("ORACLE_ASSISTANT_CACHE_TTL", "12h")

	v.SetDefault("PRACTICE_SET_SIZE", 7)
	v.SetDefault("PRACTICE_MAX_RECURRING", 5)
	v.SetDefault("PRACTICE_MASTERY_RECURRING", 85)
	v.SetDefault("PRACTICE_MASTERY_FIRST_TRY", 80)
	v.SetDefault("PRACTICE_GENERATION_ROUNDS", 3)
	v.SetDefault("PRACTICE_DEFAULT_TOPIC", "everyday life")

	v.SetDefault("GRADING_WORKERS", 4)
	v.SetDefault("GRADING_BUFFER_SIZE", 64)
	v.SetDefault("GRADING_MAX_RETRIES", 2)
	v.SetDefault("GRADING_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_SESSION_FINALIZER", true)
	v.SetDefault("SESSION_FINALIZE_AT", "00:05")
	v.SetDefault("ENABLE_WEEKLY_SUMMARY", false)
	v.SetDefault("WEEKLY_SUMMARY_DAY", "sunday")
	v.SetDefault("WEEKLY_SUMMARY_AT", "20:00")
	v.SetDefault("WEEKLY_MISSED_DAY_PENALTY", 20)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
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
