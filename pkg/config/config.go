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

	Firestore FirestoreConfig
	Redis     RedisConfig
	Gemini    GeminiConfig
	CORS      CORSConfig
	Log       LogConfig
	Analytics AnalyticsConfig
	Pulse     PulseConfig
	Review    ReviewConfig
	Costs     CostsConfig
}

// FirestoreConfig locates the document store backing all domain reads.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// GeminiConfig carries credentials and model selection for the generative API.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string
	LiveModel  string
	PulseModel string
	Timeout    time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour and fan-out limits for teacher analytics.
type AnalyticsConfig struct {
	CacheEnabled  bool
	CacheTTL      time.Duration
	FetchParallel int
}

// PulseConfig holds the smart-trigger thresholds for Class Pulse regeneration.
type PulseConfig struct {
	MinNewSessions  int
	MinNewStruggles int
}

// ReviewConfig tunes weekly review generation and protects the scheduler endpoints.
type ReviewConfig struct {
	SharedSecret      string
	CooldownDays      int
	MaxReviewCount    int
	MinItems          int
	MaxItems          int
	WorkerConcurrency int
}

// CostsConfig fixes the per-million-token USD rates used by the cost aggregator.
type CostsConfig struct {
	InputPerMillion  float64
	OutputPerMillion float64
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

	cfg.Firestore = FirestoreConfig{
		ProjectID:       v.GetString("FIRESTORE_PROJECT_ID"),
		CredentialsFile: v.GetString("FIRESTORE_CREDENTIALS_FILE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Gemini = GeminiConfig{
		APIKey:     v.GetString("GEMINI_API_KEY"),
		BaseURL:    v.GetString("GEMINI_BASE_URL"),
		LiveModel:  v.GetString("GEMINI_LIVE_MODEL"),
		PulseModel: v.GetString("GEMINI_PULSE_MODEL"),
		Timeout:    parseDuration(v.GetString("GEMINI_TIMEOUT"), 30*time.Second),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled:  v.GetBool("ANALYTICS_CACHE_ENABLED"),
		CacheTTL:      parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 10*time.Minute),
		FetchParallel: v.GetInt("ANALYTICS_FETCH_PARALLEL"),
	}

	cfg.Pulse = PulseConfig{
		MinNewSessions:  v.GetInt("PULSE_MIN_NEW_SESSIONS"),
		MinNewStruggles: v.GetInt("PULSE_MIN_NEW_STRUGGLES"),
	}

	cfg.Review = ReviewConfig{
		SharedSecret:      v.GetString("REVIEW_SHARED_SECRET"),
		CooldownDays:      v.GetInt("REVIEW_COOLDOWN_DAYS"),
		MaxReviewCount:    v.GetInt("REVIEW_MAX_COUNT"),
		MinItems:          v.GetInt("REVIEW_MIN_ITEMS"),
		MaxItems:          v.GetInt("REVIEW_MAX_ITEMS"),
		WorkerConcurrency: v.GetInt("REVIEW_WORKER_CONCURRENCY"),
	}

	cfg.Costs = CostsConfig{
		InputPerMillion:  v.GetFloat64("COST_INPUT_PER_MILLION"),
		OutputPerMillion: v.GetFloat64("COST_OUTPUT_PER_MILLION"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("FIRESTORE_PROJECT_ID", "ndtutorlive")
	v.SetDefault("FIRESTORE_CREDENTIALS_FILE", "")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_LIVE_MODEL", "gemini-2.5-flash-native-audio-preview-12-2025")
	v.SetDefault("GEMINI_PULSE_MODEL", "gemini-2.5-pro")
	v.SetDefault("GEMINI_TIMEOUT", "30s")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ANALYTICS_CACHE_ENABLED", true)
	v.SetDefault("ANALYTICS_CACHE_TTL", "10m")
	v.SetDefault("ANALYTICS_FETCH_PARALLEL", 8)

	v.SetDefault("PULSE_MIN_NEW_SESSIONS", 3)
	v.SetDefault("PULSE_MIN_NEW_STRUGGLES", 5)

	v.SetDefault("REVIEW_SHARED_SECRET", "dev_review_secret")
	v.SetDefault("REVIEW_COOLDOWN_DAYS", 7)
	v.SetDefault("REVIEW_MAX_COUNT", 3)
	v.SetDefault("REVIEW_MIN_ITEMS", 3)
	v.SetDefault("REVIEW_MAX_ITEMS", 8)
	v.SetDefault("REVIEW_WORKER_CONCURRENCY", 2)

	// Gemini 2.5 Flash Native Audio pricing, USD per 1M tokens.
	v.SetDefault("COST_INPUT_PER_MILLION", 3.0)
	v.SetDefault("COST_OUTPUT_PER_MILLION", 12.0)
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
