package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/pillars-backend/internal/data/db"
	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/envutil"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	ServiceName string
	Environment string
	HTTPAddr    string

	DBDriver    string
	Postgres    db.PostgresConfig
	SQLitePath  string
	AutoMigrate bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GenerationTimeout  time.Duration
	MaxMessageChars    int
	MemoryHistoryCap   int
	PromptHistoryTurns int

	DefaultAllowedPillars []string
	ProfileCacheSize      int
	ProfileCacheTTL       time.Duration

	StreakLocation *time.Location
	InitialFreezes int

	PersonasDir        string
	CORSAllowedOrigins []string
	MetricsEnabled     bool
	Tracing            observability.OtelConfig
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		ServiceName: envutil.String("SERVICE_NAME", "pillars"),
		Environment: envutil.String("APP_ENV", "development"),
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),

		DBDriver: strings.ToLower(envutil.String("DB_DRIVER", DriverPostgres)),
		Postgres: db.PostgresConfig{
			Host:     envutil.String("POSTGRES_HOST", "localhost"),
			Port:     envutil.String("POSTGRES_PORT", "5432"),
			User:     envutil.String("POSTGRES_USER", "postgres"),
			Password: envutil.String("POSTGRES_PASSWORD", ""),
			Name:     envutil.String("POSTGRES_NAME", "pillars"),
			SSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			MaxOpen:  envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdle:  envutil.Int("POSTGRES_MAX_IDLE_CONNS", 5),
		},
		SQLitePath:  envutil.String("SQLITE_PATH", "pillars.db"),
		AutoMigrate: envutil.Bool("DB_AUTO_MIGRATE", true),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:   envutil.String("OPENAI_MODEL", ""),

		GenerationTimeout:  envutil.Seconds("GENERATION_TIMEOUT_SECONDS", 25*time.Second),
		MaxMessageChars:    envutil.Int("MAX_MESSAGE_CHARS", 4000),
		MemoryHistoryCap:   envutil.Int("MEMORY_HISTORY_CAP", memory.DefaultHistoryCap),
		PromptHistoryTurns: envutil.Int("PROMPT_HISTORY_TURNS", 6),

		DefaultAllowedPillars: envutil.List("DEFAULT_ALLOWED_PILLARS", nil),
		ProfileCacheSize:      envutil.Int("PROFILE_CACHE_SIZE", 4096),
		ProfileCacheTTL:       envutil.Seconds("PROFILE_CACHE_TTL_SECONDS", 30*time.Second),

		InitialFreezes: envutil.Int("STREAK_INITIAL_FREEZES", 2),

		PersonasDir:        envutil.String("PERSONAS_DIR", ""),
		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
		MetricsEnabled:     envutil.Bool("METRICS_ENABLED", true),
	}
	cfg.Tracing = observability.OtelConfig{
		Enabled:     envutil.Bool("OTEL_ENABLED", false),
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     envutil.String("SERVICE_VERSION", ""),
		Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		Headers:     observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")),
		SampleRatio: envutil.Float("OTEL_SAMPLER_RATIO", 0.1),
	}

	tz := envutil.String("STREAK_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Config{}, fmt.Errorf("STREAK_TIMEZONE %q: %w", tz, err)
	}
	cfg.StreakLocation = loc

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	if log != nil {
		log.Info("config loaded",
			"env", cfg.Environment,
			"http_addr", cfg.HTTPAddr,
			"db_driver", cfg.DBDriver,
			"redis", cfg.RedisAddr != "",
			"llm", cfg.OpenAIAPIKey != "",
			"streak_tz", tz,
		)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %s or %s, got %q", DriverPostgres, DriverSQLite, c.DBDriver)
	}
	if c.InitialFreezes < 0 {
		return fmt.Errorf("STREAK_INITIAL_FREEZES must be >= 0")
	}
	if r := c.Tracing.SampleRatio; r < 0 || r > 1 {
		return fmt.Errorf("OTEL_SAMPLER_RATIO must be within [0,1], got %v", r)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT_SECONDS must be positive")
	}
	return nil
}
