package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	// MediaBaseURL prefixes product image links returned by the catalog.
	MediaBaseURL string

	Observability ObservabilityConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBMetrics         bool

	AuthTokenTTL time.Duration

	RateLimit RateLimitConfig
	Bootstrap BootstrapConfig
	Scheduler SchedulerConfig
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TokenRate     float64
	TokenBurst    int
}

// SchedulerConfig controls background maintenance jobs.
type SchedulerConfig struct {
	Enabled          bool
	RunInterval      time.Duration
	BatchSize        int
	SessionRetention time.Duration
	EnabledJobs      []string
}

// ObservabilityConfig carries logging and OpenTelemetry settings.
type ObservabilityConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OtelEndpoint  string
	OtelProtocol  string
	OtelSampling  float64
	DeploymentEnv string
}

type BootstrapConfig struct {
	EnsureAdmin    bool
	AdminEmail     string
	AdminPassword  string
	AdminFirstname string
	AdminSurname   string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "storefront"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		MediaBaseURL:      strings.TrimRight(getenv("MEDIA_BASE_URL", "http://localhost:8080"), "/"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "storefront"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "storefront.db"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 10)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 50)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),
		DBConnMaxIdleTime: int(getenvInt64("DATABASE_CONN_MAX_IDLE_TIME", 60)),
		DBMetrics:         getenvBool("DATABASE_METRICS", true),
		AuthTokenTTL:      time.Duration(getenvInt64("AUTH_TOKEN_TTL_HOURS", 24)) * time.Hour,
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", true),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       int(getenvInt64("RATE_LIMIT_REDIS_DB", 0)),
			TokenRate:     getenvFloat("RATE_LIMIT_TOKEN_RATE", 0.2),
			TokenBurst:    int(getenvInt64("RATE_LIMIT_TOKEN_BURST", 5)),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdmin:    getenvBool("BOOTSTRAP_ENSURE_ADMIN", true),
			AdminEmail:     strings.ToLower(strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "admin@storefront.local"))),
			AdminPassword:  getenv("BOOTSTRAP_ADMIN_PASSWORD", "admin12345"),
			AdminFirstname: getenv("BOOTSTRAP_ADMIN_FIRSTNAME", "Store"),
			AdminSurname:   getenv("BOOTSTRAP_ADMIN_SURNAME", "Admin"),
		},
		Observability: ObservabilityConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OtelEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
			OtelProtocol:  otlpProtocol(),
			OtelSampling:  getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
			DeploymentEnv: strings.TrimSpace(os.Getenv("DEPLOYMENT_ENV")),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getenvBool("SCHEDULER_ENABLED", true),
			RunInterval:      time.Duration(getenvInt64("SCHEDULER_RUN_INTERVAL_SECONDS", 300)) * time.Second,
			BatchSize:        int(getenvInt64("SCHEDULER_BATCH_SIZE", 500)),
			SessionRetention: time.Duration(getenvInt64("SCHEDULER_SESSION_RETENTION_HOURS", 72)) * time.Hour,
			EnabledJobs:      splitList(getenv("SCHEDULER_ENABLED_JOBS", "")),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func otlpProtocol() string {
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		return strings.ToLower(traces)
	}
	return strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")))
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
