package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Quota - лимит запросов за фиксированное окно
type Quota struct {
	Limit  int
	Window time.Duration
}

// Geofence - прямоугольная зона обслуживания
type Geofence struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Config - структура для хранения конфигурации приложения
type Config struct {
	DatabaseURL string `env:"DATABASE_URL"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Redis Config
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Session Config
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	// Operator portal credentials
	OperatorUsername     string `env:"OPERATOR_USERNAME" envDefault:"operator"`
	OperatorPasswordHash string `env:"OPERATOR_PASSWORD_HASH"`
	OperatorPassword     string `env:"OPERATOR_PASSWORD"`

	// Validation Config
	Geofence             Geofence
	DescriptionMaxLength int `env:"DESCRIPTION_MAX_LENGTH" envDefault:"500"`

	// Rate limit Config
	RateLimitBackend    string  `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RegisterQuota       Quota   `env:"RATE_LIMIT_REGISTER" envDefault:"3/1h"`
	LoginQuota          Quota   `env:"RATE_LIMIT_LOGIN" envDefault:"5/1m"`
	OperatorLoginQuota  Quota   `env:"RATE_LIMIT_OPERATOR_LOGIN" envDefault:"5/1m"`
	SOSQuota            Quota   `env:"RATE_LIMIT_SOS" envDefault:"1/1m"`
	PollRPS             float64 `env:"POLL_RPS" envDefault:"2"`
	PollBurst           int     `env:"POLL_BURST" envDefault:"10"`
	AnalyticsWindowDays int     `env:"ANALYTICS_WINDOW_DAYS" envDefault:"30"`

	// Audit webhook Config
	AuditWebhookURL        string        `env:"AUDIT_WEBHOOK_URL"`
	AuditWebhookSecret     string        `env:"AUDIT_WEBHOOK_SECRET"`
	AuditWebhookTimeout    time.Duration `env:"AUDIT_WEBHOOK_TIMEOUT" envDefault:"5s"`
	AuditWebhookMaxRetries int           `env:"AUDIT_WEBHOOK_MAX_RETRIES" envDefault:"3"`
	AuditWebhookBaseDelay  time.Duration `env:"AUDIT_WEBHOOK_BASE_DELAY" envDefault:"1s"`
}

// LoadConfig загружает конфигурацию из переменных окружения и .env файла
func LoadConfig() (*Config, error) {
	// Загрузка переменных окружения из .env файла (если есть)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("ошибка загрузки файла .env: %w", err)
	}

	cfg := &Config{
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:           os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvAsInt("REDIS_DB", 0),
		SessionTTL:          getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", true),

		OperatorUsername:     getEnv("OPERATOR_USERNAME", "operator"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		OperatorPassword:     os.Getenv("OPERATOR_PASSWORD"),

		Geofence: Geofence{
			MinLat: getEnvAsFloat("GEOFENCE_MIN_LAT", 6.0),
			MaxLat: getEnvAsFloat("GEOFENCE_MAX_LAT", 38.0),
			MinLon: getEnvAsFloat("GEOFENCE_MIN_LON", 68.0),
			MaxLon: getEnvAsFloat("GEOFENCE_MAX_LON", 98.0),
		},
		DescriptionMaxLength: getEnvAsInt("DESCRIPTION_MAX_LENGTH", 500),

		RateLimitBackend:    getEnv("RATE_LIMIT_BACKEND", "memory"),
		PollRPS:             getEnvAsFloat("POLL_RPS", 2),
		PollBurst:           getEnvAsInt("POLL_BURST", 10),
		AnalyticsWindowDays: getEnvAsInt("ANALYTICS_WINDOW_DAYS", 30),

		AuditWebhookURL:        os.Getenv("AUDIT_WEBHOOK_URL"),
		AuditWebhookSecret:     os.Getenv("AUDIT_WEBHOOK_SECRET"),
		AuditWebhookTimeout:    getEnvAsDuration("AUDIT_WEBHOOK_TIMEOUT", 5*time.Second),
		AuditWebhookMaxRetries: getEnvAsInt("AUDIT_WEBHOOK_MAX_RETRIES", 3),
		AuditWebhookBaseDelay:  getEnvAsDuration("AUDIT_WEBHOOK_BASE_DELAY", time.Second),
	}

	quotas := []struct {
		key    string
		def    string
		target *Quota
	}{
		{"RATE_LIMIT_REGISTER", "3/1h", &cfg.RegisterQuota},
		{"RATE_LIMIT_LOGIN", "5/1m", &cfg.LoginQuota},
		{"RATE_LIMIT_OPERATOR_LOGIN", "5/1m", &cfg.OperatorLoginQuota},
		{"RATE_LIMIT_SOS", "1/1m", &cfg.SOSQuota},
	}
	for _, q := range quotas {
		parsed, err := ParseQuota(getEnv(q.key, q.def))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", q.key, err)
		}
		*q.target = parsed
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.OperatorPasswordHash == "" && c.OperatorPassword == "" {
		return fmt.Errorf("OPERATOR_PASSWORD_HASH or OPERATOR_PASSWORD must be set")
	}
	if c.Geofence.MinLat >= c.Geofence.MaxLat || c.Geofence.MinLon >= c.Geofence.MaxLon {
		return fmt.Errorf("geofence bounds are inverted")
	}
	if c.DescriptionMaxLength <= 0 {
		return fmt.Errorf("DESCRIPTION_MAX_LENGTH must be positive")
	}
	switch c.RateLimitBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be memory or redis, got %q", c.RateLimitBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// ParseQuota разбирает строку вида "5/1m" (запросов за окно)
func ParseQuota(raw string) (Quota, error) {
	limitStr, windowStr, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok {
		return Quota{}, fmt.Errorf("quota %q must look like <limit>/<window>", raw)
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return Quota{}, fmt.Errorf("quota %q: limit must be a positive integer", raw)
	}
	window, err := time.ParseDuration(windowStr)
	if err != nil || window <= 0 {
		return Quota{}, fmt.Errorf("quota %q: window must be a positive duration", raw)
	}
	return Quota{Limit: limit, Window: window}, nil
}

// getEnv возвращает значение переменной окружения или значение по умолчанию
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt возвращает значение переменной окружения как int или значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration возвращает значение переменной окружения как time.Duration или значение по умолчанию
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
