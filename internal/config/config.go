package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vitalwatch/vitalwatch/internal/logger"
)

type Config struct {
	HTTPAddr string
	DB       DBConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	AI       AIConfig
	Email    EmailConfig
	Alerts   AlertsConfig
	Logger   LoggerConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host string
	Port string
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

type AIConfig struct {
	GeminiAPIKey string
	// Models are tried in order until one responds.
	Models       []string
	OpenAIAPIKey string
}

type EmailConfig struct {
	FromEmail      string
	ResendAPIKey   string
	SendGridAPIKey string
	MailgunAPIKey  string
	MailgunDomain  string
	// ProviderOrder controls the fallback chain.
	ProviderOrder  []string
	AttemptTimeout time.Duration
}

type AlertsConfig struct {
	Cooldown          time.Duration
	WindowSize        int
	DashboardWindow   int
	LocationFreshness time.Duration
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr: getEnvOrDefault("HTTP_ADDR", ":8080"),
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "vitalwatch"),
		},
		Redis: RedisConfig{
			Host: getEnvOrDefault("REDIS_HOST", "localhost"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		MQTT: MQTTConfig{
			Broker:   getEnvOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: getEnvOrDefault("MQTT_CLIENT_ID", "vitalwatch-ingest"),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			Topic:    getEnvOrDefault("MQTT_TOPIC", "vitalwatch/sensor/+"),
		},
		AI: AIConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Models: getListOrDefault("GEMINI_MODELS", []string{
				"gemini-2.5-flash",
				"gemini-1.5-flash",
				"gemini-1.5-pro",
			}),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		},
		Email: EmailConfig{
			FromEmail:      getEnvOrDefault("FROM_EMAIL", "alerts@vitalwatch.app"),
			ResendAPIKey:   os.Getenv("RESEND_API_KEY"),
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			MailgunAPIKey:  os.Getenv("MAILGUN_API_KEY"),
			MailgunDomain:  os.Getenv("MAILGUN_DOMAIN"),
			ProviderOrder:  getListOrDefault("EMAIL_PROVIDER_ORDER", []string{"resend", "sendgrid", "mailgun"}),
			AttemptTimeout: getDurationOrDefault("EMAIL_ATTEMPT_TIMEOUT", 10*time.Second),
		},
		Alerts: AlertsConfig{
			Cooldown:          getDurationOrDefault("ALERT_COOLDOWN", 60*time.Second),
			WindowSize:        getIntOrDefault("VITALS_WINDOW_SIZE", 20),
			DashboardWindow:   getIntOrDefault("VITALS_DASHBOARD_WINDOW", 100),
			LocationFreshness: getDurationOrDefault("LOCATION_FRESHNESS", 15*time.Minute),
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the service cannot run without. API keys are
// optional: the AI endpoints and email dispatch report themselves as
// unconfigured instead of failing startup.
func (c *Config) Validate() error {
	if c.Alerts.WindowSize < 2 {
		return fmt.Errorf("VITALS_WINDOW_SIZE must be at least 2, got %d", c.Alerts.WindowSize)
	}
	if c.Alerts.DashboardWindow < c.Alerts.WindowSize {
		return fmt.Errorf("VITALS_DASHBOARD_WINDOW must be >= VITALS_WINDOW_SIZE")
	}
	if c.Alerts.Cooldown <= 0 {
		return fmt.Errorf("ALERT_COOLDOWN must be positive")
	}
	if len(c.Email.ProviderOrder) == 0 {
		return fmt.Errorf("EMAIL_PROVIDER_ORDER must name at least one provider")
	}
	for _, p := range c.Email.ProviderOrder {
		switch p {
		case "resend", "sendgrid", "mailgun":
		default:
			return fmt.Errorf("unknown email provider %q in EMAIL_PROVIDER_ORDER", p)
		}
	}
	return nil
}
