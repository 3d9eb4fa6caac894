package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Gateway GatewayConfig
	Storage StorageConfig
	Events  EventsConfig
	Stub    StubConfig
	SMTP    SMTPConfig
	Tracing TracingConfig
}

type AppConfig struct {
	Environment string
	LogFilePath string
	BotName     string
	Position    string // "bottom-right" or "bottom-left"
	StorageKey  string // message log key
}

type GatewayConfig struct {
	BaseURL  string // empty selects the placeholder gateway
	APIRoute string
	Timeout  time.Duration
}

type StorageConfig struct {
	Driver     string // "memory", "redis" or "postgres"
	RedisURL   string
	Connection string
}

type EventsConfig struct {
	NatsURL string // empty disables lifecycle events
}

type StubConfig struct {
	Port               string
	SlotMinutes        int
	CorsAllowedOrigins string
}

// SMTPConfig is used by the stub for booking confirmations. An empty
// Host disables email.
type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "widget.log"),
			BotName:     getEnv("WIDGET_BOT_NAME", "Chat Assistant"),
			Position:    getEnv("WIDGET_POSITION", "bottom-right"),
			StorageKey:  getEnv("WIDGET_STORAGE_KEY", "chatbot-messages"),
		},
		Gateway: GatewayConfig{
			BaseURL:  getEnv("CHATBOT_API_BASE_URL", ""),
			APIRoute: getEnv("CHATBOT_API_ROUTE", "api/v1/chat"),
			Timeout:  getEnvAsDuration("CHATBOT_API_TIMEOUT", 30*time.Second),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "memory"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379"),
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Events: EventsConfig{
			NatsURL: getEnv("NATS_URL", ""),
		},
		Stub: StubConfig{
			Port:               getEnv("STUB_PORT", "3000"),
			SlotMinutes:        getEnvAsInt("STUB_SLOT_MINUTES", 30),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Vet Clinic"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
