package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig   // Настройки HTTP сервера
	Storage  StorageConfig  // Настройки хранилища ключ-значение
	JWT      JWTConfig      // Настройки JWT авторизации
	Tracker  TrackerConfig  // Таймеры и лимиты трекера задач
	OpenAI   OpenAIConfig   // Настройки клиента OpenAI
	Stripe   StripeConfig   // Настройки платежей Stripe
	Calendar CalendarConfig // Настройки Google Calendar
	Redis    RedisConfig    // Настройки rate limit через Redis
	Sentry   SentryConfig   // Настройки отправки ошибок в Sentry
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	Host        string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	StaticDir   string `envconfig:"STATIC_DIR" default:"./public"`
	LandingPage string `envconfig:"LANDING_PAGE" default:"/landing.html"`
}

// StorageConfig содержит настройки хранилища
type StorageConfig struct {
	Driver     string `envconfig:"STORAGE_DRIVER" default:"sqlite"` // sqlite или postgres
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/taskflow.db"`
	Host       string `envconfig:"DB_HOST" default:"localhost"`
	Port       string `envconfig:"DB_PORT" default:"5432"`
	User       string `envconfig:"DB_USER" default:"taskflow"`
	Password   string `envconfig:"DB_PASSWORD" default:"taskflow_pass"`
	Name       string `envconfig:"DB_NAME" default:"taskflow"`
	SSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns   int32  `envconfig:"DB_MIN_CONNS" default:"5"`
}

// JWTConfig содержит настройки JWT авторизации
type JWTConfig struct {
	Secret          string `envconfig:"JWT_SECRET" required:"true"`
	ExpirationHours int    `envconfig:"JWT_EXPIRATION_HOURS" default:"24"`
}

// TrackerConfig содержит интервалы фоновых проверок и лимиты тарифов
type TrackerConfig struct {
	NotificationInterval time.Duration `envconfig:"NOTIFICATION_INTERVAL" default:"10s"`
	IdleInterval         time.Duration `envconfig:"IDLE_CHECK_INTERVAL" default:"30s"`
	IdleThreshold        time.Duration `envconfig:"IDLE_THRESHOLD" default:"5m"`
	DeadlineWarning      time.Duration `envconfig:"DEADLINE_WARNING" default:"5m"`
	FreeTaskLimit        int           `envconfig:"FREE_TASK_LIMIT" default:"10"`
	Timezone             string        `envconfig:"TIMEZONE" default:"UTC"`
}

// OpenAIConfig содержит настройки клиента chat completions
type OpenAIConfig struct {
	BaseURL     string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	ChatModel   string        `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-3.5-turbo"`
	VisionModel string        `envconfig:"OPENAI_VISION_MODEL" default:"gpt-4-vision-preview"`
	Timeout     time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
}

// StripeConfig содержит ключи Stripe; пустой SecretKey включает симуляцию оплаты
type StripeConfig struct {
	SecretKey         string `envconfig:"STRIPE_SECRET_KEY"`
	WebhookSecret     string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	ProPriceID        string `envconfig:"STRIPE_PRO_PRICE_ID"`
	EnterprisePriceID string `envconfig:"STRIPE_ENTERPRISE_PRICE_ID"`
	SuccessURL        string `envconfig:"STRIPE_SUCCESS_URL" default:"http://localhost:8080/app.html?checkout=success"`
	CancelURL         string `envconfig:"STRIPE_CANCEL_URL" default:"http://localhost:8080/app.html?checkout=cancel"`
}

// CalendarConfig содержит OAuth настройки Google Calendar
type CalendarConfig struct {
	ClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `envconfig:"GOOGLE_REDIRECT_URI"`
	BaseURL      string `envconfig:"GOOGLE_CALENDAR_BASE_URL" default:"https://www.googleapis.com/calendar/v3"`
}

// RedisConfig содержит настройки ограничения частоты запросов к прокси API
type RedisConfig struct {
	URL            string `envconfig:"REDIS_URL"`
	ProxyPerMinute int    `envconfig:"PROXY_RATE_LIMIT" default:"60"`
}

// SentryConfig содержит DSN Sentry; пустой DSN отключает отправку
type SentryConfig struct {
	DSN         string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

// GetExpiration возвращает срок действия токена как time.Duration
func (j JWTConfig) GetExpiration() time.Duration {
	return time.Duration(j.ExpirationHours) * time.Hour
}

// DSN возвращает строку подключения к PostgreSQL
func (s StorageConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		s.User, s.Password, s.Host, s.Port, s.Name, s.SSLMode,
	)
}

// Location возвращает часовой пояс для подсчета времени "за сегодня"
func (t TrackerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", t.Timezone, err)
	}
	return loc, nil
}

// StripeEnabled сообщает, настроена ли реальная интеграция со Stripe
func (s StripeConfig) StripeEnabled() bool {
	return s.SecretKey != ""
}

// Load читает конфигурацию из .env (если есть) и переменных окружения
func Load() (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Storage.Driver != "sqlite" && cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	return &cfg, nil
}
