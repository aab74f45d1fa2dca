package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config содержит все конфигурационные параметры приложения
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Chat     ChatConfig
	Geo      GeoConfig
	Notify   NotifyConfig
}

// AppConfig содержит общие настройки приложения
type AppConfig struct {
	Env      string
	LogLevel string
	Port     int
}

// DatabaseConfig содержит настройки PostgreSQL
type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationPath string
}

// ChatConfig содержит настройки upstream API чат-комплишенов
type ChatConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	SiteURL  string
	SiteName string
}

// GeoConfig содержит настройки провайдера геокодинга
type GeoConfig struct {
	APIKey  string
	BaseURL string
	Limit   int
}

// NotifyConfig содержит настройки Telegram-уведомлений для администраторов
type NotifyConfig struct {
	BotToken    string
	AdminChatID int64
}

// Load загружает конфигурацию из переменных окружения и .env
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnvDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvDefault("LOG_LEVEL", "info")
	cfg.App.Port = getEnvIntDefault("APP_PORT", 8080)

	// Database
	cfg.Database.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.Database.Port = getEnvIntDefault("DB_PORT", 5432)
	cfg.Database.User = os.Getenv("DB_USER")
	cfg.Database.Password = os.Getenv("DB_PASSWORD")
	cfg.Database.Name = os.Getenv("DB_NAME")
	cfg.Database.SSLMode = getEnvDefault("DB_SSL_MODE", "disable")
	cfg.Database.MigrationPath = getEnvDefault("MIGRATION_PATH", "migrations")

	// Chat proxy
	cfg.Chat.APIKey = os.Getenv("CHAT_API_KEY")
	cfg.Chat.BaseURL = getEnvDefault("CHAT_BASE_URL", "https://openrouter.ai/api/v1")
	cfg.Chat.Model = getEnvDefault("CHAT_MODEL", "deepseek/deepseek-chat")
	cfg.Chat.SiteURL = getEnvDefault("CHAT_SITE_URL", "https://promo-pulse.app")
	cfg.Chat.SiteName = getEnvDefault("CHAT_SITE_NAME", "PromoPulse")

	// Geocoding
	cfg.Geo.APIKey = os.Getenv("GEO_API_KEY")
	cfg.Geo.BaseURL = getEnvDefault("GEO_BASE_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places")
	cfg.Geo.Limit = getEnvIntDefault("GEO_RESULT_LIMIT", 5)

	// Notifications
	cfg.Notify.BotToken = os.Getenv("NOTIFY_BOT_TOKEN")
	cfg.Notify.AdminChatID = getEnvInt64Default("NOTIFY_ADMIN_CHAT_ID", 0)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("ошибка валидации конфигурации: %w", err)
	}

	return cfg, nil
}

func getEnvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

// validateConfig проверяет корректность конфигурации
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("DB_HOST не установлен")
	}
	if config.Database.User == "" {
		return fmt.Errorf("DB_USER не установлен")
	}
	if config.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD не установлен")
	}
	if config.Database.Name == "" {
		return fmt.Errorf("DB_NAME не установлен")
	}
	if config.Chat.APIKey == "" {
		return fmt.Errorf("CHAT_API_KEY не установлен")
	}
	if config.Notify.BotToken != "" && config.Notify.AdminChatID == 0 {
		return fmt.Errorf("NOTIFY_ADMIN_CHAT_ID не установлен при заданном NOTIFY_BOT_TOKEN")
	}
	return nil
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// IsDevelopment проверяет, запущено ли приложение в режиме разработки
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction проверяет, запущено ли приложение в продакшн режиме
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

// GetLogLevel возвращает уровень логирования в формате zap
func (c *AppConfig) GetLogLevel() zap.AtomicLevel {
	switch c.LogLevel {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}
