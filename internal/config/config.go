package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	TelegramModePolling = "polling"
	TelegramModeWebhook = "webhook"
)

type HTTPConfig struct {
	Host     string
	Port     int
	APIToken string
}

type TelegramConfig struct {
	Token         string
	Mode          string
	WebhookURL    string
	WebhookSecret string
	PollTimeout   int
	Debug         bool
}

type RegistryConfig struct {
	BaseURL             string
	PrimaryResourceID   string
	SecondaryResourceID string
	PlateField          string
	Limit               int
	Timeout             time.Duration
	UserAgent           string
}

type StorageConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	PublicBaseURL string
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	Telegram    TelegramConfig
	Registry    RegistryConfig
	Storage     StorageConfig
}

const (
	defaultRegistryBaseURL     = "https://data.gov.il/api/3/action/datastore_search"
	defaultPrimaryResourceID   = "053cea08-09bc-40ec-8f7a-156f0677aff3"
	defaultSecondaryResourceID = "0866573c-40cd-4ca8-91d2-9dd2d7a492e5"
	defaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("TELEGRAM_MODE", TelegramModePolling)
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", 60)
	v.SetDefault("REGISTRY_BASE_URL", defaultRegistryBaseURL)
	v.SetDefault("REGISTRY_PRIMARY_RESOURCE_ID", defaultPrimaryResourceID)
	v.SetDefault("REGISTRY_SECONDARY_RESOURCE_ID", defaultSecondaryResourceID)
	v.SetDefault("REGISTRY_PLATE_FIELD", "mispar_rechev")
	v.SetDefault("REGISTRY_LIMIT", 10)
	v.SetDefault("REGISTRY_TIMEOUT", 10*time.Second)
	v.SetDefault("REGISTRY_USER_AGENT", defaultUserAgent)
	v.SetDefault("R2_REGION", "auto")

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		HTTP: HTTPConfig{
			Host:     v.GetString("HTTP_HOST"),
			Port:     v.GetInt("HTTP_PORT"),
			APIToken: v.GetString("API_TOKEN"),
		},
		Telegram: TelegramConfig{
			Token:         v.GetString("BOT_TOKEN"),
			Mode:          v.GetString("TELEGRAM_MODE"),
			WebhookURL:    v.GetString("TELEGRAM_WEBHOOK_URL"),
			WebhookSecret: v.GetString("TELEGRAM_WEBHOOK_SECRET"),
			PollTimeout:   v.GetInt("TELEGRAM_POLL_TIMEOUT"),
			Debug:         v.GetBool("TELEGRAM_DEBUG"),
		},
		Registry: RegistryConfig{
			BaseURL:             v.GetString("REGISTRY_BASE_URL"),
			PrimaryResourceID:   v.GetString("REGISTRY_PRIMARY_RESOURCE_ID"),
			SecondaryResourceID: v.GetString("REGISTRY_SECONDARY_RESOURCE_ID"),
			PlateField:          v.GetString("REGISTRY_PLATE_FIELD"),
			Limit:               v.GetInt("REGISTRY_LIMIT"),
			Timeout:             v.GetDuration("REGISTRY_TIMEOUT"),
			UserAgent:           v.GetString("REGISTRY_USER_AGENT"),
		},
		Storage: StorageConfig{
			Endpoint:      v.GetString("R2_ENDPOINT"),
			AccessKey:     v.GetString("R2_ACCESS_KEY_ID"),
			SecretKey:     v.GetString("R2_SECRET_ACCESS_KEY"),
			Bucket:        v.GetString("R2_BUCKET"),
			Region:        v.GetString("R2_REGION"),
			PublicBaseURL: v.GetString("R2_PUBLIC_BASE_URL"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Registry.BaseURL == "" {
		return fmt.Errorf("REGISTRY_BASE_URL is required")
	}
	if cfg.Registry.PrimaryResourceID == "" || cfg.Registry.SecondaryResourceID == "" {
		return fmt.Errorf("REGISTRY_PRIMARY_RESOURCE_ID and REGISTRY_SECONDARY_RESOURCE_ID are required")
	}
	if cfg.Registry.PlateField == "" {
		return fmt.Errorf("REGISTRY_PLATE_FIELD is required")
	}
	if cfg.Registry.Limit <= 0 {
		return fmt.Errorf("REGISTRY_LIMIT must be positive, got %d", cfg.Registry.Limit)
	}
	if cfg.Registry.Timeout <= 0 {
		return fmt.Errorf("REGISTRY_TIMEOUT must be positive, got %s", cfg.Registry.Timeout)
	}
	switch cfg.Telegram.Mode {
	case TelegramModePolling, TelegramModeWebhook:
	default:
		return fmt.Errorf("TELEGRAM_MODE must be %q or %q, got %q", TelegramModePolling, TelegramModeWebhook, cfg.Telegram.Mode)
	}
	return nil
}

// ValidateTelegram checks the settings needed to talk to the Bot API.
func (c *Config) ValidateTelegram() error {
	if c.Telegram.Token == "" {
		return errors.New("BOT_TOKEN is required")
	}
	if c.Telegram.Mode == TelegramModeWebhook && c.Telegram.WebhookURL == "" {
		return errors.New("TELEGRAM_WEBHOOK_URL is required in webhook mode")
	}
	return nil
}
