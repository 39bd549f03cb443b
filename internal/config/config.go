package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config stores all process-level configuration for the application.
// Search parameters live in their own file (storage.SearchConfigStore),
// not here, so they can be edited while the watcher runs.
type Config struct {
	TelegramToken  string `mapstructure:"TG_TOKEN"`
	TelegramChatID string `mapstructure:"TG_CHAT_ID"`
	TelegramAPIURL string `mapstructure:"TG_API_URL"`

	SearchConfigPath string `mapstructure:"SEARCH_CONFIG_PATH"`
	PublishedIDsPath string `mapstructure:"PUBLISHED_IDS_PATH"`
	PostgresURL      string `mapstructure:"POSTGRES_URL"`

	BaseURL    string `mapstructure:"BASE_URL"`
	ServerPort string `mapstructure:"SERVER_PORT"`
	Headless   bool   `mapstructure:"HEADLESS"`

	PollInterval    int `mapstructure:"POLL_INTERVAL"`     // in seconds
	PageDelay       int `mapstructure:"PAGE_DELAY"`        // in seconds
	MessageDelay    int `mapstructure:"MESSAGE_DELAY"`     // in seconds
	PageLoadTimeout int `mapstructure:"PAGE_LOAD_TIMEOUT"` // in seconds
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	viper.SetDefault("TG_API_URL", "https://api.telegram.org")
	viper.SetDefault("SEARCH_CONFIG_PATH", "config.json")
	viper.SetDefault("PUBLISHED_IDS_PATH", "published_ids.json")
	viper.SetDefault("BASE_URL", "https://ru.aruodas.lt")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("POLL_INTERVAL", 3600)
	viper.SetDefault("PAGE_DELAY", 2)
	viper.SetDefault("MESSAGE_DELAY", 3)
	viper.SetDefault("PAGE_LOAD_TIMEOUT", 30)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TG_TOKEN is required")
	}
	if cfg.TelegramChatID == "" {
		return nil, fmt.Errorf("TG_CHAT_ID is required")
	}
	return &cfg, nil
}
