package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all process configuration for the widget surfaces
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Backend BackendConfig `mapstructure:"backend"`
	Widget  WidgetConfig  `mapstructure:"widget"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds the preview server listen address
type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	APIKey       string   `mapstructure:"api_key"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// BackendConfig points at the XeloChat API this process consumes
type BackendConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	ChatbotID string `mapstructure:"chatbot_id"`
}

// WidgetConfig holds the default embed parameters for the terminal
// surface
type WidgetConfig struct {
	Style    string `mapstructure:"style"`
	Position string `mapstructure:"position"`
	PagePath string `mapstructure:"page_path"`
}

// StorageConfig holds the durable session store location
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds profile cache tuning for the preview server
type CacheConfig struct {
	ProfileTTL time.Duration `mapstructure:"profile_ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("XELOCHAT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("backend.base_url", "http://localhost:8080")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.chatbot_id", "")

	v.SetDefault("widget.style", "floating")
	v.SetDefault("widget.position", "bottom-right")
	v.SetDefault("widget.page_path", "/")

	v.SetDefault("storage.path", "./data/xelochat.db")

	v.SetDefault("cache.profile_ttl", 5*time.Minute)

	v.SetDefault("log.level", "info")
}

// Address returns the preview server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
