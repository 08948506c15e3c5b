package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                 = "RECALL"
	defaultHTTPAddress        = "0.0.0.0:8080"
	defaultDatabasePath       = "recall.db"
	defaultLogLevel           = "info"
	defaultReminderFirstDelay = 5
	defaultSessionTTLMinutes  = 60
)

// AppConfig captures runtime configuration for the bot process.
type AppConfig struct {
	TelegramToken      string
	DatabasePath       string
	HTTPAddress        string
	LogLevel           string
	ReminderFirstDelay time.Duration
	SessionTTL         time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("reminder.first_delay_seconds", defaultReminderFirstDelay)
	configViper.SetDefault("session.ttl_minutes", defaultSessionTTLMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		TelegramToken:      configViper.GetString("telegram.token"),
		DatabasePath:       configViper.GetString("database.path"),
		HTTPAddress:        configViper.GetString("http.address"),
		LogLevel:           configViper.GetString("log.level"),
		ReminderFirstDelay: time.Duration(configViper.GetInt("reminder.first_delay_seconds")) * time.Second,
		SessionTTL:         time.Duration(configViper.GetInt("session.ttl_minutes")) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return fmt.Errorf("telegram.token is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.ReminderFirstDelay <= 0 {
		return fmt.Errorf("reminder.first_delay_seconds must be positive")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive")
	}
	return nil
}
