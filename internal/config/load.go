package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. TASKPULSE_DATABASE_URL.
const EnvPrefix = "TASKPULSE"

// defaults lists every configuration key. Keys must be known to viper for
// AutomaticEnv to pick them up during Unmarshal, so keys without a meaningful
// default are registered with a zero value.
var defaults = map[string]interface{}{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.service_name":     "taskpulse",
	"server.shutdown_timeout": "10s",

	"database.url":               "",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": "5m",

	"bus.driver":         BusDriverHTTP,
	"bus.base_url":       "http://localhost:3500",
	"bus.pubsub_name":    "pubsub",
	"bus.consumer_group": "taskpulse",
	"bus.timeout":        "5s",

	"scheduler.base_url":     "http://localhost:3500",
	"scheduler.callback_url": "http://localhost:8080/api/jobs/reminder-callback",
	"scheduler.timeout":      "10s",

	"gateway.driver":          GatewayDriverLog,
	"gateway.url":             "https://api.sendgrid.com/v3/mail/send",
	"gateway.api_key":         "",
	"gateway.from":            "noreply@taskpulse.dev",
	"gateway.from_name":       "TaskPulse",
	"gateway.region":          "",
	"gateway.rate_per_second": 5.0,
	"gateway.burst":           1,
	"gateway.timeout":         "10s",
	"gateway.fallback_domain": "",

	"consumer.poll_interval":      "1s",
	"consumer.error_backoff":      "5s",
	"consumer.handler_timeout":    "30s",
	"consumer.batch_size":         10,
	"consumer.max_attempts":       5,
	"consumer.attempt_cache_size": 4096,

	"dead_letter.retention":      "720h",
	"dead_letter.prune_schedule": "@daily",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory, when present, is loaded into the
// environment first.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("taskpulse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/taskpulse")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// No default, so that an unset broker list stays nil for required_if
	_ = v.BindEnv("bus.brokers")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
