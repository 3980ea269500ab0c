package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Bus        BusConfig        `mapstructure:"bus" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" validate:"required"`
	Gateway    GatewayConfig    `mapstructure:"gateway" validate:"required"`
	Consumer   ConsumerConfig   `mapstructure:"consumer" validate:"required"`
	DeadLetter DeadLetterConfig `mapstructure:"dead_letter" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	ServiceName     string        `mapstructure:"service_name" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Bus drivers
const (
	BusDriverHTTP  = "http"
	BusDriverKafka = "kafka"
)

// BusConfig selects and configures the message bus.
type BusConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=http kafka"`

	// BaseURL is the bus sidecar address used by the http driver.
	BaseURL    string `mapstructure:"base_url" validate:"required_if=Driver http,omitempty,url"`
	PubSubName string `mapstructure:"pubsub_name" validate:"required_if=Driver http"`

	// Brokers are the Kafka bootstrap addresses used by the kafka driver.
	Brokers []string `mapstructure:"brokers" validate:"required_if=Driver kafka"`

	// ConsumerGroup prefixes the per-worker consumer group name.
	ConsumerGroup string        `mapstructure:"consumer_group" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SchedulerConfig configures the job scheduler used to arm reminders.
type SchedulerConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	CallbackURL string        `mapstructure:"callback_url" validate:"required,url"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// Gateway drivers
const (
	GatewayDriverLog  = "log"
	GatewayDriverHTTP = "http"
	GatewayDriverSES  = "ses"
)

// GatewayConfig configures outbound notification delivery.
type GatewayConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=log http ses"`

	URL      string `mapstructure:"url" validate:"required_if=Driver http,omitempty,url"`
	APIKey   string `mapstructure:"api_key"`
	From     string `mapstructure:"from" validate:"required,email"`
	FromName string `mapstructure:"from_name"`

	// Region is the AWS region used by the ses driver.
	Region string `mapstructure:"region" validate:"required_if=Driver ses"`

	RatePerSecond float64       `mapstructure:"rate_per_second" validate:"gt=0"`
	Burst         int           `mapstructure:"burst" validate:"gte=1"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// FallbackDomain builds {user_id}@{domain} when no address is on file.
	// Empty disables the fallback.
	FallbackDomain string `mapstructure:"fallback_domain" validate:"omitempty,hostname"`
}

// ConsumerConfig tunes the polling loop shared by the workers.
type ConsumerConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	ErrorBackoff     time.Duration `mapstructure:"error_backoff" validate:"gt=0"`
	HandlerTimeout   time.Duration `mapstructure:"handler_timeout" validate:"gt=0"`
	BatchSize        int           `mapstructure:"batch_size" validate:"gte=1"`
	MaxAttempts      int           `mapstructure:"max_attempts" validate:"gte=1"`
	AttemptCacheSize int           `mapstructure:"attempt_cache_size" validate:"gte=1"`
}

// DeadLetterConfig controls retention of dead-lettered events.
type DeadLetterConfig struct {
	Retention     time.Duration `mapstructure:"retention" validate:"gt=0"`
	PruneSchedule string        `mapstructure:"prune_schedule" validate:"required"`
}
