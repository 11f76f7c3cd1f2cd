package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Batch     BatchConfig     `mapstructure:"batch"`
	LLM       LLMConfig       `mapstructure:"llm"       validate:"required"`
	Hardcover HardcoverConfig `mapstructure:"hardcover"`
	BookData  BookDataConfig  `mapstructure:"book_data"`
}

// BookDataConfig contains settings for the upstream book metadata API.
type BookDataConfig struct {
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// ShutdownTimeoutSeconds bounds how long graceful shutdown waits for
	// in-flight work, including an actively processing batch.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// BatchConfig contains settings for the background batch processor.
type BatchConfig struct {
	// PollIntervalSeconds is how long the worker sleeps when the queue is empty.
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" validate:"gte=0"`

	// ErrorBackoffSeconds is how long the worker backs off after an
	// unexpected error in the poll cycle.
	ErrorBackoffSeconds int `mapstructure:"error_backoff_seconds" validate:"gte=0"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName         string `mapstructure:"model_name"     validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"    validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}

// HardcoverConfig contains settings for the Hardcover mood-tag API.
// The bearer token is optional; when empty, mood-tag lookups are skipped.
type HardcoverConfig struct {
	BearerToken    string `mapstructure:"bearer_token"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"gte=0"`
}
