package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one; secrets and
	// connection strings must come from the environment or a config file.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("batch.poll_interval_seconds", 1)
	v.SetDefault("batch.error_backoff_seconds", 5)
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("hardcover.endpoint", "https://api.hardcover.app/v1/graphql")
	v.SetDefault("hardcover.timeout_seconds", 15)
	v.SetDefault("book_data.base_url", "http://localhost:5020")
	v.SetDefault("book_data.timeout_seconds", 15)

	// Keys without defaults must still be registered so AutomaticEnv can
	// populate them during Unmarshal; validation rejects the empty values.
	v.SetDefault("database.url", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("hardcover.bearer_token", "")

	// Optional config file: ./config.yaml or /etc/booktone/config.yaml.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/booktone")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; environment variables may carry everything.
	}

	// Environment variables use the BOOKTONE_ prefix with underscores for
	// nesting, e.g. BOOKTONE_DATABASE_URL, BOOKTONE_LLM_GEMINI_API_KEY.
	v.SetEnvPrefix("BOOKTONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
