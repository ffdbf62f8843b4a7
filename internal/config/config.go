// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest):
//  1. Environment variables
//  2. Config file (~/.supportdesk/config.yaml or ./config.yaml)
//  3. Defaults
//
// Sensitive values (the Postgres password) are masked in MarshalJSON; never
// log the raw struct fields directly.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidModelName indicates the model name is empty.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidMaxTurns indicates the generation step ceiling is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidOllamaHost indicates the Ollama host is empty for the ollama provider.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON; update it when
// adding new secrets.
type Config struct {
	// AI provider and model configuration
	Provider  string `mapstructure:"provider" json:"provider"`     // "gemini" (default), "ollama", "openai"
	ModelName string `mapstructure:"model_name" json:"model_name"` // e.g. "gemini-2.5-flash", "llama3.3", "gpt-4o-mini"

	// Responder step ceiling (model turns + tool invocations per request)
	MaxTurns int `mapstructure:"max_turns" json:"max_turns"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP configuration
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Tracing configuration. An empty endpoint disables trace export.
	// The endpoint is a local OTLP HTTP collector (host:port); the
	// collector handles authentication and forwarding.
	OTelEndpoint    string `mapstructure:"otel_endpoint" json:"otel_endpoint"`
	OTelServiceName string `mapstructure:"otel_service_name" json:"otel_service_name"`
	OTelEnvironment string `mapstructure:"otel_environment" json:"otel_environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".supportdesk")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults apply.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("max_turns", 5)

	viper.SetDefault("ollama_host", "http://localhost:11434")

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "supportdesk")
	viper.SetDefault("postgres_password", "supportdesk_dev_password")
	viper.SetDefault("postgres_db_name", "supportdesk")
	viper.SetDefault("postgres_ssl_mode", "disable")

	viper.SetDefault("cors_origins", []string{"*"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 60)

	// Tracing is off unless an OTLP endpoint is configured.
	viper.SetDefault("otel_endpoint", "")
	viper.SetDefault("otel_service_name", "supportdesk")
	viper.SetDefault("otel_environment", "")
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// GEMINI_API_KEY and OPENAI_API_KEY are read directly by the Genkit plugins,
// not via viper.
func bindEnvVariables() {
	// Hardcoded keys can't fail to bind; a failure here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "SUPPORTDESK_PROVIDER")
	mustBind("model_name", "SUPPORTDESK_MODEL_NAME")
	mustBind("max_turns", "SUPPORTDESK_MAX_TURNS")
	mustBind("ollama_host", "SUPPORTDESK_OLLAMA_HOST")
	mustBind("cors_origins", "SUPPORTDESK_CORS_ORIGINS")
	mustBind("trust_proxy", "SUPPORTDESK_TRUST_PROXY")
	mustBind("rate_burst", "SUPPORTDESK_RATE_BURST")

	mustBind("postgres_host", "SUPPORTDESK_POSTGRES_HOST")
	mustBind("postgres_port", "SUPPORTDESK_POSTGRES_PORT")
	mustBind("postgres_user", "SUPPORTDESK_POSTGRES_USER")
	mustBind("postgres_password", "SUPPORTDESK_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "SUPPORTDESK_POSTGRES_DB_NAME")
	mustBind("postgres_ssl_mode", "SUPPORTDESK_POSTGRES_SSL_MODE")

	mustBind("otel_endpoint", "SUPPORTDESK_OTEL_ENDPOINT")
	mustBind("otel_service_name", "SUPPORTDESK_OTEL_SERVICE_NAME")
	mustBind("otel_environment", "SUPPORTDESK_OTEL_ENVIRONMENT")
}

// maskedValue is the placeholder for masked sensitive data. Full-width
// blocks avoid accidental substring matches against real secret content.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of 8 chars or
// fewer are fully masked; longer ones keep the first and last 2 characters.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o-mini".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + c.ModelName
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
