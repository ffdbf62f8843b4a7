package config

import (
	"fmt"
	"slices"
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = []string{"disable", "allow", "prefer", "require", "verify-ca", "verify-full"}

// Validate checks the configuration for invalid values (fail-fast at load).
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI, ProviderGoogleAI:
	default:
		return fmt.Errorf("%w: %q (expected gemini, ollama, or openai)", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidModelName)
	}

	if c.Provider == ProviderOllama && c.OllamaHost == "" {
		return fmt.Errorf("%w: ollama host must not be empty", ErrInvalidOllamaHost)
	}

	if c.MaxTurns < 1 || c.MaxTurns > 50 {
		return fmt.Errorf("%w: %d (expected 1-50)", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (expected 1-65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
