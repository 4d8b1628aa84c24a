package config

import "fmt"

// ValidateConfig performs validation on the complete configuration.
func ValidateConfig(config *Config) error {
	if err := config.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := config.Database.Validate(); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}
	if err := config.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config validation failed: %w", err)
	}
	if err := config.Receipt.Validate(); err != nil {
		return fmt.Errorf("receipt config validation failed: %w", err)
	}
	return nil
}
