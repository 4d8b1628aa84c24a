package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load builds the configuration in priority order:
// 1. Default values
// 2. A .env file in the working directory (loaded into the process
//    environment, matching how the service was deployed)
// 3. The TOML configuration file
// 4. Environment variables (TRIPSPLITD_ prefix, e.g. TRIPSPLITD_SERVER_PORT)
//
// An empty configPath means the default file is optional; an explicit path
// must exist.
func Load(configPath string) (*Config, error) {
	// Missing .env is the normal case outside deployments.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	explicit := configPath != ""
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix("TRIPSPLITD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = configPath

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}
