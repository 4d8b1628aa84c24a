// Package config loads and validates the tripsplitd configuration from
// defaults, an optional TOML file, and TRIPSPLITD_-prefixed environment
// variables.
package config

// DefaultConfigFile is the config file looked up in the working directory
// when no path is given on the command line.
const DefaultConfigFile = "tripsplitd.toml"

// Config represents the complete tripsplitd configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	Auth     AuthConfig     `toml:"auth" mapstructure:"auth"`
	Receipt  ReceiptConfig  `toml:"receipt" mapstructure:"receipt"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ConfigPath returns the path the configuration was loaded from.
func (c *Config) ConfigPath() string {
	return c.configPath
}
