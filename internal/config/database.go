package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tripsplit/tripsplitd/internal/storage/relationaldb"
)

// DatabaseConfig represents the [database] section. The postgres fields and
// the sqlite path coexist; Driver picks which set applies.
type DatabaseConfig struct {
	Driver string `toml:"driver" mapstructure:"driver"`

	// sqlite
	Path string `toml:"path" mapstructure:"path"`

	// postgres
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	Name     string `toml:"name" mapstructure:"name"`
	User     string `toml:"user" mapstructure:"user"`
	Password string `toml:"password" mapstructure:"password"`
	SSLMode  string `toml:"sslmode" mapstructure:"sslmode"`

	MaxOpenConns    int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	DefaultTimeout  time.Duration `toml:"default_timeout" mapstructure:"default_timeout"`
}

// IsSQLite reports whether the driver resolves to sqlite.
func (c *DatabaseConfig) IsSQLite() bool {
	switch strings.ToLower(c.Driver) {
	case "sqlite", "sqlite3":
		return true
	default:
		return false
	}
}

func (c *DatabaseConfig) Validate() error {
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql", "pgx":
		if c.Host == "" {
			return fmt.Errorf("postgres driver requires host")
		}
		if c.Name == "" {
			return fmt.Errorf("postgres driver requires name")
		}
		if c.User == "" {
			return fmt.Errorf("postgres driver requires user")
		}
	case "sqlite", "sqlite3":
		if c.Path == "" {
			return fmt.Errorf("sqlite driver requires path")
		}
	default:
		return fmt.Errorf("driver must be postgres or sqlite, got %q", c.Driver)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection pool limits cannot be negative")
	}
	return nil
}

// ToStoreConfig builds the store configuration the repository layer consumes.
func (c *DatabaseConfig) ToStoreConfig() *relationaldb.Config {
	if c.IsSQLite() {
		store := relationaldb.SQLiteConfig(c.Path)
		if c.DefaultTimeout > 0 {
			store.DefaultTimeout = c.DefaultTimeout
		}
		return store
	}

	store := relationaldb.NewConfig()
	store.Driver = "postgres"
	store.Host = c.Host
	if c.Port > 0 {
		store.Port = c.Port
	}
	store.Database = c.Name
	store.Username = c.User
	store.Password = c.Password
	if c.SSLMode != "" {
		store.SSLMode = c.SSLMode
	}
	if c.MaxOpenConns > 0 {
		store.MaxOpenConns = c.MaxOpenConns
	}
	if c.MaxIdleConns > 0 {
		store.MaxIdleConns = c.MaxIdleConns
	}
	if c.ConnMaxLifetime > 0 {
		store.ConnMaxLifetime = c.ConnMaxLifetime
	}
	if c.DefaultTimeout > 0 {
		store.DefaultTimeout = c.DefaultTimeout
	}
	return store
}
