package relationaldb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	config := NewConfig()

	assert.Equal(t, "postgres", config.Driver)
	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 5432, config.Port)
	assert.Equal(t, "tripsplit", config.Database)
	assert.Equal(t, "prefer", config.SSLMode)
	assert.Equal(t, 25, config.MaxOpenConns)
	assert.Equal(t, 5, config.MaxIdleConns)
	assert.Equal(t, 30*time.Second, config.DefaultTimeout)

	assert.NoError(t, config.Validate())
}

func TestSQLiteConfig(t *testing.T) {
	config := SQLiteConfig("/tmp/tripsplit_test.db")

	assert.Equal(t, "sqlite", config.Driver)
	assert.Equal(t, "/tmp/tripsplit_test.db", config.Database)
	// SQLite only supports one writer
	assert.Equal(t, 1, config.MaxOpenConns)
	assert.Equal(t, 1, config.MaxIdleConns)

	assert.NoError(t, config.Validate())
}

func TestConfigValidation(t *testing.T) {
	// Driver aliases normalize
	config := NewConfig()
	config.Driver = "postgresql"
	require.NoError(t, config.Validate())
	assert.Equal(t, "postgres", config.Driver)

	config = NewConfig()
	config.Driver = "sqlite3"
	config.Database = "test.db"
	require.NoError(t, config.Validate())
	assert.Equal(t, "sqlite", config.Driver)

	// Unknown drivers are rejected
	config = NewConfig()
	config.Driver = "oracle"
	err := config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"missing host", func(c *Config) { c.Host = "" }, ErrMissingHost},
		{"invalid port", func(c *Config) { c.Port = 99999 }, ErrInvalidPort},
		{"missing database", func(c *Config) { c.Database = "" }, ErrMissingDatabase},
		{"missing username", func(c *Config) { c.Username = "" }, ErrMissingUsername},
		{"negative max open conns", func(c *Config) { c.MaxOpenConns = -1 }, ErrInvalidMaxOpenConns},
		{"idle exceeds open", func(c *Config) { c.MaxOpenConns = 2; c.MaxIdleConns = 10 }, ErrMaxIdleExceedsMaxOpen},
		{"zero timeout", func(c *Config) { c.DefaultTimeout = 0 }, ErrInvalidTimeout},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, ErrInvalidMaxRetries},
		{"max delay below delay", func(c *Config) { c.RetryDelay = time.Second; c.RetryMaxDelay = time.Millisecond }, ErrInvalidRetryMaxDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig()
			tt.mutate(config)
			err := config.Validate()
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDriverName(t *testing.T) {
	config := NewConfig()
	require.NoError(t, config.Validate())
	assert.Equal(t, "pgx", config.DriverName())

	config = SQLiteConfig("test.db")
	require.NoError(t, config.Validate())
	assert.Equal(t, "sqlite", config.DriverName())
}

func TestBuildPostgresConnectionString(t *testing.T) {
	config := NewConfig().WithCredentials("alice", "s3cret@pw")
	config.Host = "db.internal"
	config.Port = 5433
	config.Database = "trips"

	dsn, err := config.BuildConnectionString()
	require.NoError(t, err)

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "alice:s3cret%40pw@")
	assert.Contains(t, dsn, "db.internal:5433/trips")
	assert.Contains(t, dsn, "sslmode=prefer")
	assert.Contains(t, dsn, "application_name=tripsplitd")

	// Default port is omitted from the host part
	config.Port = 5432
	dsn, err = config.BuildConnectionString()
	require.NoError(t, err)
	assert.Contains(t, dsn, "@db.internal/trips")
}

func TestBuildSQLiteConnectionString(t *testing.T) {
	config := SQLiteConfig("/var/lib/tripsplit/trips.db")

	dsn, err := config.BuildConnectionString()
	require.NoError(t, err)

	assert.Contains(t, dsn, "/var/lib/tripsplit/trips.db?")
	assert.Contains(t, dsn, "journal_mode%28WAL%29")
	assert.Contains(t, dsn, "foreign_keys%281%29")
	assert.Contains(t, dsn, "busy_timeout%285000%29")

	// Feature flags drop their pragmas
	config.EnableWALMode = false
	config.EnableForeignKeys = false
	dsn, err = config.BuildConnectionString()
	require.NoError(t, err)
	assert.NotContains(t, dsn, "journal_mode")
	assert.NotContains(t, dsn, "foreign_keys")
}

func TestExplicitConnectionStringWins(t *testing.T) {
	config := NewConfig().WithConnectionString("postgres://custom/dsn")

	dsn, err := config.BuildConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://custom/dsn", dsn)
}

func TestConfigCloneIsIndependent(t *testing.T) {
	config := NewConfig()
	clone := config.WithDatabase("other").WithPort(5433)

	assert.Equal(t, "tripsplit", config.Database)
	assert.Equal(t, 5432, config.Port)
	assert.Equal(t, "other", clone.Database)
	assert.Equal(t, 5433, clone.Port)
}

func TestConfigStringRedactsPassword(t *testing.T) {
	config := NewConfig().WithCredentials("alice", "hunter2")

	s := config.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "tripsplit")
}
