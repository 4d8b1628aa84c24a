package config

import "github.com/spf13/viper"

// setDefaults sets all default values. Secret-bearing keys default to empty
// strings so that AutomaticEnv can still bind them.
func setDefaults(v *viper.Viper) {
	// [server]
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "20s")
	v.SetDefault("server.trusted_proxies", []string{})

	// [database]
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.path", "tripsplit.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "tripsplit")
	v.SetDefault("database.user", "tripsplit")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "prefer")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.default_timeout", "30s")

	// [auth]
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "168h")
	v.SetDefault("auth.bcrypt_cost", 0)

	// [receipt]
	v.SetDefault("receipt.verifier_enabled", false)
	v.SetDefault("receipt.verifier_endpoint", "")
	v.SetDefault("receipt.verifier_api_key", "")
	v.SetDefault("receipt.verifier_timeout", "10s")
}
