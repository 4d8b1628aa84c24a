package config

import (
	"fmt"
	"time"
)

const minJWTSecretLength = 16

// AuthConfig represents the [auth] section. The JWT secret has no default;
// it must come from the config file or TRIPSPLITD_AUTH_JWT_SECRET.
type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret" mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl" mapstructure:"token_ttl"`

	// BcryptCost of zero uses the bcrypt default.
	BcryptCost int `toml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
}

func (c *AuthConfig) Validate() error {
	if len(c.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d characters", minJWTSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	if c.BcryptCost != 0 && (c.BcryptCost < 4 || c.BcryptCost > 31) {
		return fmt.Errorf("bcrypt_cost must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}
