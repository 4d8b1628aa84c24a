package config

import (
	"fmt"
	"net/url"
	"time"
)

// ReceiptConfig represents the [receipt] section controlling the optional
// external verifier behind the OCR parser.
type ReceiptConfig struct {
	VerifierEnabled  bool          `toml:"verifier_enabled" mapstructure:"verifier_enabled"`
	VerifierEndpoint string        `toml:"verifier_endpoint" mapstructure:"verifier_endpoint"`
	VerifierAPIKey   string        `toml:"verifier_api_key" mapstructure:"verifier_api_key"`
	VerifierTimeout  time.Duration `toml:"verifier_timeout" mapstructure:"verifier_timeout"`
}

func (c *ReceiptConfig) Validate() error {
	if !c.VerifierEnabled {
		return nil
	}
	u, err := url.Parse(c.VerifierEndpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("verifier_endpoint must be an http(s) URL, got %q", c.VerifierEndpoint)
	}
	if c.VerifierTimeout <= 0 {
		return fmt.Errorf("verifier_timeout must be positive, got %s", c.VerifierTimeout)
	}
	return nil
}
