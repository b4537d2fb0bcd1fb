// Package config handles configuration for the backend component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the records backend.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP endpoint (API + feed).
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - APIKeyHash: bcrypt hash of the API key accepted by /auth/token.
//   - AccessTokenValidityDuration: access token lifetime.
type Config struct {
	EndpointAddr                string
	DatabaseDSN                 string
	SecretKey                   string
	APIKeyHash                  string
	AccessTokenValidityDuration time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	// bcrypt of "devkey"
	c.APIKeyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	c.AccessTokenValidityDuration = 60 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
