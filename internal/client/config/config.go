// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the sync client.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP API.
//   - FeedEndpointAddr: base URL of the websocket feed (ws:// or wss://).
//   - APIKey: key exchanged for an access token at startup.
//   - TombstoneDBPath: sqlite file holding suppressed record ids.
//   - SeedBackoff: initial backoff for collection reseed retries.
//   - OwnerID: contractor whose gigs the client watches.
type Config struct {
	ServerEndpointAddr string
	FeedEndpointAddr   string
	APIKey             string
	TombstoneDBPath    string
	SeedBackoff        time.Duration
	OwnerID            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.FeedEndpointAddr = "ws://127.0.0.1:8080"
	c.APIKey = "devkey"
	c.TombstoneDBPath = "livesync.db"
	c.SeedBackoff = time.Second
	c.OwnerID = "demo-owner"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
