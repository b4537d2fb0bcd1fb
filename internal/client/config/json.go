package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/gigmatch/livesync/internal/flagx"
	"github.com/gigmatch/livesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	FeedEndpointAddr   string         `json:"feed_endpoint_addr"`
	APIKey             string         `json:"api_key"`
	TombstoneDBPath    string         `json:"tombstone_db_path"`
	SeedBackoff        timex.Duration `json:"seed_backoff"`
	OwnerID            string         `json:"owner_id"`
}

// parseJson overlays Config with values from the JSON file named by the
// -c/-config flags, if any. Empty JSON fields leave the current value alone.
// Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.FeedEndpointAddr != "" {
		cfg.FeedEndpointAddr = jc.FeedEndpointAddr
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.TombstoneDBPath != "" {
		cfg.TombstoneDBPath = jc.TombstoneDBPath
	}
	if jc.SeedBackoff.Duration != 0 {
		cfg.SeedBackoff = time.Duration(jc.SeedBackoff.Duration)
	}
	if jc.OwnerID != "" {
		cfg.OwnerID = jc.OwnerID
	}
}
