package config

import (
	"flag"
	"os"

	"github.com/gigmatch/livesync/internal/flagx"
)

// parseFlags populates selected client Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend HTTP base URL
//	-f string   feed websocket base URL
//	-k string   API key
//	-t string   tombstone sqlite path
//	-o string   owner id whose gigs are watched
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-f", "-k", "-t", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "backend HTTP base URL")
	fs.StringVar(&cfg.FeedEndpointAddr, "f", cfg.FeedEndpointAddr, "feed websocket base URL")
	fs.StringVar(&cfg.APIKey, "k", cfg.APIKey, "API key")
	fs.StringVar(&cfg.TombstoneDBPath, "t", cfg.TombstoneDBPath, "tombstone sqlite path")
	fs.StringVar(&cfg.OwnerID, "o", cfg.OwnerID, "owner id whose gigs are watched")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
