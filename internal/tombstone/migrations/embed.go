// Package migrations embeds the sqlite migrations for the tombstone store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
