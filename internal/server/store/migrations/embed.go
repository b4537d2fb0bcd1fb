// Package migrations embeds the postgres migrations for the records store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
