// Package migrations embeds the SQLite schema of the link store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
