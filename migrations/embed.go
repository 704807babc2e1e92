// Package migrations holds the goose SQL migrations for the Postgres store.
package migrations

import "embed"

// FS contains every *.sql migration, compiled into the binary
//
//go:embed *.sql
var FS embed.FS
