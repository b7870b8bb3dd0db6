// Package migrations holds the PostgreSQL schema as goose SQL files.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
