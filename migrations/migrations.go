// Package migrations holds the goose migrations for the play log.
package migrations

import (
	"embed"
)

//go:embed *.sql
var embedMigrations embed.FS

// Dir is the path inside FS that goose should read from.
const Dir = "."

func FS() embed.FS {
	return embedMigrations
}
