// Package migrations embeds the settings schema into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/melsec-monitor/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
