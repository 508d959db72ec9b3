package writeflow

import "embed"

// MigrationsFS holds the golang-migrate SQL files applied at startup.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS
