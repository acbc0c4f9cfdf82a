// Package migrations holds the schema migrations applied by cmd/migrate.
package migrations

import (
	"github.com/LoganMeitz/votefinder/pkg/migrations"
)

var registeredMigrations []migrations.RegisteredMigration

// Register adds a migration; each file calls it from init. A version registered twice is a
// programming error.
func Register(migration Migration) {
	for _, m := range registeredMigrations {
		if m.Version == migration.Version {
			panic("migration " + migration.Version + " registered twice")
		}
	}
	registeredMigrations = append(registeredMigrations, migrations.RegisteredMigration{
		Version:     migration.Version,
		Description: migration.Description,
		Up:          migration.Up,
		Down:        migration.Down,
	})
}

// Migration is what a migration file declares; Down may be nil.
type Migration struct {
	Version     string
	Description string
	Up          migrations.MigrationFunc
	Down        migrations.MigrationFunc
}

// RegisterAll hands every registered migration to the runner.
func RegisterAll(runner *migrations.Runner) {
	for _, m := range registeredMigrations {
		runner.Register(m)
	}
}
