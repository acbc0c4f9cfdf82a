package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	localMigrations "github.com/LoganMeitz/votefinder/migrations"
	"github.com/LoganMeitz/votefinder/pkg/app"
	pkgMigrations "github.com/LoganMeitz/votefinder/pkg/migrations"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		steps   = flag.Int("steps", 1, "Number of migrations to roll back (down)")
		name    = flag.String("name", "", "Migration name (create)")
		dryRun  = flag.Bool("dry-run", false, "List pending migrations without applying them")
	)
	flag.Parse()

	if *command == "create" {
		if *name == "" {
			log.Fatal("Migration name is required for create")
		}
		if err := createMigration(*name); err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	appCtx, err := app.InitializeApp("votefinder-migrate")
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer appCtx.Shutdown(ctx)

	runner := pkgMigrations.NewRunner(appCtx.MongoDB.Database)
	localMigrations.RegisterAll(runner)

	switch *command {
	case "up":
		if *dryRun {
			pending, err := runner.Pending(ctx)
			if err != nil {
				log.Fatalf("Failed to list pending migrations: %v", err)
			}
			for _, m := range pending {
				fmt.Printf("pending  %s  %s\n", m.Version, m.Description)
			}
			return
		}
		n, err := runner.Run(ctx)
		if err != nil {
			log.Fatalf("Migration failed after %d applied: %v", n, err)
		}
		fmt.Printf("%d migration(s) applied\n", n)

	case "down":
		if *dryRun {
			fmt.Printf("would roll back %d migration(s)\n", *steps)
			return
		}
		n, err := runner.Rollback(ctx, *steps)
		if err != nil {
			log.Fatalf("Rollback failed after %d: %v", n, err)
		}
		fmt.Printf("%d migration(s) rolled back\n", n)

	case "status":
		status, err := runner.Status(ctx)
		if err != nil {
			log.Fatalf("Failed to read migration status: %v", err)
		}
		applied := 0
		for _, s := range status {
			state := "pending"
			at := ""
			if s.AppliedAt != nil {
				applied++
				state = "applied"
				at = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			if s.Drifted {
				state = "drifted"
			}
			fmt.Printf("%-8s %-40s %s %s\n", state, s.Version, s.Description, at)
		}
		fmt.Printf("\n%d migrations, %d applied, %d pending\n", len(status), applied, len(status)-applied)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

// createMigration writes a numbered migration skeleton into migrations/.
func createMigration(name string) error {
	version := fmt.Sprintf("%03d", nextVersionNumber())
	filename := fmt.Sprintf("migrations/%s_%s.go", version, name)

	template := `package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "%s_%s",
		Description: "",
		Up:          up%s,
		Down:        down%s,
	})
}

func up%s(ctx context.Context, db *mongo.Database) error {
	return nil
}

func down%s(ctx context.Context, db *mongo.Database) error {
	return nil
}
`
	content := fmt.Sprintf(template, version, name, version, version, version, version)

	if err := os.MkdirAll("migrations", 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("migration file %s already exists", filename)
	}
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", filename)
	return nil
}

// nextVersionNumber scans migrations/ for the highest NNN_ prefix.
func nextVersionNumber() int {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		return 1
	}
	highest := 0
	for _, entry := range entries {
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%03d_", &version); err == nil && version > highest {
			highest = version
		}
	}
	return highest + 1
}
