package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "_migrations"

// Migration is the record of an applied migration.
type Migration struct {
	Version     string    `bson:"version"` // e.g. "001_create_players_indexes"
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
	Checksum    string    `bson:"checksum"`
}

type MigrationFunc func(ctx context.Context, db *mongo.Database) error

// RegisteredMigration holds a migration and its functions. Down is optional.
type RegisteredMigration struct {
	Version     string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// Status is one line of the status report.
type Status struct {
	Version     string     `json:"version"`
	Description string     `json:"description"`
	AppliedAt   *time.Time `json:"applied_at,omitempty"`
	Drifted     bool       `json:"drifted"`
}

// Runner applies registered migrations in version order. Each runs in its own session but
// not in a transaction, since index builds on populated collections cannot be transactional.
type Runner struct {
	db         *mongo.Database
	collection *mongo.Collection
	migrations []RegisteredMigration
}

func NewRunner(db *mongo.Database) *Runner {
	return &Runner{db: db, collection: db.Collection(collectionName)}
}

func (r *Runner) Register(m RegisteredMigration) {
	r.migrations = append(r.migrations, m)
	sort.SliceStable(r.migrations, func(i, j int) bool { return r.migrations[i].Version < r.migrations[j].Version })
}

// Pending lists registered migrations that have not been applied.
func (r *Runner) Pending(ctx context.Context) ([]RegisteredMigration, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	var pending []RegisteredMigration
	for _, m := range r.migrations {
		if _, ok := applied[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Run applies every pending migration and returns how many ran.
func (r *Runner) Run(ctx context.Context) (int, error) {
	if _, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return 0, fmt.Errorf("failed to create migrations index: %w", err)
	}

	pending, err := r.Pending(ctx)
	if err != nil {
		return 0, err
	}

	for i, m := range pending {
		slog.Info("Running migration", "version", m.Version, "description", m.Description)
		err := r.withSession(ctx, func(sc mongo.SessionContext) error {
			if err := m.Up(sc, r.db); err != nil {
				return fmt.Errorf("migration %s failed: %w", m.Version, err)
			}
			record := Migration{
				Version:     m.Version,
				Description: m.Description,
				AppliedAt:   time.Now().UTC(),
				Checksum:    checksum(m),
			}
			if _, err := r.collection.InsertOne(sc, record); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return i, err
		}
	}
	return len(pending), nil
}

// Rollback reverts the last steps applied migrations, newest first. Migrations without a
// Down function are skipped and stay recorded.
func (r *Runner) Rollback(ctx context.Context, steps int) (int, error) {
	applied, err := r.appliedInOrder(ctx)
	if err != nil {
		return 0, err
	}
	if steps > len(applied) {
		steps = len(applied)
	}

	known := make(map[string]RegisteredMigration, len(r.migrations))
	for _, m := range r.migrations {
		known[m.Version] = m
	}

	rolled := 0
	for i := len(applied) - 1; i >= len(applied)-steps; i-- {
		version := applied[i].Version
		m, ok := known[version]
		if !ok {
			return rolled, fmt.Errorf("migration %s is applied but not registered", version)
		}
		if m.Down == nil {
			slog.Warn("Migration has no rollback, skipping", "version", version)
			continue
		}

		slog.Info("Rolling back migration", "version", version)
		err := r.withSession(ctx, func(sc mongo.SessionContext) error {
			if err := m.Down(sc, r.db); err != nil {
				return fmt.Errorf("rollback %s failed: %w", version, err)
			}
			_, err := r.collection.DeleteOne(sc, bson.M{"version": version})
			return err
		})
		if err != nil {
			return rolled, err
		}
		rolled++
	}
	return rolled, nil
}

// Status reports every registered migration. Drifted marks an applied migration whose
// description changed since it ran.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	applied, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.migrations))
	for _, m := range r.migrations {
		s := Status{Version: m.Version, Description: m.Description}
		if rec, ok := applied[m.Version]; ok {
			at := rec.AppliedAt
			s.AppliedAt = &at
			s.Drifted = rec.Checksum != checksum(m)
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *Runner) withSession(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)
	return mongo.WithSession(ctx, session, fn)
}

func (r *Runner) applied(ctx context.Context) (map[string]Migration, error) {
	list, err := r.appliedInOrder(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Migration, len(list))
	for _, m := range list {
		out[m.Version] = m
	}
	return out, nil
}

func (r *Runner) appliedInOrder(ctx context.Context) ([]Migration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Migration
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode applied migrations: %w", err)
	}
	return out, nil
}

func checksum(m RegisteredMigration) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(m.Version+"\x00"+m.Description))
}
