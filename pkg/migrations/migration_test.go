package migrations

import (
	"context"
	"testing"

	"github.com/LoganMeitz/votefinder/pkg/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestChecksumFollowsDescription(t *testing.T) {
	a := RegisteredMigration{Version: "001_x", Description: "first"}
	b := RegisteredMigration{Version: "001_x", Description: "first, edited"}
	assert.Equal(t, checksum(a), checksum(a))
	assert.NotEqual(t, checksum(a), checksum(b))
	assert.Len(t, checksum(a), 16)
}

func TestRegisterKeepsVersionOrder(t *testing.T) {
	r := &Runner{}
	r.Register(RegisteredMigration{Version: "002_b"})
	r.Register(RegisteredMigration{Version: "001_a"})
	r.Register(RegisteredMigration{Version: "003_c"})
	require.Len(t, r.migrations, 3)
	assert.Equal(t, "001_a", r.migrations[0].Version)
	assert.Equal(t, "003_c", r.migrations[2].Version)
}

func TestRunAndRollback(t *testing.T) {
	db := dbtest.NewMongoDB(t)
	ctx := context.Background()

	var ups, downs []string
	step := func(name string) RegisteredMigration {
		return RegisteredMigration{
			Version:     name,
			Description: name,
			Up: func(ctx context.Context, db *mongo.Database) error {
				ups = append(ups, name)
				_, err := db.Collection("marks").InsertOne(ctx, bson.M{"_id": name})
				return err
			},
			Down: func(ctx context.Context, db *mongo.Database) error {
				downs = append(downs, name)
				_, err := db.Collection("marks").DeleteOne(ctx, bson.M{"_id": name})
				return err
			},
		}
	}

	runner := NewRunner(db.Database)
	runner.Register(step("001_a"))
	runner.Register(step("002_b"))

	n, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = runner.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []string{"001_a", "002_b"}, ups)

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.NotNil(t, status[1].AppliedAt)
	assert.False(t, status[1].Drifted)

	rolled, err := runner.Rollback(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, rolled)
	assert.Equal(t, []string{"002_b"}, downs)

	pending, err := runner.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "002_b", pending[0].Version)
}
