// Package dbtest connects integration tests to a throwaway Mongo database.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/LoganMeitz/votefinder/pkg/database"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// URIEnv names the connection string used by integration tests. Transactions need a replica set.
const URIEnv = "MONGODB_TEST_URI"

// NewMongoDB returns a fresh database that is dropped when the test ends. It skips the test
// in short mode or when no test server is configured.
func NewMongoDB(t *testing.T) *database.MongoDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	uri := os.Getenv(URIEnv)
	if uri == "" {
		t.Skipf("Skipping integration test: %s is not set", URIEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("ping: %v", err)
	}

	db := client.Database("votefinder_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return &database.MongoDB{Client: client, Database: db}
}
