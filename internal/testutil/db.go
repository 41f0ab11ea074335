package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURIEnv points tests at an existing server instead of a container.
const MongoURIEnv = "CREWPAY_TEST_MONGO_URI"

var (
	mongoOnce   sync.Once
	mongoClient *mongo.Client
	mongoErr    error
)

// TestContext returns a context bounded for a single test step.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// connect starts one MongoDB container per test binary (or uses MongoURIEnv).
// The container is reaped by testcontainers when the process exits.
func connect() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		uri, mongoErr = startContainer(ctx, runMongoContainer)
		if mongoErr != nil {
			return
		}
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		mongoErr = err
		return
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		mongoErr = err
		return
	}
	mongoClient = client
}

func runMongoContainer(ctx context.Context) (string, error) {
	c, err := mongodb.RunContainer(ctx, tc.WithImage("mongo:7"))
	if err != nil {
		return "", err
	}
	return c.ConnectionString(ctx)
}

// startContainer runs start and turns a panic into an error; testcontainers
// panics when it cannot locate a Docker host.
func startContainer(ctx context.Context, start func(context.Context) (string, error)) (uri string, err error) {
	defer func() {
		if r := recover(); r != nil {
			uri, err = "", fmt.Errorf("start mongodb container: %v", r)
		}
	}()
	return start(ctx)
}

// SetupTestDB returns a fresh, uniquely named database that is dropped when
// the test ends. Tests are skipped when no MongoDB is reachable.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	if os.Getenv(MongoURIEnv) == "" {
		tc.SkipIfProviderIsNotHealthy(t)
	}
	mongoOnce.Do(connect)
	if mongoErr != nil {
		t.Skipf("mongodb unavailable (set %s or run docker): %v", MongoURIEnv, mongoErr)
	}

	db := mongoClient.Database("crewpay_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}
