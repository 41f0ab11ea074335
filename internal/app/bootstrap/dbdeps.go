// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/crewpay/internal/app/system/blobstore"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// reviewPublisher is satisfied by events.Publisher and events.Nop.
type reviewPublisher interface {
	EntitySubmitted(ctx context.Context, org models.Organization, docs []models.DocumentType) error
	Close() error
}

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	CrewPayMongoClient   *mongo.Client
	CrewPayMongoDatabase *mongo.Database

	Blobs   *blobstore.Store
	Reviews reviewPublisher
}
