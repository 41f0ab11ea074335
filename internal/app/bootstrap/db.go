// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/crewpay/internal/app/system/blobstore"
	"github.com/dalemusser/crewpay/internal/app/system/events"
	"github.com/dalemusser/crewpay/internal/app/system/indexes"
	"github.com/dalemusser/crewpay/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB connects to MongoDB and the other back ends: the blob store and,
// when configured, the review queue.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(appCfg.MongoURI)
	if appCfg.MongoMaxPoolSize > 0 {
		opts.SetMaxPoolSize(appCfg.MongoMaxPoolSize)
	}
	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		CrewPayMongoClient:   client,
		CrewPayMongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	deps.Blobs, err = blobstore.New(cctx, blobstore.Config{
		Type:        appCfg.StorageType,
		LocalPath:   appCfg.StorageLocalPath,
		LocalURL:    appCfg.StorageLocalURL,
		S3Region:    appCfg.StorageS3Region,
		S3Bucket:    appCfg.StorageS3Bucket,
		S3Prefix:    appCfg.StorageS3Prefix,
		S3PublicURL: appCfg.StorageS3PublicURL,
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("blob store: %w", err)
	}
	logger.Info("blob store ready", zap.String("storage_type", appCfg.StorageType))

	if appCfg.RabbitURI == "" {
		logger.Info("rabbit_uri not set; review requests will not be published")
		deps.Reviews = events.Nop{}
		return deps, nil
	}
	pub, err := events.NewPublisher(appCfg.RabbitURI, appCfg.RabbitQueue, logger)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("review queue: %w", err)
	}
	deps.Reviews = pub
	return deps, nil
}

// EnsureSchema applies collection validators and reconciles indexes.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.CrewPayMongoDatabase
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return err
	}
	logger.Info("schema ready")
	return nil
}
