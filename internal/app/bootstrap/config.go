// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/crewpay/internal/app/system/auditlog"
	"github.com/dalemusser/crewpay/internal/app/system/blobstore"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for CrewPay.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CREWPAY_MONGO_URI, CREWPAY_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "crewpay", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "session_key", Default: "", Desc: "Session signing key shared with the login service (required in prod)"},
	{Name: "session_name", Default: "crewpay-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Entity document storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "", Desc: "S3 key prefix"},
	{Name: "storage_s3_public_url", Default: "", Desc: "Public base URL for S3 objects (CDN)"},

	// Review requests
	{Name: "rabbit_uri", Default: "", Desc: "AMQP URI for review requests (blank disables publishing)"},
	{Name: "rabbit_queue", Default: "entity-review-requests", Desc: "Queue that receives entity review requests"},

	{Name: "payments_enabled", Default: false, Desc: "Count payment methods for the payment_setup step"},
	{Name: "entity_doc_max_bytes", Default: 10 << 20, Desc: "Maximum decoded size of an entity document"},

	// Audit logging
	{Name: "audit_log", Default: "all", Desc: "Onboarding audit logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step operations"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for uploads"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env (CREWPAY_*) > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CREWPAY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),

		StorageType:        strings.ToLower(strings.TrimSpace(appValues.String("storage_type"))),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageS3PublicURL: appValues.String("storage_s3_public_url"),

		RabbitURI:   appValues.String("rabbit_uri"),
		RabbitQueue: appValues.String("rabbit_queue"),

		PaymentsEnabled:   appValues.Bool("payments_enabled"),
		EntityDocMaxBytes: int64(appValues.Int("entity_doc_max_bytes")),

		AuditLog: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case blobstore.TypeLocal:
		if appCfg.StorageLocalPath == "" {
			return fmt.Errorf("storage_local_path is required for local storage")
		}
	case blobstore.TypeS3:
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_type s3 requires storage_s3_bucket and storage_s3_region")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	switch appCfg.AuditLog {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log must be one of all, db, log, off; got %q", appCfg.AuditLog)
	}

	if appCfg.EntityDocMaxBytes <= 0 {
		return fmt.Errorf("entity_doc_max_bytes must be positive")
	}
	if appCfg.RabbitURI != "" && appCfg.RabbitQueue == "" {
		return fmt.Errorf("rabbit_queue is required when rabbit_uri is set")
	}

	if appCfg.SessionKey == "" && coreCfg.Env == "prod" {
		return fmt.Errorf("session_key is required in prod")
	}
	return nil
}

// devSessionKey returns a random key for local development. Sessions do not
// survive a restart.
func devSessionKey() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}
