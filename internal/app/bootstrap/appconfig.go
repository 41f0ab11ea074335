// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// HTTP server itself; everything specific to CrewPay lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64

	// Session cookies are issued by the login service; both sides share the key.
	SessionKey    string
	SessionName   string
	SessionDomain string

	// Entity document storage
	StorageType        string // "local" or "s3"
	StorageLocalPath   string // e.g. "./uploads"
	StorageLocalURL    string // URL prefix local files are served under, e.g. "/files"
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageS3PublicURL string // optional CDN base URL

	// Review requests. Blank RabbitURI disables publishing.
	RabbitURI   string
	RabbitQueue string

	// PaymentsEnabled is false until the payments service is deployed; the
	// payment_setup step then stays active.
	PaymentsEnabled bool

	// EntityDocMaxBytes bounds a decoded entity document upload.
	EntityDocMaxBytes int64

	// AuditLog is "all", "db", "log", or "off".
	AuditLog string

	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
