// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	employeronboardingfeature "github.com/dalemusser/crewpay/internal/app/features/employeronboarding"
	healthfeature "github.com/dalemusser/crewpay/internal/app/features/health"
	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/app/store/audit"
	entitydocstore "github.com/dalemusser/crewpay/internal/app/store/entitydocs"
	memberstore "github.com/dalemusser/crewpay/internal/app/store/members"
	organizationstore "github.com/dalemusser/crewpay/internal/app/store/organizations"
	paymentmethodstore "github.com/dalemusser/crewpay/internal/app/store/paymentmethods"
	userstore "github.com/dalemusser/crewpay/internal/app/store/users"
	"github.com/dalemusser/crewpay/internal/app/system/auditlog"
	"github.com/dalemusser/crewpay/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. CrewPay applies session middleware, mounts the
// health check and the employer onboarding API, and serves locally stored
// entity documents to members of the owning organization.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	sessionKey := appCfg.SessionKey
	if sessionKey == "" {
		logger.Warn("session_key not set; using a random development key")
		sessionKey = devSessionKey()
	}

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(sessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.CrewPayMongoDatabase

	// Refresh the session user on each request so role changes and disabled
	// accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(db))

	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Onboarding: appCfg.AuditLog})

	svc := onboarding.New(onboarding.Deps{
		Orgs:             organizationstore.New(db),
		Docs:             entitydocstore.New(db),
		Members:          memberstore.New(db),
		Payments:         paymentmethodstore.New(db, appCfg.PaymentsEnabled),
		Blobs:            deps.Blobs,
		Notifier:         deps.Reviews,
		Log:              logger,
		MaxDocumentBytes: appCfg.EntityDocMaxBytes,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CrewPayMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Employer onboarding
	onboardingHandler := employeronboardingfeature.NewHandler(svc, auditLogger, appCfg.EntityDocMaxBytes, logger)
	r.Mount("/onboarding/employer", employeronboardingfeature.Routes(onboardingHandler, sessionMgr))

	// Locally stored documents. S3 URLs are served by S3 or the CDN.
	if deps.Blobs != nil {
		if local, prefix, ok := deps.Blobs.Local(); ok {
			r.With(sessionMgr.RequireSignedIn, employeronboardingfeature.RequireOwnDocuments(prefix)).
				Get(prefix+"/*", employeronboardingfeature.ServeLocalFile(local, prefix, logger))
		}
	}

	return r, nil
}
