// Package employeronboarding serves the employer onboarding checklist API.
package employeronboarding

import (
	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// defaultMaxBodyBytes covers a 10 MiB file after base64 expansion plus the
// JSON envelope.
const defaultMaxBodyBytes = 14 << 20

// Handler is the feature-level entry point for employer onboarding.
type Handler struct {
	Svc          *onboarding.Service
	Audit        *auditlog.Logger
	Log          *zap.Logger
	MaxBodyBytes int64
}

// NewHandler constructs an onboarding Handler. maxDocBytes is the decoded
// upload limit; the request body limit is derived from it.
func NewHandler(svc *onboarding.Service, audit *auditlog.Logger, maxDocBytes int64, logger *zap.Logger) *Handler {
	body := int64(defaultMaxBodyBytes)
	if maxDocBytes > 0 {
		body = maxDocBytes/3*4 + 64<<10
	}
	return &Handler{
		Svc:          svc,
		Audit:        audit,
		Log:          logger,
		MaxBodyBytes: body,
	}
}
