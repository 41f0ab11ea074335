// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/crewpay/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations accepted by Config.Onboarding.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"  // MongoDB only
	ModeLog = "log" // zap only
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Onboarding controls logging for profile, document, and submission events.
	Onboarding string
}

// Logger records onboarding audit events to MongoDB and/or zap.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}

	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.OrganizationID != nil {
		fields = append(fields, zap.String("organization_id", event.OrganizationID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// A nil Logger is a no-op so tests can pass nil.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := l.config.Onboarding
	if setting == "" {
		setting = ModeAll
	}
	if setting == ModeOff {
		return
	}

	if setting == ModeAll || setting == ModeLog {
		l.logToZap(event)
	}

	if (setting == ModeAll || setting == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) onboarding(r *http.Request, eventType string, actorID, orgID primitive.ObjectID) audit.Event {
	return audit.Event{
		Category:       audit.CategoryOnboarding,
		EventType:      eventType,
		ActorID:        &actorID,
		OrganizationID: &orgID,
		IP:             getClientIP(r),
		UserAgent:      r.UserAgent(),
		Success:        true,
	}
}

// ProfileCompleted logs an organization profile save.
func (l *Logger) ProfileCompleted(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID) {
	l.Log(ctx, l.onboarding(r, audit.EventOrgProfileCompleted, actorID, orgID))
}

// DocumentUploaded logs an entity document upload or replacement.
func (l *Logger) DocumentUploaded(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, docType, fileName string, size int64) {
	e := l.onboarding(r, audit.EventEntityDocumentUploaded, actorID, orgID)
	e.Details = map[string]string{
		"doc_type":   docType,
		"file_name":  fileName,
		"size_bytes": strconv.FormatInt(size, 10),
	}
	l.Log(ctx, e)
}

// DocumentDeleted logs an entity document removal.
func (l *Logger) DocumentDeleted(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, docType string) {
	e := l.onboarding(r, audit.EventEntityDocumentDeleted, actorID, orgID)
	e.Details = map[string]string{"doc_type": docType}
	l.Log(ctx, e)
}

// EntitySubmitted logs a successful submission for review.
func (l *Logger) EntitySubmitted(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID) {
	l.Log(ctx, l.onboarding(r, audit.EventEntitySubmitted, actorID, orgID))
}

// EntitySubmitBlocked logs a submission refused by validation or ownership.
func (l *Logger) EntitySubmitBlocked(ctx context.Context, r *http.Request, actorID, orgID primitive.ObjectID, reason string) {
	e := l.onboarding(r, audit.EventEntitySubmitBlocked, actorID, orgID)
	e.Success = false
	e.FailureReason = reason
	l.Log(ctx, e)
}
