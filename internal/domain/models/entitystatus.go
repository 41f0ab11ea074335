// internal/domain/models/entitystatus.go
package models

import "strings"

// EntityStatus tracks an organization through entity verification.
//
//	not_started --(upload)--> active --(submit)--> pending_review
//	pending_review --(reviewer)--> approved | rejected
//	rejected --(upload)--> active
type EntityStatus string

const (
	EntityNotStarted    EntityStatus = "not_started"
	EntityActive        EntityStatus = "active"
	EntityPendingReview EntityStatus = "pending_review"
	EntityApproved      EntityStatus = "approved"
	EntityRejected      EntityStatus = "rejected"
)

// EntityStatuses is the canonical list, used by the collection validator.
var EntityStatuses = []EntityStatus{
	EntityNotStarted,
	EntityActive,
	EntityPendingReview,
	EntityApproved,
	EntityRejected,
}

// ParseEntityStatus maps stored values to an EntityStatus.
// Empty and unknown values are EntityNotStarted.
func ParseEntityStatus(s string) EntityStatus {
	switch v := EntityStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case EntityActive, EntityPendingReview, EntityApproved, EntityRejected:
		return v
	default:
		return EntityNotStarted
	}
}
