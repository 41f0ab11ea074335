// internal/domain/models/organization.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization is the employer tenant. Only its owner may change the
// enrichment fields or submit the entity for review.
type Organization struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"-"` // ← always stored
	OwnerID primitive.ObjectID `bson:"owner_id" json:"ownerId"`

	// Step 1 enrichment. ProfileCompletedAt is set at most once.
	ProfileCompletedAt  *time.Time `bson:"profile_completed_at,omitempty" json:"profileCompletedAt"`
	Description         string     `bson:"description,omitempty" json:"description"`
	Website             string     `bson:"website,omitempty" json:"website"`
	LinkedinURL         string     `bson:"linkedin_url,omitempty" json:"linkedinUrl"`
	EmployeeTypesNeeded []string   `bson:"employee_types_needed,omitempty" json:"employeeTypesNeeded"`

	// Step 2 verification. Absent EntityStatus reads as EntityNotStarted.
	EntityStatus      EntityStatus `bson:"entity_status,omitempty" json:"entityStatus"`
	EntitySubmittedAt *time.Time   `bson:"entity_submitted_at,omitempty" json:"entitySubmittedAt"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Status returns the entity status with the absent value normalized.
func (o Organization) Status() EntityStatus {
	return ParseEntityStatus(string(o.EntityStatus))
}

// ProfileUpdate carries the optional Step 1 fields. Nil means "leave as is";
// an update with every field nil is the UI's "skip" and still completes the step.
type ProfileUpdate struct {
	Description         *string
	Website             *string
	LinkedinURL         *string
	EmployeeTypesNeeded []string
}
