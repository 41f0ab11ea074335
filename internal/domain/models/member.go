// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Organization member roles.
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// OrganizationMember is the join between users and organizations.
// Exactly one document per (organization_id, user_id).
type OrganizationMember struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role           string             `bson:"role" json:"role"` // "owner" | "admin" | "member"
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
