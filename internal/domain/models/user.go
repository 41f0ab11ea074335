// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Platform roles.
const (
	RoleEmployer = "employer"
	RoleEmployee = "employee"
)

// User is a person who signs in. Employers belong to the organization they
// administer; organization-level roles live in organization_members.
type User struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName       string              `bson:"full_name" json:"full_name"`
	Email          string              `bson:"email" json:"email"`
	Role           string              `bson:"role" json:"role"` // employer | employee
	Status         string              `bson:"status,omitempty" json:"status,omitempty"`
	OrganizationID *primitive.ObjectID `bson:"organization_id,omitempty" json:"organization_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
