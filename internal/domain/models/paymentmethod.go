// internal/domain/models/paymentmethod.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethod funds payroll for an organization.
type PaymentMethod struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Kind           string             `bson:"kind" json:"kind"` // e.g. "ach", "card"
	Last4          string             `bson:"last4" json:"last4"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

// PaymentProbe is the result of asking how many payment methods exist.
// Available=false means payments are not deployed, which is not the same
// as having zero payment methods.
type PaymentProbe struct {
	Available bool
	Count     int64
}

// PaymentsUnavailable is the probe result when the capability is not deployed.
var PaymentsUnavailable = PaymentProbe{Available: false}
