// Package events publishes review requests to the compliance team's queue.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
)

// TypeEntitySubmitted is the AMQP message type for review requests.
const TypeEntitySubmitted = "entity.submitted"

// EntitySubmitted is the message body reviewers consume.
type EntitySubmitted struct {
	OrganizationID string    `json:"organization_id"`
	OwnerID        string    `json:"owner_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	DocumentTypes  []string  `json:"document_types"`
}

// NewEntitySubmitted builds the message for a just-submitted organization.
func NewEntitySubmitted(org models.Organization, docs []models.DocumentType) EntitySubmitted {
	msg := EntitySubmitted{
		OrganizationID: org.ID.Hex(),
		OwnerID:        org.OwnerID.Hex(),
		DocumentTypes:  make([]string, 0, len(docs)),
	}
	if org.EntitySubmittedAt != nil {
		msg.SubmittedAt = org.EntitySubmittedAt.UTC()
	}
	for _, d := range docs {
		msg.DocumentTypes = append(msg.DocumentTypes, string(d))
	}
	return msg
}

// Body encodes the message as JSON.
func (m EntitySubmitted) Body() ([]byte, error) {
	return json.Marshal(m)
}

// Nop drops every event. Used when no broker is configured.
type Nop struct{}

func (Nop) EntitySubmitted(context.Context, models.Organization, []models.DocumentType) error {
	return nil
}

func (Nop) Close() error { return nil }
