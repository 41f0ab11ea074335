package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dalemusser/crewpay/internal/app/system/events"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewEntitySubmitted_Body(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	org := models.Organization{
		ID:                primitive.NewObjectID(),
		OwnerID:           primitive.NewObjectID(),
		EntitySubmittedAt: &at,
	}

	body, err := events.NewEntitySubmitted(org, models.RequiredDocumentTypes).Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["organization_id"] != org.ID.Hex() {
		t.Errorf("organization_id = %v", got["organization_id"])
	}
	if got["owner_id"] != org.OwnerID.Hex() {
		t.Errorf("owner_id = %v", got["owner_id"])
	}
	if got["submitted_at"] != "2026-03-01T12:00:00Z" {
		t.Errorf("submitted_at = %v", got["submitted_at"])
	}
	types, _ := got["document_types"].([]any)
	if len(types) != 3 || types[0] != "w9" {
		t.Errorf("document_types = %v", got["document_types"])
	}
}

func TestNewEntitySubmitted_NoDocsEncodesEmptyArray(t *testing.T) {
	body, err := events.NewEntitySubmitted(models.Organization{}, nil).Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(got["document_types"]) != "[]" {
		t.Errorf("document_types = %s, want []", got["document_types"])
	}
}

func TestNop(t *testing.T) {
	var n events.Nop
	if err := n.EntitySubmitted(context.Background(), models.Organization{}, nil); err != nil {
		t.Errorf("Nop.EntitySubmitted: %v", err)
	}
	if err := n.Close(); err != nil {
		t.Errorf("Nop.Close: %v", err)
	}
}
