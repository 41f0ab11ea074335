package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateOrganization creates an organization owned by ownerID with no
// onboarding progress.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string, ownerID primitive.ObjectID) models.Organization {
	f.t.Helper()

	now := time.Now().UTC()
	org := models.Organization{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("organizations").InsertOne(ctx, org); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return org
}

// SetOrganizationFields applies a raw $set to an organization, for driving it
// into states only external collaborators produce (e.g. approved).
func (f *Fixtures) SetOrganizationFields(ctx context.Context, id primitive.ObjectID, set bson.M) {
	f.t.Helper()
	if _, err := f.db.Collection("organizations").UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		f.t.Fatalf("failed to update test organization: %v", err)
	}
}

// CreateUser creates a user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string, orgID *primitive.ObjectID) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:             primitive.NewObjectID(),
		FullName:       fullName,
		Email:          email,
		Role:           role,
		Status:         "active",
		OrganizationID: orgID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateEmployer creates an employer user and the organization they own.
func (f *Fixtures) CreateEmployer(ctx context.Context, orgName, email string) (models.User, models.Organization) {
	f.t.Helper()

	ownerID := primitive.NewObjectID()
	org := f.CreateOrganization(ctx, orgName, ownerID)

	now := time.Now().UTC()
	u := models.User{
		ID:             ownerID,
		FullName:       "Owner of " + orgName,
		Email:          email,
		Role:           models.RoleEmployer,
		Status:         "active",
		OrganizationID: &org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test employer: %v", err)
	}
	f.CreateMember(ctx, org.ID, u.ID, models.MemberRoleOwner)
	return u, org
}

// CreateMember adds a membership row.
func (f *Fixtures) CreateMember(ctx context.Context, orgID, userID primitive.ObjectID, role string) models.OrganizationMember {
	f.t.Helper()

	m := models.OrganizationMember{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("organization_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateEntityDocument inserts a document row without touching blob storage.
func (f *Fixtures) CreateEntityDocument(ctx context.Context, orgID primitive.ObjectID, docType models.DocumentType) models.EntityDocument {
	f.t.Helper()

	now := time.Now().UTC()
	name := string(docType) + ".pdf"
	path := "entity-documents/" + orgID.Hex() + "/" + string(docType) + "/0-" + name
	d := models.EntityDocument{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		DocumentType:   docType,
		FileName:       name,
		FileURL:        "/files/" + path,
		FileType:       "application/pdf",
		FileSizeBytes:  4,
		StoragePath:    path,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("entity_documents").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test entity document: %v", err)
	}
	return d
}

// CreatePaymentMethod inserts a payment method, creating the collection.
func (f *Fixtures) CreatePaymentMethod(ctx context.Context, orgID primitive.ObjectID) models.PaymentMethod {
	f.t.Helper()

	pm := models.PaymentMethod{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Kind:           "ach",
		Last4:          "6789",
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("payment_methods").InsertOne(ctx, pm); err != nil {
		f.t.Fatalf("failed to create test payment method: %v", err)
	}
	return pm
}
