// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateOrganization = errors.New("an organization with this name already exists")
	// ErrNotOwned means the scoped filter {_id, owner_id} matched nothing.
	ErrNotOwned = errors.New("organization not found for this owner")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

// Create inserts a new organization. Entity status is left absent, which
// reads as not_started.
func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.Name = strings.TrimSpace(org.Name)
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

// GetByID returns mongo.ErrNoDocuments when the organization does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// CompleteProfile writes the non-nil fields of upd and stamps
// profile_completed_at unless it is already set. The write is scoped to
// {_id, owner_id}; a miss returns ErrNotOwned.
func (s *Store) CompleteProfile(ctx context.Context, id, ownerID primitive.ObjectID, upd models.ProfileUpdate, now time.Time) (models.Organization, error) {
	set := bson.M{
		"updated_at": now,
		// Keep the first completion time; never cleared.
		"profile_completed_at": bson.M{"$ifNull": bson.A{"$profile_completed_at", now}},
	}
	if upd.Description != nil {
		set["description"] = bson.M{"$literal": *upd.Description}
	}
	if upd.Website != nil {
		set["website"] = bson.M{"$literal": *upd.Website}
	}
	if upd.LinkedinURL != nil {
		set["linkedin_url"] = bson.M{"$literal": *upd.LinkedinURL}
	}
	if upd.EmployeeTypesNeeded != nil {
		set["employee_types_needed"] = bson.M{"$literal": upd.EmployeeTypesNeeded}
	}

	// Pipeline update so $ifNull can read the current value.
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var org models.Organization
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner_id": ownerID}, pipeline, opts).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Organization{}, ErrNotOwned
		}
		return models.Organization{}, err
	}
	return org, nil
}

// MarkSubmitted moves the organization to pending_review. The write is
// scoped to {_id, owner_id}; a miss returns ErrNotOwned. Re-submitting an
// organization already under review refreshes entity_submitted_at.
func (s *Store) MarkSubmitted(ctx context.Context, id, ownerID primitive.ObjectID, now time.Time) (models.Organization, error) {
	update := bson.M{"$set": bson.M{
		"entity_status":       models.EntityPendingReview,
		"entity_submitted_at": now,
		"updated_at":          now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var org models.Organization
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "owner_id": ownerID}, update, opts).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Organization{}, ErrNotOwned
		}
		return models.Organization{}, err
	}
	return org, nil
}

// ActivateEntity moves an organization that has not started verification, or
// was rejected, to active. Other states are left alone; the return reports
// whether a write happened.
func (s *Store) ActivateEntity(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	filter := bson.M{
		"_id": id,
		"entity_status": bson.M{"$in": bson.A{
			nil,
			models.EntityNotStarted,
			models.EntityRejected,
		}},
	}
	res, err := s.c.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"entity_status": models.EntityActive,
		"updated_at":    now,
	}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// SetEntityStatus records a reviewer decision. Approval and rejection are
// made by the compliance tooling; this is its write path.
func (s *Store) SetEntityStatus(ctx context.Context, id primitive.ObjectID, st models.EntityStatus) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"entity_status": st,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
