// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"

	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organization_members")}
}

// CountExcludingOwner counts the organization's members other than its owner.
func (s *Store) CountExcludingOwner(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"organization_id": orgID,
		"role":            bson.M{"$ne": models.MemberRoleOwner},
	})
}
