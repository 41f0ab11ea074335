// internal/app/store/paymentmethods/paymentmethodstore.go
package paymentmethodstore

import (
	"context"

	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const collection = "payment_methods"

// Store reads the payments service's collection. It never writes, and it
// treats a missing collection as "payments not deployed".
type Store struct {
	db      *mongo.Database
	c       *mongo.Collection
	enabled bool
}

// New returns a Store. When enabled is false every probe is unavailable.
func New(db *mongo.Database, enabled bool) *Store {
	return &Store{db: db, c: db.Collection(collection), enabled: enabled}
}

// Probe reports whether payments are available and, if so, how many
// payment methods the organization has.
func (s *Store) Probe(ctx context.Context, orgID primitive.ObjectID) (models.PaymentProbe, error) {
	if !s.enabled {
		return models.PaymentsUnavailable, nil
	}

	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return models.PaymentProbe{}, err
	}
	if len(names) == 0 {
		return models.PaymentsUnavailable, nil
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return models.PaymentProbe{}, err
	}
	return models.PaymentProbe{Available: true, Count: n}, nil
}
