// internal/app/store/entitydocs/entitydocstore.go
package entitydocstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrConcurrentUpload is returned when a racing upsert for the same
// (organization, document type) won the unique index.
var ErrConcurrentUpload = errors.New("another upload for this document type is in progress")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("entity_documents")}
}

// Upsert stores doc as the live document for its (organization, type),
// replacing any previous one. created_at and _id survive replacement.
func (s *Store) Upsert(ctx context.Context, doc models.EntityDocument) (models.EntityDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"organization_id": doc.OrganizationID,
		"document_type":   doc.DocumentType,
	}
	update := bson.M{
		"$set": bson.M{
			"file_name":       doc.FileName,
			"file_url":        doc.FileURL,
			"file_type":       doc.FileType,
			"file_size_bytes": doc.FileSizeBytes,
			"storage_path":    doc.StoragePath,
			"uploaded_by":     doc.UploadedBy,
			"updated_at":      now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out models.EntityDocument
	if err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out); err != nil {
		if wafflemongo.IsDup(err) {
			return models.EntityDocument{}, ErrConcurrentUpload
		}
		return models.EntityDocument{}, err
	}
	return out, nil
}

// ListByOrg returns every live document for the organization.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.EntityDocument, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.EntityDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// GetByType returns mongo.ErrNoDocuments when nothing is uploaded for docType.
func (s *Store) GetByType(ctx context.Context, orgID primitive.ObjectID, docType models.DocumentType) (models.EntityDocument, error) {
	var d models.EntityDocument
	err := s.c.FindOne(ctx, bson.M{"organization_id": orgID, "document_type": docType}).Decode(&d)
	if err != nil {
		return models.EntityDocument{}, err
	}
	return d, nil
}

// Delete removes the live document of docType. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, orgID primitive.ObjectID, docType models.DocumentType) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"organization_id": orgID, "document_type": docType})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
