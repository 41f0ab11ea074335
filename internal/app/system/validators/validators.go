// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/crewpay/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
//
// payment_methods is deliberately not ensured: it belongs to the payments
// service and its absence means payments are not deployed.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("organizations", orgsSchema())
	ensure("entity_documents", entityDocumentsSchema())
	ensure("organization_members", orgMembersSchema())
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name", "email", "role"},
			"properties": bson.M{
				"full_name":       bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"email":           bson.M{"bsonType": "string", "minLength": 3},
				"role":            bson.M{"enum": bson.A{models.RoleEmployer, models.RoleEmployee}},
				"status":          bson.M{"enum": bson.A{"active", "disabled"}},
				"organization_id": bson.M{"bsonType": bson.A{"objectId", "null"}},
			},
		},
	}
}

func orgsSchema() bson.M {
	statuses := bson.A{}
	for _, s := range models.EntityStatuses {
		statuses = append(statuses, string(s))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "owner_id"},
			"properties": bson.M{
				"name":                  bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"name_ci":               bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"},
				"owner_id":              bson.M{"bsonType": "objectId"},
				"profile_completed_at":  bson.M{"bsonType": "date"},
				"employee_types_needed": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"entity_status":         bson.M{"enum": statuses},
				"entity_submitted_at":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func entityDocumentsSchema() bson.M {
	types := bson.A{}
	for _, t := range models.RequiredDocumentTypes {
		types = append(types, string(t))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "document_type", "file_name", "file_url", "storage_path"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"document_type":   bson.M{"enum": types},
				"file_name":       bson.M{"bsonType": "string", "minLength": 1},
				"file_url":        bson.M{"bsonType": "string", "minLength": 1},
				"file_size_bytes": bson.M{"bsonType": bson.A{"long", "int"}, "minimum": 1},
				"storage_path":    bson.M{"bsonType": "string", "minLength": 1},
				"uploaded_by":     bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func orgMembersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "user_id", "role"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"user_id":         bson.M{"bsonType": "objectId"},
				"role":            bson.M{"enum": bson.A{models.MemberRoleOwner, models.MemberRoleAdmin, models.MemberRoleMember}},
			},
		},
	}
}
