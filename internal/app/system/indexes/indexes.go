// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	steps := []struct {
		name string
		fn   func(context.Context, *mongo.Database) error
	}{
		{"users", ensureUsers},
		{"organizations", ensureOrganizations},
		{"entity_documents", ensureEntityDocuments},
		{"organization_members", ensureOrganizationMembers},
		{"payment_methods", ensurePaymentMethods},
		{"audit_events", ensureAuditEvents},
	}
	for _, s := range steps {
		if err := s.fn(ctx, db); err != nil {
			problems = append(problems, s.name+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolVal(b *bool) bool {
	return b != nil && *b
}

// IndexOptionsConflict: same keys exist under a different name or options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listBySig(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// recreate drops name and creates m in its place.
func recreate(ctx context.Context, coll *mongo.Collection, name string, m mongo.IndexModel) error {
	if _, err := coll.Indexes().DropOne(ctx, name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return errors.New("cannot create unique index (duplicates present)")
		}
		return err
	}
	return nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		var name string
		var unique bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = boolVal(m.Options.Unique)
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		logf := func(msg string, extra ...zap.Field) {
			fields := append([]zap.Field{
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Bool("unique", unique),
				zap.String("took", time.Since(start).String()),
			}, extra...)
			zap.L().Info(msg, fields...)
		}

		existing, err := listBySig(ctx, coll)
		if err != nil {
			// Collection may not exist yet; CreateOne below will create it.
			existing = map[string]existingIndex{}
		}

		if ex, ok := existing[sig]; ok {
			switch {
			case boolVal(ex.Unique) == unique && (name == "" || ex.Name == name):
				logf("reusing existing index")
			case boolVal(ex.Unique) == unique:
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): rename: %v", coll.Name(), name, err))
					continue
				}
				logf("index renamed", zap.String("from", ex.Name))
			default:
				if err := recreate(ctx, coll, ex.Name, m); err != nil {
					errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
					continue
				}
				logf("index dropped and recreated")
			}
			continue
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				// A same-keyed index appeared between List and CreateOne.
				if again, lerr := listBySig(ctx, coll); lerr == nil {
					if ex, ok := again[sig]; ok {
						if boolVal(ex.Unique) == unique {
							logf("reusing existing index (post-conflict)")
							continue
						}
						if rerr := recreate(ctx, coll, ex.Name, m); rerr == nil {
							logf("index dropped and recreated (post-conflict)")
							continue
						} else {
							err = rerr
						}
					}
				}
			} else if wafflemongo.IsDup(err) && unique {
				err = errors.New("cannot create unique index (duplicates present)")
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			continue
		}
		logf("index ensured")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("users"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_users_org"),
		},
	})
}

func ensureOrganizations(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organizations"), []mongo.IndexModel{
		// Organization names are unique once case and diacritics are folded.
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgs_nameci"),
		},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}},
			Options: options.Index().SetName("idx_orgs_owner"),
		},
		// Review queue: pending submissions oldest first.
		{
			Keys:    bson.D{{Key: "entity_status", Value: 1}, {Key: "entity_submitted_at", Value: 1}},
			Options: options.Index().SetName("idx_orgs_entitystatus_submittedat"),
		},
	})
}

func ensureEntityDocuments(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("entity_documents"), []mongo.IndexModel{
		// One row per (organization, document type); uploads upsert on this key.
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "document_type", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_entitydocs_org_doctype"),
		},
	})
}

func ensureOrganizationMembers(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("organization_members"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_orgmembers_org_user"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("idx_orgmembers_org_role"),
		},
	})
}

// payment_methods is owned by the payments service. Creating an index would
// create the collection, and its absence is meaningful, so only index it when
// it is already deployed.
func ensurePaymentMethods(ctx context.Context, db *mongo.Database) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": "payment_methods"})
	if err != nil {
		return err
	}
	if len(names) == 0 {
		zap.L().Info("payment_methods not deployed; skipping indexes")
		return nil
	}
	return ensureIndexSet(ctx, db.Collection("payment_methods"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}},
			Options: options.Index().SetName("idx_paymentmethods_org"),
		},
	})
}

func ensureAuditEvents(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection("audit_events"), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_org_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_audit_eventtype_timestamp"),
		},
	})
}
