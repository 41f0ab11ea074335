package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	organizationstore "github.com/dalemusser/crewpay/internal/app/store/organizations"
	"github.com/dalemusser/crewpay/internal/app/system/htmlsanitize"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Field limits for the organization profile.
const (
	maxDescriptionLen  = 2000
	maxEmployeeTypes   = 20
	maxEmployeeTypeLen = 80
)

// OrgStore is the organization persistence the service needs.
type OrgStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
	CompleteProfile(ctx context.Context, id, ownerID primitive.ObjectID, upd models.ProfileUpdate, now time.Time) (models.Organization, error)
	MarkSubmitted(ctx context.Context, id, ownerID primitive.ObjectID, now time.Time) (models.Organization, error)
	ActivateEntity(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
}

// DocStore persists entity documents keyed by (organization, type).
type DocStore interface {
	Upsert(ctx context.Context, doc models.EntityDocument) (models.EntityDocument, error)
	ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.EntityDocument, error)
	GetByType(ctx context.Context, orgID primitive.ObjectID, docType models.DocumentType) (models.EntityDocument, error)
	Delete(ctx context.Context, orgID primitive.ObjectID, docType models.DocumentType) (int64, error)
}

// BlobStore holds the uploaded files.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type MemberCounter interface {
	CountExcludingOwner(ctx context.Context, orgID primitive.ObjectID) (int64, error)
}

type PaymentProber interface {
	Probe(ctx context.Context, orgID primitive.ObjectID) (models.PaymentProbe, error)
}

// ReviewNotifier is told when an organization is submitted for review.
type ReviewNotifier interface {
	EntitySubmitted(ctx context.Context, org models.Organization, docs []models.DocumentType) error
}

// Deps wires a Service.
type Deps struct {
	Orgs     OrgStore
	Docs     DocStore
	Members  MemberCounter
	Payments PaymentProber
	Blobs    BlobStore
	Notifier ReviewNotifier
	Log      *zap.Logger

	// MaxDocumentBytes bounds a decoded upload. Zero means unbounded.
	MaxDocumentBytes int64

	// Now defaults to time.Now.
	Now func() time.Time
}

// Service answers checklist reads and applies onboarding writes for one
// organization at a time.
type Service struct {
	orgs     OrgStore
	docs     DocStore
	members  MemberCounter
	payments PaymentProber
	verify   *Verification
	now      func() time.Time
}

func New(d Deps) *Service {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	return &Service{
		orgs:     d.Orgs,
		docs:     d.Docs,
		members:  d.Members,
		payments: d.Payments,
		now:      d.Now,
		verify: &Verification{
			Orgs:     d.Orgs,
			Docs:     d.Docs,
			Blobs:    d.Blobs,
			Notifier: d.Notifier,
			Log:      d.Log,
			MaxBytes: d.MaxDocumentBytes,
			Now:      d.Now,
		},
	}
}

type nopNotifier struct{}

func (nopNotifier) EntitySubmitted(context.Context, models.Organization, []models.DocumentType) error {
	return nil
}

func (s *Service) loadOrg(ctx context.Context, orgID primitive.ObjectID) (models.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Organization{}, fmt.Errorf("%w: organization not found", ErrNotFound)
		}
		return models.Organization{}, fmt.Errorf("load organization: %w", err)
	}
	return org, nil
}

// Checklist derives the current onboarding checklist for orgID.
func (s *Service) Checklist(ctx context.Context, orgID primitive.ObjectID) (Checklist, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return Checklist{}, err
	}

	docs, err := s.docs.ListByOrg(ctx, orgID)
	if err != nil {
		return Checklist{}, fmt.Errorf("load documents: %w", err)
	}
	members, err := s.members.CountExcludingOwner(ctx, orgID)
	if err != nil {
		return Checklist{}, fmt.Errorf("count members: %w", err)
	}
	probe, err := s.payments.Probe(ctx, orgID)
	if err != nil {
		return Checklist{}, fmt.Errorf("probe payment methods: %w", err)
	}

	return Resolve(Snapshot{
		Organization: org,
		Documents:    docs,
		MemberCount:  members,
		Payments:     probe,
	}), nil
}

// CompleteOrgProfile writes the enrichment fields and marks the profile step
// complete. An update with no fields is a skip and still completes the step.
func (s *Service) CompleteOrgProfile(ctx context.Context, orgID, callerID primitive.ObjectID, upd models.ProfileUpdate) (models.Organization, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}
	if org.OwnerID != callerID {
		return models.Organization{}, fmt.Errorf("%w: only the organization owner can edit the profile", ErrForbidden)
	}

	clean, err := normalizeProfile(upd)
	if err != nil {
		return models.Organization{}, err
	}

	out, err := s.orgs.CompleteProfile(ctx, orgID, callerID, clean, s.now().UTC())
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotOwned) {
			return models.Organization{}, fmt.Errorf("%w: only the organization owner can edit the profile", ErrForbidden)
		}
		return models.Organization{}, fmt.Errorf("save profile: %w", err)
	}
	return out, nil
}

func normalizeProfile(upd models.ProfileUpdate) (models.ProfileUpdate, error) {
	var out models.ProfileUpdate

	if upd.Description != nil {
		d := htmlsanitize.PlainText(*upd.Description)
		if len(d) > maxDescriptionLen {
			return out, invalid("description must be at most %d characters", maxDescriptionLen)
		}
		out.Description = &d
	}

	for _, f := range []struct {
		name string
		in   *string
		out  **string
	}{
		{"website", upd.Website, &out.Website},
		{"linkedinUrl", upd.LinkedinURL, &out.LinkedinURL},
	} {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v != "" && !urlutil.IsValidAbsHTTPURL(v) {
			return out, invalid("%s must be an absolute http or https URL", f.name)
		}
		*f.out = &v
	}

	if upd.EmployeeTypesNeeded != nil {
		seen := make(map[string]bool, len(upd.EmployeeTypesNeeded))
		types := make([]string, 0, len(upd.EmployeeTypesNeeded))
		for _, t := range upd.EmployeeTypesNeeded {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if len(t) > maxEmployeeTypeLen {
				return out, invalid("employee type %q is too long", t)
			}
			key := strings.ToLower(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			types = append(types, t)
		}
		if len(types) > maxEmployeeTypes {
			return out, invalid("at most %d employee types may be listed", maxEmployeeTypes)
		}
		out.EmployeeTypesNeeded = types
	}

	return out, nil
}

// UploadDocument stores a required entity document for orgID.
func (s *Service) UploadDocument(ctx context.Context, orgID, callerID primitive.ObjectID, in UploadInput) (models.EntityDocument, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return models.EntityDocument{}, err
	}
	return s.verify.Upload(ctx, org, callerID, in)
}

// DeleteDocument removes the document of the given type.
func (s *Service) DeleteDocument(ctx context.Context, orgID, callerID primitive.ObjectID, docType string) error {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return err
	}
	return s.verify.Delete(ctx, org, callerID, docType)
}

// SubmitForReview hands the entity to the external reviewer.
func (s *Service) SubmitForReview(ctx context.Context, orgID, callerID primitive.ObjectID) (models.Organization, error) {
	org, err := s.loadOrg(ctx, orgID)
	if err != nil {
		return models.Organization{}, err
	}
	return s.verify.Submit(ctx, org, callerID)
}
