package onboarding

import (
	"context"
	"errors"
	"sort"
	"time"

	organizationstore "github.com/dalemusser/crewpay/internal/app/store/organizations"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
)

type memOrgs struct {
	orgs             map[primitive.ObjectID]models.Organization
	ActivateEntityFn func(id primitive.ObjectID) (bool, error)
}

func newMemOrgs(orgs ...models.Organization) *memOrgs {
	m := &memOrgs{orgs: map[primitive.ObjectID]models.Organization{}}
	for _, o := range orgs {
		m.orgs[o.ID] = o
	}
	return m
}

func (m *memOrgs) GetByID(_ context.Context, id primitive.ObjectID) (models.Organization, error) {
	o, ok := m.orgs[id]
	if !ok {
		return models.Organization{}, mongo.ErrNoDocuments
	}
	return o, nil
}

func (m *memOrgs) CompleteProfile(_ context.Context, id, ownerID primitive.ObjectID, upd models.ProfileUpdate, now time.Time) (models.Organization, error) {
	o, ok := m.orgs[id]
	if !ok || o.OwnerID != ownerID {
		return models.Organization{}, organizationstore.ErrNotOwned
	}
	if upd.Description != nil {
		o.Description = *upd.Description
	}
	if upd.Website != nil {
		o.Website = *upd.Website
	}
	if upd.LinkedinURL != nil {
		o.LinkedinURL = *upd.LinkedinURL
	}
	if upd.EmployeeTypesNeeded != nil {
		o.EmployeeTypesNeeded = upd.EmployeeTypesNeeded
	}
	if o.ProfileCompletedAt == nil {
		o.ProfileCompletedAt = &now
	}
	o.UpdatedAt = now
	m.orgs[id] = o
	return o, nil
}

func (m *memOrgs) MarkSubmitted(_ context.Context, id, ownerID primitive.ObjectID, now time.Time) (models.Organization, error) {
	o, ok := m.orgs[id]
	if !ok || o.OwnerID != ownerID {
		return models.Organization{}, organizationstore.ErrNotOwned
	}
	o.EntityStatus = models.EntityPendingReview
	o.EntitySubmittedAt = &now
	o.UpdatedAt = now
	m.orgs[id] = o
	return o, nil
}

func (m *memOrgs) ActivateEntity(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	if m.ActivateEntityFn != nil {
		return m.ActivateEntityFn(id)
	}
	o, ok := m.orgs[id]
	if !ok {
		return false, nil
	}
	switch o.Status() {
	case models.EntityNotStarted, models.EntityRejected:
		o.EntityStatus = models.EntityActive
		o.UpdatedAt = now
		m.orgs[id] = o
		return true, nil
	}
	return false, nil
}

type docKey struct {
	org primitive.ObjectID
	typ models.DocumentType
}

type memDocs struct {
	docs     map[docKey]models.EntityDocument
	upserts  int
	UpsertFn func(doc models.EntityDocument) (models.EntityDocument, error)
}

func newMemDocs() *memDocs {
	return &memDocs{docs: map[docKey]models.EntityDocument{}}
}

func (m *memDocs) Upsert(_ context.Context, doc models.EntityDocument) (models.EntityDocument, error) {
	m.upserts++
	if m.UpsertFn != nil {
		return m.UpsertFn(doc)
	}
	k := docKey{doc.OrganizationID, doc.DocumentType}
	now := time.Now().UTC()
	if prev, ok := m.docs[k]; ok {
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
	} else {
		doc.ID = primitive.NewObjectID()
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	m.docs[k] = doc
	return doc, nil
}

func (m *memDocs) ListByOrg(_ context.Context, orgID primitive.ObjectID) ([]models.EntityDocument, error) {
	var out []models.EntityDocument
	for k, d := range m.docs {
		if k.org == orgID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
	return out, nil
}

func (m *memDocs) GetByType(_ context.Context, orgID primitive.ObjectID, t models.DocumentType) (models.EntityDocument, error) {
	d, ok := m.docs[docKey{orgID, t}]
	if !ok {
		return models.EntityDocument{}, mongo.ErrNoDocuments
	}
	return d, nil
}

func (m *memDocs) Delete(_ context.Context, orgID primitive.ObjectID, t models.DocumentType) (int64, error) {
	k := docKey{orgID, t}
	if _, ok := m.docs[k]; !ok {
		return 0, nil
	}
	delete(m.docs, k)
	return 1, nil
}

func (m *memDocs) countFor(orgID primitive.ObjectID, t models.DocumentType) int {
	n := 0
	for k := range m.docs {
		if k.org == orgID && k.typ == t {
			n++
		}
	}
	return n
}

type memBlobs struct {
	files    map[string][]byte
	puts     int
	PutFn    func(key string) error
	DeleteFn func(key string) error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{files: map[string][]byte{}}
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	m.puts++
	if m.PutFn != nil {
		if err := m.PutFn(key); err != nil {
			return "", err
		}
	}
	m.files[key] = data
	return "/files/" + key, nil
}

func (m *memBlobs) Delete(_ context.Context, key string) error {
	if m.DeleteFn != nil {
		if err := m.DeleteFn(key); err != nil {
			return err
		}
	}
	delete(m.files, key)
	return nil
}

type fakeMembers struct {
	count int64
	err   error
}

func (f fakeMembers) CountExcludingOwner(context.Context, primitive.ObjectID) (int64, error) {
	return f.count, f.err
}

type fakePayments struct {
	probe models.PaymentProbe
	err   error
}

func (f fakePayments) Probe(context.Context, primitive.ObjectID) (models.PaymentProbe, error) {
	return f.probe, f.err
}

type recNotifier struct {
	calls []models.Organization
	docs  [][]models.DocumentType
	err   error
}

func (r *recNotifier) EntitySubmitted(_ context.Context, org models.Organization, docs []models.DocumentType) error {
	r.calls = append(r.calls, org)
	r.docs = append(r.docs, docs)
	return r.err
}

var errBoom = errors.New("boom")

// harness bundles a Service with its in-memory collaborators.
type harness struct {
	svc      *Service
	orgs     *memOrgs
	docs     *memDocs
	blobs    *memBlobs
	notifier *recNotifier
	org      models.Organization
	owner    primitive.ObjectID
	clock    time.Time
}

func newHarness(status models.EntityStatus) *harness {
	owner := primitive.NewObjectID()
	org := models.Organization{
		ID:           primitive.NewObjectID(),
		Name:         "Acme Builders",
		OwnerID:      owner,
		EntityStatus: status,
	}
	h := &harness{
		orgs:     newMemOrgs(org),
		docs:     newMemDocs(),
		blobs:    newMemBlobs(),
		notifier: &recNotifier{},
		org:      org,
		owner:    owner,
		clock:    time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
	}
	h.svc = New(Deps{
		Orgs:             h.orgs,
		Docs:             h.docs,
		Members:          fakeMembers{},
		Payments:         fakePayments{probe: models.PaymentProbe{Available: true}},
		Blobs:            h.blobs,
		Notifier:         h.notifier,
		MaxDocumentBytes: 1 << 20,
		Now:              func() time.Time { return h.clock },
	})
	return h
}

func (h *harness) tick() { h.clock = h.clock.Add(time.Minute) }

func (h *harness) upload(docType, name string) (models.EntityDocument, error) {
	h.tick()
	return h.svc.UploadDocument(context.Background(), h.org.ID, h.owner, UploadInput{
		DocumentType: docType,
		Data:         pdfBytes,
		FileName:     name,
		ContentType:  "application/pdf",
	})
}

func (h *harness) uploadAll() error {
	for _, t := range models.RequiredDocumentTypes {
		if _, err := h.upload(string(t), string(t)+".pdf"); err != nil {
			return err
		}
	}
	return nil
}
