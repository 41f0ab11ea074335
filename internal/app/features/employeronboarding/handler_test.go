package employeronboarding_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dalemusser/crewpay/internal/app/features/employeronboarding"
	"github.com/dalemusser/crewpay/internal/app/onboarding"
	"github.com/dalemusser/crewpay/internal/app/store/audit"
	entitydocstore "github.com/dalemusser/crewpay/internal/app/store/entitydocs"
	memberstore "github.com/dalemusser/crewpay/internal/app/store/members"
	organizationstore "github.com/dalemusser/crewpay/internal/app/store/organizations"
	paymentmethodstore "github.com/dalemusser/crewpay/internal/app/store/paymentmethods"
	"github.com/dalemusser/crewpay/internal/app/system/auditlog"
	"github.com/dalemusser/crewpay/internal/app/system/auth"
	"github.com/dalemusser/crewpay/internal/app/system/blobstore"
	"github.com/dalemusser/crewpay/internal/app/system/indexes"
	"github.com/dalemusser/crewpay/internal/domain/models"
	"github.com/dalemusser/crewpay/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var pdf = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

type env struct {
	handler  *employeronboarding.Handler
	router   chi.Router
	db       *mongo.Database
	fixtures *testutil.Fixtures
	blobRoot string
	blobs    *blobstore.Store
	owner    models.User
	org      models.Organization
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("indexes: %v", err)
	}

	root := t.TempDir()
	blobs, err := blobstore.New(ctx, blobstore.Config{Type: blobstore.TypeLocal, LocalPath: root})
	if err != nil {
		t.Fatalf("blobstore: %v", err)
	}

	logger := zap.NewNop()
	svc := onboarding.New(onboarding.Deps{
		Orgs:             organizationstore.New(db),
		Docs:             entitydocstore.New(db),
		Members:          memberstore.New(db),
		Payments:         paymentmethodstore.New(db, true),
		Blobs:            blobs,
		Log:              logger,
		MaxDocumentBytes: 1 << 20,
	})
	audits := auditlog.New(audit.New(db), logger, auditlog.Config{Onboarding: auditlog.ModeDB})
	h := employeronboarding.NewHandler(svc, audits, 1<<20, logger)

	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "crewpay-test", "", false, logger)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	fx := testutil.NewFixtures(t, db)
	owner, org := fx.CreateEmployer(ctx, "Acme Builders", "owner@acme.test")

	return &env{
		handler:  h,
		router:   employeronboarding.Routes(h, sm),
		db:       db,
		fixtures: fx,
		blobRoot: root,
		blobs:    blobs,
		owner:    owner,
		org:      org,
	}
}

func (e *env) ownerUser() testutil.TestUser {
	return testutil.EmployerUser(e.owner.ID, e.org.ID)
}

func (e *env) do(t *testing.T, method, target string, body any, user testutil.TestUser) *testutil.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		req = testutil.NewAuthenticatedRequest(method, target, bytes.NewReader(b), user)
	} else {
		req = testutil.NewAuthenticatedRequest(method, target, nil, user)
	}
	rec := testutil.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) upload(t *testing.T, docType, name string) *testutil.ResponseRecorder {
	t.Helper()
	return e.do(t, "POST", "/entity-document", map[string]string{
		"docType":    docType,
		"fileBase64": base64.StdEncoding.EncodeToString(pdf),
		"fileName":   name,
		"fileType":   "application/pdf",
	}, e.ownerUser())
}

type errorBody struct {
	Error   string   `json:"error"`
	Code    string   `json:"code"`
	Missing []string `json:"missing"`
}

func decodeError(t *testing.T, rec *testutil.ResponseRecorder) errorBody {
	t.Helper()
	var b errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("failed to parse error body %q: %v", rec.Body.String(), err)
	}
	return b
}

func checklistStatuses(t *testing.T, e *env) []string {
	t.Helper()
	rec := e.do(t, "GET", "/checklist", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)
	var c struct {
		AllComplete bool `json:"allComplete"`
		Steps       []struct {
			Key    string `json:"key"`
			Status string `json:"status"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &c); err != nil {
		t.Fatalf("parse checklist: %v", err)
	}
	out := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.Status
	}
	return out
}

func assertStatuses(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("statuses = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", got, want)
		}
	}
}

func TestChecklist_FreshOrganization(t *testing.T) {
	e := newEnv(t)
	assertStatuses(t, checklistStatuses(t, e), "active", "locked", "locked", "locked")
}

func TestChecklist_ApprovedWithoutPayments(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e.fixtures.SetOrganizationFields(ctx, e.org.ID, bson.M{
		"profile_completed_at": e.org.CreatedAt,
		"entity_status":        string(models.EntityApproved),
	})
	assertStatuses(t, checklistStatuses(t, e), "completed", "completed", "active", "locked")

	e.fixtures.CreatePaymentMethod(ctx, e.org.ID)
	assertStatuses(t, checklistStatuses(t, e), "completed", "completed", "completed", "active")

	u := e.fixtures.CreateUser(ctx, "Crew Member", "crew@acme.test", models.RoleEmployee, &e.org.ID)
	e.fixtures.CreateMember(ctx, e.org.ID, u.ID, models.MemberRoleMember)
	assertStatuses(t, checklistStatuses(t, e), "completed", "completed", "completed", "completed")
}

func TestRoutes_Access(t *testing.T) {
	e := newEnv(t)

	t.Run("employee is forbidden", func(t *testing.T) {
		rec := e.do(t, "GET", "/checklist", nil, testutil.EmployeeUser(e.org.ID))
		rec.AssertStatus(t, http.StatusForbidden)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		rec := testutil.NewRecorder()
		e.router.ServeHTTP(rec, httptest.NewRequest("GET", "/checklist", nil))
		rec.AssertStatus(t, http.StatusUnauthorized)
	})

	t.Run("no organization in session", func(t *testing.T) {
		u := e.ownerUser()
		u.OrganizationID = ""
		rec := e.do(t, "GET", "/checklist", nil, u)
		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertContains(t, "no organization")
	})
}

func TestOrgProfile(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/org-profile", map[string]any{
		"description":         "Framing and finish carpentry",
		"website":             "https://acme.test",
		"employeeTypesNeeded": []string{"Carpenter", "carpenter", "Laborer"},
	}, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)

	var org models.Organization
	if err := json.Unmarshal(rec.Body.Bytes(), &org); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if org.ProfileCompletedAt == nil || org.Website != "https://acme.test" || len(org.EmployeeTypesNeeded) != 2 {
		t.Errorf("organization = %+v", org)
	}
	assertStatuses(t, checklistStatuses(t, e), "completed", "active", "locked", "locked")

	ctx, cancel := testutil.TestContext()
	defer cancel()
	events, err := audit.New(e.db).GetByOrganization(ctx, e.org.ID, 10)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(events) != 1 || events[0].EventType != audit.EventOrgProfileCompleted {
		t.Errorf("audit events = %+v", events)
	}
}

func TestOrgProfile_Skip(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, "POST", "/org-profile", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)
	assertStatuses(t, checklistStatuses(t, e), "completed", "active", "locked", "locked")
}

func TestOrgProfile_Rejected(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	admin := e.fixtures.CreateUser(ctx, "Second Admin", "admin@acme.test", models.RoleEmployer, &e.org.ID)

	tests := []struct {
		name string
		body map[string]any
		user testutil.TestUser
		code string
	}{
		{"non-owner", map[string]any{}, testutil.EmployerUser(admin.ID, e.org.ID), "forbidden"},
		{"bad website", map[string]any{"website": "acme"}, e.ownerUser(), "validation"},
		{"unknown field", map[string]any{"name": "New Name"}, e.ownerUser(), "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, "POST", "/org-profile", tt.body, tt.user)
			rec.AssertStatus(t, http.StatusBadRequest)
			if b := decodeError(t, rec); b.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", b.Code, tt.code, b.Error)
			}
		})
	}
	assertStatuses(t, checklistStatuses(t, e), "active", "locked", "locked", "locked")
}

func TestUploadDocument(t *testing.T) {
	e := newEnv(t)

	rec := e.upload(t, "w9", "w9 2025.pdf")
	rec.AssertStatus(t, http.StatusOK)
	var first models.EntityDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("parse: %v", err)
	}

	rec = e.upload(t, "w9", "w9 2026.pdf")
	rec.AssertStatus(t, http.StatusOK)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	docs, err := entitydocstore.New(e.db).ListByOrg(ctx, e.org.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].FileName != "w9 2026.pdf" {
		t.Fatalf("documents = %+v", docs)
	}

	b, err := os.ReadFile(filepath.Join(e.blobRoot, filepath.FromSlash(docs[0].StoragePath)))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if !bytes.Equal(b, pdf) {
		t.Error("stored file content differs")
	}
	if docs[0].FileURL != "/files/"+docs[0].StoragePath {
		t.Errorf("FileURL = %q", docs[0].FileURL)
	}
}

func TestUploadDocument_Invalid(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad base64", map[string]string{"docType": "w9", "fileBase64": "%%%", "fileName": "a.pdf", "fileType": "application/pdf"}},
		{"unknown type", map[string]string{"docType": "passport", "fileBase64": base64.StdEncoding.EncodeToString(pdf), "fileName": "a.pdf", "fileType": "application/pdf"}},
		{"wrong type", map[string]string{"docType": "w9", "fileBase64": base64.StdEncoding.EncodeToString([]byte("plain text")), "fileName": "a.txt", "fileType": "text/plain"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, "POST", "/entity-document", tt.body, e.ownerUser())
			rec.AssertStatus(t, http.StatusBadRequest)
			if b := decodeError(t, rec); b.Code != "validation" {
				t.Errorf("code = %q, want validation", b.Code)
			}
		})
	}
}

func TestUploadDocument_DataURL(t *testing.T) {
	e := newEnv(t)
	rec := e.do(t, "POST", "/entity-document", map[string]string{
		"docType":    "bank_statement",
		"fileBase64": "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf),
		"fileName":   "march.pdf",
		"fileType":   "application/pdf",
	}, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)
}

func TestDeleteDocument(t *testing.T) {
	e := newEnv(t)
	e.upload(t, "w9", "w9.pdf").AssertStatus(t, http.StatusOK)

	rec := e.do(t, "DELETE", "/entity-document/w9", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"success":true`)

	rec = e.do(t, "DELETE", "/entity-document/w9", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusBadRequest)
	if b := decodeError(t, rec); b.Code != "not_found" {
		t.Errorf("code = %q, want not_found", b.Code)
	}
}

func TestSubmitEntity_MissingDocuments(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, "POST", "/submit-entity", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusBadRequest)
	b := decodeError(t, rec)
	if b.Code != "validation" {
		t.Errorf("code = %q", b.Code)
	}
	want := []string{"w9", "articles_of_incorporation", "bank_statement"}
	if len(b.Missing) != 3 || b.Missing[0] != want[0] || b.Missing[1] != want[1] || b.Missing[2] != want[2] {
		t.Errorf("missing = %v, want %v", b.Missing, want)
	}
}

func TestSubmitEntity_LocksDocuments(t *testing.T) {
	e := newEnv(t)
	for _, dt := range models.RequiredDocumentTypes {
		e.upload(t, string(dt), string(dt)+".pdf").AssertStatus(t, http.StatusOK)
	}

	for i := 0; i < 2; i++ {
		rec := e.do(t, "POST", "/submit-entity", nil, e.ownerUser())
		rec.AssertStatus(t, http.StatusOK)
		rec.AssertContains(t, `"entityStatus":"pending_review"`)
	}

	rec := e.upload(t, "w9", "late.pdf")
	rec.AssertStatus(t, http.StatusBadRequest)
	if b := decodeError(t, rec); b.Code != "conflict" {
		t.Errorf("upload code = %q, want conflict", b.Code)
	}

	rec = e.do(t, "DELETE", "/entity-document/w9", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusBadRequest)
	if b := decodeError(t, rec); b.Code != "conflict" {
		t.Errorf("delete code = %q, want conflict", b.Code)
	}
}

func TestSubmitEntity_NonOwner(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for _, dt := range models.RequiredDocumentTypes {
		e.fixtures.CreateEntityDocument(ctx, e.org.ID, dt)
	}
	admin := e.fixtures.CreateUser(ctx, "Second Admin", "admin@acme.test", models.RoleEmployer, &e.org.ID)

	rec := e.do(t, "POST", "/submit-entity", nil, testutil.EmployerUser(admin.ID, e.org.ID))
	rec.AssertStatus(t, http.StatusBadRequest)
	if b := decodeError(t, rec); b.Code != "forbidden" {
		t.Errorf("code = %q, want forbidden", b.Code)
	}

	events, err := audit.New(e.db).Query(ctx, audit.QueryFilter{EventType: audit.EventEntitySubmitBlocked})
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("blocked events = %d, want 1", len(events))
	}
}

func TestRequireOwnDocuments(t *testing.T) {
	e := newEnv(t)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	guard := employeronboarding.RequireOwnDocuments("/files")(ok)

	own := "/files/entity-documents/" + e.org.ID.Hex() + "/w9/1-w9.pdf"
	other := "/files/entity-documents/" + e.owner.ID.Hex() + "/w9/1-w9.pdf"

	tests := []struct {
		name string
		path string
		want int
	}{
		{"own organization", own, http.StatusOK},
		{"other organization", other, http.StatusNotFound},
		{"outside documents", "/files/other/thing.pdf", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			guard.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", tt.path, nil, e.ownerUser()))
			rec.AssertStatus(t, tt.want)
		})
	}
}

func TestHandleDeleteDocument_UnknownType(t *testing.T) {
	e := newEnv(t)

	req := testutil.NewAuthenticatedRequest("DELETE", "/entity-document/passport", nil, e.ownerUser())
	req = testutil.WithChiURLParam(req, "docType", "passport")
	rec := testutil.NewRecorder()
	e.handler.HandleDeleteDocument(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	if b := decodeError(t, rec); b.Code != "validation" {
		t.Errorf("code = %q, want validation", b.Code)
	}
}

func TestServeLocalFile(t *testing.T) {
	e := newEnv(t)
	e.upload(t, "w9", "w9.pdf").AssertStatus(t, http.StatusOK)

	docs, err := entitydocstore.New(e.db).ListByOrg(context.Background(), e.org.ID)
	if err != nil || len(docs) != 1 {
		t.Fatalf("ListByOrg = %d docs, %v", len(docs), err)
	}

	local, prefix, ok := e.blobs.Local()
	if !ok {
		t.Fatal("expected local backend")
	}
	serve := employeronboarding.ServeLocalFile(local, prefix, zap.NewNop())

	dir := "/files/entity-documents/" + e.org.ID.Hex() + "/w9/"
	tests := []struct {
		name string
		path string
		want int
	}{
		{"stored document", docs[0].FileURL, http.StatusOK},
		{"missing file", dir + "1-missing.pdf", http.StatusNotFound},
		{"directory", dir, http.StatusNotFound},
		{"bare prefix", "/files/", http.StatusNotFound},
		{"outside prefix", "/other/w9.pdf", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			serve.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			rec.AssertStatus(t, tt.want)
			if tt.want == http.StatusOK && !bytes.Equal(rec.Body.Bytes(), pdf) {
				t.Errorf("body = %q", rec.Body.String())
			}
		})
	}
}

func TestUploadDocument_ReopensRejectedVerification(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := organizationstore.New(e.db).SetEntityStatus(ctx, e.org.ID, models.EntityRejected); err != nil {
		t.Fatalf("SetEntityStatus: %v", err)
	}
	e.upload(t, "w9", "w9-corrected.pdf").AssertStatus(t, http.StatusOK)

	rec := e.do(t, "GET", "/checklist", nil, e.ownerUser())
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"entityStatus":"active"`)
}
