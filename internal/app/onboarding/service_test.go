package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strp(s string) *string { return &s }

func TestChecklist_NotFound(t *testing.T) {
	h := newHarness("")
	_, err := h.svc.Checklist(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestChecklist_CollaboratorErrors(t *testing.T) {
	tests := []struct {
		name     string
		members  fakeMembers
		payments fakePayments
	}{
		{"members", fakeMembers{err: errBoom}, fakePayments{}},
		{"payments", fakeMembers{}, fakePayments{err: errBoom}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("")
			h.svc.members = tt.members
			h.svc.payments = tt.payments
			if _, err := h.svc.Checklist(context.Background(), h.org.ID); !errors.Is(err, errBoom) {
				t.Errorf("err = %v, want errBoom", err)
			}
		})
	}
}

func TestChecklist_FullJourney(t *testing.T) {
	ctx := context.Background()
	h := newHarness("")

	want := func(expect ...StepStatus) {
		t.Helper()
		c, err := h.svc.Checklist(ctx, h.org.ID)
		if err != nil {
			t.Fatalf("checklist: %v", err)
		}
		if !equalStatuses(statuses(c), expect) {
			t.Fatalf("statuses = %v, want %v", statuses(c), expect)
		}
	}

	want(StatusActive, StatusLocked, StatusLocked, StatusLocked)

	if _, err := h.svc.CompleteOrgProfile(ctx, h.org.ID, h.owner, models.ProfileUpdate{}); err != nil {
		t.Fatalf("skip profile: %v", err)
	}
	want(StatusCompleted, StatusActive, StatusLocked, StatusLocked)

	if err := h.uploadAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.svc.SubmitForReview(ctx, h.org.ID, h.owner); err != nil {
		t.Fatal(err)
	}
	want(StatusCompleted, StatusPendingReview, StatusLocked, StatusLocked)

	o := h.orgs.orgs[h.org.ID]
	o.EntityStatus = models.EntityApproved
	h.orgs.orgs[h.org.ID] = o
	want(StatusCompleted, StatusCompleted, StatusActive, StatusLocked)

	h.svc.payments = fakePayments{probe: models.PaymentProbe{Available: true, Count: 1}}
	want(StatusCompleted, StatusCompleted, StatusCompleted, StatusActive)

	h.svc.members = fakeMembers{count: 2}
	c, err := h.svc.Checklist(ctx, h.org.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !c.AllComplete {
		t.Errorf("AllComplete = false, statuses %v", statuses(c))
	}
}

func TestCompleteOrgProfile(t *testing.T) {
	ctx := context.Background()
	h := newHarness("")

	org, err := h.svc.CompleteOrgProfile(ctx, h.org.ID, h.owner, models.ProfileUpdate{
		Description:         strp("  <b>We build</b> <script>alert(1)</script>houses &amp; decks "),
		Website:             strp(" https://acme.example "),
		LinkedinURL:         strp(""),
		EmployeeTypesNeeded: []string{" Carpenter", "carpenter", "", "Electrician"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if org.Description != "We build houses & decks" {
		t.Errorf("Description = %q", org.Description)
	}
	if org.Website != "https://acme.example" {
		t.Errorf("Website = %q", org.Website)
	}
	if len(org.EmployeeTypesNeeded) != 2 || org.EmployeeTypesNeeded[0] != "Carpenter" || org.EmployeeTypesNeeded[1] != "Electrician" {
		t.Errorf("EmployeeTypesNeeded = %v", org.EmployeeTypesNeeded)
	}
	if org.ProfileCompletedAt == nil {
		t.Fatal("ProfileCompletedAt not set")
	}
	first := *org.ProfileCompletedAt

	h.clock = h.clock.Add(time.Hour)
	org, err = h.svc.CompleteOrgProfile(ctx, h.org.ID, h.owner, models.ProfileUpdate{Website: strp("http://acme.example/about")})
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if !org.ProfileCompletedAt.Equal(first) {
		t.Errorf("ProfileCompletedAt moved from %v to %v", first, *org.ProfileCompletedAt)
	}
	if org.Description != "We build houses & decks" {
		t.Errorf("omitted field was cleared: %q", org.Description)
	}
}

func TestCompleteOrgProfile_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		caller func(h *harness) primitive.ObjectID
		upd    models.ProfileUpdate
		want   error
	}{
		{
			name:   "not owner",
			caller: func(*harness) primitive.ObjectID { return primitive.NewObjectID() },
			want:   ErrForbidden,
		},
		{
			name: "relative website",
			upd:  models.ProfileUpdate{Website: strp("acme.example")},
			want: ErrValidation,
		},
		{
			name: "non-http linkedin",
			upd:  models.ProfileUpdate{LinkedinURL: strp("ftp://linkedin.example/acme")},
			want: ErrValidation,
		},
		{
			name: "too many employee types",
			upd: models.ProfileUpdate{EmployeeTypesNeeded: func() []string {
				out := make([]string, maxEmployeeTypes+1)
				for i := range out {
					out[i] = string(rune('a'+i%26)) + string(rune('A'+i/26))
				}
				return out
			}()},
			want: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness("")
			caller := h.owner
			if tt.caller != nil {
				caller = tt.caller(h)
			}
			_, err := h.svc.CompleteOrgProfile(context.Background(), h.org.ID, caller, tt.upd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if h.orgs.orgs[h.org.ID].ProfileCompletedAt != nil {
				t.Error("rejected update completed the profile")
			}
		})
	}
}

func TestCompleteOrgProfile_UnknownOrg(t *testing.T) {
	h := newHarness("")
	_, err := h.svc.CompleteOrgProfile(context.Background(), primitive.NewObjectID(), h.owner, models.ProfileUpdate{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
