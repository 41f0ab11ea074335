package onboarding

import (
	"sort"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
)

// StepKey identifies a checklist step.
type StepKey string

const (
	StepOrgProfile         StepKey = "org_profile"
	StepEntityVerification StepKey = "entity_verification"
	StepPaymentSetup       StepKey = "payment_setup"
	StepInviteTeam         StepKey = "invite_team"
)

// StepStatus is the derived state of a step.
type StepStatus string

const (
	StatusLocked        StepStatus = "locked"
	StatusActive        StepStatus = "active"
	StatusInProgress    StepStatus = "in_progress" // kept for API compatibility; no rule produces it
	StatusPendingReview StepStatus = "pending_review"
	StatusCompleted     StepStatus = "completed"
)

// Step is one row of the checklist.
type Step struct {
	Key      StepKey    `json:"key"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Status   StepStatus `json:"status"`
	Data     any        `json:"data"`
}

// Checklist is the derived onboarding state. It is never stored.
type Checklist struct {
	AllComplete bool   `json:"allComplete"`
	Steps       []Step `json:"steps"`
}

// Snapshot holds the facts the checklist is derived from.
type Snapshot struct {
	Organization models.Organization
	Documents    []models.EntityDocument
	MemberCount  int64 // excluding the owner
	Payments     models.PaymentProbe
}

// OrgProfileData is attached to a completed org_profile step.
type OrgProfileData struct {
	Description         string    `json:"description"`
	Website             string    `json:"website"`
	LinkedinURL         string    `json:"linkedinUrl"`
	EmployeeTypesNeeded []string  `json:"employeeTypesNeeded"`
	CompletedAt         time.Time `json:"completedAt"`
}

// DocumentSummary is the client-facing view of an uploaded document.
type DocumentSummary struct {
	DocType    models.DocumentType `json:"docType"`
	FileName   string              `json:"fileName"`
	FileURL    string              `json:"fileUrl"`
	UploadedAt time.Time           `json:"uploadedAt"`
}

// EntityVerificationData is always attached, even while the step is locked.
type EntityVerificationData struct {
	EntityStatus models.EntityStatus `json:"entityStatus"`
	SubmittedAt  *time.Time          `json:"submittedAt,omitempty"`
	Documents    []DocumentSummary   `json:"documents"`
}

// PaymentSetupData is attached once payment_setup is unlocked.
type PaymentSetupData struct {
	Available bool  `json:"available"`
	Count     int64 `json:"count"`
}

// InviteTeamData is attached once invite_team is unlocked.
type InviteTeamData struct {
	MemberCount int64 `json:"memberCount"`
}

var stepCopy = map[StepKey][2]string{
	StepOrgProfile:         {"Complete your organization profile", "Tell us about your company and hiring needs"},
	StepEntityVerification: {"Verify your business entity", "Upload your W-9, articles of incorporation, and a recent bank statement"},
	StepPaymentSetup:       {"Set up payments", "Add a payment method to fund payroll"},
	StepInviteTeam:         {"Invite your team", "Invite employees and admins to your organization"},
}

func newStep(key StepKey, status StepStatus, data any) Step {
	c := stepCopy[key]
	return Step{Key: key, Title: c[0], Subtitle: c[1], Status: status, Data: data}
}

// Resolve derives the checklist from s. Each step is evaluated in order and
// may only read the status of the step before it.
func Resolve(s Snapshot) Checklist {
	org := s.Organization
	steps := make([]Step, 0, 4)

	// 1. org_profile: never locked.
	profile := newStep(StepOrgProfile, StatusActive, nil)
	if org.ProfileCompletedAt != nil {
		profile.Status = StatusCompleted
		types := org.EmployeeTypesNeeded
		if types == nil {
			types = []string{}
		}
		profile.Data = OrgProfileData{
			Description:         org.Description,
			Website:             org.Website,
			LinkedinURL:         org.LinkedinURL,
			EmployeeTypesNeeded: types,
			CompletedAt:         *org.ProfileCompletedAt,
		}
	}
	steps = append(steps, profile)

	// 2. entity_verification: data is present regardless of lock state.
	entity := newStep(StepEntityVerification, StatusLocked, EntityVerificationData{
		EntityStatus: org.Status(),
		SubmittedAt:  org.EntitySubmittedAt,
		Documents:    summarize(s.Documents),
	})
	if profile.Status == StatusCompleted {
		switch org.Status() {
		case models.EntityApproved:
			entity.Status = StatusCompleted
		case models.EntityPendingReview:
			entity.Status = StatusPendingReview
		default: // not_started, active, rejected
			entity.Status = StatusActive
		}
	}
	steps = append(steps, entity)

	// 3. payment_setup: an unavailable probe keeps the step active.
	payment := newStep(StepPaymentSetup, StatusLocked, nil)
	if entity.Status == StatusCompleted {
		payment.Status = StatusActive
		if s.Payments.Available && s.Payments.Count > 0 {
			payment.Status = StatusCompleted
		}
		payment.Data = PaymentSetupData{Available: s.Payments.Available, Count: s.Payments.Count}
	}
	steps = append(steps, payment)

	// 4. invite_team
	team := newStep(StepInviteTeam, StatusLocked, nil)
	if payment.Status == StatusCompleted {
		team.Status = StatusActive
		if s.MemberCount > 0 {
			team.Status = StatusCompleted
		}
		team.Data = InviteTeamData{MemberCount: s.MemberCount}
	}
	steps = append(steps, team)

	all := true
	for _, st := range steps {
		if st.Status != StatusCompleted {
			all = false
			break
		}
	}
	return Checklist{AllComplete: all, Steps: steps}
}

// summarize returns documents in canonical type order.
func summarize(docs []models.EntityDocument) []DocumentSummary {
	rank := make(map[models.DocumentType]int, len(models.RequiredDocumentTypes))
	for i, t := range models.RequiredDocumentTypes {
		rank[t] = i
	}

	out := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		uploaded := d.UpdatedAt
		if uploaded.IsZero() {
			uploaded = d.CreatedAt
		}
		out = append(out, DocumentSummary{
			DocType:    d.DocumentType,
			FileName:   d.FileName,
			FileURL:    d.FileURL,
			UploadedAt: uploaded,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank[out[i].DocType] < rank[out[j].DocType]
	})
	return out
}
