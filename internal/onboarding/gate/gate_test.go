package gate

import (
	"testing"
	"time"

	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(withCandidate bool) *state.CandidateWorkflowState {
	s := &state.CandidateWorkflowState{
		Registry: registry.New(),
		Ledger:   ledger.New(nil),
	}
	if withCandidate {
		s.Candidate = models.NewCandidate("CND1", "CND-1", models.Lead{Mobile: "9876543210", PAN: "ABCDE1234F"}, time.Now())
	}
	return s
}

func setCheck(s *state.CandidateWorkflowState, key models.CheckKey, status models.Status, payload models.Payload) {
	s.Registry.Upsert(key, registry.Patch{Status: registry.StatusPtr(status), Payload: payload})
}

func TestCanAccessStage(t *testing.T) {
	s := newState(false)
	assert.True(t, CanAccessStage(s, StageLead))
	assert.False(t, CanAccessStage(s, StageProfile))
	assert.True(t, CanAccessStage(s, StageReadiness))
	assert.True(t, CanAccessStage(s, StageInterview))
	assert.False(t, CanAccessStage(s, StageOnboarding))
	assert.False(t, CanAccessStage(s, 7))

	s = newState(true)
	assert.True(t, CanAccessStage(s, StageProfile))

	for _, o := range []models.Outcome{models.OutcomeFail, models.OutcomeHold, models.OutcomeRework} {
		s.Candidate.InterviewOutcome.Outcome = o
		assert.False(t, CanAccessStage(s, StageOnboarding), o)
	}
	s.Candidate.InterviewOutcome.Outcome = models.OutcomePass
	assert.True(t, CanAccessStage(s, StageOnboarding))
}

func TestEligibility(t *testing.T) {
	validID := &models.IdentityResult{Valid: true}
	eligible := &models.EligibilityResult{Eligible: true}

	tests := []struct {
		name        string
		identity    models.Status
		idPayload   models.Payload
		eligibility models.Status
		elPayload   models.Payload
		want        Decision
	}{
		{"both pending", models.StatusPending, nil, models.StatusPending, nil, Decision{Waiting: true, Reason: "Waiting for checks"}},
		{"identity failed", models.StatusFailed, nil, models.StatusSuccess, eligible, Decision{Waiting: true, Reason: "Waiting for checks"}},
		{"eligibility partial", models.StatusSuccess, validID, models.StatusPartial, eligible, Decision{Waiting: true, Reason: "Waiting for checks"}},
		{"pan invalid", models.StatusSuccess, &models.IdentityResult{Valid: false}, models.StatusSuccess, eligible, Decision{Reason: "PAN invalid"}},
		{"not eligible", models.StatusSuccess, validID, models.StatusSuccess, &models.EligibilityResult{Eligible: false}, Decision{Reason: "Not eligible"}},
		{"ok", models.StatusSuccess, validID, models.StatusSuccess, eligible, Decision{OK: true, Reason: "Eligible to proceed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newState(true)
			setCheck(s, models.CheckIdentityVerification, tt.identity, tt.idPayload)
			setCheck(s, models.CheckEligibility, tt.eligibility, tt.elPayload)
			assert.Equal(t, tt.want, Eligibility(s))
		})
	}
}

func TestEligibility_NotStartedIsWaiting(t *testing.T) {
	d := Eligibility(newState(true))
	assert.False(t, d.OK)
	assert.True(t, d.Waiting)
}

func TestInterviewActionsEnabled(t *testing.T) {
	s := newState(true)
	assert.False(t, InterviewActionsEnabled(s))
	setCheck(s, models.CheckCounterpartMapping, models.StatusFailed, nil)
	assert.False(t, InterviewActionsEnabled(s))
	setCheck(s, models.CheckCounterpartMapping, models.StatusSuccess, &models.CounterpartMapping{ID: "BH001"})
	assert.True(t, InterviewActionsEnabled(s))
}

func TestOnboardingEditable_TwoIndependentLocks(t *testing.T) {
	s := newState(false)
	assert.False(t, OnboardingEditable(s))

	s = newState(true)
	assert.False(t, OnboardingEditable(s))

	s.Candidate.InterviewOutcome.Outcome = models.OutcomePass
	assert.True(t, OnboardingEditable(s))

	s.Candidate.Onboarding.Status = models.OnboardingSharedForReview
	assert.False(t, OnboardingEditable(s))

	s.Candidate.InterviewOutcome.Outcome = models.OutcomeHold
	s.Candidate.Onboarding.Status = models.OnboardingInProgress
	assert.False(t, OnboardingEditable(s))
}

func completeFields() models.OnboardingFields {
	addr := models.Address{Line1: "123 Street", Line2: "Andheri East", City: "Mumbai", State: "MH", Pincode: "400001"}
	return models.OnboardingFields{
		Personal: models.PersonalDetails{
			Title: "Mr.", FirstName: "Rahul", MiddleName: "R", LastName: "Kumar", DOB: "1994-05-12",
			Gender: "Male", MaritalStatus: "Single", Category: "General", RelationTitle: "Mr.", RelationName: "Ramesh Kumar",
		},
		Education: models.EducationDetails{Qualification: "Graduate", Institution: "Mumbai University", RollNumber: "MU12345", PassingYear: "2015"},
		Contact: models.ContactDetails{
			Email:            "rahul@example.com",
			CurrentAddress:   addr,
			PermanentAddress: models.PermanentAddress{SameAsCurrent: true},
		},
		Bank:    models.BankDetails{AccountNumber: "1234567890", IFSC: "HDFC0001234", BankName: "Mock Bank", Branch: "Main Branch"},
		Nominee: models.NomineeDetails{Name: "Sita", Relationship: "Mother", DOB: "1970-01-01", DeclarationAccepted: true},
	}
}

func TestSectionComplete(t *testing.T) {
	fields := completeFields()
	for _, sec := range models.Sections {
		assert.True(t, SectionComplete(fields, sec), sec)
	}
	assert.Empty(t, MissingFields(fields))
	assert.Equal(t, 33, RequiredFieldCount())
	assert.False(t, SectionComplete(fields, "experience"))
}

func TestSectionComplete_PermanentAddress(t *testing.T) {
	fields := completeFields()
	fields.Contact.PermanentAddress.SameAsCurrent = false
	assert.False(t, SectionComplete(fields, models.SectionContact))
	assert.Contains(t, MissingFields(fields), "contact.permanentAddress.city")

	fields.Contact.PermanentAddress.Address = fields.Contact.CurrentAddress
	assert.True(t, SectionComplete(fields, models.SectionContact))
}

func TestSectionComplete_DeclarationAndWhitespace(t *testing.T) {
	fields := completeFields()
	fields.Nominee.DeclarationAccepted = false
	assert.False(t, SectionComplete(fields, models.SectionNominee))
	assert.Equal(t, "Please confirm declaration", MissingFields(fields)["nominee.declarationAccepted"])

	fields = completeFields()
	fields.Bank.IFSC = "   "
	assert.False(t, SectionComplete(fields, models.SectionBank))
}

func TestSectionTracker_OneEventPerCrossing(t *testing.T) {
	l := ledger.New(nil)
	tracker := SectionTracker{Ledger: l, Actor: ledger.ActorOperator}
	form := models.NewOnboardingForm()

	form.Fields.Bank = models.BankDetails{AccountNumber: "1234567890", IFSC: "HDFC0001234", BankName: "Mock Bank", Branch: "Main"}
	crossed := tracker.Track(&form)
	require.Equal(t, []models.Section{models.SectionBank}, crossed)
	assert.Equal(t, 1, form.SectionsCompletion[models.SectionBank])
	assert.Equal(t, 1, l.CountType("BANK_COMPLETED"))

	// 1 -> 1 appends nothing
	assert.Empty(t, tracker.Track(&form))
	assert.Equal(t, 1, l.CountType("BANK_COMPLETED"))

	// 1 -> 0 appends nothing
	form.Fields.Bank.Branch = ""
	assert.Empty(t, tracker.Track(&form))
	assert.Equal(t, 0, form.SectionsCompletion[models.SectionBank])
	assert.Equal(t, 1, l.CountType("BANK_COMPLETED"))

	// 0 -> 1 again appends a second, distinct event
	form.Fields.Bank.Branch = "Main"
	tracker.Track(&form)
	assert.Equal(t, 2, l.CountType("BANK_COMPLETED"))

	events := l.Events()
	require.Len(t, events, 2)
	assert.NotEqual(t, events[0].ID, events[1].ID)
}

func TestEvaluate(t *testing.T) {
	s := newState(true)
	s.Candidate.InterviewOutcome.Outcome = models.OutcomePass
	s.Candidate.Onboarding.Fields = completeFields()

	v := Evaluate(s)
	assert.True(t, v.Stages[StageOnboarding])
	assert.True(t, v.OnboardingEditable)
	assert.False(t, v.InterviewActionsEnabled)
	assert.True(t, v.Eligibility.Waiting)
	assert.True(t, v.Sections[models.SectionNominee])
}
