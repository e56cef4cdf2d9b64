package coordinator

import (
	"context"
	"testing"
	"time"

	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/retry/retrytest"
	"candidate-onboarding/internal/onboarding/state"

	"github.com/stretchr/testify/require"
)

// fakeDeps implements every collaborator with overridable funcs. Unset funcs
// return a successful canned result.
type fakeDeps struct {
	verifyIdentity   func(ctx context.Context, s models.Subject) (*models.IdentityResult, error)
	checkEligibility func(ctx context.Context, s models.Subject) (*models.EligibilityResult, error)
	lookupProfile    func(ctx context.Context, s models.Subject) (*models.ProfileLookupResult, error)
	lookupDocuments  func(ctx context.Context, s models.Subject) (*models.DocumentLookupResult, error)
	deliverLink      func(ctx context.Context, s models.Subject) (*models.ReadinessDelivery, error)
	readinessStatus  func(ctx context.Context, s models.Subject) (*models.ReadinessStatus, error)
	resolve          func(ctx context.Context, r models.CounterpartRequest) (*models.CounterpartMapping, error)
	createTask       func(ctx context.Context, r models.InterviewTaskRequest) (*models.InterviewTaskResult, error)
	schedule         func(ctx context.Context, r models.InterviewScheduleRequest) (*models.InterviewScheduleResult, error)
	updateStatus     func(ctx context.Context, r models.InterviewStatusRequest) (*models.InterviewStatusResult, error)
	recordOutcome    func(ctx context.Context, r models.InterviewOutcomeRequest) (*models.InterviewOutcomeResult, error)
	notify           func(ctx context.Context, n models.CounterpartNotice) (*models.NotificationResult, error)
	prefillProfile   func(ctx context.Context, s models.Subject) (*models.ProfilePrefill, error)
	prefillDocuments func(ctx context.Context, s models.Subject) (*models.DocumentPrefill, error)
	share            func(ctx context.Context, r models.FormShareRequest) (*models.FormShareResult, error)
}

func (f *fakeDeps) VerifyIdentity(ctx context.Context, s models.Subject) (*models.IdentityResult, error) {
	if f.verifyIdentity != nil {
		return f.verifyIdentity(ctx, s)
	}
	return &models.IdentityResult{PAN: s.PAN, Valid: true, NameOnPAN: "RAHUL KUMAR", DOB: "1994-05-12"}, nil
}

func (f *fakeDeps) CheckEligibility(ctx context.Context, s models.Subject) (*models.EligibilityResult, error) {
	if f.checkEligibility != nil {
		return f.checkEligibility(ctx, s)
	}
	return &models.EligibilityResult{Eligible: true}, nil
}

func (f *fakeDeps) LookupProfile(ctx context.Context, s models.Subject) (*models.ProfileLookupResult, error) {
	if f.lookupProfile != nil {
		return f.lookupProfile(ctx, s)
	}
	return &models.ProfileLookupResult{
		Found:     true,
		Profile:   models.ProfileSummary{FullName: "Rahul Kumar"},
		Documents: []models.Document{{Type: "PHOTO", Available: true}},
	}, nil
}

func (f *fakeDeps) LookupDocuments(ctx context.Context, s models.Subject) (*models.DocumentLookupResult, error) {
	if f.lookupDocuments != nil {
		return f.lookupDocuments(ctx, s)
	}
	return &models.DocumentLookupResult{Available: true}, nil
}

func (f *fakeDeps) DeliverReadinessLink(ctx context.Context, s models.Subject) (*models.ReadinessDelivery, error) {
	if f.deliverLink != nil {
		return f.deliverLink(ctx, s)
	}
	return &models.ReadinessDelivery{Delivered: true, Channels: []string{models.ChannelSMS, models.ChannelEmail}}, nil
}

func (f *fakeDeps) ReadinessStatus(ctx context.Context, s models.Subject) (*models.ReadinessStatus, error) {
	if f.readinessStatus != nil {
		return f.readinessStatus(ctx, s)
	}
	return &models.ReadinessStatus{Delivered: true, Completed: true, Score: 50}, nil
}

func (f *fakeDeps) ResolveCounterpart(ctx context.Context, r models.CounterpartRequest) (*models.CounterpartMapping, error) {
	if f.resolve != nil {
		return f.resolve(ctx, r)
	}
	return &models.CounterpartMapping{ID: "BH001", Name: "Branch Head Name", Branch: "Mumbai - Andheri"}, nil
}

func (f *fakeDeps) CreateInterviewTask(ctx context.Context, r models.InterviewTaskRequest) (*models.InterviewTaskResult, error) {
	if f.createTask != nil {
		return f.createTask(ctx, r)
	}
	return &models.InterviewTaskResult{TaskID: "TASK-1", Status: "CREATED", InterviewDate: r.Date}, nil
}

func (f *fakeDeps) ScheduleInterview(ctx context.Context, r models.InterviewScheduleRequest) (*models.InterviewScheduleResult, error) {
	if f.schedule != nil {
		return f.schedule(ctx, r)
	}
	return &models.InterviewScheduleResult{InterviewID: "INT-1", ScheduledFor: r.Date, Slot: r.Slot, Mode: r.Mode, Status: "SCHEDULED"}, nil
}

func (f *fakeDeps) UpdateInterviewStatus(ctx context.Context, r models.InterviewStatusRequest) (*models.InterviewStatusResult, error) {
	if f.updateStatus != nil {
		return f.updateStatus(ctx, r)
	}
	return &models.InterviewStatusResult{Status: r.Status}, nil
}

func (f *fakeDeps) RecordInterviewOutcome(ctx context.Context, r models.InterviewOutcomeRequest) (*models.InterviewOutcomeResult, error) {
	if f.recordOutcome != nil {
		return f.recordOutcome(ctx, r)
	}
	return &models.InterviewOutcomeResult{Outcome: r.Outcome, ReasonCode: r.ReasonCode}, nil
}

func (f *fakeDeps) NotifyCounterpart(ctx context.Context, n models.CounterpartNotice) (*models.NotificationResult, error) {
	if f.notify != nil {
		return f.notify(ctx, n)
	}
	return &models.NotificationResult{Notified: true, MessageID: "MSG-1"}, nil
}

func (f *fakeDeps) PrefillProfile(ctx context.Context, s models.Subject) (*models.ProfilePrefill, error) {
	if f.prefillProfile != nil {
		return f.prefillProfile(ctx, s)
	}
	return &models.ProfilePrefill{
		AutoFilled: 6,
		Personal:   models.PersonalDetails{Title: "Mr.", FirstName: "Rahul", LastName: "Kumar", DOB: "1994-05-12"},
		Address:    models.Address{Line1: "123 Street", Line2: "Andheri East", City: "Mumbai", State: "MH", Pincode: "400001"},
		Docs:       []models.Document{{Type: "PHOTO", Source: models.PrefillSourceProfile, Available: true}},
	}, nil
}

func (f *fakeDeps) PrefillDocuments(ctx context.Context, s models.Subject) (*models.DocumentPrefill, error) {
	if f.prefillDocuments != nil {
		return f.prefillDocuments(ctx, s)
	}
	return &models.DocumentPrefill{
		AutoFilled: 3,
		Education:  models.EducationDetails{Qualification: "Graduate", Institution: "Mumbai University", RollNumber: "MU12345", PassingYear: "2015"},
		Docs:       []models.Document{{Type: "EDUCATION_PROOF", Source: models.PrefillSourceDocument, Available: true}},
	}, nil
}

func (f *fakeDeps) ShareForm(ctx context.Context, r models.FormShareRequest) (*models.FormShareResult, error) {
	if f.share != nil {
		return f.share(ctx, r)
	}
	return &models.FormShareResult{Shared: true, Channel: r.Channel}, nil
}

func (f *fakeDeps) collaborators() Collaborators {
	return Collaborators{
		Verifier:     f,
		LinkSender:   f,
		Readiness:    f,
		Counterparts: f,
		Interviews:   f,
		Notifier:     f,
		Prefiller:    f,
		Sharer:       f,
	}
}

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestCoordinator(t *testing.T, deps *fakeDeps, opts ...Option) (*Coordinator, *retrytest.FakeClock) {
	t.Helper()
	fc := retrytest.NewFakeClock(testStart)
	log := logger.NewTestLogger(t)
	w := state.NewWorkflow(models.Operator{ID: "OP-1", Name: "Operator", BranchID: "BR-1"}, log, state.WithClock(fc.Now))
	opts = append([]Option{
		WithClock(fc),
		WithIDGenerator(func() (string, string) { return "CND00000001", "CND-000001" }),
	}, opts...)
	c := New(w, deps.collaborators(), log, opts...)
	t.Cleanup(c.Shutdown)
	return c, fc
}

func newWithCandidate(t *testing.T, deps *fakeDeps, opts ...Option) (*Coordinator, *retrytest.FakeClock) {
	t.Helper()
	c, fc := newTestCoordinator(t, deps, opts...)
	_, err := c.CreateCandidate(context.Background(), models.Lead{Mobile: "9876543210", PAN: "ABCDE1234F", Email: "rahul@example.com"})
	require.NoError(t, err)
	return c, fc
}

// passInterview drives the interview stage to a PASS outcome.
func passInterview(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx := context.Background()
	rec, err := c.ResolveCounterpart(ctx, false)
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, rec.Status)
	rec, err = c.RecordInterviewOutcome(ctx, OutcomeInput{Outcome: models.OutcomePass})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, rec.Status)
}

func countEvents(c *Coordinator, eventType string) int {
	n := 0
	for _, e := range c.Events() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
