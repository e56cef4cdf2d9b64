// Package simulated provides flag-driven stand-ins for every external
// collaborator. It backs the simulated integration mode and demos.
package simulated

import (
	"context"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"

	"github.com/google/uuid"
)

// Services implements all collaborator interfaces with canned data.
type Services struct {
	Flags   *Flags
	latency time.Duration
	now     func() time.Time
	log     logger.Logger
}

func New(flags *Flags, latency time.Duration, log logger.Logger) *Services {
	return &Services{Flags: flags, latency: latency, now: time.Now, log: logger.Component(log, "simulated")}
}

// wait models upstream latency and honours cancellation.
func (s *Services) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return errors.NewTimeoutError("simulated", ctx.Err())
	}
}

// call waits, then fails with a SYSTEM failure when flag is set.
func (s *Services) call(ctx context.Context, flag string, code errors.ErrorCode, message string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.Flags.Enabled(flag) {
		s.log.Debug("simulated failure", map[string]interface{}{"flag": flag, "code": string(code)})
		return errors.NewCheckFailure(code, message, true)
	}
	return nil
}

func (s *Services) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *Services) VerifyIdentity(ctx context.Context, subject models.Subject) (*models.IdentityResult, error) {
	if err := s.call(ctx, FlagIdentityFail, errors.ErrCodeIdentityCheckFailed, "PAN service timeout"); err != nil {
		return nil, err
	}
	return &models.IdentityResult{PAN: subject.PAN, Valid: true, NameOnPAN: "RAHUL KUMAR", DOB: "1994-05-12"}, nil
}

func (s *Services) CheckEligibility(ctx context.Context, subject models.Subject) (*models.EligibilityResult, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	if s.Flags.Enabled(FlagEligibilityFail) {
		return nil, errors.NewNotEligibleError("Not eligible with the insurance regulator")
	}
	return &models.EligibilityResult{Eligible: true, Remarks: "Clear"}, nil
}

func (s *Services) LookupProfile(ctx context.Context, subject models.Subject) (*models.ProfileLookupResult, error) {
	if err := s.call(ctx, FlagProfileFail, errors.ErrCodeProfileLookupFailed, "Profile registry gateway down"); err != nil {
		return nil, err
	}
	partial := s.Flags.Enabled(FlagProfilePartial)
	return &models.ProfileLookupResult{
		Found:   true,
		Profile: models.ProfileSummary{FullName: "Rahul Kumar", Gender: "M", DOB: "1994-05-12"},
		Address: models.Address{Line1: "123 Street", City: "Mumbai", State: "MH", Pincode: "400001"},
		Documents: []models.Document{
			{Type: "PHOTO", Source: "CKYC", Available: true},
			{Type: "AADHAAR", Source: "CKYC", Available: !partial},
			{Type: "ADDRESS_PROOF", Source: "CKYC", Available: true},
		},
	}, nil
}

func (s *Services) LookupDocuments(ctx context.Context, subject models.Subject) (*models.DocumentLookupResult, error) {
	if err := s.call(ctx, FlagDocumentFail, errors.ErrCodeDocumentLookupFailed, "Document vault integration down"); err != nil {
		return nil, err
	}
	return &models.DocumentLookupResult{
		Available: true,
		Documents: []models.Document{{Type: "EDUCATION_PROOF", Source: "DIGILOCKER", Available: true}},
	}, nil
}

func (s *Services) DeliverReadinessLink(ctx context.Context, subject models.Subject) (*models.ReadinessDelivery, error) {
	if ch := subject.MissingContact(); ch != "" {
		return nil, errors.NewReadinessContactMissingError(ch)
	}
	if err := s.call(ctx, FlagReadinessDeliveryFail, errors.ErrCodeReadinessDeliveryFailed, "SMS provider unavailable"); err != nil {
		return nil, err
	}
	return &models.ReadinessDelivery{Delivered: true, Channels: []string{models.ChannelSMS, models.ChannelEmail}}, nil
}

func (s *Services) ReadinessStatus(ctx context.Context, subject models.Subject) (*models.ReadinessStatus, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return &models.ReadinessStatus{Delivered: true, Completed: s.Flags.Enabled(FlagReadinessCompleted), Score: 50}, nil
}

func (s *Services) ResolveCounterpart(ctx context.Context, req models.CounterpartRequest) (*models.CounterpartMapping, error) {
	if err := s.call(ctx, FlagCounterpartMapFail, errors.ErrCodeCounterpartMappingFailed, "Mapping failed"); err != nil {
		return nil, err
	}
	return &models.CounterpartMapping{ID: "BH001", Name: "Branch Head Name", Branch: "Mumbai - Andheri"}, nil
}

func (s *Services) CreateInterviewTask(ctx context.Context, req models.InterviewTaskRequest) (*models.InterviewTaskResult, error) {
	if err := s.call(ctx, FlagInterviewCreateFail, errors.ErrCodeInterviewTaskFailed, "Task service unavailable"); err != nil {
		return nil, err
	}
	return &models.InterviewTaskResult{
		TaskID:        "task-" + uuid.NewString()[:8],
		Status:        "CREATED",
		InterviewDate: req.Date,
		Notes:         req.Notes,
	}, nil
}

func (s *Services) NotifyCounterpart(ctx context.Context, notice models.CounterpartNotice) (*models.NotificationResult, error) {
	if err := s.call(ctx, FlagNotifyCounterpartFail, errors.ErrCodeCounterpartNotifyFailed, "Notification channel down"); err != nil {
		return nil, err
	}
	return &models.NotificationResult{Notified: true, MessageID: "msg-" + uuid.NewString()[:8]}, nil
}

func (s *Services) ScheduleInterview(ctx context.Context, req models.InterviewScheduleRequest) (*models.InterviewScheduleResult, error) {
	if err := s.call(ctx, FlagInterviewScheduleFail, errors.ErrCodeInterviewScheduleFailed, "Scheduling service unavailable"); err != nil {
		return nil, err
	}
	return &models.InterviewScheduleResult{
		InterviewID:  "int-" + uuid.NewString()[:8],
		ScheduledFor: req.Date,
		Slot:         req.Slot,
		Mode:         req.Mode,
		Notes:        req.Notes,
		Status:       string(models.InterviewScheduled),
	}, nil
}

func (s *Services) UpdateInterviewStatus(ctx context.Context, req models.InterviewStatusRequest) (*models.InterviewStatusResult, error) {
	if err := s.call(ctx, FlagInterviewStatusFail, errors.ErrCodeInterviewStatusFailed, "Could not update interview status"); err != nil {
		return nil, err
	}
	return &models.InterviewStatusResult{Status: req.Status, UpdatedAt: s.timestamp()}, nil
}

func (s *Services) RecordInterviewOutcome(ctx context.Context, req models.InterviewOutcomeRequest) (*models.InterviewOutcomeResult, error) {
	if err := s.call(ctx, FlagOutcomeRecordFail, errors.ErrCodeInterviewOutcomeFailed, "Outcome service error"); err != nil {
		return nil, err
	}
	outcome := req.Outcome
	if s.Flags.Enabled(FlagOutcomeResultFail) {
		outcome = models.OutcomeFail
	}
	return &models.InterviewOutcomeResult{
		Outcome:    outcome,
		ReasonCode: req.ReasonCode,
		ReasonText: req.ReasonText,
		Notes:      req.Notes,
		ReceivedAt: s.timestamp(),
	}, nil
}

func (s *Services) PrefillProfile(ctx context.Context, subject models.Subject) (*models.ProfilePrefill, error) {
	if err := s.call(ctx, FlagProfilePrefillFail, errors.ErrCodePrefillFailed, "Profile registry fetch failed"); err != nil {
		return nil, err
	}
	partial := s.Flags.Enabled(FlagProfilePrefillPartial)
	out := &models.ProfilePrefill{
		AutoFilled:       10,
		PendingMandatory: 2,
		Docs: []models.Document{
			{Type: "PHOTO", Source: "CKYC", Available: true},
			{Type: "AADHAAR", Source: "CKYC", Available: !partial},
			{Type: "ADDRESS_PROOF", Source: "CKYC", Available: true},
		},
		Personal: models.PersonalDetails{
			Title:         "Mr.",
			FirstName:     "Rahul",
			LastName:      "Kumar",
			DOB:           "1994-05-12",
			Gender:        "Male",
			MaritalStatus: "Single",
			Category:      "General",
			RelationTitle: "Mr.",
			RelationName:  "Ramesh Kumar",
		},
		Address: models.Address{Line1: "123 Street", Line2: "Andheri East", City: "Mumbai", State: "MH", Pincode: "400001"},
	}
	if partial {
		out.AutoFilled, out.PendingMandatory = 6, 6
	}
	return out, nil
}

func (s *Services) PrefillDocuments(ctx context.Context, subject models.Subject) (*models.DocumentPrefill, error) {
	if err := s.call(ctx, FlagDocumentPrefillFail, errors.ErrCodePrefillFailed, "Document vault fetch failed"); err != nil {
		return nil, err
	}
	partial := s.Flags.Enabled(FlagDocumentPrefillPartial)
	out := &models.DocumentPrefill{
		AutoFilled:       6,
		PendingMandatory: 2,
		Docs: []models.Document{
			{Type: "EDUCATION_PROOF", Source: "DIGILOCKER", Available: true, Link: "#"},
			{Type: "BANK_PROOF", Source: "DIGILOCKER", Available: !partial, Link: "#"},
		},
		Education: models.EducationDetails{
			Qualification: "Graduate",
			Institution:   "Mumbai University",
			RollNumber:    "MU12345",
			PassingYear:   "2015",
		},
		Bank: models.BankDetails{AccountNumber: "1234567890", IFSC: "HDFC0001234"},
	}
	if partial {
		out.AutoFilled, out.PendingMandatory = 3, 5
		out.Bank = models.BankDetails{}
	}
	return out, nil
}

func (s *Services) ShareForm(ctx context.Context, req models.FormShareRequest) (*models.FormShareResult, error) {
	if err := s.call(ctx, FlagFormShareFail, errors.ErrCodeFormShareFailed, "Share failed, please retry"); err != nil {
		return nil, err
	}
	return &models.FormShareResult{Shared: true, Channel: req.Channel, SharedAt: s.timestamp()}, nil
}
