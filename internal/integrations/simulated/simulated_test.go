package simulated

import (
	"context"
	"testing"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/coordinator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ coordinator.Verifier            = (*Services)(nil)
	_ coordinator.ReadinessLinkSender = (*Services)(nil)
	_ coordinator.ReadinessTracker    = (*Services)(nil)
	_ coordinator.CounterpartResolver = (*Services)(nil)
	_ coordinator.InterviewService    = (*Services)(nil)
	_ coordinator.CounterpartNotifier = (*Services)(nil)
	_ coordinator.Prefiller           = (*Services)(nil)
	_ coordinator.FormSharer          = (*Services)(nil)
)

var subject = models.Subject{CandidateID: "CND1", Code: "CND-1", Mobile: "9876543210", PAN: "ABCDE1234F", Email: "rahul@example.com"}

func newServices(t *testing.T, overrides map[string]bool) *Services {
	t.Helper()
	flags, err := NewFlags(overrides)
	require.NoError(t, err)
	return New(flags, 0, logger.NewTestLogger(t))
}

func TestFlags(t *testing.T) {
	f, err := NewFlags(map[string]bool{"identity_fail": true})
	require.NoError(t, err)
	assert.True(t, f.Enabled(FlagIdentityFail))
	assert.True(t, f.Enabled(FlagProfilePartial))

	err = f.Set(map[string]bool{FlagFormShareFail: true, "NO_SUCH_FLAG": true})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
	assert.False(t, f.Enabled(FlagFormShareFail), "a rejected batch applies nothing")

	all := f.All()
	all[FlagFormShareFail] = true
	assert.False(t, f.Enabled(FlagFormShareFail))
}

func TestFailureModes(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		flag     string
		call     func(s *Services) error
		code     errors.ErrorCode
		category errors.Category
	}{
		{FlagIdentityFail, func(s *Services) error { _, err := s.VerifyIdentity(ctx, subject); return err }, errors.ErrCodeIdentityCheckFailed, errors.CategorySystem},
		{FlagEligibilityFail, func(s *Services) error { _, err := s.CheckEligibility(ctx, subject); return err }, errors.ErrCodeNotEligible, errors.CategoryData},
		{FlagProfileFail, func(s *Services) error { _, err := s.LookupProfile(ctx, subject); return err }, errors.ErrCodeProfileLookupFailed, errors.CategorySystem},
		{FlagDocumentFail, func(s *Services) error { _, err := s.LookupDocuments(ctx, subject); return err }, errors.ErrCodeDocumentLookupFailed, errors.CategorySystem},
		{FlagReadinessDeliveryFail, func(s *Services) error { _, err := s.DeliverReadinessLink(ctx, subject); return err }, errors.ErrCodeReadinessDeliveryFailed, errors.CategorySystem},
		{FlagCounterpartMapFail, func(s *Services) error {
			_, err := s.ResolveCounterpart(ctx, models.CounterpartRequest{Subject: subject})
			return err
		}, errors.ErrCodeCounterpartMappingFailed, errors.CategorySystem},
		{FlagInterviewCreateFail, func(s *Services) error {
			_, err := s.CreateInterviewTask(ctx, models.InterviewTaskRequest{Subject: subject})
			return err
		}, errors.ErrCodeInterviewTaskFailed, errors.CategorySystem},
		{FlagNotifyCounterpartFail, func(s *Services) error {
			_, err := s.NotifyCounterpart(ctx, models.CounterpartNotice{Subject: subject})
			return err
		}, errors.ErrCodeCounterpartNotifyFailed, errors.CategorySystem},
		{FlagInterviewScheduleFail, func(s *Services) error {
			_, err := s.ScheduleInterview(ctx, models.InterviewScheduleRequest{Subject: subject})
			return err
		}, errors.ErrCodeInterviewScheduleFailed, errors.CategorySystem},
		{FlagInterviewStatusFail, func(s *Services) error {
			_, err := s.UpdateInterviewStatus(ctx, models.InterviewStatusRequest{Subject: subject})
			return err
		}, errors.ErrCodeInterviewStatusFailed, errors.CategorySystem},
		{FlagOutcomeRecordFail, func(s *Services) error {
			_, err := s.RecordInterviewOutcome(ctx, models.InterviewOutcomeRequest{Subject: subject})
			return err
		}, errors.ErrCodeInterviewOutcomeFailed, errors.CategorySystem},
		{FlagProfilePrefillFail, func(s *Services) error { _, err := s.PrefillProfile(ctx, subject); return err }, errors.ErrCodePrefillFailed, errors.CategorySystem},
		{FlagDocumentPrefillFail, func(s *Services) error { _, err := s.PrefillDocuments(ctx, subject); return err }, errors.ErrCodePrefillFailed, errors.CategorySystem},
		{FlagFormShareFail, func(s *Services) error {
			_, err := s.ShareForm(ctx, models.FormShareRequest{Subject: subject, Channel: models.ChannelSMS})
			return err
		}, errors.ErrCodeFormShareFailed, errors.CategorySystem},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			require.NoError(t, tt.call(newServices(t, nil)))

			err := tt.call(newServices(t, map[string]bool{tt.flag: true}))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Equal(t, tt.category, errors.CategoryOf(err))
		})
	}
}

func TestPartialData(t *testing.T) {
	ctx := context.Background()

	s := newServices(t, nil)
	lookup, err := s.LookupProfile(ctx, subject)
	require.NoError(t, err)
	assert.Len(t, lookup.MissingDocuments(), 1)

	docs, err := s.PrefillDocuments(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, 3, docs.AutoFilled)
	assert.Empty(t, docs.Bank.AccountNumber)

	full := newServices(t, map[string]bool{FlagProfilePartial: false, FlagDocumentPrefillPartial: false})
	lookup, err = full.LookupProfile(ctx, subject)
	require.NoError(t, err)
	assert.Empty(t, lookup.MissingDocuments())

	docs, err = full.PrefillDocuments(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "HDFC0001234", docs.Bank.IFSC)
}

func TestForcedFailOutcome(t *testing.T) {
	s := newServices(t, map[string]bool{FlagOutcomeResultFail: true})
	res, err := s.RecordInterviewOutcome(context.Background(), models.InterviewOutcomeRequest{Subject: subject, Outcome: models.OutcomePass})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFail, res.Outcome)
}

func TestLatencyHonoursCancellation(t *testing.T) {
	flags, err := NewFlags(nil)
	require.NoError(t, err)
	s := New(flags, time.Hour, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.VerifyIdentity(ctx, subject)
	require.Error(t, err)
	assert.Equal(t, errors.CategorySystem, errors.CategoryOf(err))
}

func TestReadinessContactRequired(t *testing.T) {
	s := newServices(t, nil)
	noEmail := subject
	noEmail.Email = ""
	_, err := s.DeliverReadinessLink(context.Background(), noEmail)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeReadinessContactMissing, errors.CodeOf(err))
}
