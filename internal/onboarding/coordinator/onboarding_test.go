package coordinator

import (
	"context"
	"testing"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboarding_LockedBeforePass(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()

	_, err := c.Prefill(ctx, models.PrefillSourceProfile)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStageLocked, errors.CodeOf(err))

	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"ifsc":"HDFC0001234"}`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStageLocked, errors.CodeOf(err))

	_, err = c.ShareOnboardingForm(ctx, models.ChannelSMS)
	require.Error(t, err)
	assert.Equal(t, 0, c.Record(models.CheckFormShare).AttemptCount)
}

func TestPrefill_MergesProfileData(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()
	passInterview(t, c)

	_, err := c.UpdateOnboardingFields(ctx, models.SectionPersonal, []byte(`{"gender":"M","middleName":"K"}`))
	require.NoError(t, err)
	_, err = c.UpdateOnboardingFields(ctx, models.SectionContact, []byte(`{"permanentAddress":{"sameAsCurrent":true}}`))
	require.NoError(t, err)

	rec, err := c.Prefill(ctx, models.PrefillSourceProfile)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, rec.Status)
	assert.Equal(t, "6 fields auto-filled", rec.Message)

	form := c.Candidate().Onboarding
	assert.Equal(t, "Rahul", form.Fields.Personal.FirstName)
	assert.Equal(t, "M", form.Fields.Personal.Gender, "empty prefill values keep operator input")
	assert.Equal(t, "K", form.Fields.Personal.MiddleName)
	assert.Equal(t, "Mumbai", form.Fields.Contact.CurrentAddress.City)
	assert.Equal(t, "Mumbai", form.Fields.Contact.PermanentAddress.City)
	assert.Len(t, form.Docs.Profile, 1)
	assert.Equal(t, models.OnboardingInProgress, form.Status)
	assert.Equal(t, 1, countEvents(c, "PREFILL_APPLIED"))
}

func TestPrefill_DocumentSourceFillsEducation(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()
	passInterview(t, c)

	_, err := c.Prefill(ctx, "aadhaar")
	require.Error(t, err)

	rec, err := c.Prefill(ctx, models.PrefillSourceDocument)
	require.NoError(t, err)
	assert.Equal(t, models.CheckDocumentPrefill, rec.Key)
	assert.Equal(t, "3 fields auto-filled", rec.Message)

	form := c.Candidate().Onboarding
	assert.Equal(t, 1, form.SectionsCompletion[models.SectionEducation])
	assert.Equal(t, 1, countEvents(c, "EDUCATION_COMPLETED"))
	assert.Empty(t, form.Fields.Bank.AccountNumber)
}

func TestUpdateOnboardingFields(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()
	passInterview(t, c)

	_, err := c.UpdateOnboardingFields(ctx, "hobbies", []byte(`{}`))
	require.Error(t, err)
	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"swift":"X"}`))
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	bank := []byte(`{"accountNumber":"1234567890","ifsc":"HDFC0001234","bankName":"HDFC","branch":"Andheri"}`)
	form, err := c.UpdateOnboardingFields(ctx, models.SectionBank, bank)
	require.NoError(t, err)
	assert.Equal(t, 1, form.SectionsCompletion[models.SectionBank])

	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"branch":""}`))
	require.NoError(t, err)
	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"branch":"Powai"}`))
	require.NoError(t, err)

	assert.Equal(t, 2, countEvents(c, "BANK_COMPLETED"))
	assert.Equal(t, "1234567890", c.Candidate().Onboarding.Fields.Bank.AccountNumber)
}

func TestValidateAndSaveOnboarding(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()
	passInterview(t, c)

	missing, err := c.ValidateOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Please confirm declaration", missing["nominee.declarationAccepted"])
	assert.Contains(t, missing, "bank.ifsc")

	form, err := c.SaveOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.OnboardingInProgress, form.Status)
	assert.Equal(t, 1, countEvents(c, "ONBOARDING_SAVED"))
}

func TestShareOnboardingForm_LocksForm(t *testing.T) {
	var got models.FormShareRequest
	deps := &fakeDeps{
		share: func(_ context.Context, r models.FormShareRequest) (*models.FormShareResult, error) {
			got = r
			return &models.FormShareResult{Shared: true, Channel: r.Channel}, nil
		},
	}
	c, fc := newWithCandidate(t, deps)
	ctx := context.Background()
	passInterview(t, c)

	_, err := c.ShareOnboardingForm(ctx, "fax")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupportedChannel, errors.CodeOf(err))

	rec, err := c.ShareOnboardingForm(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, rec.Status)
	assert.Equal(t, models.ChannelSMS, got.Channel)
	assert.Equal(t, "9876543210", got.Subject.Mobile)

	form := c.Candidate().Onboarding
	assert.Equal(t, models.OnboardingSharedForReview, form.Status)
	assert.Equal(t, models.ChannelSMS, form.Share.Channel)
	require.NotNil(t, form.Share.LastSharedAt)
	assert.Equal(t, fc.Now(), *form.Share.LastSharedAt)
	assert.Equal(t, 1, countEvents(c, "ONBOARDING_SHARED"))

	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"ifsc":"X"}`))
	require.Error(t, err)
	_, err = c.Prefill(ctx, models.PrefillSourceDocument)
	require.Error(t, err)
	_, err = c.ShareOnboardingForm(ctx, models.ChannelEmail)
	require.Error(t, err)
}

func TestShareOnboardingForm_FailureKeepsFormEditable(t *testing.T) {
	deps := &fakeDeps{
		share: func(context.Context, models.FormShareRequest) (*models.FormShareResult, error) {
			return nil, errors.NewCheckFailure(errors.ErrCodeFormShareFailed, "gateway timeout", true)
		},
	}
	c, _ := newWithCandidate(t, deps)
	ctx := context.Background()
	passInterview(t, c)

	rec, err := c.ShareOnboardingForm(ctx, models.ChannelWhatsApp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, rec.Status)
	assert.NotEqual(t, models.OnboardingSharedForReview, c.Candidate().Onboarding.Status)

	_, err = c.UpdateOnboardingFields(ctx, models.SectionBank, []byte(`{"ifsc":"HDFC0001234"}`))
	assert.NoError(t, err)
}
