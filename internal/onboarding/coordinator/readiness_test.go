package coordinator

import (
	"context"
	"testing"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverReadinessLink(t *testing.T) {
	c, fc := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()

	rec, err := c.DeliverReadinessLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, rec.Status)

	var link models.ReadinessLink
	c.Workflow().View(func(s *state.CandidateWorkflowState) { link = s.Readiness.Link })
	require.NotNil(t, link.Delivered)
	assert.True(t, *link.Delivered)
	require.NotNil(t, link.LastSharedAt)
	assert.Equal(t, fc.Now(), *link.LastSharedAt)
	assert.Equal(t, 1, countEvents(c, "READINESS_LINK_SHARED"))
}

func TestDeliverReadinessLink_MissingContactIsDataFailure(t *testing.T) {
	deps := &fakeDeps{
		deliverLink: func(_ context.Context, s models.Subject) (*models.ReadinessDelivery, error) {
			if ch := s.MissingContact(); ch != "" {
				return nil, errors.NewReadinessContactMissingError(ch)
			}
			return &models.ReadinessDelivery{Delivered: true}, nil
		},
	}
	c, fc := newTestCoordinator(t, deps)
	ctx := context.Background()
	_, err := c.CreateCandidate(ctx, models.Lead{Mobile: "9876543210", PAN: "ABCDE1234F"})
	require.NoError(t, err)

	rec, err := c.DeliverReadinessLink(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, rec.Status)
	assert.Equal(t, models.FailureData, rec.FailureType)
	assert.Zero(t, fc.PendingTimers())
}

func TestRefreshReadinessStatus(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})

	link, err := c.RefreshReadinessStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, link.Completed)
	assert.True(t, *link.Completed)
	require.NotNil(t, link.Score)
	assert.Equal(t, 50, *link.Score)
	assert.Equal(t, 1, countEvents(c, "READINESS_STATUS_REFRESHED"))
	assert.Equal(t, 0, c.Record(models.CheckReadinessLinkDelivery).AttemptCount)
}

func TestIncomePlan_UpdateAndSave(t *testing.T) {
	c, fc := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()

	_, err := c.SaveIncomePlan(ctx)
	require.Error(t, err)

	_, err = c.UpdateIncomePlan(ctx, models.IncomePlan{EarnAmount: 50000, ATS: 25000, ConversionPct: 150})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))

	plan, err := c.UpdateIncomePlan(ctx, models.IncomePlan{EarnAmount: 50000, ATS: 25000, ConversionPct: 20})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodMonthly, plan.EarnPeriod)
	require.NotNil(t, plan.Derived)
	assert.Equal(t, 8, plan.Derived.PoliciesPerMonth)
	assert.Equal(t, 40, plan.Derived.LeadsPerMonth)

	export, err := c.SaveIncomePlan(ctx)
	require.NoError(t, err)
	assert.Equal(t, fc.Now(), export.GeneratedAt)
	assert.Contains(t, export.URL, "/exports/income-plan/CND-000001-")
	assert.Equal(t, 1, countEvents(c, "PLAN_SAVED"))

	// recomputing keeps the last export
	plan, err = c.UpdateIncomePlan(ctx, models.IncomePlan{EarnAmount: 60000, ATS: 25000, ConversionPct: 20})
	require.NoError(t, err)
	require.NotNil(t, plan.Export)
	assert.Equal(t, export.URL, plan.Export.URL)
}

func TestProceedToInterview(t *testing.T) {
	c, _ := newWithCandidate(t, &fakeDeps{})
	ctx := context.Background()

	_, err := c.UpdateLeadPlan(ctx, models.LeadPlan{LeadCount: -1})
	require.Error(t, err)

	_, err = c.UpdateLeadPlan(ctx, models.LeadPlan{LeadCount: 25})
	require.NoError(t, err)
	_, err = c.ProceedToInterview(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, countEvents(c, "PROCEED_INTERVIEW"))

	_, err = c.UpdateLeadPlan(ctx, models.LeadPlan{LeadCount: 25, Upload: &models.Upload{Name: "leads.xlsx", Size: 2048}})
	require.NoError(t, err)
	rec, err := c.ProceedToInterview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.CheckCounterpartMapping, rec.Key)
	assert.Equal(t, models.StatusSuccess, rec.Status)
	assert.Equal(t, 1, countEvents(c, "PROCEED_INTERVIEW"))
	assert.Equal(t, 1, countEvents(c, "COUNTERPART_MAPPED"))
}
