package income

import (
	"testing"

	"candidate-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		period string
	}{
		{"monthly", 50000, models.PeriodMonthly},
		{"quarterly", 150000, models.PeriodQuarterly},
		{"annual", 600000, models.PeriodAnnual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(models.IncomePlan{EarnAmount: tt.amount, EarnPeriod: tt.period, ATS: 25000, ConversionPct: 20})
			require.NotNil(t, got)
			assert.InDelta(t, 50000, got.Monthly, 0.001)
			assert.InDelta(t, 200000, got.MonthlyPremiumNeeded, 0.001)
			assert.Equal(t, 8, got.PoliciesPerMonth)
			assert.InDelta(t, 200000, got.PremiumPerMonth, 0.001)
			assert.Equal(t, 40, got.LeadsPerMonth)
			assert.Equal(t, 10, got.LeadsPerWeek)
			assert.Equal(t, 120, got.ConnectsPerMonth)
			assert.InDelta(t, 4.6, got.HoursPerWeek, 0.0001)
			assert.InDelta(t, 0.8, got.HoursPerDay, 0.0001)
		})
	}
}

func TestCalculate_AtLeastOnePolicy(t *testing.T) {
	got := Calculate(models.IncomePlan{EarnAmount: 100, EarnPeriod: models.PeriodMonthly, ATS: 100000, ConversionPct: 50})
	require.NotNil(t, got)
	assert.Equal(t, 1, got.PoliciesPerMonth)
	assert.Equal(t, 2, got.LeadsPerMonth)
	assert.InDelta(t, 100000, got.PremiumPerMonth, 0.001)
}

func TestCalculate_IncompleteInputs(t *testing.T) {
	assert.Nil(t, Calculate(models.IncomePlan{EarnPeriod: models.PeriodMonthly, ATS: 25000, ConversionPct: 20}))
	assert.Nil(t, Calculate(models.IncomePlan{EarnAmount: 50000, EarnPeriod: models.PeriodMonthly, ConversionPct: 20}))
	assert.Nil(t, Calculate(models.IncomePlan{EarnAmount: 50000, EarnPeriod: models.PeriodMonthly, ATS: 25000}))
}

func TestMonthly_UnknownPeriod(t *testing.T) {
	assert.Equal(t, 900.0, Monthly(900, "WEEKLY"))
}
