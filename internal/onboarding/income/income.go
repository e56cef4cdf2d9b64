// Package income derives the sales activity a candidate needs to reach a
// target income.
package income

import (
	"math"

	"candidate-onboarding/internal/models"
)

// Planning assumptions.
const (
	CommissionRate         = 0.25
	ConversationsPerBuyer  = 3
	MinutesPerConversation = 10
	WorkingDaysPerWeek     = 6
	WeeksPerMonth          = 4.33
)

// Monthly converts amount earned over period to a monthly figure. Unknown
// periods are treated as monthly.
func Monthly(amount float64, period string) float64 {
	switch period {
	case models.PeriodQuarterly:
		return amount / 3
	case models.PeriodAnnual:
		return amount / 12
	default:
		return amount
	}
}

// Calculate returns the derived plan, or nil when the inputs cannot produce one.
func Calculate(plan models.IncomePlan) *models.IncomeDerived {
	monthly := Monthly(plan.EarnAmount, plan.EarnPeriod)
	if monthly <= 0 || plan.ATS <= 0 || plan.ConversionPct <= 0 {
		return nil
	}

	premium := monthly / CommissionRate
	policies := int(math.Ceil(premium / plan.ATS))
	if policies < 1 {
		policies = 1
	}
	leads := int(math.Ceil(float64(policies) * 100 / plan.ConversionPct))
	connects := leads * ConversationsPerBuyer
	hoursPerWeek := float64(connects*MinutesPerConversation) / 60 / WeeksPerMonth

	return &models.IncomeDerived{
		Monthly:              monthly,
		MonthlyPremiumNeeded: premium,
		PoliciesPerMonth:     policies,
		PremiumPerMonth:      float64(policies) * plan.ATS,
		LeadsPerMonth:        leads,
		LeadsPerWeek:         int(math.Ceil(float64(leads) / WeeksPerMonth)),
		ConnectsPerMonth:     connects,
		HoursPerWeek:         round1(hoursPerWeek),
		HoursPerDay:          round1(hoursPerWeek / WorkingDaysPerWeek),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
