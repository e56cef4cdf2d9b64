// internal/models/readiness.go
package models

import "time"

// Earning periods for the income plan.
const (
	PeriodMonthly   = "MONTHLY"
	PeriodQuarterly = "QUARTERLY"
	PeriodAnnual    = "ANNUAL"
)

// ReadinessLink is the readiness assessment link sent to the candidate.
type ReadinessLink struct {
	LastSharedAt *time.Time `json:"lastSharedAt,omitempty"`
	Delivered    *bool      `json:"delivered,omitempty"`
	Completed    *bool      `json:"completed,omitempty"`
	Score        *int       `json:"score,omitempty"`
}

type Upload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// LeadPlan is the candidate's list of prospective buyers.
type LeadPlan struct {
	LeadCount int     `json:"leadCount"`
	Upload    *Upload `json:"upload,omitempty"`
	Completed bool    `json:"completed"`
}

// UploadRequired reports whether the plan needs an uploaded sheet before moving on.
func (p LeadPlan) UploadRequired() bool {
	return (p.LeadCount > 0 || p.Completed) && p.Upload == nil
}

type IncomeDerived struct {
	Monthly              float64 `json:"monthly"`
	MonthlyPremiumNeeded float64 `json:"monthlyPremiumNeeded"`
	PoliciesPerMonth     int     `json:"policiesPerMonth"`
	PremiumPerMonth      float64 `json:"premiumPerMonth"`
	LeadsPerMonth        int     `json:"leadsPerMonth"`
	LeadsPerWeek         int     `json:"leadsPerWeek"`
	ConnectsPerMonth     int     `json:"connectsPerMonth"`
	HoursPerWeek         float64 `json:"hoursPerWeek"`
	HoursPerDay          float64 `json:"hoursPerDay"`
}

type IncomeExport struct {
	GeneratedAt time.Time `json:"generatedAt"`
	URL         string    `json:"url"`
}

type IncomePlan struct {
	EarnAmount    float64        `json:"earnAmount"`
	EarnPeriod    string         `json:"earnPeriod"`
	ATS           float64        `json:"ats"`
	ConversionPct float64        `json:"conversionPct"`
	Derived       *IncomeDerived `json:"derived,omitempty"`
	Export        *IncomeExport  `json:"export,omitempty"`
}

type Readiness struct {
	Link       ReadinessLink `json:"link"`
	LeadPlan   LeadPlan      `json:"leadPlan"`
	IncomePlan IncomePlan    `json:"incomePlan"`
}

// NewReadiness returns readiness data with the default monthly period.
func NewReadiness() Readiness {
	return Readiness{IncomePlan: IncomePlan{EarnPeriod: PeriodMonthly}}
}
