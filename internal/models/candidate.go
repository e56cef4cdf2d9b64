// internal/models/candidate.go
package models

import "time"

// Operator is the recruiter driving the workflow.
type Operator struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	BranchID string `json:"branchId"`
}

// Lead is the operator-entered input that creates a candidate.
type Lead struct {
	Mobile string `json:"mobile"`
	PAN    string `json:"pan"`
	Email  string `json:"email,omitempty"`
}

type Candidate struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Mobile           string           `json:"mobile"`
	PAN              string           `json:"pan"`
	Email            string           `json:"email,omitempty"`
	Name             string           `json:"name,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
	Interview        Interview        `json:"interview"`
	InterviewOutcome InterviewOutcome `json:"interviewOutcome"`
	Onboarding       OnboardingForm   `json:"onboarding"`
}

// InterviewStatus is the interview ladder.
type InterviewStatus string

const (
	InterviewNotScheduled InterviewStatus = "NOT_SCHEDULED"
	InterviewScheduled    InterviewStatus = "SCHEDULED"
	InterviewInProgress   InterviewStatus = "IN_PROGRESS"
	InterviewCompleted    InterviewStatus = "COMPLETED"
)

// Interview modes.
const (
	InterviewModeTelephonic = "TELEPHONIC"
	InterviewModeInPerson   = "IN_PERSON"
	InterviewModeVideo      = "VIDEO"
)

type Interview struct {
	Mode          string          `json:"mode"`
	Date          string          `json:"date,omitempty"`
	Slot          string          `json:"slot,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	TaskID        string          `json:"taskId,omitempty"`
	Status        InterviewStatus `json:"status"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt,omitempty"`
}

// Outcome is the counterpart's interview decision.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomePass   Outcome = "PASS"
	OutcomeFail   Outcome = "FAIL"
	OutcomeHold   Outcome = "HOLD"
	OutcomeRework Outcome = "REWORK"
)

// Valid reports whether o is a recordable outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomePass, OutcomeFail, OutcomeHold, OutcomeRework:
		return true
	}
	return false
}

type InterviewOutcome struct {
	Outcome    Outcome    `json:"outcome"`
	ReasonCode string     `json:"reasonCode,omitempty"`
	ReasonText string     `json:"reasonText,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"`
}

// NewCandidate returns a candidate with empty interview and onboarding state.
func NewCandidate(id, code string, lead Lead, now time.Time) *Candidate {
	c := &Candidate{
		ID:        id,
		Code:      code,
		Mobile:    lead.Mobile,
		PAN:       lead.PAN,
		Email:     lead.Email,
		CreatedAt: now,
		UpdatedAt: now,
		Interview: Interview{
			Mode:   InterviewModeTelephonic,
			Status: InterviewNotScheduled,
		},
		Onboarding: NewOnboardingForm(),
	}
	c.Onboarding.Fields.Contact.Mobile = lead.Mobile
	c.Onboarding.Fields.Contact.Email = lead.Email
	return c
}

// Clone returns a deep copy safe to hand out of the workflow lock.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	out := *c
	out.Onboarding = c.Onboarding.Clone()
	if c.Interview.LastUpdatedAt != nil {
		t := *c.Interview.LastUpdatedAt
		out.Interview.LastUpdatedAt = &t
	}
	if c.InterviewOutcome.ReceivedAt != nil {
		t := *c.InterviewOutcome.ReceivedAt
		out.InterviewOutcome.ReceivedAt = &t
	}
	return &out
}
