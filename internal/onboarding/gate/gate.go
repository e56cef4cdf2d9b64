// Package gate decides stage accessibility and field editability. Every
// function here is pure over the workflow state except SectionTracker, which
// also appends completion events.
package gate

import (
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/state"
)

// Workflow stages.
const (
	StageLead       = 0
	StageProfile    = 1
	StageReadiness  = 2
	StageInterview  = 3
	StageOnboarding = 4
)

// CanAccessStage reports whether the operator may open stage n.
func CanAccessStage(s *state.CandidateWorkflowState, n int) bool {
	switch n {
	case StageLead:
		return true
	case StageProfile:
		return s.HasCandidate()
	case StageReadiness, StageInterview:
		return true
	case StageOnboarding:
		return outcome(s) == models.OutcomePass
	default:
		return false
	}
}

// Decision is the result of the eligibility predicate.
type Decision struct {
	OK      bool   `json:"ok"`
	Waiting bool   `json:"waiting"`
	Reason  string `json:"reason"`
}

// Eligibility gates the move from profile verification to readiness.
func Eligibility(s *state.CandidateWorkflowState) Decision {
	identity := s.Registry.Get(models.CheckIdentityVerification)
	eligibility := s.Registry.Get(models.CheckEligibility)

	if identity.Status != models.StatusSuccess || eligibility.Status != models.StatusSuccess {
		return Decision{Waiting: true, Reason: "Waiting for checks"}
	}

	id, _ := identity.Payload.(*models.IdentityResult)
	if id == nil || !id.Valid {
		return Decision{Reason: "PAN invalid"}
	}
	el, _ := eligibility.Payload.(*models.EligibilityResult)
	if el == nil || !el.Eligible {
		return Decision{Reason: "Not eligible"}
	}
	return Decision{OK: true, Reason: "Eligible to proceed"}
}

// InterviewActionsEnabled gates scheduling and counterpart notification.
func InterviewActionsEnabled(s *state.CandidateWorkflowState) bool {
	return s.Registry.Get(models.CheckCounterpartMapping).Status == models.StatusSuccess
}

// OnboardingEditable is false until the interview passed, and again once the
// form was shared for review regardless of outcome.
func OnboardingEditable(s *state.CandidateWorkflowState) bool {
	if outcome(s) != models.OutcomePass {
		return false
	}
	return s.Candidate.Onboarding.Status != models.OnboardingSharedForReview
}

func outcome(s *state.CandidateWorkflowState) models.Outcome {
	if s.Candidate == nil {
		return models.OutcomeNone
	}
	return s.Candidate.InterviewOutcome.Outcome
}

// View is the serializable summary of every gate.
type View struct {
	Stages                  map[int]bool            `json:"stages"`
	Eligibility             Decision                `json:"eligibility"`
	InterviewActionsEnabled bool                    `json:"interviewActionsEnabled"`
	OnboardingEditable      bool                    `json:"onboardingEditable"`
	Sections                map[models.Section]bool `json:"sections"`
}

// Evaluate computes every gate at once.
func Evaluate(s *state.CandidateWorkflowState) View {
	v := View{
		Stages:                  make(map[int]bool, 5),
		Eligibility:             Eligibility(s),
		InterviewActionsEnabled: InterviewActionsEnabled(s),
		OnboardingEditable:      OnboardingEditable(s),
		Sections:                make(map[models.Section]bool, len(models.Sections)),
	}
	for n := StageLead; n <= StageOnboarding; n++ {
		v.Stages[n] = CanAccessStage(s, n)
	}
	if s.Candidate != nil {
		for _, sec := range models.Sections {
			v.Sections[sec] = SectionComplete(s.Candidate.Onboarding.Fields, sec)
		}
	}
	return v
}
