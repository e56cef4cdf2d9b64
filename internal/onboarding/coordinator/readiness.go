package coordinator

import (
	"context"
	"fmt"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/validation"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/income"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/state"
)

// DeliverReadinessLink sends the readiness assessment link over SMS and email.
func (c *Coordinator) DeliverReadinessLink(ctx context.Context) (registry.Record, error) {
	return c.execute(ctx, c.deliveryAttempt(), triggerManual)
}

func (c *Coordinator) deliveryAttempt() attempt {
	return attempt{
		key:     models.CheckReadinessLinkDelivery,
		running: "Sharing link",
		done:    fixed("Link delivered"),
		prepare: withSubject(func(ctx context.Context, subject models.Subject) (models.Payload, error) {
			r, err := c.deps.LinkSender.DeliverReadinessLink(ctx, subject)
			return payloadOf(r, err)
		}),
		apply: func(s *state.CandidateWorkflowState, _ models.Payload, now time.Time) {
			delivered := true
			s.Readiness.Link.Delivered = &delivered
			s.Readiness.Link.LastSharedAt = &now
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "READINESS_LINK_SHARED", models.PayloadDetails(p)
		},
	}
}

// RefreshReadinessStatus queries completion and score of the readiness
// assessment. It is a plain query and is not tracked as a check.
func (c *Coordinator) RefreshReadinessStatus(ctx context.Context) (models.ReadinessLink, error) {
	subject, err := c.subject()
	if err != nil {
		return models.ReadinessLink{}, err
	}
	st, err := c.deps.Readiness.ReadinessStatus(ctx, subject)
	if err != nil {
		return models.ReadinessLink{}, fmt.Errorf("refresh readiness status: %w", err)
	}

	var link models.ReadinessLink
	err = c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		completed, score := st.Completed, st.Score
		s.Readiness.Link.Completed = &completed
		s.Readiness.Link.Score = &score
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorSystem,
			Type:    "READINESS_STATUS_REFRESHED",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{
				"candidateId": s.Candidate.ID,
				"completed":   completed,
				"score":       score,
			},
		})
		link = s.Readiness.Link
		return nil
	})
	return link, err
}

// UpdateLeadPlan stores the candidate's prospect list metadata.
func (c *Coordinator) UpdateLeadPlan(ctx context.Context, plan models.LeadPlan) (models.LeadPlan, error) {
	if plan.LeadCount < 0 {
		return plan, errors.NewValidationError("leadCount", "lead count cannot be negative")
	}
	if plan.Upload != nil && plan.Upload.Name == "" {
		return plan, errors.NewValidationError("upload.name", "uploaded file needs a name")
	}
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		s.Readiness.LeadPlan = plan
		return nil
	})
	return plan, err
}

// UpdateIncomePlan validates the income inputs and recomputes the derived plan.
func (c *Coordinator) UpdateIncomePlan(ctx context.Context, plan models.IncomePlan) (models.IncomePlan, error) {
	if plan.EarnPeriod == "" {
		plan.EarnPeriod = models.PeriodMonthly
	}
	res, err := validation.ValidateIncomePlan(plan)
	if err != nil {
		return plan, err
	}
	if verr := res.Err(); verr != nil {
		return plan, verr
	}

	plan.Derived = income.Calculate(plan)
	err = c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		plan.Export = s.Readiness.IncomePlan.Export
		s.Readiness.IncomePlan = plan
		return nil
	})
	return plan, err
}

// SaveIncomePlan records an export of the derived income plan.
func (c *Coordinator) SaveIncomePlan(ctx context.Context) (models.IncomeExport, error) {
	var export models.IncomeExport
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		plan := s.Readiness.IncomePlan
		if plan.Derived == nil {
			return errors.NewValidationError("incomePlan", "complete the income plan before saving it")
		}
		now := c.workflow.Now()
		export = models.IncomeExport{
			GeneratedAt: now,
			URL:         fmt.Sprintf("/exports/income-plan/%s-%d.pdf", s.Candidate.Code, now.Unix()),
		}
		s.Readiness.IncomePlan.Export = &export
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "PLAN_SAVED",
			Outcome: ledger.OutcomeSuccess,
			Details: map[string]interface{}{
				"candidateId": s.Candidate.ID,
				"generatedAt": now.Format(time.RFC3339),
				"url":         export.URL,
			},
		})
		return nil
	})
	return export, err
}

// ProceedToInterview leaves the readiness stage and resolves the interview
// counterpart unless it is already mapped.
func (c *Coordinator) ProceedToInterview(ctx context.Context) (registry.Record, error) {
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		if s.Readiness.LeadPlan.UploadRequired() {
			return errors.NewValidationError("leadPlan.upload", "upload the lead list before proceeding")
		}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "PROCEED_INTERVIEW",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{"candidateId": s.Candidate.ID, "from": "READINESS"},
		})
		return nil
	})
	if err != nil {
		return registry.Record{}, err
	}
	return c.ResolveCounterpart(ctx, false)
}
