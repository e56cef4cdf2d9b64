package coordinator

import (
	"context"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/validation"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/state"

	"golang.org/x/sync/errgroup"
)

// CreateCandidate validates the lead and captures it as the active candidate.
func (c *Coordinator) CreateCandidate(ctx context.Context, lead models.Lead) (*models.Candidate, error) {
	lead, res, err := validation.ValidateLead(lead)
	if err != nil {
		return nil, err
	}
	if verr := res.Err(); verr != nil {
		return nil, verr
	}

	var created *models.Candidate
	err = c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if s.HasCandidate() {
			return errors.NewStageLockedError("a candidate is already in progress; reset the workflow first")
		}
		id, code := c.newIDs()
		s.Candidate = models.NewCandidate(id, code, lead, c.workflow.Now())
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "CANDIDATE_CREATED",
			Outcome: ledger.OutcomeSuccess,
			Details: map[string]interface{}{
				"candidateId": id,
				"code":        code,
				"mobile":      lead.Mobile,
				"pan":         lead.PAN,
				"email":       lead.Email,
			},
		})
		created = s.Candidate.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.log.Info("candidate created", map[string]interface{}{"candidate_id": created.ID})
	return created, nil
}

// StartProfileBuild resets the four profile checks and runs them
// concurrently. It returns once every check has been classified.
func (c *Coordinator) StartProfileBuild(ctx context.Context) ([]registry.Record, error) {
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		now := c.workflow.Now()
		for _, key := range models.ProfileBuildChecks {
			c.scheduler.Cancel(key)
			s.Registry.Initialize(key, now)
		}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorSystem,
			Type:    "ORCHESTRATION_STARTED",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{"candidateId": s.Candidate.ID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	attempts := []attempt{
		c.identityAttempt(),
		c.eligibilityAttempt(),
		c.profileLookupAttempt(),
		c.documentLookupAttempt(),
	}
	records := make([]registry.Record, len(attempts))
	var g errgroup.Group
	for i, a := range attempts {
		i, a := i, a
		g.Go(func() error {
			rec, err := c.execute(ctx, a, triggerManual)
			records[i] = rec
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return records, err
	}
	return records, nil
}

func (c *Coordinator) identityAttempt() attempt {
	return attempt{
		key:     models.CheckIdentityVerification,
		running: msgRunning,
		done:    fixed("PAN verified"),
		prepare: withSubject(func(ctx context.Context, subject models.Subject) (models.Payload, error) {
			r, err := c.deps.Verifier.VerifyIdentity(ctx, subject)
			return payloadOf(r, err)
		}),
		apply: func(s *state.CandidateWorkflowState, p models.Payload, _ time.Time) {
			// the name on PAN wins over any profile name
			if id, ok := p.(*models.IdentityResult); ok && id.NameOnPAN != "" {
				s.Candidate.Name = id.NameOnPAN
			}
		},
	}
}

func (c *Coordinator) eligibilityAttempt() attempt {
	return attempt{
		key:     models.CheckEligibility,
		running: msgRunning,
		done:    fixed(msgDone),
		prepare: withSubject(func(ctx context.Context, subject models.Subject) (models.Payload, error) {
			r, err := c.deps.Verifier.CheckEligibility(ctx, subject)
			return payloadOf(r, err)
		}),
	}
}

func (c *Coordinator) profileLookupAttempt() attempt {
	return attempt{
		key:     models.CheckProfileLookup,
		running: msgRunning,
		done:    fixed(msgDone),
		prepare: withSubject(func(ctx context.Context, subject models.Subject) (models.Payload, error) {
			r, err := c.deps.Verifier.LookupProfile(ctx, subject)
			return payloadOf(r, err)
		}),
		apply: func(s *state.CandidateWorkflowState, p models.Payload, _ time.Time) {
			if r, ok := p.(*models.ProfileLookupResult); ok && s.Candidate.Name == "" {
				s.Candidate.Name = r.Profile.FullName
			}
		},
	}
}

func (c *Coordinator) documentLookupAttempt() attempt {
	return attempt{
		key:     models.CheckDocumentLookup,
		running: msgRunning,
		done:    fixed(msgDone),
		prepare: withSubject(func(ctx context.Context, subject models.Subject) (models.Payload, error) {
			r, err := c.deps.Verifier.LookupDocuments(ctx, subject)
			return payloadOf(r, err)
		}),
	}
}
