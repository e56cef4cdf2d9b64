package coordinator

import (
	"context"
	"strings"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/gate"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/state"
)

// ScheduleInput is the operator's interview booking.
type ScheduleInput struct {
	Mode  string `json:"mode"`
	Date  string `json:"date"`
	Slot  string `json:"slot"`
	Notes string `json:"notes"`
}

// OutcomeInput is the counterpart's decision as entered by the operator.
type OutcomeInput struct {
	Outcome    models.Outcome `json:"outcome"`
	ReasonCode string         `json:"reasonCode"`
	ReasonText string         `json:"reasonText"`
	Notes      string         `json:"notes"`
}

// Operations sharing the interview task record.
const (
	opCreate   = "create"
	opSchedule = "schedule"
	opStatus   = "status"
	opOutcome  = "outcome"
)

// interviewAttempt rebuilds the interview action named by op from its
// persisted inputs. Unknown operations fall back to task creation.
func (c *Coordinator) interviewAttempt(op string, in map[string]string) attempt {
	switch op {
	case opSchedule:
		return c.scheduleAttempt(ScheduleInput{Mode: in["mode"], Date: in["date"], Slot: in["slot"], Notes: in["notes"]})
	case opStatus:
		return c.statusAttempt(models.InterviewStatus(in["status"]))
	case opOutcome:
		return c.outcomeAttempt(OutcomeInput{
			Outcome:    models.Outcome(in["outcome"]),
			ReasonCode: in["reasonCode"],
			ReasonText: in["reasonText"],
			Notes:      in["notes"],
		})
	default:
		return c.taskAttempt(in["date"], in["notes"])
	}
}

// counterpartOf returns the mapped counterpart, or a stage-locked error
// while the interview actions are disabled.
func counterpartOf(s *state.CandidateWorkflowState) (models.CounterpartMapping, error) {
	if !gate.InterviewActionsEnabled(s) {
		return models.CounterpartMapping{}, errors.NewStageLockedError("counterpart mapping has not succeeded yet")
	}
	m, ok := s.Registry.Get(models.CheckCounterpartMapping).Payload.(*models.CounterpartMapping)
	if !ok || m == nil {
		return models.CounterpartMapping{}, errors.NewStageLockedError("counterpart mapping has no result")
	}
	return *m, nil
}

// ResolveCounterpart maps the operator to the interviewing counterpart. An
// existing successful mapping is kept unless force is set.
func (c *Coordinator) ResolveCounterpart(ctx context.Context, force bool) (registry.Record, error) {
	return c.execute(ctx, c.counterpartAttempt(force), triggerManual)
}

func (c *Coordinator) counterpartAttempt(force bool) attempt {
	return attempt{
		key:     models.CheckCounterpartMapping,
		running: "Resolving counterpart",
		done:    fixed("Mapped"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if !force && s.Registry.Get(models.CheckCounterpartMapping).Status == models.StatusSuccess {
				return nil, errAlreadyDone
			}
			req := models.CounterpartRequest{
				Subject:    models.SubjectOf(s.Candidate),
				OperatorID: s.Operator.ID,
				BranchID:   s.Operator.BranchID,
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Counterparts.ResolveCounterpart(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "COUNTERPART_MAPPED", models.PayloadDetails(p)
		},
	}
}

// CreateInterviewTask opens the interview task with the mapped counterpart
// and, on success, notifies the counterpart.
func (c *Coordinator) CreateInterviewTask(ctx context.Context, date, notes string) (registry.Record, error) {
	if c.Candidate() == nil {
		return registry.Record{}, errors.NewCandidateMissingError()
	}
	if strings.TrimSpace(date) == "" {
		return registry.Record{}, errors.NewValidationError("date", "pick an interview date")
	}
	return c.execute(ctx, c.taskAttempt(date, notes), triggerManual)
}

// taskAttempt falls back to the interview already on record when date is empty.
func (c *Coordinator) taskAttempt(date, notes string) attempt {
	return attempt{
		key:     models.CheckInterviewTask,
		op:      opCreate,
		inputs:  map[string]string{"date": date, "notes": notes},
		running: "Creating task",
		done:    fixed("Task created"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			cp, err := counterpartOf(s)
			if err != nil {
				return nil, err
			}
			req := models.InterviewTaskRequest{
				Subject:     models.SubjectOf(s.Candidate),
				Counterpart: cp,
				Date:        date,
				Notes:       notes,
			}
			if req.Date == "" {
				req.Date, req.Notes = s.Candidate.Interview.Date, s.Candidate.Interview.Notes
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Interviews.CreateInterviewTask(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, now time.Time) {
			r, ok := p.(*models.InterviewTaskResult)
			if !ok {
				return
			}
			iv := &s.Candidate.Interview
			if r.InterviewDate != "" {
				iv.Date = r.InterviewDate
			} else if date != "" {
				iv.Date = date
			}
			if notes != "" {
				iv.Notes = notes
			}
			iv.TaskID = r.TaskID
			iv.Status = models.InterviewScheduled
			iv.LastUpdatedAt = &now
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "INTERVIEW_CREATED", models.PayloadDetails(p)
		},
		then: func(ctx context.Context) {
			if _, err := c.NotifyCounterpart(ctx); err != nil {
				c.log.Warn("counterpart notification not started", map[string]interface{}{"error": err.Error()})
			}
		},
	}
}

// NotifyCounterpart tells the counterpart about the interview.
func (c *Coordinator) NotifyCounterpart(ctx context.Context) (registry.Record, error) {
	return c.execute(ctx, c.notifyAttempt(), triggerManual)
}

func (c *Coordinator) notifyAttempt() attempt {
	return attempt{
		key:     models.CheckCounterpartNotification,
		running: "Notifying counterpart",
		done:    fixed("Counterpart notified"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			cp, err := counterpartOf(s)
			if err != nil {
				return nil, err
			}
			notice := models.CounterpartNotice{
				Subject:     models.SubjectOf(s.Candidate),
				Counterpart: cp,
				Interview:   s.Candidate.Interview,
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Notifier.NotifyCounterpart(ctx, notice)
				return payloadOf(r, err)
			}, nil
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "COUNTERPART_NOTIFIED", models.PayloadDetails(p)
		},
	}
}

// ScheduleInterview books the interview mode, date and slot.
func (c *Coordinator) ScheduleInterview(ctx context.Context, in ScheduleInput) (registry.Record, error) {
	if in.Mode == "" {
		in.Mode = models.InterviewModeTelephonic
	}
	switch in.Mode {
	case models.InterviewModeTelephonic, models.InterviewModeInPerson, models.InterviewModeVideo:
	default:
		return registry.Record{}, errors.NewValidationError("mode", "unknown interview mode "+in.Mode)
	}
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Slot) == "" {
		return registry.Record{}, errors.NewValidationError("date,slot", "pick a date and a time slot")
	}
	return c.execute(ctx, c.scheduleAttempt(in), triggerManual)
}

func (c *Coordinator) scheduleAttempt(in ScheduleInput) attempt {
	return attempt{
		key:     models.CheckInterviewTask,
		op:      opSchedule,
		inputs:  map[string]string{"mode": in.Mode, "date": in.Date, "slot": in.Slot, "notes": in.Notes},
		running: "Scheduling",
		done:    fixed("Interview scheduled"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if _, err := counterpartOf(s); err != nil {
				return nil, err
			}
			req := models.InterviewScheduleRequest{
				Subject: models.SubjectOf(s.Candidate),
				TaskID:  s.Candidate.Interview.TaskID,
				Mode:    in.Mode,
				Date:    in.Date,
				Slot:    in.Slot,
				Notes:   in.Notes,
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Interviews.ScheduleInterview(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, now time.Time) {
			iv := &s.Candidate.Interview
			iv.Mode, iv.Date, iv.Slot, iv.Notes = in.Mode, in.Date, in.Slot, in.Notes
			iv.Status = models.InterviewScheduled
			iv.LastUpdatedAt = &now
			if r, ok := p.(*models.InterviewScheduleResult); ok && iv.TaskID == "" {
				iv.TaskID = r.InterviewID
			}
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "INTERVIEW_SCHEDULED", models.PayloadDetails(p)
		},
	}
}

// AdvanceInterviewStatus marks the interview IN_PROGRESS or COMPLETED.
func (c *Coordinator) AdvanceInterviewStatus(ctx context.Context, status models.InterviewStatus) (registry.Record, error) {
	if status != models.InterviewInProgress && status != models.InterviewCompleted {
		return registry.Record{}, errors.NewValidationError("status", "status must be IN_PROGRESS or COMPLETED")
	}
	return c.execute(ctx, c.statusAttempt(status), triggerManual)
}

func (c *Coordinator) statusAttempt(status models.InterviewStatus) attempt {
	return attempt{
		key:     models.CheckInterviewTask,
		op:      opStatus,
		inputs:  map[string]string{"status": string(status)},
		running: "Marking " + string(status),
		done:    fixed(string(status) + " saved"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if _, err := counterpartOf(s); err != nil {
				return nil, err
			}
			req := models.InterviewStatusRequest{
				Subject: models.SubjectOf(s.Candidate),
				TaskID:  s.Candidate.Interview.TaskID,
				Status:  status,
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Interviews.UpdateInterviewStatus(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, now time.Time) {
			iv := &s.Candidate.Interview
			iv.Status = status
			updated := now
			if r, ok := p.(*models.InterviewStatusResult); ok {
				if r.Status != "" {
					iv.Status = r.Status
				}
				updated = parseTime(r.UpdatedAt, now)
			}
			iv.LastUpdatedAt = &updated
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "INTERVIEW_" + string(status), models.PayloadDetails(p)
		},
	}
}

// RecordInterviewOutcome captures the counterpart's decision.
func (c *Coordinator) RecordInterviewOutcome(ctx context.Context, in OutcomeInput) (registry.Record, error) {
	if !in.Outcome.Valid() {
		return registry.Record{}, errors.NewValidationError("outcome", "select an outcome")
	}
	return c.execute(ctx, c.outcomeAttempt(in), triggerManual)
}

func (c *Coordinator) outcomeAttempt(in OutcomeInput) attempt {
	return attempt{
		key:     models.CheckInterviewTask,
		op:      opOutcome,
		inputs: map[string]string{
			"outcome":    string(in.Outcome),
			"reasonCode": in.ReasonCode,
			"reasonText": in.ReasonText,
			"notes":      in.Notes,
		},
		running: "Recording outcome",
		done:    fixed("Outcome captured"),
		prepare: func(s *state.CandidateWorkflowState) (invoke, error) {
			if _, err := counterpartOf(s); err != nil {
				return nil, err
			}
			req := models.InterviewOutcomeRequest{
				Subject:    models.SubjectOf(s.Candidate),
				TaskID:     s.Candidate.Interview.TaskID,
				Outcome:    in.Outcome,
				ReasonCode: in.ReasonCode,
				ReasonText: in.ReasonText,
				Notes:      in.Notes,
			}
			return func(ctx context.Context) (models.Payload, error) {
				r, err := c.deps.Interviews.RecordInterviewOutcome(ctx, req)
				return payloadOf(r, err)
			}, nil
		},
		apply: func(s *state.CandidateWorkflowState, p models.Payload, now time.Time) {
			outcome := models.InterviewOutcome{
				Outcome:    in.Outcome,
				ReasonCode: in.ReasonCode,
				ReasonText: in.ReasonText,
				Notes:      in.Notes,
			}
			received := now
			if r, ok := p.(*models.InterviewOutcomeResult); ok {
				if r.Outcome.Valid() {
					outcome.Outcome = r.Outcome
				}
				received = parseTime(r.ReceivedAt, now)
			}
			outcome.ReceivedAt = &received
			s.Candidate.InterviewOutcome = outcome
		},
		milestone: func(p models.Payload) (string, map[string]interface{}) {
			return "INTERVIEW_OUTCOME_RECORDED", models.PayloadDetails(p)
		},
	}
}

// RestartInterview clears the outcome and the interview status. Check
// records and their attempt counters are left untouched.
func (c *Coordinator) RestartInterview(ctx context.Context) error {
	return c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		now := c.workflow.Now()
		s.Candidate.Interview.Status = models.InterviewNotScheduled
		s.Candidate.Interview.LastUpdatedAt = &now
		s.Candidate.InterviewOutcome = models.InterviewOutcome{}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "INTERVIEW_RESTARTED",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{"candidateId": s.Candidate.ID},
		})
		return nil
	})
}

// ProceedToOnboarding is allowed only after a PASS outcome.
func (c *Coordinator) ProceedToOnboarding(ctx context.Context) error {
	return c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		if !gate.CanAccessStage(s, gate.StageOnboarding) {
			return errors.NewStageLockedError("onboarding opens after a PASS interview outcome")
		}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    "PROCEED_ONBOARDING",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{"candidateId": s.Candidate.ID, "from": "INTERVIEW"},
		})
		return nil
	})
}
