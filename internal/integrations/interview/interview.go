// Package interview runs interview coordination on the Zeebe process engine.
// Creating a task starts a process instance; scheduling, status changes and
// outcomes are published as messages correlated by the task id.
package interview

import (
	"context"
	"strconv"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"

	"github.com/google/uuid"
)

// Message names the interview process subscribes to.
const (
	MessageScheduled = "interview-scheduled"
	MessageStatus    = "interview-status"
	MessageOutcome   = "interview-outcome"
)

// Engine is the subset of the process engine client the service needs.
type Engine interface {
	StartProcess(ctx context.Context, processID string, vars map[string]interface{}) (int64, error)
	PublishMessage(ctx context.Context, name, correlationKey string, ttl time.Duration, vars map[string]interface{}) error
}

type Config struct {
	ProcessID  string
	MessageTTL time.Duration
}

type Service struct {
	engine Engine
	cfg    Config
	now    func() time.Time
	log    logger.Logger
}

func New(engine Engine, cfg Config, log logger.Logger) *Service {
	if cfg.ProcessID == "" {
		cfg.ProcessID = "candidate-interview"
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = time.Minute
	}
	return &Service{engine: engine, cfg: cfg, now: time.Now, log: logger.Component(log, "interview")}
}

// recode tags engine failures with the code of the interview step, keeping
// the retry classification.
func recode(err error, code errors.ErrorCode) error {
	se := errors.Normalize(err)
	out := errors.NewCheckFailure(code, se.Message, se.Retryable)
	out.Details = se.Details
	out.WithMetadata("engine_code", string(se.Code))
	return out
}

func missingTask(code errors.ErrorCode) error {
	return errors.NewCheckFailure(code, "Interview task has not been created", false)
}

func (s *Service) CreateInterviewTask(ctx context.Context, req models.InterviewTaskRequest) (*models.InterviewTaskResult, error) {
	taskID := "INT-" + uuid.NewString()
	key, err := s.engine.StartProcess(ctx, s.cfg.ProcessID, map[string]interface{}{
		"taskId":        taskID,
		"candidateId":   req.Subject.CandidateID,
		"candidateCode": req.Subject.Code,
		"counterpartId": req.Counterpart.ID,
		"interviewDate": req.Date,
		"notes":         req.Notes,
	})
	if err != nil {
		return nil, recode(err, errors.ErrCodeInterviewTaskFailed)
	}
	s.log.Info("interview process started", map[string]interface{}{
		"task_id":      taskID,
		"instance_key": strconv.FormatInt(key, 10),
		"candidate_id": req.Subject.CandidateID,
	})
	return &models.InterviewTaskResult{
		TaskID:        taskID,
		Status:        string(models.InterviewScheduled),
		InterviewDate: req.Date,
		Notes:         req.Notes,
	}, nil
}

func (s *Service) publish(ctx context.Context, name, taskID string, vars map[string]interface{}, code errors.ErrorCode) error {
	if err := s.engine.PublishMessage(ctx, name, taskID, s.cfg.MessageTTL, vars); err != nil {
		return recode(err, code)
	}
	s.log.Debug("interview message published", map[string]interface{}{"message": name, "task_id": taskID})
	return nil
}

func (s *Service) ScheduleInterview(ctx context.Context, req models.InterviewScheduleRequest) (*models.InterviewScheduleResult, error) {
	if req.TaskID == "" {
		return nil, missingTask(errors.ErrCodeInterviewScheduleFailed)
	}
	err := s.publish(ctx, MessageScheduled, req.TaskID, map[string]interface{}{
		"mode":  req.Mode,
		"date":  req.Date,
		"slot":  req.Slot,
		"notes": req.Notes,
	}, errors.ErrCodeInterviewScheduleFailed)
	if err != nil {
		return nil, err
	}
	return &models.InterviewScheduleResult{
		InterviewID:  req.TaskID,
		ScheduledFor: req.Date,
		Slot:         req.Slot,
		Mode:         req.Mode,
		Notes:        req.Notes,
		Status:       string(models.InterviewScheduled),
	}, nil
}

func (s *Service) UpdateInterviewStatus(ctx context.Context, req models.InterviewStatusRequest) (*models.InterviewStatusResult, error) {
	if req.TaskID == "" {
		return nil, missingTask(errors.ErrCodeInterviewStatusFailed)
	}
	at := s.now().UTC().Format(time.RFC3339)
	err := s.publish(ctx, MessageStatus, req.TaskID, map[string]interface{}{
		"status":    string(req.Status),
		"updatedAt": at,
	}, errors.ErrCodeInterviewStatusFailed)
	if err != nil {
		return nil, err
	}
	return &models.InterviewStatusResult{Status: req.Status, UpdatedAt: at}, nil
}

func (s *Service) RecordInterviewOutcome(ctx context.Context, req models.InterviewOutcomeRequest) (*models.InterviewOutcomeResult, error) {
	if req.TaskID == "" {
		return nil, missingTask(errors.ErrCodeInterviewOutcomeFailed)
	}
	at := s.now().UTC().Format(time.RFC3339)
	err := s.publish(ctx, MessageOutcome, req.TaskID, map[string]interface{}{
		"outcome":    string(req.Outcome),
		"reasonCode": req.ReasonCode,
		"reasonText": req.ReasonText,
		"notes":      req.Notes,
		"receivedAt": at,
	}, errors.ErrCodeInterviewOutcomeFailed)
	if err != nil {
		return nil, err
	}
	return &models.InterviewOutcomeResult{
		Outcome:    req.Outcome,
		ReasonCode: req.ReasonCode,
		ReasonText: req.ReasonText,
		Notes:      req.Notes,
		ReceivedAt: at,
	}, nil
}
