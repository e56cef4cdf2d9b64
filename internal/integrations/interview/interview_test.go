package interview

import (
	"context"
	"strings"
	"testing"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	name, key string
	ttl       time.Duration
	vars      map[string]interface{}
}

type fakeEngine struct {
	startProcess   func(ctx context.Context, processID string, vars map[string]interface{}) (int64, error)
	publishMessage func(ctx context.Context, name, key string, ttl time.Duration, vars map[string]interface{}) error

	started   []map[string]interface{}
	published []published
}

func (f *fakeEngine) StartProcess(ctx context.Context, processID string, vars map[string]interface{}) (int64, error) {
	f.started = append(f.started, vars)
	if f.startProcess != nil {
		return f.startProcess(ctx, processID, vars)
	}
	return 2251799813685249, nil
}

func (f *fakeEngine) PublishMessage(ctx context.Context, name, key string, ttl time.Duration, vars map[string]interface{}) error {
	f.published = append(f.published, published{name: name, key: key, ttl: ttl, vars: vars})
	if f.publishMessage != nil {
		return f.publishMessage(ctx, name, key, ttl, vars)
	}
	return nil
}

var subject = models.Subject{CandidateID: "CND1", Code: "CND-1", Mobile: "9876543210", PAN: "ABCDE1234F"}

func newService(t *testing.T, engine Engine) *Service {
	s := New(engine, Config{ProcessID: "candidate-interview", MessageTTL: 30 * time.Second}, logger.NewTestLogger(t))
	s.now = func() time.Time { return time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateInterviewTask(t *testing.T) {
	engine := &fakeEngine{}
	s := newService(t, engine)

	res, err := s.CreateInterviewTask(context.Background(), models.InterviewTaskRequest{
		Subject:     subject,
		Counterpart: models.CounterpartMapping{ID: "BH001"},
		Date:        "2026-03-10",
		Notes:       "first round",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.TaskID, "INT-"))
	assert.Equal(t, "2026-03-10", res.InterviewDate)

	require.Len(t, engine.started, 1)
	assert.Equal(t, res.TaskID, engine.started[0]["taskId"])
	assert.Equal(t, "BH001", engine.started[0]["counterpartId"])
}

func TestCreateInterviewTask_EngineFailureKeepsClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"transient", errors.NewTimeoutError("zeebe", assert.AnError), true},
		{"process missing", errors.NewResourceNotFoundError("zeebe", "no process"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{startProcess: func(context.Context, string, map[string]interface{}) (int64, error) {
				return 0, tt.err
			}}
			_, err := newService(t, engine).CreateInterviewTask(context.Background(), models.InterviewTaskRequest{Subject: subject})
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInterviewTaskFailed, errors.CodeOf(err))
			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		})
	}
}

func TestMessagesAreCorrelatedByTask(t *testing.T) {
	engine := &fakeEngine{}
	s := newService(t, engine)
	ctx := context.Background()

	sched, err := s.ScheduleInterview(ctx, models.InterviewScheduleRequest{Subject: subject, TaskID: "INT-1", Mode: "VIDEO", Date: "2026-03-11", Slot: "11:00"})
	require.NoError(t, err)
	assert.Equal(t, "INT-1", sched.InterviewID)

	st, err := s.UpdateInterviewStatus(ctx, models.InterviewStatusRequest{Subject: subject, TaskID: "INT-1", Status: models.InterviewCompleted})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10T10:00:00Z", st.UpdatedAt)

	out, err := s.RecordInterviewOutcome(ctx, models.InterviewOutcomeRequest{Subject: subject, TaskID: "INT-1", Outcome: models.OutcomePass})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePass, out.Outcome)

	require.Len(t, engine.published, 3)
	names := []string{MessageScheduled, MessageStatus, MessageOutcome}
	for i, p := range engine.published {
		assert.Equal(t, names[i], p.name)
		assert.Equal(t, "INT-1", p.key)
		assert.Equal(t, 30*time.Second, p.ttl)
	}
	assert.Equal(t, "COMPLETED", engine.published[1].vars["status"])
}

func TestMessagesNeedATask(t *testing.T) {
	engine := &fakeEngine{}
	s := newService(t, engine)

	_, err := s.ScheduleInterview(context.Background(), models.InterviewScheduleRequest{Subject: subject})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInterviewScheduleFailed, errors.CodeOf(err))
	assert.Equal(t, errors.CategoryData, errors.CategoryOf(err))
	assert.Empty(t, engine.published)
}
