// Package coordinator runs every tracked check through one control pattern:
// mark it pending, call the collaborator, classify the result, record it and
// arm a bounded automatic retry for transient failures.
package coordinator

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/common/metrics"
	"candidate-onboarding/internal/common/observability"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/internal/onboarding/retry"
	"candidate-onboarding/internal/onboarding/state"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMaxAttempts = 3

	triggerManual    = "manual"
	triggerAutomatic = "automatic"

	msgRunning = "Running"
	msgDone    = "Completed"
)

// DefaultBackoff is indexed by the attempt number of the failed attempt.
var DefaultBackoff = []time.Duration{30 * time.Second, 120 * time.Second, 600 * time.Second}

var (
	errAlreadyDone = stderrors.New("check already succeeded")
	errEmptyResult = stderrors.New("collaborator returned no result")
)

// Observer is told about every record change the coordinator makes.
type Observer func(registry.Record)

type invoke func(ctx context.Context) (models.Payload, error)

// attempt describes one tracked check invocation. prepare runs under the
// workflow lock before every attempt, automatic retries included, so gates
// and inputs are always read from the current state.
type attempt struct {
	key       models.CheckKey
	running   string
	done      func(p models.Payload) string
	prepare   func(s *state.CandidateWorkflowState) (invoke, error)
	apply     func(s *state.CandidateWorkflowState, p models.Payload, now time.Time)
	milestone func(p models.Payload) (string, map[string]interface{})
	then      func(ctx context.Context)

	// op and inputs are persisted with a failure so defaultAttempt can
	// rebuild the same action after a restore.
	op     string
	inputs map[string]string
}

type Coordinator struct {
	workflow  *state.Workflow
	scheduler *retry.Scheduler
	deps      Collaborators

	maxAttempts int
	tracer      trace.Tracer
	obs         *observability.Observability
	observer    Observer
	newIDs      func() (id, code string)
	log         logger.Logger

	mu         sync.Mutex
	lastAction map[models.CheckKey]attempt
}

type options struct {
	delays      []time.Duration
	maxAttempts int
	clock       retry.Clock
	tracer      trace.Tracer
	obs         *observability.Observability
	observer    Observer
	newIDs      func() (string, string)
}

type Option func(*options)

// WithBackoff sets the retry delay table and the automatic attempt cap.
func WithBackoff(delays []time.Duration, maxAttempts int) Option {
	return func(o *options) {
		if len(delays) > 0 {
			o.delays = delays
		}
		if maxAttempts > 0 {
			o.maxAttempts = maxAttempts
		}
	}
}

// WithClock drives retry timers, mostly for tests.
func WithClock(c retry.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *options) { o.obs = obs }
}

func WithObserver(fn Observer) Option {
	return func(o *options) { o.observer = fn }
}

// WithIDGenerator overrides how candidate ids and codes are minted.
func WithIDGenerator(fn func() (id, code string)) Option {
	return func(o *options) { o.newIDs = fn }
}

func New(w *state.Workflow, deps Collaborators, log logger.Logger, opts ...Option) *Coordinator {
	o := options{
		delays:      DefaultBackoff,
		maxAttempts: DefaultMaxAttempts,
		clock:       retry.RealClock{},
		obs:         observability.NewNoop(),
		newIDs:      newCandidateIDs,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer("candidate-onboarding/coordinator")
	}

	c := &Coordinator{
		workflow:    w,
		deps:        deps,
		maxAttempts: o.maxAttempts,
		tracer:      o.tracer,
		obs:         o.obs,
		observer:    o.observer,
		newIDs:      o.newIDs,
		log:         logger.Component(log, "coordinator"),
		lastAction:  make(map[models.CheckKey]attempt),
	}
	c.scheduler = retry.New(o.delays, o.clock, c.retryWanted, log)
	return c
}

func newCandidateIDs() (string, string) {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "CND" + raw[:8], "CND-" + raw[8:14]
}

// Workflow exposes the state the coordinator mutates.
func (c *Coordinator) Workflow() *state.Workflow {
	return c.workflow
}

// MaxAttempts is the automatic attempt cap per check.
func (c *Coordinator) MaxAttempts() int {
	return c.maxAttempts
}

// retryWanted is the scheduler guard: a retry fires only while the record
// still carries the generation it was armed for and is a SYSTEM failure.
func (c *Coordinator) retryWanted(key models.CheckKey, generation uint64) bool {
	wanted := false
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		if !s.HasCandidate() {
			return
		}
		rec := s.Registry.Get(key)
		wanted = rec.Generation == generation &&
			rec.Status == models.StatusFailed &&
			rec.FailureType == models.FailureSystem
	})
	return wanted
}

func (c *Coordinator) remember(a attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAction[a.key] = a
}

func (c *Coordinator) notify(rec registry.Record) {
	if c.observer != nil {
		c.observer(rec)
	}
}

// execute is the uniform run pattern shared by every tracked check. A
// superseded completion is dropped and the current record returned. The
// returned error is non-nil only for local problems (missing candidate,
// closed gate, bad input); collaborator failures are recorded, not returned.
func (c *Coordinator) execute(ctx context.Context, a attempt, trigger string) (registry.Record, error) {
	c.scheduler.Cancel(a.key)
	c.remember(a)

	var (
		rec  registry.Record
		call invoke
	)
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		rec = s.Registry.Get(a.key)
		if !s.HasCandidate() {
			return errors.NewCandidateMissingError()
		}
		var err error
		if call, err = a.prepare(s); err != nil {
			return err
		}

		now := c.workflow.Now()
		rec = s.Registry.Upsert(a.key, registry.Patch{
			Status:         registry.StatusPtr(models.StatusPending),
			FailureType:    registry.FailurePtr(models.FailureNone),
			Message:        registry.StringPtr(a.running),
			LastAttemptAt:  &now,
			AttemptCount:   registry.IntPtr(rec.AttemptCount + 1),
			Generation:     registry.Uint64Ptr(rec.Generation + 1),
			ClearNextRetry: true,
		})
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorSystem,
			Type:    string(a.key) + "_ATTEMPT",
			Outcome: ledger.OutcomeInfo,
			Details: map[string]interface{}{
				"candidateId": s.Candidate.ID,
				"attempt":     rec.AttemptCount,
				"trigger":     trigger,
			},
		})
		return nil
	})
	if stderrors.Is(err, errAlreadyDone) {
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	c.notify(rec)
	metrics.CheckAttempts.WithLabelValues(string(a.key), trigger).Inc()

	ctx, span := c.tracer.Start(ctx, "check "+string(a.key), trace.WithAttributes(
		attribute.String("check.key", string(a.key)),
		attribute.Int("check.attempt", rec.AttemptCount),
		attribute.String("check.trigger", trigger),
	))
	defer span.End()

	metrics.ChecksInFlight.WithLabelValues(string(a.key)).Inc()
	started := time.Now()
	payload, callErr := c.call(ctx, a.key, call)
	elapsed := time.Since(started)
	metrics.ChecksInFlight.WithLabelValues(string(a.key)).Dec()

	v := classify(a, payload, callErr)
	metrics.CheckDuration.WithLabelValues(string(a.key)).Observe(elapsed.Seconds())
	metrics.CheckOutcomes.WithLabelValues(string(a.key), string(v.status), string(v.failure)).Inc()
	c.obs.RecordCheck(ctx, string(a.key), string(v.status))
	c.obs.RecordCheckDuration(ctx, string(a.key), elapsed, string(v.status))
	span.SetAttributes(attribute.String("check.status", string(v.status)))
	if v.status == models.StatusFailed {
		span.SetStatus(codes.Error, v.message)
	}

	generation := rec.Generation
	stale := false
	err = c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() || s.Registry.Get(a.key).Generation != generation {
			stale = true
			rec = s.Registry.Get(a.key)
			return nil
		}
		rec = c.recordLocked(ctx, s, a, v)
		return nil
	})
	if stale {
		c.log.Debug("superseded check result dropped", map[string]interface{}{
			"check":      string(a.key),
			"generation": generation,
		})
		return rec, nil
	}
	if err != nil {
		return rec, err
	}
	c.notify(rec)

	if v.status != models.StatusFailed && a.then != nil {
		a.then(ctx)
	}
	return rec, nil
}

// call invokes the collaborator and turns a panic into a SYSTEM failure.
func (c *Coordinator) call(ctx context.Context, key models.CheckKey, fn invoke) (p models.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("collaborator panicked", map[string]interface{}{
				"check": string(key),
				"panic": fmt.Sprint(r),
			})
			p, err = nil, errors.FromPanic(r)
		}
	}()
	return fn(ctx)
}

type verdict struct {
	status  models.Status
	failure models.FailureType
	message string
	payload models.Payload
}

func classify(a attempt, p models.Payload, err error) verdict {
	if err != nil {
		se := errors.Normalize(err)
		ft := models.FailureData
		if errors.IsRetryable(err) {
			ft = models.FailureSystem
		}
		return verdict{
			status:  models.StatusFailed,
			failure: ft,
			message: se.Message,
			payload: &models.FailureDetail{
				FailureType: ft,
				Code:        string(se.Code),
				Message:     se.Message,
				Details:     se.Details,
				Operation:   a.op,
				Inputs:      a.inputs,
			},
		}
	}

	if lookup, ok := p.(*models.ProfileLookupResult); ok {
		if missing := lookup.MissingDocuments(); len(missing) > 0 {
			names := make([]string, 0, len(missing))
			for _, d := range missing {
				names = append(names, d.Type)
			}
			return verdict{
				status:  models.StatusPartial,
				message: "Missing documents: " + strings.Join(names, ", "),
				payload: p,
			}
		}
	}

	msg := msgDone
	if a.done != nil {
		msg = a.done(p)
	}
	return verdict{status: models.StatusSuccess, message: msg, payload: p}
}

// recordLocked writes the classification, appends the outcome events and
// arms the automatic retry. It runs under the workflow lock.
func (c *Coordinator) recordLocked(ctx context.Context, s *state.CandidateWorkflowState, a attempt, v verdict) registry.Record {
	now := c.workflow.Now()
	rec := s.Registry.Upsert(a.key, registry.Patch{
		Status:         registry.StatusPtr(v.status),
		FailureType:    registry.FailurePtr(v.failure),
		Message:        registry.StringPtr(v.message),
		Payload:        v.payload,
		ClearNextRetry: true,
	})

	details := models.PayloadDetails(v.payload)
	details["candidateId"] = s.Candidate.ID
	details["attempt"] = rec.AttemptCount

	if v.status == models.StatusFailed {
		if v.failure == models.FailureSystem && rec.AttemptCount < c.maxAttempts {
			if at, ok := c.scheduleLocked(ctx, s, rec, a); ok {
				details["nextRetryAt"] = at.Format(time.RFC3339)
			}
			rec = s.Registry.Get(a.key)
		}
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorSystem,
			Type:    string(a.key) + "_FAIL",
			Outcome: ledger.OutcomeFail,
			Details: details,
		})
		return rec
	}

	if a.apply != nil {
		a.apply(s, v.payload, now)
	}
	s.Candidate.UpdatedAt = now
	s.Ledger.Append(ledger.Event{
		Actor:   ledger.ActorSystem,
		Type:    string(a.key) + "_SUCCESS",
		Outcome: ledger.OutcomeSuccess,
		Details: details,
	})
	if a.milestone != nil {
		eventType, d := a.milestone(v.payload)
		if d == nil {
			d = map[string]interface{}{}
		}
		d["candidateId"] = s.Candidate.ID
		s.Ledger.Append(ledger.Event{
			Actor:   ledger.ActorOperator,
			Type:    eventType,
			Outcome: ledger.OutcomeSuccess,
			Details: d,
		})
	}
	return rec
}

func (c *Coordinator) scheduleLocked(ctx context.Context, s *state.CandidateWorkflowState, rec registry.Record, a attempt) (time.Time, bool) {
	retryCtx := context.WithoutCancel(ctx)
	return c.scheduler.Schedule(s.Registry, rec.Key, rec.AttemptCount, rec.Generation, func() {
		if _, err := c.execute(retryCtx, a, triggerAutomatic); err != nil {
			c.log.Warn("automatic retry not started", map[string]interface{}{
				"check": string(a.key),
				"error": err.Error(),
			})
		}
	})
}

// payloadOf adapts a typed collaborator result. A nil result without an
// error is reported as a SYSTEM failure.
func payloadOf[P models.Payload](p P, err error) (models.Payload, error) {
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(p)
	if !v.IsValid() || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return nil, errEmptyResult
	}
	return p, nil
}

// RetryCheck re-runs the last action recorded for key. Manual retries are
// not capped.
func (c *Coordinator) RetryCheck(ctx context.Context, key models.CheckKey) (registry.Record, error) {
	if !key.Valid() {
		return registry.Record{}, errors.NewValidationError("key", fmt.Sprintf("unknown check %q", key))
	}
	c.mu.Lock()
	a, ok := c.lastAction[key]
	c.mu.Unlock()
	if !ok {
		a = c.defaultAttempt(c.Record(key))
	}
	return c.execute(ctx, a, triggerManual)
}

// defaultAttempt rebuilds an action for rec from its persisted failure
// detail and the current state, used when no action was run in this process
// (e.g. after a restore).
func (c *Coordinator) defaultAttempt(rec registry.Record) attempt {
	var op string
	var in map[string]string
	if fd, ok := rec.Payload.(*models.FailureDetail); ok && fd != nil {
		op, in = fd.Operation, fd.Inputs
	}
	switch rec.Key {
	case models.CheckIdentityVerification:
		return c.identityAttempt()
	case models.CheckEligibility:
		return c.eligibilityAttempt()
	case models.CheckProfileLookup:
		return c.profileLookupAttempt()
	case models.CheckDocumentLookup:
		return c.documentLookupAttempt()
	case models.CheckReadinessLinkDelivery:
		return c.deliveryAttempt()
	case models.CheckCounterpartMapping:
		return c.counterpartAttempt(true)
	case models.CheckInterviewTask:
		return c.interviewAttempt(op, in)
	case models.CheckCounterpartNotification:
		return c.notifyAttempt()
	case models.CheckProfilePrefill:
		return c.prefillAttempt(models.PrefillSourceProfile)
	case models.CheckDocumentPrefill:
		return c.prefillAttempt(models.PrefillSourceDocument)
	default:
		return c.shareAttempt(in["channel"])
	}
}

// Resume re-arms automatic retries for records restored with a pending
// nextRetryAt. Records that no longer qualify have nextRetryAt cleared.
func (c *Coordinator) Resume(ctx context.Context) (int, error) {
	armed := 0
	err := c.workflow.Update(ctx, func(s *state.CandidateWorkflowState) error {
		if !s.HasCandidate() {
			return nil
		}
		for _, rec := range s.Registry.All() {
			if !rec.RetryPending() {
				continue
			}
			if rec.Status != models.StatusFailed || rec.FailureType != models.FailureSystem || rec.AttemptCount >= c.maxAttempts {
				s.Registry.Upsert(rec.Key, registry.Patch{ClearNextRetry: true})
				continue
			}
			if _, ok := c.scheduleLocked(ctx, s, rec, c.defaultAttempt(rec)); ok {
				armed++
			}
		}
		return nil
	})
	if armed > 0 {
		c.log.Info("automatic retries resumed", map[string]interface{}{"count": armed})
	}
	return armed, err
}

// Reset cancels pending retries and discards the candidate.
func (c *Coordinator) Reset(ctx context.Context) {
	c.scheduler.Reset()
	c.mu.Lock()
	c.lastAction = make(map[models.CheckKey]attempt)
	c.mu.Unlock()
	c.workflow.Reset(ctx)
	c.log.Info("workflow reset", nil)
}

// Shutdown stops every pending retry timer.
func (c *Coordinator) Shutdown() {
	c.scheduler.Stop()
}

// RetryPending reports whether an automatic retry timer is armed for key.
func (c *Coordinator) RetryPending(key models.CheckKey) bool {
	return c.scheduler.Pending(key)
}

// Records returns every check record in display order.
func (c *Coordinator) Records() []registry.Record {
	var out []registry.Record
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		out = s.Registry.All()
	})
	return out
}

// Record returns the record for key.
func (c *Coordinator) Record(key models.CheckKey) registry.Record {
	var rec registry.Record
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		rec = s.Registry.Get(key)
	})
	return rec
}

// Events returns a copy of the ledger.
func (c *Coordinator) Events() []ledger.Event {
	var out []ledger.Event
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		out = s.Ledger.Events()
	})
	return out
}

// Candidate returns a copy of the current candidate, or nil.
func (c *Coordinator) Candidate() *models.Candidate {
	var out *models.Candidate
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		out = s.Candidate.Clone()
	})
	return out
}

func (c *Coordinator) subject() (models.Subject, error) {
	var (
		subj models.Subject
		ok   bool
	)
	c.workflow.View(func(s *state.CandidateWorkflowState) {
		if s.HasCandidate() {
			subj, ok = models.SubjectOf(s.Candidate), true
		}
	})
	if !ok {
		return subj, errors.NewCandidateMissingError()
	}
	return subj, nil
}

// withSubject prepares a call that only needs the candidate's identity.
func withSubject(fn func(ctx context.Context, subject models.Subject) (models.Payload, error)) func(*state.CandidateWorkflowState) (invoke, error) {
	return func(s *state.CandidateWorkflowState) (invoke, error) {
		subject := models.SubjectOf(s.Candidate)
		return func(ctx context.Context) (models.Payload, error) { return fn(ctx, subject) }, nil
	}
}

func fixed(msg string) func(models.Payload) string {
	return func(models.Payload) string { return msg }
}

func parseTime(v string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC()
	}
	return fallback
}
