// Package state owns the aggregated workflow state of the active candidate and
// serializes every mutation through a single lock.
package state

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/common/metrics"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
)

// CandidateWorkflowState aggregates everything the coordinator and the
// stage gate read. Access it only inside Workflow.Update or Workflow.View.
type CandidateWorkflowState struct {
	Operator  models.Operator
	Candidate *models.Candidate
	Readiness models.Readiness
	Registry  *registry.Registry
	Ledger    *ledger.Ledger
}

// HasCandidate reports whether a lead has been captured.
func (s *CandidateWorkflowState) HasCandidate() bool {
	return s.Candidate != nil
}

func newState(op models.Operator, sink ledger.Sink, now func() time.Time) *CandidateWorkflowState {
	return &CandidateWorkflowState{
		Operator:  op,
		Readiness: models.NewReadiness(),
		Registry:  registry.New(),
		Ledger:    ledger.New(nil).WithSink(sink).WithClock(now),
	}
}

// Workflow is the single serialization point for one logical workflow.
type Workflow struct {
	mu    sync.Mutex
	state *CandidateWorkflowState

	operator models.Operator
	store    Store
	sink     ledger.Sink
	now      func() time.Time
	log      logger.Logger
}

type Option func(*Workflow)

// WithStore persists a snapshot after every mutation.
func WithStore(s Store) Option {
	return func(w *Workflow) { w.store = s }
}

// WithLedgerSink mirrors appended events.
func WithLedgerSink(s ledger.Sink) Option {
	return func(w *Workflow) { w.sink = s }
}

// WithClock overrides the time source for ledger timestamps and snapshots.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

func NewWorkflow(op models.Operator, log logger.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		operator: op,
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.Component(log, "workflow"),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.state = newState(op, w.sink, w.now)
	return w
}

// Update runs fn under the workflow lock and persists the result. A non-nil
// error from fn is returned as is; the state fn already mutated is kept.
func (w *Workflow) Update(ctx context.Context, fn func(*CandidateWorkflowState) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := w.state.Ledger.Len()
	err := fn(w.state)
	w.countEvents(before)
	w.persistLocked(ctx)
	return err
}

// View runs fn under the workflow lock without persisting.
func (w *Workflow) View(fn func(*CandidateWorkflowState)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fn(w.state)
}

func (w *Workflow) countEvents(before int) {
	for _, e := range w.state.Ledger.Since(before) {
		metrics.LedgerEvents.WithLabelValues(string(e.Outcome)).Inc()
	}
}

// Now returns the workflow clock's current time.
func (w *Workflow) Now() time.Time {
	return w.now()
}

// Reset discards the current candidate and starts from an empty state.
func (w *Workflow) Reset(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = newState(w.operator, w.sink, w.now)
	w.persistLocked(ctx)
}

// Snapshot captures the current state in its persisted shape.
func (w *Workflow) Snapshot() *Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return snapshotOf(w.state, w.now())
}

// Restore loads the stored snapshot, if any, replacing the in-memory state.
// It reports whether a snapshot was found.
func (w *Workflow) Restore(ctx context.Context) (bool, error) {
	if w.store == nil {
		return false, nil
	}
	raw, err := w.store.Load(ctx)
	if err != nil {
		if stderrors.Is(err, ErrNoSnapshot) {
			return false, nil
		}
		return false, err
	}
	snap, err := Decode(raw)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = snap.toState(w.sink, w.now)
	w.log.Info("workflow restored from snapshot", map[string]interface{}{
		"schema_version": snap.SchemaVersion,
		"records":        len(snap.Integrations),
		"events":         len(snap.History),
	})
	return true, nil
}

func (w *Workflow) persistLocked(ctx context.Context) {
	if w.store == nil {
		return
	}
	data, err := Encode(snapshotOf(w.state, w.now()))
	if err != nil {
		w.log.Error("failed to encode snapshot", map[string]interface{}{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.store.Save(ctx, data); err != nil {
		w.log.Error("failed to persist snapshot", map[string]interface{}{"error": err.Error()})
	}
}
