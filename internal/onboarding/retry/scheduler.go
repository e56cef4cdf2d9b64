// Package retry arms bounded, non-recurring automatic retries for failed checks.
package retry

import (
	"sync"
	"time"

	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/common/metrics"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/registry"
)

// Clock abstracts time so timers can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

// RealClock uses the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Records is the registry view Schedule writes nextRetryAt through. Callers
// pass the registry while holding the workflow lock.
type Records interface {
	Upsert(models.CheckKey, registry.Patch) registry.Record
}

// Guard reports, at fire time, whether the retry armed for generation is
// still wanted. It must take whatever lock protects the registry.
type Guard func(key models.CheckKey, generation uint64) bool

type pending struct {
	timer      Timer
	generation uint64
}

// Scheduler holds at most one pending timer per check key.
type Scheduler struct {
	delays []time.Duration
	clock  Clock
	guard  Guard
	log    logger.Logger

	mu      sync.Mutex
	pending map[models.CheckKey]pending
	stopped bool
}

func New(delays []time.Duration, clock Clock, guard Guard, log logger.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	table := make([]time.Duration, len(delays))
	copy(table, delays)
	return &Scheduler{
		delays:  table,
		clock:   clock,
		guard:   guard,
		log:     logger.Component(log, "retry-scheduler"),
		pending: make(map[models.CheckKey]pending),
	}
}

// Delay returns the backoff for the given 1-based attempt number.
func (s *Scheduler) Delay(attempt int) (time.Duration, bool) {
	if attempt < 1 || attempt > len(s.delays) {
		return 0, false
	}
	return s.delays[attempt-1], true
}

// Schedule writes nextRetryAt for key and arms one deferred call to action.
// attempt is the attemptCount of the failed attempt. Beyond the backoff table
// nothing is armed and false is returned; the failure stays terminal until a
// manual retry. A timer already pending for key is replaced.
func (s *Scheduler) Schedule(recs Records, key models.CheckKey, attempt int, generation uint64, action func()) (time.Time, bool) {
	delay, ok := s.Delay(attempt)
	if !ok {
		recs.Upsert(key, registry.Patch{ClearNextRetry: true})
		return time.Time{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return time.Time{}, false
	}

	at := s.clock.Now().Add(delay)
	recs.Upsert(key, registry.Patch{NextRetryAt: &at})

	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}
	timer := s.clock.AfterFunc(delay, func() { s.fire(key, generation, action) })
	s.pending[key] = pending{timer: timer, generation: generation}

	metrics.RetriesScheduled.WithLabelValues(string(key)).Inc()
	s.log.Info("automatic retry scheduled", map[string]interface{}{
		"check":      string(key),
		"attempt":    attempt,
		"generation": generation,
		"delay":      delay.String(),
	})
	return at, true
}

func (s *Scheduler) fire(key models.CheckKey, generation uint64, action func()) {
	s.mu.Lock()
	if p, ok := s.pending[key]; ok && p.generation == generation {
		delete(s.pending, key)
	}
	stopped := s.stopped
	s.mu.Unlock()

	if stopped {
		return
	}
	if s.guard != nil && !s.guard(key, generation) {
		metrics.RetriesSkipped.WithLabelValues(string(key)).Inc()
		s.log.Debug("stale automatic retry skipped", map[string]interface{}{
			"check":      string(key),
			"generation": generation,
		})
		return
	}
	action()
}

// Cancel stops the pending timer for key, if any.
func (s *Scheduler) Cancel(key models.CheckKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, key)
	return true
}

// Pending reports whether a timer is armed for key.
func (s *Scheduler) Pending(key models.CheckKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Stop cancels every pending timer and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
	s.stopped = true
}

// Reset cancels every pending timer but keeps accepting new ones.
func (s *Scheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
}
