// Package registry keeps one status record per tracked check.
package registry

import (
	"time"

	"candidate-onboarding/internal/models"
)

// Record is the current status of one check.
type Record struct {
	Key           models.CheckKey    `json:"key"`
	Status        models.Status      `json:"status"`
	FailureType   models.FailureType `json:"failureType,omitempty"`
	Message       string             `json:"message"`
	Payload       models.Payload     `json:"-"`
	LastAttemptAt *time.Time         `json:"lastAttemptAt,omitempty"`
	NextRetryAt   *time.Time         `json:"nextRetryAt,omitempty"`
	AttemptCount  int                `json:"attemptCount"`
	Generation    uint64             `json:"generation"`
}

// RetryPending reports whether an automatic retry is armed for the record.
func (r Record) RetryPending() bool {
	return r.NextRetryAt != nil
}

// Patch is a partial update. Nil pointers leave the field untouched; the
// Clear flags reset optional fields explicitly.
type Patch struct {
	Status        *models.Status
	FailureType   *models.FailureType
	Message       *string
	Payload       models.Payload
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time
	AttemptCount  *int
	Generation    *uint64

	ClearNextRetry bool
	ClearPayload   bool
}

// Registry is a keyed record store. It is not safe for concurrent use; the
// owning workflow serializes access.
type Registry struct {
	records map[models.CheckKey]Record
}

func New() *Registry {
	return &Registry{records: make(map[models.CheckKey]Record)}
}

// Restore builds a registry from previously persisted records.
func Restore(records []Record) *Registry {
	r := New()
	for _, rec := range records {
		r.records[rec.Key] = rec
	}
	return r
}

// Get returns the record for key, or a NOT_STARTED default when absent.
func (r *Registry) Get(key models.CheckKey) Record {
	if rec, ok := r.records[key]; ok {
		return rec
	}
	return Record{Key: key, Status: models.StatusNotStarted}
}

// Exists reports whether key has ever been written.
func (r *Registry) Exists(key models.CheckKey) bool {
	_, ok := r.records[key]
	return ok
}

// Upsert shallow-merges p into the record for key and returns the result.
func (r *Registry) Upsert(key models.CheckKey, p Patch) Record {
	rec := r.Get(key)
	rec.Key = key

	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.FailureType != nil {
		rec.FailureType = *p.FailureType
	}
	if p.Message != nil {
		rec.Message = *p.Message
	}
	if p.ClearPayload {
		rec.Payload = nil
	}
	if p.Payload != nil {
		rec.Payload = p.Payload
	}
	if p.LastAttemptAt != nil {
		t := *p.LastAttemptAt
		rec.LastAttemptAt = &t
	}
	if p.ClearNextRetry {
		rec.NextRetryAt = nil
	}
	if p.NextRetryAt != nil {
		t := *p.NextRetryAt
		rec.NextRetryAt = &t
	}
	if p.AttemptCount != nil {
		rec.AttemptCount = *p.AttemptCount
	}
	if p.Generation != nil {
		rec.Generation = *p.Generation
	}

	r.records[key] = rec
	return rec
}

// Initialize resets key to PENDING with no attempts, used when a whole
// verification run begins. The generation keeps increasing so timers armed
// before the reset can never match again.
func (r *Registry) Initialize(key models.CheckKey, now time.Time) Record {
	prev := r.Get(key)
	t := now
	rec := Record{
		Key:           key,
		Status:        models.StatusPending,
		LastAttemptAt: &t,
		Generation:    prev.Generation + 1,
	}
	r.records[key] = rec
	return rec
}

// All returns every known record in check display order.
func (r *Registry) All() []Record {
	out := make([]Record, 0, len(r.records))
	for _, key := range models.AllChecks {
		if rec, ok := r.records[key]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// StatusPtr and friends build Patch fields inline.
func StatusPtr(s models.Status) *models.Status { return &s }

func FailurePtr(f models.FailureType) *models.FailureType { return &f }

func StringPtr(s string) *string { return &s }

func IntPtr(i int) *int { return &i }

func TimePtr(t time.Time) *time.Time { return &t }

func Uint64Ptr(v uint64) *uint64 { return &v }
