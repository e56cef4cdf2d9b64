package simulated

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"candidate-onboarding/internal/common/errors"
)

// Failure-mode flags.
const (
	FlagIdentityFail           = "IDENTITY_FAIL"
	FlagEligibilityFail        = "ELIGIBILITY_FAIL"
	FlagProfilePartial         = "PROFILE_PARTIAL"
	FlagProfileFail            = "PROFILE_FAIL"
	FlagDocumentFail           = "DOCUMENT_FAIL"
	FlagReadinessDeliveryFail  = "READINESS_DELIVERY_FAIL"
	FlagReadinessCompleted     = "READINESS_COMPLETED"
	FlagCounterpartMapFail     = "COUNTERPART_MAP_FAIL"
	FlagInterviewCreateFail    = "INTERVIEW_CREATE_FAIL"
	FlagNotifyCounterpartFail  = "NOTIFY_COUNTERPART_FAIL"
	FlagInterviewScheduleFail  = "INTERVIEW_SCHEDULE_FAIL"
	FlagInterviewStatusFail    = "INTERVIEW_STATUS_FAIL"
	FlagOutcomeRecordFail      = "OUTCOME_RECORD_FAIL"
	FlagOutcomeResultFail      = "OUTCOME_RESULT_FAIL"
	FlagProfilePrefillFail     = "PROFILE_PREFILL_FAIL"
	FlagProfilePrefillPartial  = "PROFILE_PREFILL_PARTIAL"
	FlagDocumentPrefillFail    = "DOCUMENT_PREFILL_FAIL"
	FlagDocumentPrefillPartial = "DOCUMENT_PREFILL_PARTIAL"
	FlagFormShareFail          = "FORM_SHARE_FAIL"
)

// DefaultFlags returns the demo defaults: partial registry data and a
// completed readiness assessment.
func DefaultFlags() map[string]bool {
	return map[string]bool{
		FlagIdentityFail:           false,
		FlagEligibilityFail:        false,
		FlagProfilePartial:         true,
		FlagProfileFail:            false,
		FlagDocumentFail:           false,
		FlagReadinessDeliveryFail:  false,
		FlagReadinessCompleted:     true,
		FlagCounterpartMapFail:     false,
		FlagInterviewCreateFail:    false,
		FlagNotifyCounterpartFail:  false,
		FlagInterviewScheduleFail:  false,
		FlagInterviewStatusFail:    false,
		FlagOutcomeRecordFail:      false,
		FlagOutcomeResultFail:      false,
		FlagProfilePrefillFail:     false,
		FlagProfilePrefillPartial:  true,
		FlagDocumentPrefillFail:    false,
		FlagDocumentPrefillPartial: true,
		FlagFormShareFail:          false,
	}
}

// Flags is a concurrency-safe set of failure-mode switches.
type Flags struct {
	mu sync.RWMutex
	m  map[string]bool
}

// NewFlags starts from DefaultFlags and applies overrides. Unknown names
// are rejected.
func NewFlags(overrides map[string]bool) (*Flags, error) {
	f := &Flags{m: DefaultFlags()}
	if err := f.Set(overrides); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Flags) Enabled(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.m[name]
}

// Set applies every change or none of them. Names are case-insensitive.
func (f *Flags) Set(changes map[string]bool) error {
	normalized := make(map[string]bool, len(changes))
	var unknown []string
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, v := range changes {
		key := strings.ToUpper(strings.TrimSpace(name))
		if _, ok := f.m[key]; !ok {
			unknown = append(unknown, name)
			continue
		}
		normalized[key] = v
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errors.NewValidationError("flags", fmt.Sprintf("unknown simulation flags: %s", strings.Join(unknown, ", ")))
	}
	for k, v := range normalized {
		f.m[k] = v
	}
	return nil
}

// All returns a copy of the current flags.
func (f *Flags) All() map[string]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]bool, len(f.m))
	for k, v := range f.m {
		out[k] = v
	}
	return out
}
