package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/registry"
)

// CurrentSchemaVersion is written into every snapshot.
//
//	1: initial shape, records without a generation
//	2: records carry a generation token
const CurrentSchemaVersion = 2

// Snapshot is the persisted form of a workflow.
type Snapshot struct {
	SchemaVersion int               `json:"schemaVersion"`
	SavedAt       time.Time         `json:"savedAt"`
	Operator      models.Operator   `json:"operator"`
	Candidate     *models.Candidate `json:"candidate"`
	Readiness     models.Readiness  `json:"readiness"`
	Integrations  []registry.Record `json:"integrations"`
	History       []ledger.Event    `json:"history"`
}

func snapshotOf(s *CandidateWorkflowState, now time.Time) *Snapshot {
	return &Snapshot{
		SchemaVersion: CurrentSchemaVersion,
		SavedAt:       now,
		Operator:      s.Operator,
		Candidate:     s.Candidate,
		Readiness:     s.Readiness,
		Integrations:  s.Registry.All(),
		History:       s.Ledger.Events(),
	}
}

func (snap *Snapshot) toState(sink ledger.Sink, now func() time.Time) *CandidateWorkflowState {
	readiness := snap.Readiness
	if readiness.IncomePlan.EarnPeriod == "" {
		readiness.IncomePlan.EarnPeriod = models.PeriodMonthly
	}
	return &CandidateWorkflowState{
		Operator:  snap.Operator,
		Candidate: snap.Candidate,
		Readiness: readiness,
		Registry:  registry.Restore(snap.Integrations),
		Ledger:    ledger.New(snap.History).WithSink(sink).WithClock(now),
	}
}

// Encode serializes snap at the current schema version.
func Encode(snap *Snapshot) ([]byte, error) {
	snap.SchemaVersion = CurrentSchemaVersion
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode migrates raw to the current schema and decodes it strictly.
func Decode(raw []byte) (*Snapshot, error) {
	migrated, err := Migrate(raw)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(migrated))
	dec.DisallowUnknownFields()
	var snap Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, errors.NewSnapshotIncompatibleError(err.Error())
	}
	return &snap, nil
}

type migration func(doc map[string]interface{}) error

// migrations[v] upgrades a version v document to v+1.
var migrations = map[int]migration{
	1: migrateV1,
}

// Migrate upgrades raw step by step to CurrentSchemaVersion. Unversioned
// snapshots and snapshots from a newer build are rejected.
func Migrate(raw []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewSnapshotIncompatibleError(fmt.Sprintf("not a JSON object: %v", err))
	}

	version, ok := doc["schemaVersion"].(float64)
	if !ok {
		return nil, errors.NewSnapshotIncompatibleError("missing schemaVersion")
	}
	v := int(version)
	if v < 1 || float64(v) != version {
		return nil, errors.NewSnapshotIncompatibleError(fmt.Sprintf("invalid schemaVersion %v", version))
	}
	if v > CurrentSchemaVersion {
		return nil, errors.NewSnapshotIncompatibleError(
			fmt.Sprintf("schemaVersion %d is newer than supported %d", v, CurrentSchemaVersion))
	}
	if v == CurrentSchemaVersion {
		return raw, nil
	}

	for ; v < CurrentSchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, errors.NewSnapshotIncompatibleError(fmt.Sprintf("no migration from schemaVersion %d", v))
		}
		if err := step(doc); err != nil {
			return nil, errors.NewSnapshotIncompatibleError(fmt.Sprintf("migrating from %d: %v", v, err))
		}
		doc["schemaVersion"] = v + 1
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode migrated snapshot: %w", err)
	}
	return out, nil
}

// migrateV1 seeds each record's generation from its attempt count.
func migrateV1(doc map[string]interface{}) error {
	raw, ok := doc["integrations"]
	if !ok || raw == nil {
		return nil
	}
	records, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("integrations is %T, want array", raw)
	}
	for i, r := range records {
		rec, ok := r.(map[string]interface{})
		if !ok {
			return fmt.Errorf("integrations[%d] is %T, want object", i, r)
		}
		if _, has := rec["generation"]; has {
			continue
		}
		attempts, _ := rec["attemptCount"].(float64)
		rec["generation"] = attempts
	}
	return nil
}
