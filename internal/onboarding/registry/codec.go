package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"candidate-onboarding/internal/models"
)

type recordAlias Record

type recordJSON struct {
	recordAlias
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON writes the payload in its tagged envelope.
func (r Record) MarshalJSON() ([]byte, error) {
	payload, err := models.EncodePayload(r.Payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(recordJSON{recordAlias: recordAlias(r), Payload: payload})
}

// UnmarshalJSON rejects payloads of unknown kind.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	payload, err := models.DecodePayload(raw.Payload)
	if err != nil {
		return fmt.Errorf("record %s: %w", raw.Key, err)
	}
	*r = Record(raw.recordAlias)
	r.Payload = payload
	return nil
}
