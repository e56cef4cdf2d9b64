// internal/models/payload.go
package models

import (
	"encoding/json"
	"fmt"
)

// PayloadKind tags the concrete type of a check result.
type PayloadKind string

const (
	KindIdentity          PayloadKind = "identity"
	KindEligibility       PayloadKind = "eligibility"
	KindProfileLookup     PayloadKind = "profile_lookup"
	KindDocumentLookup    PayloadKind = "document_lookup"
	KindReadinessDelivery PayloadKind = "readiness_delivery"
	KindCounterpart       PayloadKind = "counterpart"
	KindInterviewTask     PayloadKind = "interview_task"
	KindInterviewSchedule PayloadKind = "interview_schedule"
	KindInterviewStatus   PayloadKind = "interview_status"
	KindInterviewOutcome  PayloadKind = "interview_outcome"
	KindNotification      PayloadKind = "notification"
	KindProfilePrefill    PayloadKind = "profile_prefill"
	KindDocumentPrefill   PayloadKind = "document_prefill"
	KindFormShare         PayloadKind = "form_share"
	KindFailure           PayloadKind = "failure"
)

// Payload is the result of the last completed attempt of a check.
type Payload interface {
	PayloadKind() PayloadKind
}

// Document is one entry of a document checklist.
type Document struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Available bool   `json:"available"`
	Link      string `json:"link,omitempty"`
}

type IdentityResult struct {
	PAN       string `json:"pan"`
	Valid     bool   `json:"panValid"`
	NameOnPAN string `json:"nameOnPan"`
	DOB       string `json:"dob"`
}

type EligibilityFlags struct {
	OtherInsurerAssociation bool `json:"otherInsurerAssociation"`
	Blacklisted             bool `json:"blacklisted"`
}

type EligibilityResult struct {
	Eligible bool             `json:"eligible"`
	Flags    EligibilityFlags `json:"flags"`
	Remarks  string           `json:"remarks"`
}

type ProfileSummary struct {
	FullName string `json:"fullName"`
	Gender   string `json:"gender"`
	DOB      string `json:"dob"`
}

type ProfileLookupResult struct {
	Found     bool           `json:"ckycFound"`
	Profile   ProfileSummary `json:"profile"`
	Address   Address        `json:"address"`
	Documents []Document     `json:"documents"`
}

// MissingDocuments returns the mandated documents reported unavailable.
func (r *ProfileLookupResult) MissingDocuments() []Document {
	var out []Document
	for _, d := range r.Documents {
		if !d.Available {
			out = append(out, d)
		}
	}
	return out
}

type DocumentLookupResult struct {
	Available bool       `json:"available"`
	Documents []Document `json:"documents"`
}

type ReadinessDelivery struct {
	Delivered bool     `json:"delivered"`
	Channels  []string `json:"channels,omitempty"`
}

// ReadinessStatus is the answer of a readiness-link status query. It is not a tracked check.
type ReadinessStatus struct {
	Delivered bool `json:"delivered"`
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
}

type CounterpartMapping struct {
	ID     string `json:"bhId"`
	Name   string `json:"bhName"`
	Branch string `json:"branch"`
	Email  string `json:"email,omitempty"`
}

type InterviewTaskResult struct {
	TaskID        string `json:"taskId"`
	Status        string `json:"status"`
	InterviewDate string `json:"interviewDate"`
	Notes         string `json:"notes"`
}

type InterviewScheduleResult struct {
	InterviewID  string `json:"interviewId"`
	ScheduledFor string `json:"scheduledFor"`
	Slot         string `json:"slot"`
	Mode         string `json:"mode"`
	Notes        string `json:"notes"`
	Status       string `json:"status"`
}

type InterviewStatusResult struct {
	Status    InterviewStatus `json:"status"`
	UpdatedAt string          `json:"updatedAt"`
}

type InterviewOutcomeResult struct {
	Outcome    Outcome `json:"outcome"`
	ReasonCode string  `json:"reasonCode"`
	ReasonText string  `json:"reasonText"`
	Notes      string  `json:"notes"`
	ReceivedAt string  `json:"receivedAt"`
}

type NotificationResult struct {
	Notified  bool   `json:"notified"`
	MessageID string `json:"messageId,omitempty"`
}

type ProfilePrefill struct {
	AutoFilled       int             `json:"autoFilled"`
	PendingMandatory int             `json:"pendingMandatory"`
	Docs             []Document      `json:"docs"`
	Personal         PersonalDetails `json:"personal"`
	Address          Address         `json:"address"`
}

type DocumentPrefill struct {
	AutoFilled       int              `json:"autoFilled"`
	PendingMandatory int              `json:"pendingMandatory"`
	Docs             []Document       `json:"docs"`
	Education        EducationDetails `json:"education"`
	Bank             BankDetails      `json:"bank"`
}

type FormShareResult struct {
	Shared   bool   `json:"shared"`
	Channel  string `json:"channel"`
	SharedAt string `json:"sharedAt"`
}

// FailureDetail is stored as the payload of a failed attempt. Operation and
// Inputs identify the action that failed so it can be rebuilt after a restore.
type FailureDetail struct {
	FailureType FailureType       `json:"failureType"`
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Details     string            `json:"details,omitempty"`
	Operation   string            `json:"operation,omitempty"`
	Inputs      map[string]string `json:"inputs,omitempty"`
}

func (*IdentityResult) PayloadKind() PayloadKind          { return KindIdentity }
func (*EligibilityResult) PayloadKind() PayloadKind       { return KindEligibility }
func (*ProfileLookupResult) PayloadKind() PayloadKind     { return KindProfileLookup }
func (*DocumentLookupResult) PayloadKind() PayloadKind    { return KindDocumentLookup }
func (*ReadinessDelivery) PayloadKind() PayloadKind       { return KindReadinessDelivery }
func (*CounterpartMapping) PayloadKind() PayloadKind      { return KindCounterpart }
func (*InterviewTaskResult) PayloadKind() PayloadKind     { return KindInterviewTask }
func (*InterviewScheduleResult) PayloadKind() PayloadKind { return KindInterviewSchedule }
func (*InterviewStatusResult) PayloadKind() PayloadKind   { return KindInterviewStatus }
func (*InterviewOutcomeResult) PayloadKind() PayloadKind  { return KindInterviewOutcome }
func (*NotificationResult) PayloadKind() PayloadKind      { return KindNotification }
func (*ProfilePrefill) PayloadKind() PayloadKind          { return KindProfilePrefill }
func (*DocumentPrefill) PayloadKind() PayloadKind         { return KindDocumentPrefill }
func (*FormShareResult) PayloadKind() PayloadKind         { return KindFormShare }
func (*FailureDetail) PayloadKind() PayloadKind           { return KindFailure }

var payloadFactories = map[PayloadKind]func() Payload{
	KindIdentity:          func() Payload { return &IdentityResult{} },
	KindEligibility:       func() Payload { return &EligibilityResult{} },
	KindProfileLookup:     func() Payload { return &ProfileLookupResult{} },
	KindDocumentLookup:    func() Payload { return &DocumentLookupResult{} },
	KindReadinessDelivery: func() Payload { return &ReadinessDelivery{} },
	KindCounterpart:       func() Payload { return &CounterpartMapping{} },
	KindInterviewTask:     func() Payload { return &InterviewTaskResult{} },
	KindInterviewSchedule: func() Payload { return &InterviewScheduleResult{} },
	KindInterviewStatus:   func() Payload { return &InterviewStatusResult{} },
	KindInterviewOutcome:  func() Payload { return &InterviewOutcomeResult{} },
	KindNotification:      func() Payload { return &NotificationResult{} },
	KindProfilePrefill:    func() Payload { return &ProfilePrefill{} },
	KindDocumentPrefill:   func() Payload { return &DocumentPrefill{} },
	KindFormShare:         func() Payload { return &FormShareResult{} },
	KindFailure:           func() Payload { return &FailureDetail{} },
}

type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodePayload wraps p in its kind envelope. A nil payload encodes as JSON null.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.PayloadKind(), err)
	}
	return json.Marshal(payloadEnvelope{Kind: p.PayloadKind(), Data: data})
}

// DecodePayload reverses EncodePayload and rejects unknown kinds.
func DecodePayload(raw []byte) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var env payloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	factory, ok := payloadFactories[env.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown payload kind %q", env.Kind)
	}
	p := factory()
	if err := json.Unmarshal(env.Data, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}
	return p, nil
}

// PayloadDetails flattens p into the map stored on ledger events.
func PayloadDetails(p Payload) map[string]interface{} {
	if p == nil {
		return map[string]interface{}{}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return map[string]interface{}{"kind": string(p.PayloadKind())}
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{"kind": string(p.PayloadKind())}
	}
	out["kind"] = string(p.PayloadKind())
	return out
}
