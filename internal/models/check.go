// internal/models/check.go
package models

// CheckKey identifies one external verification, notification or share operation.
type CheckKey string

const (
	CheckIdentityVerification    CheckKey = "IDENTITY_VERIFICATION"
	CheckEligibility             CheckKey = "ELIGIBILITY_CHECK"
	CheckProfileLookup           CheckKey = "PROFILE_LOOKUP"
	CheckDocumentLookup          CheckKey = "DOCUMENT_LOOKUP"
	CheckReadinessLinkDelivery   CheckKey = "READINESS_LINK_DELIVERY"
	CheckCounterpartMapping      CheckKey = "COUNTERPART_MAPPING"
	CheckInterviewTask           CheckKey = "INTERVIEW_TASK"
	CheckCounterpartNotification CheckKey = "COUNTERPART_NOTIFICATION"
	CheckProfilePrefill          CheckKey = "PROFILE_PREFILL"
	CheckDocumentPrefill         CheckKey = "DOCUMENT_PREFILL"
	CheckFormShare               CheckKey = "FORM_SHARE"
)

// AllChecks lists every tracked check in display order.
var AllChecks = []CheckKey{
	CheckIdentityVerification,
	CheckEligibility,
	CheckProfileLookup,
	CheckDocumentLookup,
	CheckReadinessLinkDelivery,
	CheckCounterpartMapping,
	CheckInterviewTask,
	CheckCounterpartNotification,
	CheckProfilePrefill,
	CheckDocumentPrefill,
	CheckFormShare,
}

// ProfileBuildChecks run concurrently when the profile build starts.
var ProfileBuildChecks = []CheckKey{
	CheckIdentityVerification,
	CheckEligibility,
	CheckProfileLookup,
	CheckDocumentLookup,
}

// Valid reports whether k is a known check key.
func (k CheckKey) Valid() bool {
	for _, c := range AllChecks {
		if c == k {
			return true
		}
	}
	return false
}

// Stage returns the workflow stage the check belongs to. Guidance is keyed by it.
func (k CheckKey) Stage() string {
	switch k {
	case CheckIdentityVerification, CheckEligibility, CheckProfileLookup, CheckDocumentLookup:
		return StageProfile
	case CheckReadinessLinkDelivery:
		return StageReadiness
	case CheckCounterpartMapping, CheckInterviewTask, CheckCounterpartNotification:
		return StageInterview
	default:
		return StageOnboarding
	}
}

// Guidance stage keys.
const (
	StageLead       = "lead"
	StageProfile    = "profile"
	StageReadiness  = "readiness"
	StageInterview  = "interview"
	StageOnboarding = "onboarding"
)

// Status is the lifecycle state of a check record.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusPending    Status = "PENDING"
	StatusSuccess    Status = "SUCCESS"
	StatusPartial    Status = "PARTIAL"
	StatusFailed     Status = "FAILED"
)

// FailureType is meaningful only when Status is FAILED.
type FailureType string

const (
	FailureNone   FailureType = ""
	FailureSystem FailureType = "SYSTEM"
	FailureData   FailureType = "DATA"
)
