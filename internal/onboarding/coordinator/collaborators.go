package coordinator

import (
	"context"

	"candidate-onboarding/internal/models"
)

// Collaborators return a result on success. Failures are reported as
// *errors.StandardError: retryable ones are SYSTEM failures, the rest DATA
// failures. Any other error is treated as a SYSTEM failure.

type Verifier interface {
	VerifyIdentity(ctx context.Context, subject models.Subject) (*models.IdentityResult, error)
	CheckEligibility(ctx context.Context, subject models.Subject) (*models.EligibilityResult, error)
	LookupProfile(ctx context.Context, subject models.Subject) (*models.ProfileLookupResult, error)
	LookupDocuments(ctx context.Context, subject models.Subject) (*models.DocumentLookupResult, error)
}

type ReadinessLinkSender interface {
	DeliverReadinessLink(ctx context.Context, subject models.Subject) (*models.ReadinessDelivery, error)
}

type ReadinessTracker interface {
	ReadinessStatus(ctx context.Context, subject models.Subject) (*models.ReadinessStatus, error)
}

type CounterpartResolver interface {
	ResolveCounterpart(ctx context.Context, req models.CounterpartRequest) (*models.CounterpartMapping, error)
}

type InterviewService interface {
	CreateInterviewTask(ctx context.Context, req models.InterviewTaskRequest) (*models.InterviewTaskResult, error)
	ScheduleInterview(ctx context.Context, req models.InterviewScheduleRequest) (*models.InterviewScheduleResult, error)
	UpdateInterviewStatus(ctx context.Context, req models.InterviewStatusRequest) (*models.InterviewStatusResult, error)
	RecordInterviewOutcome(ctx context.Context, req models.InterviewOutcomeRequest) (*models.InterviewOutcomeResult, error)
}

type CounterpartNotifier interface {
	NotifyCounterpart(ctx context.Context, notice models.CounterpartNotice) (*models.NotificationResult, error)
}

type Prefiller interface {
	PrefillProfile(ctx context.Context, subject models.Subject) (*models.ProfilePrefill, error)
	PrefillDocuments(ctx context.Context, subject models.Subject) (*models.DocumentPrefill, error)
}

type FormSharer interface {
	ShareForm(ctx context.Context, req models.FormShareRequest) (*models.FormShareResult, error)
}

// Collaborators bundles every external dependency of the coordinator.
type Collaborators struct {
	Verifier     Verifier
	LinkSender   ReadinessLinkSender
	Readiness    ReadinessTracker
	Counterparts CounterpartResolver
	Interviews   InterviewService
	Notifier     CounterpartNotifier
	Prefiller    Prefiller
	Sharer       FormSharer
}
