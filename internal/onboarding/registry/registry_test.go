package registry

import (
	"encoding/json"
	"testing"
	"time"

	"candidate-onboarding/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_DefaultsToNotStarted(t *testing.T) {
	r := New()
	rec := r.Get(models.CheckIdentityVerification)

	assert.Equal(t, models.CheckIdentityVerification, rec.Key)
	assert.Equal(t, models.StatusNotStarted, rec.Status)
	assert.Zero(t, rec.AttemptCount)
	assert.False(t, r.Exists(models.CheckIdentityVerification))
}

func TestUpsert_PreservesUntouchedFields(t *testing.T) {
	r := New()
	now := time.Now().UTC()
	next := now.Add(30 * time.Second)

	r.Upsert(models.CheckEligibility, Patch{
		Status:        StatusPtr(models.StatusFailed),
		FailureType:   FailurePtr(models.FailureSystem),
		Message:       StringPtr("gateway timeout"),
		LastAttemptAt: TimePtr(now),
		NextRetryAt:   TimePtr(next),
		AttemptCount:  IntPtr(1),
	})

	rec := r.Upsert(models.CheckEligibility, Patch{Message: StringPtr("retrying")})

	assert.Equal(t, models.StatusFailed, rec.Status)
	assert.Equal(t, models.FailureSystem, rec.FailureType)
	assert.Equal(t, "retrying", rec.Message)
	assert.Equal(t, 1, rec.AttemptCount)
	require.NotNil(t, rec.NextRetryAt)
	assert.True(t, rec.NextRetryAt.Equal(next))
	assert.True(t, rec.RetryPending())
}

func TestUpsert_ExplicitClears(t *testing.T) {
	r := New()
	r.Upsert(models.CheckFormShare, Patch{
		NextRetryAt: TimePtr(time.Now()),
		Payload:     &models.FormShareResult{Shared: true},
	})

	rec := r.Upsert(models.CheckFormShare, Patch{ClearNextRetry: true, ClearPayload: true})

	assert.Nil(t, rec.NextRetryAt)
	assert.Nil(t, rec.Payload)
}

func TestInitialize_ResetsAttemptsButAdvancesGeneration(t *testing.T) {
	r := New()
	r.Upsert(models.CheckProfileLookup, Patch{
		Status:       StatusPtr(models.StatusFailed),
		FailureType:  FailurePtr(models.FailureSystem),
		AttemptCount: IntPtr(3),
		Generation:   Uint64Ptr(3),
		Payload:      &models.FailureDetail{FailureType: models.FailureSystem},
		NextRetryAt:  TimePtr(time.Now()),
	})

	now := time.Now().UTC()
	rec := r.Initialize(models.CheckProfileLookup, now)

	assert.Equal(t, models.StatusPending, rec.Status)
	assert.Zero(t, rec.AttemptCount)
	assert.Equal(t, models.FailureNone, rec.FailureType)
	assert.Nil(t, rec.Payload)
	assert.Nil(t, rec.NextRetryAt)
	assert.Equal(t, uint64(4), rec.Generation)
}

func TestAll_FollowsDisplayOrder(t *testing.T) {
	r := New()
	r.Upsert(models.CheckFormShare, Patch{})
	r.Upsert(models.CheckIdentityVerification, Patch{})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, models.CheckIdentityVerification, all[0].Key)
	assert.Equal(t, models.CheckFormShare, all[1].Key)
}

func TestRecordJSON_KeepsPayloadVariant(t *testing.T) {
	rec := Record{
		Key:          models.CheckIdentityVerification,
		Status:       models.StatusSuccess,
		AttemptCount: 2,
		Payload:      &models.IdentityResult{PAN: "ABCDE1234F", Valid: true},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"identity"`)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	identity, ok := back.Payload.(*models.IdentityResult)
	require.True(t, ok)
	assert.True(t, identity.Valid)
	assert.Equal(t, 2, back.AttemptCount)
}

func TestRecordJSON_RejectsUnknownPayloadKind(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"key":"FORM_SHARE","status":"SUCCESS","message":"","attemptCount":1,"generation":1,"payload":{"kind":"fax","data":{}}}`), &rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown payload kind")
}
