package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var subject = models.Subject{CandidateID: "CND1", Code: "CND-1", Mobile: "9876543210", PAN: "ABCDE1234F"}

func newServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestVerifyIdentity(t *testing.T) {
	server := newServer(t, map[string]http.HandlerFunc{
		"/identity/verify": func(w http.ResponseWriter, r *http.Request) {
			var req subjectRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ABCDE1234F", req.PAN)
			writeJSON(w, http.StatusOK, models.IdentityResult{PAN: req.PAN, Valid: true, NameOnPAN: "RAHUL KUMAR"})
		},
	})
	c := New(Config{BaseURL: server.URL}, nil, logger.NewTestLogger(t))

	res, err := c.VerifyIdentity(context.Background(), subject)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, "RAHUL KUMAR", res.NameOnPAN)
}

func TestFailuresCarryCheckCodes(t *testing.T) {
	server := newServer(t, map[string]http.HandlerFunc{
		"/identity/verify": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"/eligibility/check": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"code": "NOT_ELIGIBLE", "message": "Associated with another insurer",
			})
		},
	})
	c := New(Config{BaseURL: server.URL}, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	_, err := c.VerifyIdentity(ctx, subject)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIdentityCheckFailed, errors.CodeOf(err))
	assert.Equal(t, errors.CategorySystem, errors.CategoryOf(err))

	_, err = c.CheckEligibility(ctx, subject)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotEligible, errors.CodeOf(err))
	assert.Equal(t, errors.CategoryData, errors.CategoryOf(err))
}

func TestPrefillAndLookups(t *testing.T) {
	server := newServer(t, map[string]http.HandlerFunc{
		"/ckyc/lookup": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.ProfileLookupResult{Found: true, Documents: []models.Document{{Type: "PHOTO", Available: true}}})
		},
		"/digilocker/lookup": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.DocumentLookupResult{Available: true})
		},
		"/prefill/ckyc": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.ProfilePrefill{AutoFilled: 6, PendingMandatory: 6})
		},
		"/prefill/digilocker": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"/readiness/status": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "CND1", r.URL.Query().Get("candidateId"))
			writeJSON(w, http.StatusOK, models.ReadinessStatus{Delivered: true, Completed: true, Score: 50})
		},
	})
	c := New(Config{BaseURL: server.URL}, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	lookup, err := c.LookupProfile(ctx, subject)
	require.NoError(t, err)
	assert.True(t, lookup.Found)

	docs, err := c.LookupDocuments(ctx, subject)
	require.NoError(t, err)
	assert.True(t, docs.Available)

	pf, err := c.PrefillProfile(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, 6, pf.AutoFilled)

	_, err = c.PrefillDocuments(ctx, subject)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodePrefillFailed, errors.CodeOf(err))

	st, err := c.ReadinessStatus(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, 50, st.Score)
}

func TestResolveCounterpart_ReadThroughCache(t *testing.T) {
	var calls atomic.Int32
	server := newServer(t, map[string]http.HandlerFunc{
		"/counterparts/resolve": func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "BR001", body["branchId"])
			writeJSON(w, http.StatusOK, models.CounterpartMapping{ID: "BH001", Name: "Branch Head Name", Branch: "Mumbai - Andheri"})
		},
	})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCounterpartCache(rdb, "onboarding", 15*time.Minute)
	c := New(Config{BaseURL: server.URL}, cache, logger.NewTestLogger(t))
	req := models.CounterpartRequest{Subject: subject, OperatorID: "DM001", BranchID: "BR001"}

	first, err := c.ResolveCounterpart(context.Background(), req)
	require.NoError(t, err)
	second, err := c.ResolveCounterpart(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, mr.Exists("onboarding:counterpart:DM001:BR001"))
	assert.Equal(t, 15*time.Minute, mr.TTL("onboarding:counterpart:DM001:BR001"))
}

func TestResolveCounterpart_EmptyMappingIsDataFailure(t *testing.T) {
	server := newServer(t, map[string]http.HandlerFunc{
		"/counterparts/resolve": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{})
		},
	})
	c := New(Config{BaseURL: server.URL}, nil, logger.NewTestLogger(t))

	_, err := c.ResolveCounterpart(context.Background(), models.CounterpartRequest{Subject: subject})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCounterpartMappingFailed, errors.CodeOf(err))
	assert.Equal(t, errors.CategoryData, errors.CategoryOf(err))
}

func TestResolveCounterpart_CacheErrorFallsBackToGateway(t *testing.T) {
	server := newServer(t, map[string]http.HandlerFunc{
		"/counterparts/resolve": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.CounterpartMapping{ID: "BH001"})
		},
	})
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("onboarding:counterpart:DM001:BR001").SetErr(assert.AnError)
	mock.ExpectSet("onboarding:counterpart:DM001:BR001", `{"bhId":"BH001","bhName":"","branch":""}`, time.Minute).SetVal("OK")

	c := New(Config{BaseURL: server.URL}, NewCounterpartCache(db, "onboarding", time.Minute), logger.NewTestLogger(t))
	m, err := c.ResolveCounterpart(context.Background(), models.CounterpartRequest{Subject: subject, OperatorID: "DM001", BranchID: "BR001"})
	require.NoError(t, err)
	assert.Equal(t, "BH001", m.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCounterpartCache_Miss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("p:counterpart:OP:BR").RedisNil()

	m, err := NewCounterpartCache(db, "p", time.Minute).Get(context.Background(), "OP", "BR")
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, mock.ExpectationsWereMet())
}
