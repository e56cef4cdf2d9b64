package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"candidate-onboarding/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"echo": in["value"]})
	}))
	defer server.Close()

	c := NewJSONClient("gateway", server.URL+"/v1/", "secret", time.Second)
	var out map[string]string
	err := c.DoJSON(context.Background(), http.MethodPost, "/echo", map[string]string{"value": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestDoJSON_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      errors.ErrorCode
		retryable bool
	}{
		{"server error", http.StatusBadGateway, "upstream down", errors.ErrCodeExternalService, true},
		{"rate limited", http.StatusTooManyRequests, "", errors.ErrCodeExternalService, true},
		{"bad request", http.StatusBadRequest, "nope", errors.ErrCodeExternalService, false},
		{"coded data failure", http.StatusUnprocessableEntity, `{"code":"NOT_ELIGIBLE","message":"Blacklisted"}`, errors.ErrCodeNotEligible, false},
		{"coded override", http.StatusConflict, `{"code":"PREFILL_FAILED","message":"busy","retryable":true}`, errors.ErrCodePrefillFailed, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewJSONClient("gateway", server.URL, "", time.Second)
			err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Equal(t, tt.retryable, errors.IsRetryable(err))
		})
	}
}

func TestDoJSON_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewJSONClient("gateway", server.URL, "", 20*time.Millisecond)
	err := c.DoJSON(context.Background(), http.MethodGet, "/slow", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
}

func TestDoJSON_BadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	c := NewJSONClient("gateway", server.URL, "", time.Second)
	var out map[string]string
	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.IsRetryable(err))
}
