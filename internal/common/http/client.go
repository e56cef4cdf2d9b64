// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"candidate-onboarding/internal/common/errors"
)

// Client is a JSON client for one upstream base URL. Upstream failures are
// returned as *errors.StandardError.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	service    string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewJSONClient returns a client that resolves paths against baseURL and
// authenticates with apiKey when set.
func NewJSONClient(service, baseURL, apiKey string, timeout time.Duration) *Client {
	c := NewClient(timeout)
	c.service = service
	c.baseURL = strings.TrimRight(baseURL, "/")
	c.apiKey = apiKey
	return c
}

// upstreamError is the error body the gateway returns on 4xx/5xx.
type upstreamError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable"`
}

// DoJSON sends in as the JSON body (nil for none) and decodes a 2xx response
// into out. 5xx, 429 and transport failures are retryable; other 4xx are not
// unless the body says otherwise.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return errors.NewTimeoutError(c.service, err)
		}
		return errors.NewExternalServiceError(c.service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewExternalServiceError(c.service, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewExternalServiceError(c.service, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) statusError(status int, raw []byte) error {
	retryable := status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout

	var ue upstreamError
	if json.Unmarshal(raw, &ue) == nil && ue.Code != "" {
		if ue.Retryable != nil {
			retryable = *ue.Retryable
		}
		msg := ue.Message
		if msg == "" {
			msg = fmt.Sprintf("%s returned status %d", c.service, status)
		}
		return errors.NewCheckFailure(errors.ErrorCode(ue.Code), msg, retryable).
			WithMetadata("status", status)
	}

	msg := fmt.Sprintf("%s returned status %d", c.service, status)
	if len(raw) > 0 {
		msg += ": " + truncate(string(raw), 200)
	}
	return errors.NewCheckFailure(errors.ErrCodeExternalService, msg, retryable).
		WithMetadata("status", status)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
