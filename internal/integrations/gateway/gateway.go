// Package gateway talks to the verification gateway over HTTP JSON: identity,
// eligibility, registry lookups, readiness status, counterpart mapping and
// form prefill.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"candidate-onboarding/internal/common/errors"
	httpclient "candidate-onboarding/internal/common/http"
	"candidate-onboarding/internal/common/logger"
	"candidate-onboarding/internal/models"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements the verification, readiness, counterpart and prefill
// collaborators.
type Client struct {
	http  *httpclient.Client
	cache *CounterpartCache
	log   logger.Logger
}

func New(cfg Config, cache *CounterpartCache, log logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		http:  httpclient.NewJSONClient("gateway", cfg.BaseURL, cfg.APIKey, cfg.Timeout),
		cache: cache,
		log:   logger.Component(log, "gateway"),
	}
}

type subjectRequest struct {
	CandidateID string `json:"candidateId"`
	Code        string `json:"code"`
	Mobile      string `json:"mobile"`
	PAN         string `json:"pan"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
}

func requestOf(s models.Subject) subjectRequest {
	return subjectRequest{
		CandidateID: s.CandidateID,
		Code:        s.Code,
		Mobile:      s.Mobile,
		PAN:         s.PAN,
		Email:       s.Email,
		Name:        s.Name,
	}
}

// recode keeps upstream-coded failures and tags generic transport failures
// with the code of the check that was running.
func recode(err error, code errors.ErrorCode) error {
	se := errors.Normalize(err)
	if se.Code != errors.ErrCodeExternalService && se.Code != errors.ErrCodeTimeout && se.Code != errors.ErrCodeInternal {
		return se
	}
	out := errors.NewCheckFailure(code, se.Message, se.Retryable)
	out.Details = se.Details
	for k, v := range se.Metadata {
		out.WithMetadata(k, v)
	}
	return out
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}, code errors.ErrorCode) error {
	if err := c.http.DoJSON(ctx, http.MethodPost, path, in, out); err != nil {
		return recode(err, code)
	}
	return nil
}

func (c *Client) VerifyIdentity(ctx context.Context, s models.Subject) (*models.IdentityResult, error) {
	var out models.IdentityResult
	if err := c.post(ctx, "/identity/verify", requestOf(s), &out, errors.ErrCodeIdentityCheckFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CheckEligibility(ctx context.Context, s models.Subject) (*models.EligibilityResult, error) {
	var out models.EligibilityResult
	if err := c.post(ctx, "/eligibility/check", requestOf(s), &out, errors.ErrCodeEligibilityCheckFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LookupProfile(ctx context.Context, s models.Subject) (*models.ProfileLookupResult, error) {
	var out models.ProfileLookupResult
	if err := c.post(ctx, "/ckyc/lookup", requestOf(s), &out, errors.ErrCodeProfileLookupFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LookupDocuments(ctx context.Context, s models.Subject) (*models.DocumentLookupResult, error) {
	var out models.DocumentLookupResult
	if err := c.post(ctx, "/digilocker/lookup", requestOf(s), &out, errors.ErrCodeDocumentLookupFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ReadinessStatus(ctx context.Context, s models.Subject) (*models.ReadinessStatus, error) {
	var out models.ReadinessStatus
	path := "/readiness/status?candidateId=" + url.QueryEscape(s.CandidateID)
	if err := c.http.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("readiness status: %w", err)
	}
	return &out, nil
}

// ResolveCounterpart reads through the counterpart cache. A cache failure
// is logged and the gateway is asked directly.
func (c *Client) ResolveCounterpart(ctx context.Context, req models.CounterpartRequest) (*models.CounterpartMapping, error) {
	if c.cache != nil {
		m, err := c.cache.Get(ctx, req.OperatorID, req.BranchID)
		if err != nil {
			c.log.Warn("counterpart cache read failed", map[string]interface{}{"error": err.Error()})
		} else if m != nil {
			return m, nil
		}
	}

	var out models.CounterpartMapping
	body := map[string]interface{}{
		"operatorId": req.OperatorID,
		"branchId":   req.BranchID,
		"candidate":  requestOf(req.Subject),
	}
	if err := c.post(ctx, "/counterparts/resolve", body, &out, errors.ErrCodeCounterpartMappingFailed); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.NewCheckFailure(errors.ErrCodeCounterpartMappingFailed, "No counterpart mapped for branch", false)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, req.OperatorID, req.BranchID, &out); err != nil {
			c.log.Warn("counterpart cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return &out, nil
}

func (c *Client) PrefillProfile(ctx context.Context, s models.Subject) (*models.ProfilePrefill, error) {
	var out models.ProfilePrefill
	if err := c.post(ctx, "/prefill/ckyc", requestOf(s), &out, errors.ErrCodePrefillFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PrefillDocuments(ctx context.Context, s models.Subject) (*models.DocumentPrefill, error) {
	var out models.DocumentPrefill
	if err := c.post(ctx, "/prefill/digilocker", requestOf(s), &out, errors.ErrCodePrefillFailed); err != nil {
		return nil, err
	}
	return &out, nil
}
