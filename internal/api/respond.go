package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/registry"
	"candidate-onboarding/pkg/guidance"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Code     errors.ErrorCode `json:"code"`
	Message  string           `json:"message"`
	Details  string           `json:"details,omitempty"`
	Category errors.Category  `json:"category"`
	Guidance *guidance.Entry  `json:"guidance,omitempty"`
}

// checkBody is a record plus operator guidance when the check failed.
type checkBody struct {
	Record   registry.Record `json:"record"`
	Guidance *guidance.Entry `json:"guidance,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the failure taxonomy onto HTTP: local input problems are
// 422, closed gates 409, upstream failures 502.
func statusFor(se *errors.StandardError) int {
	switch se.Code {
	case errors.ErrCodeValidationFailed, errors.ErrCodeUnsupportedChannel:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeStageLocked, errors.ErrCodeCandidateMissing, errors.ErrCodeBusinessRule:
		return http.StatusConflict
	case errors.ErrCodeResourceNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInternal, errors.ErrCodeSnapshotIncompatible:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// writeError renders err. stage, when set, selects the guidance entry.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, stage string) {
	se := errors.Normalize(err)
	status := statusFor(se)
	body := errorBody{
		Code:     se.Code,
		Message:  se.Message,
		Details:  se.Details,
		Category: errors.CategoryOf(err),
	}
	if e, ok := h.catalog.Lookup(stage, string(se.Code)); ok {
		body.Guidance = &e
	}
	fields := map[string]interface{}{
		"path":   r.URL.Path,
		"code":   string(se.Code),
		"status": status,
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", fields)
	} else {
		h.log.Debug("request rejected", fields)
	}
	writeJSON(w, status, body)
}

// check wraps a record with guidance for its failure code.
func (h *Handler) check(rec registry.Record) checkBody {
	out := checkBody{Record: rec}
	if rec.Status != models.StatusFailed {
		return out
	}
	if fd, ok := rec.Payload.(*models.FailureDetail); ok {
		if e, found := h.catalog.Lookup(rec.Key.Stage(), fd.Code); found {
			out.Guidance = &e
		}
	}
	return out
}

func (h *Handler) writeCheck(w http.ResponseWriter, r *http.Request, rec registry.Record, err error, stage string) {
	if err != nil {
		h.writeError(w, r, err, stage)
		return
	}
	writeJSON(w, http.StatusOK, h.check(rec))
}

// decode reads a strict JSON body into v. An empty body leaves v untouched
// unless required is set.
func decode(r *http.Request, v interface{}, required bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) && !required {
			return nil
		}
		return errors.NewValidationError("body", err.Error())
	}
	return nil
}
