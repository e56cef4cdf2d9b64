package api

import (
	"encoding/json"
	"net/http"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) handlePrefill(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coord.Prefill(r.Context(), chi.URLParam(r, "source"))
	h.writeCheck(w, r, rec, err, models.StageOnboarding)
}

type fieldsRequest struct {
	Section models.Section  `json:"section"`
	Fields  json.RawMessage `json:"fields"`
}

func (h *Handler) handleUpdateFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if err := decode(r, &req, true); err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	if len(req.Fields) == 0 {
		h.writeError(w, r, errors.NewValidationError("fields", "fields are required"), models.StageOnboarding)
		return
	}
	form, err := h.coord.UpdateOnboardingFields(r.Context(), req.Section, req.Fields)
	if err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	missing, err := h.coord.ValidateOnboarding(r.Context())
	if err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":  len(missing) == 0,
		"errors": missing,
	})
}

func (h *Handler) handleSaveOnboarding(w http.ResponseWriter, r *http.Request) {
	form, err := h.coord.SaveOnboarding(r.Context())
	if err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

type shareRequest struct {
	Channel string `json:"channel"`
}

func (h *Handler) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decode(r, &req, false); err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	rec, err := h.coord.ShareOnboardingForm(r.Context(), req.Channel)
	h.writeCheck(w, r, rec, err, models.StageOnboarding)
}

// --- simulation ---

func (h *Handler) simulationDisabled(w http.ResponseWriter, r *http.Request) bool {
	if h.flags != nil {
		return false
	}
	h.writeError(w, r, errors.NewResourceNotFoundError("simulation", "collaborators are live"), "")
	return true
}

func (h *Handler) handleGetFlags(w http.ResponseWriter, r *http.Request) {
	if h.simulationDisabled(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, h.flags.All())
}

func (h *Handler) handleSetFlags(w http.ResponseWriter, r *http.Request) {
	if h.simulationDisabled(w, r) {
		return
	}
	var changes map[string]bool
	if err := decode(r, &changes, true); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if err := h.flags.Set(changes); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.log.Info("simulation flags updated", map[string]interface{}{"changes": changes})
	writeJSON(w, http.StatusOK, h.flags.All())
}
