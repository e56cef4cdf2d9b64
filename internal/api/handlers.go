package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"candidate-onboarding/internal/common/errors"
	"candidate-onboarding/internal/models"
	"candidate-onboarding/internal/onboarding/coordinator"
	"candidate-onboarding/internal/onboarding/gate"
	"candidate-onboarding/internal/onboarding/ledger"
	"candidate-onboarding/internal/onboarding/state"

	"github.com/go-chi/chi/v5"
)

type workflowView struct {
	Operator  models.Operator   `json:"operator"`
	Candidate *models.Candidate `json:"candidate"`
	Checks    []checkBody       `json:"checks"`
	Readiness models.Readiness  `json:"readiness"`
	Gates     gate.View         `json:"gates"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	failed := map[string]string{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "not ready", "failed": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var lead models.Lead
	if err := decode(r, &lead, true); err != nil {
		h.writeError(w, r, err, models.StageLead)
		return
	}
	c, err := h.coord.CreateCandidate(r.Context(), lead)
	if err != nil {
		h.writeError(w, r, err, models.StageLead)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	var v workflowView
	h.coord.Workflow().View(func(s *state.CandidateWorkflowState) {
		v.Operator = s.Operator
		v.Candidate = s.Candidate.Clone()
		v.Readiness = s.Readiness
		v.Gates = gate.Evaluate(s)
		for _, rec := range s.Registry.All() {
			v.Checks = append(v.Checks, h.check(rec))
		}
	})
	if v.Checks == nil {
		v.Checks = []checkBody{}
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.coord.Reset(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGates(w http.ResponseWriter, r *http.Request) {
	var v gate.View
	h.coord.Workflow().View(func(s *state.CandidateWorkflowState) {
		v = gate.Evaluate(s)
	})
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := h.coord.Events()
	if events == nil {
		events = []ledger.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) handleGuidance(w http.ResponseWriter, r *http.Request) {
	stage, code := chi.URLParam(r, "stage"), strings.ToUpper(chi.URLParam(r, "code"))
	e, ok := h.catalog.Lookup(stage, code)
	if !ok {
		h.writeError(w, r, errors.NewResourceNotFoundError("guidance", stage+"/"+code), "")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (h *Handler) handleProfileBuild(w http.ResponseWriter, r *http.Request) {
	recs, err := h.coord.StartProfileBuild(r.Context())
	if err != nil {
		h.writeError(w, r, err, models.StageProfile)
		return
	}
	out := make([]checkBody, 0, len(recs))
	for _, rec := range recs {
		out = append(out, h.check(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	key := models.CheckKey(strings.ToUpper(chi.URLParam(r, "key")))
	rec, err := h.coord.RetryCheck(r.Context(), key)
	h.writeCheck(w, r, rec, err, key.Stage())
}

// --- readiness ---

func (h *Handler) handleDeliverLink(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coord.DeliverReadinessLink(r.Context())
	h.writeCheck(w, r, rec, err, models.StageReadiness)
}

func (h *Handler) handleRefreshReadiness(w http.ResponseWriter, r *http.Request) {
	link, err := h.coord.RefreshReadinessStatus(r.Context())
	if err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *Handler) handleLeadPlan(w http.ResponseWriter, r *http.Request) {
	var plan models.LeadPlan
	if err := decode(r, &plan, true); err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	out, err := h.coord.UpdateLeadPlan(r.Context(), plan)
	if err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleIncomePlan(w http.ResponseWriter, r *http.Request) {
	var plan models.IncomePlan
	if err := decode(r, &plan, true); err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	out, err := h.coord.UpdateIncomePlan(r.Context(), plan)
	if err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSaveIncomePlan(w http.ResponseWriter, r *http.Request) {
	export, err := h.coord.SaveIncomePlan(r.Context())
	if err != nil {
		h.writeError(w, r, err, models.StageReadiness)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (h *Handler) handleProceedToInterview(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coord.ProceedToInterview(r.Context())
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

// --- interview ---

func (h *Handler) handleResolveCounterpart(w http.ResponseWriter, r *http.Request) {
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	rec, err := h.coord.ResolveCounterpart(r.Context(), force)
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

type taskRequest struct {
	InterviewDate string `json:"interviewDate"`
	Notes         string `json:"notes"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decode(r, &req, false); err != nil {
		h.writeError(w, r, err, models.StageInterview)
		return
	}
	rec, err := h.coord.CreateInterviewTask(r.Context(), req.InterviewDate, req.Notes)
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

func (h *Handler) handleNotifyCounterpart(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coord.NotifyCounterpart(r.Context())
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var in coordinator.ScheduleInput
	if err := decode(r, &in, true); err != nil {
		h.writeError(w, r, err, models.StageInterview)
		return
	}
	rec, err := h.coord.ScheduleInterview(r.Context(), in)
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

type statusRequest struct {
	Status models.InterviewStatus `json:"status"`
}

func (h *Handler) handleInterviewStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decode(r, &req, true); err != nil {
		h.writeError(w, r, err, models.StageInterview)
		return
	}
	rec, err := h.coord.AdvanceInterviewStatus(r.Context(), req.Status)
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var in coordinator.OutcomeInput
	if err := decode(r, &in, true); err != nil {
		h.writeError(w, r, err, models.StageInterview)
		return
	}
	rec, err := h.coord.RecordInterviewOutcome(r.Context(), in)
	h.writeCheck(w, r, rec, err, models.StageInterview)
}

func (h *Handler) handleRestartInterview(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.RestartInterview(r.Context()); err != nil {
		h.writeError(w, r, err, models.StageInterview)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProceedToOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.ProceedToOnboarding(r.Context()); err != nil {
		h.writeError(w, r, err, models.StageOnboarding)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
