// internal/planning/handler.go
package planning

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.handleCreateRequirement)
	r.Get("/{id}", h.handleGetRequirement)
	r.Put("/{id}", h.handleUpdateRequirement)
	r.Delete("/{id}", h.handleDeleteRequirement)
	r.Get("/{id}/fulfillable", h.handleCanBeFulfilled)

	r.Get("/project/{templateID}", h.handleProjectRequirements)
	r.Get("/project/{templateID}/fulfillment", h.handleFulfillment)
	r.Get("/project/{templateID}/cost", h.handleTotalCost)
	r.Get("/project/{templateID}/needed", h.handlePartsNeeded)
	r.Get("/task/{templateID}", h.handleTaskRequirements)

	return r
}

func (h *Handler) handleCreateRequirement(w http.ResponseWriter, r *http.Request) {
	var req Requirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateRequirement(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) handleGetRequirement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid requirement ID", http.StatusBadRequest)
		return
	}

	req, err := h.service.GetRequirement(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(req)
}

func (h *Handler) handleUpdateRequirement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid requirement ID", http.StatusBadRequest)
		return
	}

	var req Requirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateRequirement(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(updated)
}

func (h *Handler) handleDeleteRequirement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid requirement ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteRequirement(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCanBeFulfilled(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid requirement ID", http.StatusBadRequest)
		return
	}

	ok, err := h.service.CanBeFulfilled(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]bool{"fulfillable": ok})
}

func (h *Handler) handleProjectRequirements(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		http.Error(w, "invalid template ID", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	var requirements []*Requirement
	switch {
	case q.Get("priority") != "":
		requirements, err = h.service.RequirementsByPriority(r.Context(), templateID, Priority(q.Get("priority")))
	case q.Get("high_priority") == "true":
		requirements, err = h.service.HighPriorityRequirements(r.Context(), templateID)
	case q.Get("critical") == "true":
		requirements, err = h.service.CriticalRequirements(r.Context(), templateID)
	case q.Get("optional") == "true":
		requirements, err = h.service.OptionalRequirements(r.Context(), templateID)
	case q.Get("immediate_phase") != "":
		requirements, err = h.service.ImmediateRequirements(r.Context(), templateID, BuildPhase(q.Get("immediate_phase")))
	case q.Get("phase") != "":
		requirements, err = h.service.RequirementsByBuildPhase(r.Context(), templateID, BuildPhase(q.Get("phase")))
	default:
		requirements, err = h.service.RequirementsByProjectTemplate(r.Context(), templateID)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(requirements)
}

func (h *Handler) handleTaskRequirements(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		http.Error(w, "invalid template ID", http.StatusBadRequest)
		return
	}

	requirements, err := h.service.RequirementsByTaskTemplate(r.Context(), templateID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(requirements)
}

func (h *Handler) handleFulfillment(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		http.Error(w, "invalid template ID", http.StatusBadRequest)
		return
	}

	canFulfill, err := h.service.CanFulfillAllRequirements(r.Context(), templateID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	shortfalls, err := h.service.UnfulfillableRequirements(r.Context(), templateID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(struct {
		CanFulfillAll bool        `json:"can_fulfill_all"`
		Shortfalls    []Shortfall `json:"shortfalls"`
	}{
		CanFulfillAll: canFulfill,
		Shortfalls:    shortfalls,
	})
}

func (h *Handler) handlePartsNeeded(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		http.Error(w, "invalid template ID", http.StatusBadRequest)
		return
	}

	needed, err := h.service.PartsNeeded(r.Context(), templateID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(needed)
}

func (h *Handler) handleTotalCost(w http.ResponseWriter, r *http.Request) {
	templateID, err := uuid.Parse(chi.URLParam(r, "templateID"))
	if err != nil {
		http.Error(w, "invalid template ID", http.StatusBadRequest)
		return
	}

	cost, err := h.service.CalculateTotalCost(r.Context(), templateID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]decimal.Decimal{"total_cost": cost})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRequirementNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidRequirement):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
