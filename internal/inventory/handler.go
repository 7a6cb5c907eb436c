// internal/inventory/handler.go
package inventory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

type Handler struct {
	service Service
	limiter *rate.Limiter
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
		limiter: rate.NewLimiter(rate.Every(time.Second), 20), // 20 writes per second burst
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.handleListParts)
	r.Get("/value", h.handleInventoryValue)
	r.Get("/number/{partNumber}", h.handleGetPartByNumber)
	r.Get("/{id}", h.handleGetPart)

	r.Group(func(r chi.Router) {
		r.Use(h.throttle)
		r.Post("/", h.handleCreatePart)
		r.Put("/{id}", h.handleUpdatePart)
		r.Delete("/{id}", h.handleDeletePart)
		r.Delete("/{id}/permanent", h.handlePermanentlyDeletePart)
		r.Post("/{id}/restock", h.handleRestock)
		r.Post("/{id}/use", h.handleUseParts)
		r.Post("/{id}/adjust", h.handleAdjustInventory)
	})

	return r
}

// throttle guards the mutation endpoints against bursty clients.
func (h *Handler) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleCreatePart(w http.ResponseWriter, r *http.Request) {
	var p Part
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.service.CreatePart(r.Context(), &p)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *Handler) handleGetPart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	part, err := h.service.GetPart(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(part)
}

func (h *Handler) handleGetPartByNumber(w http.ResponseWriter, r *http.Request) {
	part, err := h.service.GetPartByNumber(r.Context(), chi.URLParam(r, "partNumber"))
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(part)
}

func (h *Handler) handleUpdatePart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	var p Part
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdatePart(r.Context(), id, &p)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(updated)
}

func (h *Handler) handleDeletePart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePart(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePermanentlyDeletePart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	if err := h.service.PermanentlyDeletePart(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRestock(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity        int                 `json:"quantity"`
		UnitCost        decimal.NullDecimal `json:"unit_cost"`
		Vendor          string              `json:"vendor"`
		ReferenceNumber string              `json:"reference_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	part, err := h.service.Restock(r.Context(), id, req.Quantity, req.UnitCost, req.Vendor, req.ReferenceNumber)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(part)
}

func (h *Handler) handleUseParts(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Quantity    int           `json:"quantity"`
		ProjectID   uuid.NullUUID `json:"project_id"`
		TaskID      uuid.NullUUID `json:"task_id"`
		PerformedBy uuid.NullUUID `json:"performed_by"`
		Reason      string        `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	part, err := h.service.UseParts(r.Context(), id, req.Quantity, UsageContext{
		ProjectID:   req.ProjectID,
		TaskID:      req.TaskID,
		PerformedBy: req.PerformedBy,
		Reason:      req.Reason,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(part)
}

func (h *Handler) handleAdjustInventory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid part ID", http.StatusBadRequest)
		return
	}

	var req struct {
		NewQuantity int    `json:"new_quantity"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	part, err := h.service.AdjustInventory(r.Context(), id, req.NewQuantity, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(part)
}

func (h *Handler) handleListParts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		parts []*Part
		err   error
	)
	switch {
	case q.Get("q") != "":
		parts, err = h.service.SearchParts(r.Context(), q.Get("q"))
	case q.Get("category") != "":
		parts, err = h.service.PartsByCategory(r.Context(), Category(q.Get("category")))
	case q.Get("vendor") != "":
		parts, err = h.service.PartsByVendor(r.Context(), q.Get("vendor"))
	case q.Get("location") != "":
		parts, err = h.service.PartsByStorageLocation(r.Context(), q.Get("location"))
	case q.Get("low_stock") == "true":
		parts, err = h.service.LowStockParts(r.Context())
	case q.Get("critical") == "true":
		parts, err = h.service.CriticallyLowParts(r.Context())
	case q.Get("out_of_stock") == "true":
		parts, err = h.service.OutOfStockParts(r.Context())
	case q.Get("reorder") == "true":
		parts, err = h.service.PartsNeedingReorder(r.Context())
	case q.Get("unused_since") != "":
		var since time.Time
		since, err = time.Parse(time.RFC3339, q.Get("unused_since"))
		if err != nil {
			http.Error(w, "invalid unused_since timestamp", http.StatusBadRequest)
			return
		}
		parts, err = h.service.UnusedPartsSince(r.Context(), since)
	case q.Get("min_lead_time") != "":
		var days int
		days, err = strconv.Atoi(q.Get("min_lead_time"))
		if err != nil {
			http.Error(w, "invalid min_lead_time", http.StatusBadRequest)
			return
		}
		parts, err = h.service.PartsWithLongLeadTimes(r.Context(), days)
	default:
		parts, err = h.service.ListActiveParts(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(parts)
}

func (h *Handler) handleInventoryValue(w http.ResponseWriter, r *http.Request) {
	var (
		value decimal.Decimal
		err   error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		value, err = h.service.InventoryValueByCategory(r.Context(), Category(category))
	} else {
		value, err = h.service.TotalInventoryValue(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]decimal.Decimal{"total_value": value})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPartNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicatePartNumber):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrPartHasHistory):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
