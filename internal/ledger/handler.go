// internal/ledger/handler.go
package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

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

	r.Get("/", h.handleListTransactions)
	r.Get("/unapproved", h.handleUnapproved)
	r.Get("/unapproved/count", h.handleCountUnapproved)
	r.Get("/spending", h.handleTotalSpending)
	r.Get("/{id}", h.handleGetTransaction)
	r.Post("/{id}/approve", h.handleApprove)
	r.Post("/approve", h.handleBulkApprove)

	return r
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transaction ID", http.StatusBadRequest)
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(tx)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid transaction ID", http.StatusBadRequest)
		return
	}

	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx, err := h.service.Approve(r.Context(), id, req.ApprovedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(tx)
}

func (h *Handler) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TransactionIDs []uuid.UUID `json:"transaction_ids"`
		ApprovedBy     string      `json:"approved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.BulkApprove(r.Context(), req.TransactionIDs, req.ApprovedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}

	// Partial failures still return 200; the body reports them per ID.
	json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleUnapproved(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.UnapprovedTransactions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(txs)
}

func (h *Handler) handleCountUnapproved(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountUnapproved(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]int64{"count": count})
}

func (h *Handler) handleTotalSpending(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	total, err := h.service.TotalSpending(r.Context(), from, to)
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(map[string]decimal.Decimal{"total_spending": total})
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		txs []*Transaction
		err error
	)
	switch {
	case q.Get("part_id") != "":
		var partID uuid.UUID
		partID, err = uuid.Parse(q.Get("part_id"))
		if err != nil {
			http.Error(w, "invalid part_id", http.StatusBadRequest)
			return
		}
		if q.Get("from") != "" || q.Get("to") != "" {
			var from, to time.Time
			from, to, err = parseRange(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			txs, err = h.service.TransactionsByPartInRange(r.Context(), partID, from, to)
		} else {
			txs, err = h.service.TransactionsByPart(r.Context(), partID)
		}
	case q.Get("type") != "":
		txs, err = h.service.TransactionsByType(r.Context(), TransactionType(q.Get("type")))
	case q.Get("project_id") != "":
		var projectID uuid.UUID
		projectID, err = uuid.Parse(q.Get("project_id"))
		if err != nil {
			http.Error(w, "invalid project_id", http.StatusBadRequest)
			return
		}
		txs, err = h.service.TransactionsByProject(r.Context(), projectID)
	case q.Get("task_id") != "":
		var taskID uuid.UUID
		taskID, err = uuid.Parse(q.Get("task_id"))
		if err != nil {
			http.Error(w, "invalid task_id", http.StatusBadRequest)
			return
		}
		txs, err = h.service.TransactionsByTask(r.Context(), taskID)
	case q.Get("performed_by") != "":
		var performedBy uuid.UUID
		performedBy, err = uuid.Parse(q.Get("performed_by"))
		if err != nil {
			http.Error(w, "invalid performed_by", http.StatusBadRequest)
			return
		}
		txs, err = h.service.TransactionsByPerformer(r.Context(), performedBy)
	case q.Get("min_total_cost") != "":
		var threshold decimal.Decimal
		threshold, err = decimal.NewFromString(q.Get("min_total_cost"))
		if err != nil {
			http.Error(w, "invalid min_total_cost", http.StatusBadRequest)
			return
		}
		txs, err = h.service.HighValueTransactions(r.Context(), threshold)
	case q.Get("vendor") != "":
		txs, err = h.service.TransactionsByVendor(r.Context(), q.Get("vendor"))
	case q.Get("reference") != "":
		txs, err = h.service.TransactionsByReference(r.Context(), q.Get("reference"))
	case q.Get("reason") != "":
		txs, err = h.service.SearchByReason(r.Context(), q.Get("reason"))
	case q.Get("from") != "" || q.Get("to") != "":
		var from, to time.Time
		from, to, err = parseRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		txs, err = h.service.TransactionsInRange(r.Context(), from, to)
	default:
		limit := 50
		if q.Get("limit") != "" {
			limit, err = strconv.Atoi(q.Get("limit"))
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
		}
		txs, err = h.service.RecentTransactions(r.Context(), limit)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(txs)
}

func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid from timestamp")
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid to timestamp")
	}
	return from, to, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyApproved):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidTransaction):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
