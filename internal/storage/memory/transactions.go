// internal/storage/memory/transactions.go
package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitstock/internal/ledger"
)

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
	}
	return cloneTransaction(t), nil
}

func (s *Store) ListTransactions(ctx context.Context, f ledger.Filter) ([]*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ledger.Transaction, 0)
	// Walk the log newest first.
	for i := len(s.log) - 1; i >= 0; i-- {
		t := s.log[i]
		if !matchesFilter(t, f) {
			continue
		}
		result = append(result, cloneTransaction(t))
		if f.Limit > 0 && len(result) == f.Limit {
			break
		}
	}
	return result, nil
}

func matchesFilter(t *ledger.Transaction, f ledger.Filter) bool {
	if f.PartID.Valid && t.PartID != f.PartID.UUID {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.ProjectID.Valid && (!t.ProjectID.Valid || t.ProjectID.UUID != f.ProjectID.UUID) {
		return false
	}
	if f.TaskID.Valid && (!t.TaskID.Valid || t.TaskID.UUID != f.TaskID.UUID) {
		return false
	}
	if f.PerformedBy.Valid && (!t.PerformedBy.Valid || t.PerformedBy.UUID != f.PerformedBy.UUID) {
		return false
	}
	if f.From != nil && t.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && t.TransactionDate.After(*f.To) {
		return false
	}
	if f.OnlyUnapproved && t.IsApproved {
		return false
	}
	if f.MinTotalCost.Valid {
		if !t.TotalCost.Valid || t.TotalCost.Decimal.LessThan(f.MinTotalCost.Decimal) {
			return false
		}
	}
	if f.Vendor != "" && !strings.EqualFold(t.Vendor, f.Vendor) {
		return false
	}
	if f.ReferenceNumber != "" && t.ReferenceNumber != f.ReferenceNumber {
		return false
	}
	if f.ReasonContains != "" && !strings.Contains(strings.ToLower(t.Reason), strings.ToLower(f.ReasonContains)) {
		return false
	}
	return true
}

func (s *Store) CountUnapproved(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, t := range s.transactions {
		if !t.IsApproved {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
	}
	if t.IsApproved {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrAlreadyApproved)
	}

	t.IsApproved = true
	t.ApprovedBy = approvedBy
	t.ApprovedAt = clonePtrTime(approvedAt)
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
	}

	delete(s.transactions, id)
	for i, t := range s.log {
		if t.ID == id {
			s.log = append(s.log[:i], s.log[i+1:]...)
			break
		}
	}
	return nil
}
