// internal/storage/memory/parts.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
)

func (s *Store) InsertPart(ctx context.Context, p *inventory.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.partNumbers[p.PartNumber]; exists {
		return fmt.Errorf("part number %q: %w", p.PartNumber, inventory.ErrDuplicatePartNumber)
	}

	s.parts[p.ID] = clonePart(p)
	s.partNumbers[p.PartNumber] = p.ID
	return nil
}

func (s *Store) GetPart(ctx context.Context, id uuid.UUID) (*inventory.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.parts[id]
	if !ok {
		return nil, fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	return clonePart(p), nil
}

func (s *Store) GetPartByNumber(ctx context.Context, partNumber string) (*inventory.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.partNumbers[partNumber]
	if !ok {
		return nil, fmt.Errorf("part number %q: %w", partNumber, inventory.ErrPartNotFound)
	}
	return clonePart(s.parts[id]), nil
}

func (s *Store) UpdatePart(ctx context.Context, p *inventory.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.parts[p.ID]
	if !ok {
		return fmt.Errorf("part %s: %w", p.ID, inventory.ErrPartNotFound)
	}

	if existing.PartNumber != p.PartNumber {
		if _, taken := s.partNumbers[p.PartNumber]; taken {
			return fmt.Errorf("part number %q: %w", p.PartNumber, inventory.ErrDuplicatePartNumber)
		}
		delete(s.partNumbers, existing.PartNumber)
		s.partNumbers[p.PartNumber] = p.ID
	}

	s.parts[p.ID] = clonePart(p)
	return nil
}

func (s *Store) ListParts(ctx context.Context, f inventory.PartFilter) ([]*inventory.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*inventory.Part, 0)
	for _, p := range s.parts {
		if matchesPartFilter(p, f) {
			result = append(result, clonePart(p))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PartNumber < result[j].PartNumber
	})
	return result, nil
}

func matchesPartFilter(p *inventory.Part, f inventory.PartFilter) bool {
	if f.ActiveOnly && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.PartNumber), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	if f.Vendor != "" && !strings.EqualFold(p.Vendor, f.Vendor) {
		return false
	}
	if f.StorageLocation != "" && !strings.EqualFold(p.StorageLocation, f.StorageLocation) {
		return false
	}
	if f.LowStock && !p.IsLowStock() {
		return false
	}
	if f.CriticallyLow && !p.IsCriticallyLow() {
		return false
	}
	if f.OutOfStock && !p.IsOutOfStock() {
		return false
	}
	if f.NeedsReorder && !p.NeedsReordering() {
		return false
	}
	if f.UnusedSince != nil {
		if p.LastUsedDate != nil && p.LastUsedDate.After(*f.UnusedSince) {
			return false
		}
	}
	if f.MinLeadTimeDays > 0 && p.LeadTimeDays < f.MinLeadTimeDays {
		return false
	}
	return true
}

// ApplyMutation performs the quantity change and the ledger append as one
// critical section. BalanceAfter on the entry is filled from the post-update
// quantity, so two racing outgoing mutations can never both pass the
// sufficiency check.
func (s *Store) ApplyMutation(ctx context.Context, partID uuid.UUID, m inventory.Mutation) (*inventory.Part, *ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parts[partID]
	if !ok {
		return nil, nil, fmt.Errorf("part %s: %w", partID, inventory.ErrPartNotFound)
	}

	t := cloneTransaction(m.Transaction)
	newQuantity := p.QuantityOnHand + t.EffectiveQuantityChange()
	if newQuantity < 0 {
		return nil, nil, fmt.Errorf("part %s has %d on hand, need %d: %w",
			partID, p.QuantityOnHand, t.Quantity, inventory.ErrInsufficientStock)
	}

	now := time.Now().UTC()
	p.QuantityOnHand = newQuantity
	p.UpdatedAt = now
	if m.TouchRestock {
		p.LastRestockDate = clonePtrTime(now)
	}
	if m.TouchUsed {
		p.LastUsedDate = clonePtrTime(now)
	}

	t.BalanceAfter = newQuantity
	s.transactions[t.ID] = t
	s.log = append(s.log, t)

	return clonePart(p), cloneTransaction(t), nil
}

func (s *Store) SoftDeletePart(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parts[id]
	if !ok {
		return fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	p.IsActive = false
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) DeletePart(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.parts[id]
	if !ok {
		return fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	for _, t := range s.log {
		if t.PartID == id {
			return fmt.Errorf("part %s: %w", id, inventory.ErrPartHasHistory)
		}
	}

	delete(s.partNumbers, p.PartNumber)
	delete(s.parts, id)
	return nil
}
