// internal/inventory/implementation.go
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pitstock/internal/ledger"
)

// service implements the Service interface.
type service struct {
	store  Store
	ledger ledger.Service
	logger zerolog.Logger
}

// NewService creates a new inventory mutation service instance.
func NewService(store Store, ledgerSvc ledger.Service, logger zerolog.Logger) Service {
	return &service{
		store:  store,
		ledger: ledgerSvc,
		logger: logger.With().Str("component", "inventory").Logger(),
	}
}

// CreatePart persists a new part. A starting quantity above zero is recorded
// through an INITIAL_STOCK ledger entry so the balance chain starts at the
// first observable stock level.
func (s *service) CreatePart(ctx context.Context, p *Part) (*Part, error) {
	if err := validatePart(p); err != nil {
		return nil, err
	}
	if p.QuantityOnHand < 0 {
		return nil, fmt.Errorf("%w: quantity on hand cannot be negative", ErrInvalidInput)
	}

	initialQuantity := p.QuantityOnHand

	now := time.Now().UTC()
	p.ID = uuid.New()
	p.QuantityOnHand = 0
	p.IsActive = true
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.InsertPart(ctx, p); err != nil {
		return nil, fmt.Errorf("create part %q: %w", p.PartNumber, err)
	}

	if initialQuantity > 0 {
		entry, err := s.ledger.Prepare(p.ID, ledger.TypeInitialStock, initialQuantity, ledger.CreateOptions{
			UnitCost: p.UnitCost,
			Reason:   "Initial inventory entry",
		})
		if err != nil {
			return nil, fmt.Errorf("create part %q: %w", p.PartNumber, err)
		}
		created, _, err := s.store.ApplyMutation(ctx, p.ID, Mutation{Transaction: entry})
		if err != nil {
			return nil, fmt.Errorf("record initial stock for part %q: %w", p.PartNumber, err)
		}
		p = created
	}

	s.logger.Info().
		Stringer("part_id", p.ID).
		Str("part_number", p.PartNumber).
		Int("quantity", p.QuantityOnHand).
		Msg("part created")
	return p, nil
}

// UpdatePart replaces a part's descriptive fields. Quantity on hand is not
// touched here; it only moves through the mutation operations below.
func (s *service) UpdatePart(ctx context.Context, id uuid.UUID, p *Part) (*Part, error) {
	if err := validatePart(p); err != nil {
		return nil, err
	}

	existing, err := s.store.GetPart(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update part %s: %w", id, err)
	}

	if p.PartNumber != existing.PartNumber {
		if _, err := s.store.GetPartByNumber(ctx, p.PartNumber); err == nil {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePartNumber, p.PartNumber)
		} else if !errors.Is(err, ErrPartNotFound) {
			return nil, fmt.Errorf("update part %s: %w", id, err)
		}
	}

	p.ID = existing.ID
	p.QuantityOnHand = existing.QuantityOnHand
	p.IsActive = existing.IsActive
	p.LastRestockDate = existing.LastRestockDate
	p.LastUsedDate = existing.LastUsedDate
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdatePart(ctx, p); err != nil {
		return nil, fmt.Errorf("update part %s: %w", id, err)
	}
	return p, nil
}

func (s *service) GetPart(ctx context.Context, id uuid.UUID) (*Part, error) {
	return s.store.GetPart(ctx, id)
}

func (s *service) GetPartByNumber(ctx context.Context, partNumber string) (*Part, error) {
	return s.store.GetPartByNumber(ctx, partNumber)
}

// DeletePart deactivates the part without touching its history.
func (s *service) DeletePart(ctx context.Context, id uuid.UUID) error {
	if err := s.store.SoftDeletePart(ctx, id); err != nil {
		return fmt.Errorf("delete part %s: %w", id, err)
	}
	s.logger.Info().Stringer("part_id", id).Msg("part deactivated")
	return nil
}

// PermanentlyDeletePart removes the part row. Parts with any transaction
// history are protected; the ledger outlives its subjects.
func (s *service) PermanentlyDeletePart(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeletePart(ctx, id); err != nil {
		return fmt.Errorf("permanently delete part %s: %w", id, err)
	}
	s.logger.Warn().Stringer("part_id", id).Msg("part permanently deleted")
	return nil
}

// Restock adds purchased stock and records a PURCHASE entry.
func (s *service) Restock(ctx context.Context, partID uuid.UUID, quantity int, unitCost decimal.NullDecimal, vendor, referenceNumber string) (*Part, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive, got %d", ErrInvalidInput, quantity)
	}

	entry, err := s.ledger.Prepare(partID, ledger.TypePurchase, quantity, ledger.CreateOptions{
		UnitCost:        unitCost,
		Vendor:          vendor,
		ReferenceNumber: referenceNumber,
		Reason:          "Restocked from vendor",
	})
	if err != nil {
		return nil, fmt.Errorf("restock part %s: %w", partID, err)
	}

	part, _, err := s.store.ApplyMutation(ctx, partID, Mutation{Transaction: entry, TouchRestock: true})
	if err != nil {
		return nil, fmt.Errorf("restock part %s: %w", partID, err)
	}

	s.logger.Info().
		Stringer("part_id", partID).
		Int("quantity", quantity).
		Int("balance", part.QuantityOnHand).
		Str("vendor", vendor).
		Msg("part restocked")
	return part, nil
}

// UseParts removes stock for project or task work. The store re-checks
// sufficiency under its own serialization, so the part never goes negative
// even under concurrent callers.
func (s *service) UseParts(ctx context.Context, partID uuid.UUID, quantity int, usage UsageContext) (*Part, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: usage quantity must be positive, got %d", ErrInvalidInput, quantity)
	}

	reason := usage.Reason
	if reason == "" {
		reason = "Used in project/task"
	}
	entry, err := s.ledger.Prepare(partID, ledger.TypeUsage, quantity, ledger.CreateOptions{
		Reason:      reason,
		ProjectID:   usage.ProjectID,
		TaskID:      usage.TaskID,
		PerformedBy: usage.PerformedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("use parts %s: %w", partID, err)
	}

	part, _, err := s.store.ApplyMutation(ctx, partID, Mutation{Transaction: entry, TouchUsed: true})
	if err != nil {
		return nil, fmt.Errorf("use parts %s: %w", partID, err)
	}

	s.logger.Info().
		Stringer("part_id", partID).
		Int("quantity", quantity).
		Int("balance", part.QuantityOnHand).
		Msg("parts used")
	return part, nil
}

// AdjustInventory reconciles the recorded quantity with a physical count.
// The delta is recorded as a positive or negative adjustment; a zero delta
// writes nothing.
func (s *service) AdjustInventory(ctx context.Context, partID uuid.UUID, newQuantity int, reason string) (*Part, error) {
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: adjusted quantity cannot be negative, got %d", ErrInvalidInput, newQuantity)
	}

	part, err := s.store.GetPart(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("adjust inventory %s: %w", partID, err)
	}

	delta := newQuantity - part.QuantityOnHand
	if delta == 0 {
		return part, nil
	}

	typ := ledger.TypeAdjustmentPositive
	quantity := delta
	if delta < 0 {
		typ = ledger.TypeAdjustmentNegative
		quantity = -delta
	}
	if reason == "" {
		reason = "Inventory adjustment"
	}

	entry, err := s.ledger.Prepare(partID, typ, quantity, ledger.CreateOptions{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("adjust inventory %s: %w", partID, err)
	}

	part, _, err = s.store.ApplyMutation(ctx, partID, Mutation{Transaction: entry})
	if err != nil {
		return nil, fmt.Errorf("adjust inventory %s: %w", partID, err)
	}

	s.logger.Info().
		Stringer("part_id", partID).
		Int("delta", delta).
		Int("balance", part.QuantityOnHand).
		Str("reason", reason).
		Msg("inventory adjusted")
	return part, nil
}

// UpdateQuantity is the generic signed mutation behind the specialized
// operations. The transaction type's direction must agree with the delta.
func (s *service) UpdateQuantity(ctx context.Context, partID uuid.UUID, delta int, typ ledger.TransactionType, reason string) (*Part, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: quantity change cannot be zero", ErrInvalidInput)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, typ)
	}
	if (delta > 0) != typ.Incoming() {
		return nil, fmt.Errorf("%w: transaction type %s does not match quantity change %d", ErrInvalidInput, typ, delta)
	}

	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	entry, err := s.ledger.Prepare(partID, typ, quantity, ledger.CreateOptions{Reason: reason})
	if err != nil {
		return nil, fmt.Errorf("update quantity %s: %w", partID, err)
	}

	part, _, err := s.store.ApplyMutation(ctx, partID, Mutation{
		Transaction: entry,
		TouchUsed:   delta < 0,
	})
	if err != nil {
		return nil, fmt.Errorf("update quantity %s: %w", partID, err)
	}
	return part, nil
}

func (s *service) ListActiveParts(ctx context.Context) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true})
}

func (s *service) PartsByCategory(ctx context.Context, category Category) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, Category: category})
}

func (s *service) SearchParts(ctx context.Context, term string) ([]*Part, error) {
	return s.list(ctx, PartFilter{Search: term})
}

func (s *service) PartsByVendor(ctx context.Context, vendor string) ([]*Part, error) {
	return s.list(ctx, PartFilter{Vendor: vendor})
}

func (s *service) PartsByStorageLocation(ctx context.Context, location string) ([]*Part, error) {
	return s.list(ctx, PartFilter{StorageLocation: location})
}

func (s *service) LowStockParts(ctx context.Context) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, LowStock: true})
}

func (s *service) CriticallyLowParts(ctx context.Context) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, CriticallyLow: true})
}

func (s *service) OutOfStockParts(ctx context.Context) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, OutOfStock: true})
}

func (s *service) PartsNeedingReorder(ctx context.Context) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, NeedsReorder: true})
}

func (s *service) UnusedPartsSince(ctx context.Context, since time.Time) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, UnusedSince: &since})
}

func (s *service) PartsWithLongLeadTimes(ctx context.Context, minDays int) ([]*Part, error) {
	return s.list(ctx, PartFilter{ActiveOnly: true, MinLeadTimeDays: minDays})
}

func (s *service) TotalInventoryValue(ctx context.Context) (decimal.Decimal, error) {
	return s.sumValue(ctx, PartFilter{ActiveOnly: true})
}

func (s *service) InventoryValueByCategory(ctx context.Context, category Category) (decimal.Decimal, error) {
	return s.sumValue(ctx, PartFilter{ActiveOnly: true, Category: category})
}

func (s *service) sumValue(ctx context.Context, f PartFilter) (decimal.Decimal, error) {
	parts, err := s.list(ctx, f)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.InventoryValue())
	}
	return total, nil
}

// list keeps dashboard-style reads resilient: internal store failures are
// logged and surfaced as empty results.
func (s *service) list(ctx context.Context, f PartFilter) ([]*Part, error) {
	parts, err := s.store.ListParts(ctx, f)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("part query failed")
		return []*Part{}, nil
	}
	return parts, nil
}

func validatePart(p *Part) error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: part is required", ErrInvalidInput)
	case p.PartNumber == "":
		return fmt.Errorf("%w: part number is required", ErrInvalidInput)
	case p.Name == "":
		return fmt.Errorf("%w: part name is required", ErrInvalidInput)
	case p.Category == "":
		return fmt.Errorf("%w: part category is required", ErrInvalidInput)
	case p.Unit == "":
		return fmt.Errorf("%w: unit of measure is required", ErrInvalidInput)
	case p.MinimumStock < 0:
		return fmt.Errorf("%w: minimum stock cannot be negative", ErrInvalidInput)
	case p.SafetyStock < 0:
		return fmt.Errorf("%w: safety stock cannot be negative", ErrInvalidInput)
	case p.UnitCost.Valid && p.UnitCost.Decimal.IsNegative():
		return fmt.Errorf("%w: unit cost cannot be negative", ErrInvalidInput)
	}
	return nil
}
