// internal/planning/implementation.go
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// service implements the Service interface.
type service struct {
	store  Store
	parts  PartReader
	logger zerolog.Logger
}

// NewService creates a new requirement fulfillment engine instance.
func NewService(store Store, parts PartReader, logger zerolog.Logger) Service {
	return &service{
		store:  store,
		parts:  parts,
		logger: logger.With().Str("component", "planning").Logger(),
	}
}

func (s *service) CreateRequirement(ctx context.Context, r *Requirement) (*Requirement, error) {
	if !s.ValidateRequirement(r) {
		return nil, fmt.Errorf("%w: validation failed", ErrInvalidRequirement)
	}

	now := time.Now().UTC()
	r.ID = uuid.New()
	r.IsActive = true
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.BuildPhase == "" {
		r.BuildPhase = PhaseAny
	}

	if err := s.store.InsertRequirement(ctx, r); err != nil {
		return nil, fmt.Errorf("create requirement: %w", err)
	}
	s.logger.Info().
		Stringer("requirement_id", r.ID).
		Stringer("part_id", r.PartID).
		Int("quantity", r.QuantityRequired).
		Msg("requirement created")
	return r, nil
}

func (s *service) UpdateRequirement(ctx context.Context, id uuid.UUID, r *Requirement) (*Requirement, error) {
	if !s.ValidateRequirement(r) {
		return nil, fmt.Errorf("%w: validation failed", ErrInvalidRequirement)
	}

	existing, err := s.store.GetRequirement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update requirement %s: %w", id, err)
	}

	r.ID = existing.ID
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	if r.BuildPhase == "" {
		r.BuildPhase = PhaseAny
	}

	if err := s.store.UpdateRequirement(ctx, r); err != nil {
		return nil, fmt.Errorf("update requirement %s: %w", id, err)
	}
	return r, nil
}

func (s *service) GetRequirement(ctx context.Context, id uuid.UUID) (*Requirement, error) {
	return s.store.GetRequirement(ctx, id)
}

func (s *service) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteRequirement(ctx, id); err != nil {
		return fmt.Errorf("delete requirement %s: %w", id, err)
	}
	return nil
}

func (s *service) RequirementsByProjectTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	return s.listByTemplate(ctx, templateID)
}

func (s *service) RequirementsByTaskTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	requirements, err := s.store.ListByTaskTemplate(ctx, templateID)
	if err != nil {
		return s.queryFallback(err)
	}
	return requirements, nil
}

func (s *service) CriticalRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	requirements, err := s.listByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return filter(requirements, func(r *Requirement) bool { return r.IsCritical }), nil
}

func (s *service) OptionalRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	requirements, err := s.listByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return filter(requirements, func(r *Requirement) bool { return r.IsOptional }), nil
}

func (s *service) RequirementsByPriority(ctx context.Context, templateID uuid.UUID, priority Priority) ([]*Requirement, error) {
	requirements, err := s.listByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return filter(requirements, func(r *Requirement) bool { return r.Priority == priority }), nil
}

func (s *service) HighPriorityRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	requirements, err := s.listByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return filter(requirements, func(r *Requirement) bool {
		return r.Priority == PriorityCritical || r.Priority == PriorityHigh
	}), nil
}

// CanBeFulfilled checks a single requirement against live stock.
func (s *service) CanBeFulfilled(ctx context.Context, requirementID uuid.UUID) (bool, error) {
	r, err := s.store.GetRequirement(ctx, requirementID)
	if err != nil {
		return false, fmt.Errorf("check fulfillment %s: %w", requirementID, err)
	}
	if r.IsOptional {
		return true, nil
	}
	part, err := s.parts.GetPart(ctx, r.PartID)
	if err != nil {
		return false, fmt.Errorf("check fulfillment %s: %w", requirementID, err)
	}
	return r.CanBeFulfilled(part.QuantityOnHand), nil
}

// CanFulfillAllRequirements is true when every non-optional requirement for
// the template is individually covered by current stock.
func (s *service) CanFulfillAllRequirements(ctx context.Context, templateID uuid.UUID) (bool, error) {
	requirements, err := s.store.ListByProjectTemplate(ctx, templateID)
	if err != nil {
		return false, fmt.Errorf("list requirements for template %s: %w", templateID, err)
	}
	for _, r := range requirements {
		if r.IsOptional {
			continue
		}
		part, err := s.parts.GetPart(ctx, r.PartID)
		if err != nil {
			return false, fmt.Errorf("read part %s: %w", r.PartID, err)
		}
		if !r.CanBeFulfilled(part.QuantityOnHand) {
			return false, nil
		}
	}
	return true, nil
}

// UnfulfillableRequirements returns every failing requirement, not just the
// first, so purchasing sees the complete shopping list.
func (s *service) UnfulfillableRequirements(ctx context.Context, templateID uuid.UUID) ([]Shortfall, error) {
	requirements, err := s.store.ListByProjectTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("list requirements for template %s: %w", templateID, err)
	}
	var shortfalls []Shortfall
	for _, r := range requirements {
		part, err := s.parts.GetPart(ctx, r.PartID)
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", r.PartID, err)
		}
		if r.CanBeFulfilled(part.QuantityOnHand) {
			continue
		}
		shortfalls = append(shortfalls, Shortfall{
			Requirement:    r,
			QuantityOnHand: part.QuantityOnHand,
			Shortfall:      r.ShortfallAgainst(part.QuantityOnHand),
		})
	}
	return shortfalls, nil
}

// PartsNeeded aggregates the template's shortfalls into a shopping list,
// one line per part even when several requirements share it.
func (s *service) PartsNeeded(ctx context.Context, templateID uuid.UUID) ([]NeededPart, error) {
	requirements, err := s.store.ListByProjectTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("list requirements for template %s: %w", templateID, err)
	}

	index := make(map[uuid.UUID]int)
	var needed []NeededPart
	for _, r := range requirements {
		if r.IsOptional {
			continue
		}
		part, err := s.parts.GetPart(ctx, r.PartID)
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", r.PartID, err)
		}
		units := r.ShortfallAgainst(part.QuantityOnHand)
		if units == 0 {
			continue
		}
		if i, ok := index[part.ID]; ok {
			needed[i].AdditionalUnits += units
			continue
		}
		index[part.ID] = len(needed)
		needed = append(needed, NeededPart{Part: part, AdditionalUnits: units})
	}
	return needed, nil
}

// CalculateTotalCost prices the whole template.
func (s *service) CalculateTotalCost(ctx context.Context, templateID uuid.UUID) (decimal.Decimal, error) {
	requirements, err := s.store.ListByProjectTemplate(ctx, templateID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list requirements for template %s: %w", templateID, err)
	}
	total := decimal.Zero
	for _, r := range requirements {
		partCost := decimal.NullDecimal{}
		if !r.EstimatedCost.Valid {
			part, err := s.parts.GetPart(ctx, r.PartID)
			if err != nil {
				return decimal.Zero, fmt.Errorf("read part %s: %w", r.PartID, err)
			}
			partCost = part.UnitCost
		}
		total = total.Add(r.TotalEstimatedCost(partCost))
	}
	return total, nil
}

// RequirementsByBuildPhase returns the template's requirements for the given
// phase, including the ANY wildcard.
func (s *service) RequirementsByBuildPhase(ctx context.Context, templateID uuid.UUID, phase BuildPhase) ([]*Requirement, error) {
	requirements, err := s.listByTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return filter(requirements, func(r *Requirement) bool {
		return r.BuildPhase.Matches(phase)
	}), nil
}

// ImmediateRequirements is the deduplicated union of the current phase and
// the one after it; after COMPETITION there is no next phase.
func (s *service) ImmediateRequirements(ctx context.Context, templateID uuid.UUID, currentPhase BuildPhase) ([]*Requirement, error) {
	current, err := s.RequirementsByBuildPhase(ctx, templateID, currentPhase)
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool, len(current))
	result := make([]*Requirement, 0, len(current))
	for _, r := range current {
		seen[r.ID] = true
		result = append(result, r)
	}

	if next, ok := currentPhase.Next(); ok {
		upcoming, err := s.RequirementsByBuildPhase(ctx, templateID, next)
		if err != nil {
			return nil, err
		}
		for _, r := range upcoming {
			if !seen[r.ID] {
				seen[r.ID] = true
				result = append(result, r)
			}
		}
	}
	return result, nil
}

// ValidateRequirement checks shape and bounds. It returns false instead of
// an error so callers can run it against unsaved form input.
func (s *service) ValidateRequirement(r *Requirement) bool {
	if r == nil || r.PartID == uuid.Nil || !r.Priority.Valid() || r.QuantityRequired <= 0 {
		return false
	}
	if !r.ProjectTemplateID.Valid && !r.TaskTemplateID.Valid {
		return false
	}
	if r.MinimumQuantity < 0 || r.MaximumQuantity < 0 {
		return false
	}
	if r.MinimumQuantity > 0 && r.MaximumQuantity > 0 {
		if r.MinimumQuantity > r.MaximumQuantity {
			return false
		}
		if r.QuantityRequired < r.MinimumQuantity || r.QuantityRequired > r.MaximumQuantity {
			return false
		}
	}
	return true
}

func (s *service) listByTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error) {
	requirements, err := s.store.ListByProjectTemplate(ctx, templateID)
	if err != nil {
		return s.queryFallback(err)
	}
	return requirements, nil
}

// queryFallback keeps read helpers resilient for dashboard consumers.
func (s *service) queryFallback(err error) ([]*Requirement, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	s.logger.Error().Err(err).Msg("requirement query failed")
	return []*Requirement{}, nil
}

func filter(requirements []*Requirement, keep func(*Requirement) bool) []*Requirement {
	result := make([]*Requirement, 0, len(requirements))
	for _, r := range requirements {
		if keep(r) {
			result = append(result, r)
		}
	}
	return result
}
