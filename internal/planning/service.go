// internal/planning/service.go
package planning

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pitstock/internal/inventory"
)

// PartReader is the read-only slice of the inventory service the engine
// needs. The engine never mutates stock.
type PartReader interface {
	GetPart(ctx context.Context, id uuid.UUID) (*inventory.Part, error)
}

// Service defines the interface for the requirement fulfillment engine.
type Service interface {
	CreateRequirement(ctx context.Context, r *Requirement) (*Requirement, error)
	UpdateRequirement(ctx context.Context, id uuid.UUID, r *Requirement) (*Requirement, error)
	GetRequirement(ctx context.Context, id uuid.UUID) (*Requirement, error)
	DeleteRequirement(ctx context.Context, id uuid.UUID) error

	RequirementsByProjectTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
	RequirementsByTaskTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
	CriticalRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
	OptionalRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
	RequirementsByPriority(ctx context.Context, templateID uuid.UUID, priority Priority) ([]*Requirement, error)
	HighPriorityRequirements(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)

	CanBeFulfilled(ctx context.Context, requirementID uuid.UUID) (bool, error)
	CanFulfillAllRequirements(ctx context.Context, templateID uuid.UUID) (bool, error)
	UnfulfillableRequirements(ctx context.Context, templateID uuid.UUID) ([]Shortfall, error)
	PartsNeeded(ctx context.Context, templateID uuid.UUID) ([]NeededPart, error)
	CalculateTotalCost(ctx context.Context, templateID uuid.UUID) (decimal.Decimal, error)

	RequirementsByBuildPhase(ctx context.Context, templateID uuid.UUID, phase BuildPhase) ([]*Requirement, error)
	ImmediateRequirements(ctx context.Context, templateID uuid.UUID, currentPhase BuildPhase) ([]*Requirement, error)

	// ValidateRequirement reports shape problems without raising, for
	// pre-save form validation.
	ValidateRequirement(r *Requirement) bool
}
