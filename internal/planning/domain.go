// internal/planning/domain.go
package planning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pitstock/internal/inventory"
)

var (
	ErrRequirementNotFound = errors.New("requirement not found")
	ErrInvalidRequirement  = errors.New("invalid requirement")
)

// Priority ranks how much a requirement matters to the template it belongs
// to.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

var prioritySort = map[Priority]int{
	PriorityCritical: 1,
	PriorityHigh:     2,
	PriorityMedium:   3,
	PriorityLow:      4,
}

// SortOrder is the rank used when listing requirements; unknown priorities
// sort last.
func (p Priority) SortOrder() int {
	if n, ok := prioritySort[p]; ok {
		return n
	}
	return len(prioritySort) + 1
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := prioritySort[p]
	return ok
}

// BuildPhase time-boxes a requirement inside the build season. PhaseAny
// matches every phase.
type BuildPhase string

const (
	PhaseDesign      BuildPhase = "DESIGN"
	PhaseFabrication BuildPhase = "FABRICATION"
	PhaseTesting     BuildPhase = "TESTING"
	PhaseIntegration BuildPhase = "INTEGRATION"
	PhaseCompetition BuildPhase = "COMPETITION"
	PhaseAny         BuildPhase = "ANY"
)

var phaseOrder = []BuildPhase{
	PhaseDesign,
	PhaseFabrication,
	PhaseTesting,
	PhaseIntegration,
	PhaseCompetition,
}

// Next returns the phase that follows p in the season. There is nothing
// after COMPETITION, and ANY has no successor.
func (p BuildPhase) Next() (BuildPhase, bool) {
	for i, phase := range phaseOrder {
		if phase == p && i+1 < len(phaseOrder) {
			return phaseOrder[i+1], true
		}
	}
	return "", false
}

// Matches reports whether a requirement tagged with p applies during the
// given phase.
func (p BuildPhase) Matches(phase BuildPhase) bool {
	return p == phase || p == PhaseAny
}

// Requirement declares a planning template's need for a part. Requirements
// are authored alongside templates and are read-only from the inventory
// side.
type Requirement struct {
	ID                uuid.UUID           `json:"id"`
	PartID            uuid.UUID           `json:"part_id"`
	ProjectTemplateID uuid.NullUUID       `json:"project_template_id,omitempty"`
	TaskTemplateID    uuid.NullUUID       `json:"task_template_id,omitempty"`
	QuantityRequired  int                 `json:"quantity_required"`
	MinimumQuantity   int                 `json:"minimum_quantity,omitempty"`
	MaximumQuantity   int                 `json:"maximum_quantity,omitempty"`
	Priority          Priority            `json:"priority"`
	IsCritical        bool                `json:"is_critical"`
	IsOptional        bool                `json:"is_optional"`
	BuildPhase        BuildPhase          `json:"build_phase"`
	EstimatedCost     decimal.NullDecimal `json:"estimated_cost_per_unit,omitempty"`
	LeadTimeDays      int                 `json:"lead_time_days,omitempty"`
	IsReusable        bool                `json:"is_reusable"`
	PreferredVendor   string              `json:"preferred_vendor,omitempty"`
	Specifications    string              `json:"specifications,omitempty"`
	Alternatives      string              `json:"alternatives,omitempty"`
	UsageNotes        string              `json:"usage_notes,omitempty"`
	IsActive          bool                `json:"is_active"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// EffectiveMinimum is the smallest acceptable quantity: the lower bound when
// a range is set, otherwise the required quantity itself.
func (r *Requirement) EffectiveMinimum() int {
	if r.MinimumQuantity > 0 {
		return r.MinimumQuantity
	}
	return r.QuantityRequired
}

// EffectiveMaximum mirrors EffectiveMinimum for the upper bound.
func (r *Requirement) EffectiveMaximum() int {
	if r.MaximumQuantity > 0 {
		return r.MaximumQuantity
	}
	return r.QuantityRequired
}

// IsFlexible reports whether the requirement accepts a range of quantities.
func (r *Requirement) IsFlexible() bool {
	return r.MinimumQuantity > 0 && r.MaximumQuantity > 0 && r.MinimumQuantity != r.MaximumQuantity
}

// CanBeFulfilled reports whether current stock covers this requirement.
// Optional requirements are always considered fulfillable.
func (r *Requirement) CanBeFulfilled(quantityOnHand int) bool {
	if r.IsOptional {
		return true
	}
	return quantityOnHand >= r.EffectiveMinimum()
}

// ShortfallAgainst is how many additional units are needed beyond current
// stock; never negative.
func (r *Requirement) ShortfallAgainst(quantityOnHand int) int {
	if n := r.QuantityRequired - quantityOnHand; n > 0 {
		return n
	}
	return 0
}

// TotalEstimatedCost prices the requirement: its own estimate when present,
// else the part's standard cost.
func (r *Requirement) TotalEstimatedCost(partUnitCost decimal.NullDecimal) decimal.Decimal {
	perUnit := decimal.Zero
	switch {
	case r.EstimatedCost.Valid:
		perUnit = r.EstimatedCost.Decimal
	case partUnitCost.Valid:
		perUnit = partUnitCost.Decimal
	}
	return perUnit.Mul(decimal.NewFromInt(int64(r.QuantityRequired)))
}

// Shortfall annotates an unfulfillable requirement with how far short the
// current stock falls, for purchasing lists.
type Shortfall struct {
	Requirement    *Requirement `json:"requirement"`
	QuantityOnHand int          `json:"quantity_on_hand"`
	Shortfall      int          `json:"shortfall"`
}

// NeededPart pairs a part with the total units still to acquire across a
// template's requirements.
type NeededPart struct {
	Part            *inventory.Part `json:"part"`
	AdditionalUnits int             `json:"additional_units"`
}
