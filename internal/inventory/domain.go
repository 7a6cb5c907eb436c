// internal/inventory/domain.go
package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrPartNotFound        = errors.New("part not found")
	ErrDuplicatePartNumber = errors.New("part number already exists")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrPartHasHistory      = errors.New("part has transaction history")
	ErrInvalidInput        = errors.New("invalid input")
)

// Category organizes parts for filtering and reporting.
type Category string

const (
	CategoryDrivetrain   Category = "DRIVETRAIN"
	CategoryStructural   Category = "STRUCTURAL"
	CategoryElectronics  Category = "ELECTRONICS"
	CategoryPneumatics   Category = "PNEUMATICS"
	CategoryGameSpecific Category = "GAME_SPECIFIC"
	CategoryFasteners    Category = "FASTENERS"
	CategoryTools        Category = "TOOLS"
	CategoryRawMaterials Category = "RAW_MATERIALS"
	CategorySafety       Category = "SAFETY"
	CategoryOther        Category = "OTHER"
)

// Part is a trackable inventory item. Its quantity is only ever changed
// through the mutation service, which appends a ledger entry for every
// change.
type Part struct {
	ID               uuid.UUID           `json:"id"`
	PartNumber       string              `json:"part_number"`
	Name             string              `json:"name"`
	Description      string              `json:"description,omitempty"`
	Category         Category            `json:"category"`
	QuantityOnHand   int                 `json:"quantity_on_hand"`
	MinimumStock     int                 `json:"minimum_stock"`
	SafetyStock      int                 `json:"safety_stock"`
	OptimalStock     int                 `json:"optimal_stock,omitempty"`
	Unit             string              `json:"unit"`
	UnitCost         decimal.NullDecimal `json:"unit_cost,omitempty"`
	Vendor           string              `json:"vendor,omitempty"`
	VendorPartNumber string              `json:"vendor_part_number,omitempty"`
	StorageLocation  string              `json:"storage_location,omitempty"`
	LeadTimeDays     int                 `json:"lead_time_days,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	IsActive         bool                `json:"is_active"`
	IsConsumable     bool                `json:"is_consumable"`
	LastRestockDate  *time.Time          `json:"last_restock_date,omitempty"`
	LastUsedDate     *time.Time          `json:"last_used_date,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// IsLowStock reports whether the part is at or below its reorder threshold.
func (p *Part) IsLowStock() bool {
	return p.QuantityOnHand <= p.MinimumStock
}

// IsCriticallyLow reports whether the part has eaten into its safety buffer.
func (p *Part) IsCriticallyLow() bool {
	return p.QuantityOnHand <= p.SafetyStock
}

func (p *Part) IsOutOfStock() bool {
	return p.QuantityOnHand == 0
}

// ReorderQuantity is the recommended purchase size: top back up to the
// optimal level when one is set, otherwise twice the minimum.
func (p *Part) ReorderQuantity() int {
	if p.OptimalStock > 0 && p.QuantityOnHand < p.OptimalStock {
		return p.OptimalStock - p.QuantityOnHand
	}
	if n := p.MinimumStock*2 - p.QuantityOnHand; n > 0 {
		return n
	}
	return 0
}

// InventoryValue is unit cost times quantity on hand; zero when the cost is
// unknown.
func (p *Part) InventoryValue() decimal.Decimal {
	if !p.UnitCost.Valid {
		return decimal.Zero
	}
	return p.UnitCost.Decimal.Mul(decimal.NewFromInt(int64(p.QuantityOnHand)))
}

// NeedsReordering folds lead time into the low-stock check: slow parts start
// a reorder earlier.
func (p *Part) NeedsReordering() bool {
	if p.IsLowStock() {
		return true
	}
	return p.LeadTimeDays > 0 && p.QuantityOnHand <= p.MinimumStock+p.LeadTimeDays/7
}
