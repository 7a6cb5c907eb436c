// internal/inventory/service.go
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pitstock/internal/ledger"
)

// UsageContext ties a usage movement back to the project, task and member it
// served. All references are opaque to this subsystem.
type UsageContext struct {
	ProjectID   uuid.NullUUID
	TaskID      uuid.NullUUID
	PerformedBy uuid.NullUUID
	Reason      string
}

// Service is the sole entry point for changing a part's quantity on hand.
// Every mutating call writes exactly one ledger entry atomically with the
// quantity change.
type Service interface {
	CreatePart(ctx context.Context, p *Part) (*Part, error)
	UpdatePart(ctx context.Context, id uuid.UUID, p *Part) (*Part, error)
	GetPart(ctx context.Context, id uuid.UUID) (*Part, error)
	GetPartByNumber(ctx context.Context, partNumber string) (*Part, error)
	DeletePart(ctx context.Context, id uuid.UUID) error
	PermanentlyDeletePart(ctx context.Context, id uuid.UUID) error

	Restock(ctx context.Context, partID uuid.UUID, quantity int, unitCost decimal.NullDecimal, vendor, referenceNumber string) (*Part, error)
	UseParts(ctx context.Context, partID uuid.UUID, quantity int, usage UsageContext) (*Part, error)
	AdjustInventory(ctx context.Context, partID uuid.UUID, newQuantity int, reason string) (*Part, error)
	UpdateQuantity(ctx context.Context, partID uuid.UUID, delta int, typ ledger.TransactionType, reason string) (*Part, error)

	ListActiveParts(ctx context.Context) ([]*Part, error)
	PartsByCategory(ctx context.Context, category Category) ([]*Part, error)
	SearchParts(ctx context.Context, term string) ([]*Part, error)
	PartsByVendor(ctx context.Context, vendor string) ([]*Part, error)
	PartsByStorageLocation(ctx context.Context, location string) ([]*Part, error)

	LowStockParts(ctx context.Context) ([]*Part, error)
	CriticallyLowParts(ctx context.Context) ([]*Part, error)
	OutOfStockParts(ctx context.Context) ([]*Part, error)
	PartsNeedingReorder(ctx context.Context) ([]*Part, error)
	UnusedPartsSince(ctx context.Context, since time.Time) ([]*Part, error)
	PartsWithLongLeadTimes(ctx context.Context, minDays int) ([]*Part, error)

	TotalInventoryValue(ctx context.Context) (decimal.Decimal, error)
	InventoryValueByCategory(ctx context.Context, category Category) (decimal.Decimal, error)
}
