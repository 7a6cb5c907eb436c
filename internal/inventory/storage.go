// internal/inventory/storage.go
package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pitstock/internal/ledger"
)

// Mutation is one pending stock change: a prepared ledger entry plus the
// side effects to stamp on the part. The signed delta is derived from the
// entry's type and quantity.
type Mutation struct {
	Transaction  *ledger.Transaction
	TouchRestock bool
	TouchUsed    bool
}

// PartFilter narrows a part listing. Zero values mean "don't filter".
type PartFilter struct {
	ActiveOnly      bool
	Category        Category
	Search          string
	Vendor          string
	StorageLocation string
	LowStock        bool
	CriticallyLow   bool
	OutOfStock      bool
	NeedsReorder    bool
	UnusedSince     *time.Time
	MinLeadTimeDays int
}

// Store is the persistence boundary for parts.
//
// ApplyMutation is the critical section from the concurrency model: it must
// atomically re-check stock sufficiency against the current quantity, write
// the new quantity, and append the ledger entry with BalanceAfter equal to
// that quantity. Two concurrent outgoing mutations on the same part must
// never both pass the sufficiency check against a stale value. Mutations on
// different parts need no coordination.
type Store interface {
	InsertPart(ctx context.Context, p *Part) error
	GetPart(ctx context.Context, id uuid.UUID) (*Part, error)
	GetPartByNumber(ctx context.Context, partNumber string) (*Part, error)
	UpdatePart(ctx context.Context, p *Part) error
	ListParts(ctx context.Context, f PartFilter) ([]*Part, error)

	// ApplyMutation returns the part as of after the change together with
	// the persisted ledger entry. It fails with ErrPartNotFound or
	// ErrInsufficientStock, leaving no partial effects.
	ApplyMutation(ctx context.Context, partID uuid.UUID, m Mutation) (*Part, *ledger.Transaction, error)

	SoftDeletePart(ctx context.Context, id uuid.UUID) error

	// DeletePart removes the row permanently. It fails with
	// ErrPartHasHistory when any ledger entry references the part.
	DeletePart(ctx context.Context, id uuid.UUID) error
}
