// internal/ledger/storage.go
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Filter narrows a ledger listing. Zero values mean "don't filter". Results
// are always ordered newest first.
type Filter struct {
	PartID          uuid.NullUUID
	Type            TransactionType
	ProjectID       uuid.NullUUID
	TaskID          uuid.NullUUID
	PerformedBy     uuid.NullUUID
	From            *time.Time
	To              *time.Time
	OnlyUnapproved  bool
	MinTotalCost    decimal.NullDecimal
	Vendor          string
	ReferenceNumber string
	ReasonContains  string
	Limit           int
}

// Store is the persistence boundary for ledger entries. Entries are appended
// by the inventory mutation path (atomically with the stock write) and are
// immutable afterwards except for approval metadata. DeleteTransaction exists
// only for administrative cleanup and is intentionally not reachable through
// the Service interface.
type Store interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, f Filter) ([]*Transaction, error)
	CountUnapproved(ctx context.Context) (int64, error)

	// MarkApproved sets the approval fields. It fails with
	// ErrTransactionNotFound or ErrAlreadyApproved; approval is one-way.
	MarkApproved(ctx context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error

	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}
