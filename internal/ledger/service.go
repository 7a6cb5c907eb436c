// internal/ledger/service.go
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service defines the interface for the transaction ledger service.
type Service interface {
	// Prepare builds a new ledger entry for the given movement: it stamps
	// identity, timestamps and total cost, and applies the approval policy.
	// BalanceAfter is left for the storage layer, which fills it from the
	// part's post-mutation quantity inside the same transaction.
	Prepare(partID uuid.UUID, typ TransactionType, quantity int, opts CreateOptions) (*Transaction, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)

	Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*Transaction, error)
	BulkApprove(ctx context.Context, ids []uuid.UUID, approvedBy string) (*BulkApproveResult, error)
	UnapprovedTransactions(ctx context.Context) ([]*Transaction, error)
	CountUnapproved(ctx context.Context) (int64, error)

	TransactionsByPart(ctx context.Context, partID uuid.UUID) ([]*Transaction, error)
	TransactionsByPartInRange(ctx context.Context, partID uuid.UUID, from, to time.Time) ([]*Transaction, error)
	TransactionsInRange(ctx context.Context, from, to time.Time) ([]*Transaction, error)
	TransactionsByType(ctx context.Context, typ TransactionType) ([]*Transaction, error)
	TransactionsByProject(ctx context.Context, projectID uuid.UUID) ([]*Transaction, error)
	TransactionsByTask(ctx context.Context, taskID uuid.UUID) ([]*Transaction, error)
	TransactionsByPerformer(ctx context.Context, memberID uuid.UUID) ([]*Transaction, error)
	HighValueTransactions(ctx context.Context, threshold decimal.Decimal) ([]*Transaction, error)
	TransactionsByVendor(ctx context.Context, vendor string) ([]*Transaction, error)
	TransactionsByReference(ctx context.Context, reference string) ([]*Transaction, error)
	SearchByReason(ctx context.Context, term string) ([]*Transaction, error)
	RecentTransactions(ctx context.Context, limit int) ([]*Transaction, error)

	// TotalSpending sums the total cost of incoming movements in the range.
	TotalSpending(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}
