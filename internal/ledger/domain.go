// internal/ledger/domain.go
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyApproved     = errors.New("transaction already approved")
	ErrInvalidTransaction  = errors.New("invalid transaction")
)

// TransactionType classifies a stock movement. The sign of the movement is a
// property of the type, not of the recorded quantity: quantities are always
// positive magnitudes.
type TransactionType string

const (
	// Incoming movements.
	TypePurchase           TransactionType = "PURCHASE"
	TypeDonation           TransactionType = "DONATION"
	TypeReturn             TransactionType = "RETURN"
	TypeFound              TransactionType = "FOUND"
	TypeAdjustmentPositive TransactionType = "ADJUSTMENT_POSITIVE"
	TypeInitialStock       TransactionType = "INITIAL_STOCK"
	TypeTransferIn         TransactionType = "TRANSFER_IN"

	// Outgoing movements.
	TypeUsage              TransactionType = "USAGE"
	TypeDamaged            TransactionType = "DAMAGED"
	TypeLost               TransactionType = "LOST"
	TypeDisposed           TransactionType = "DISPOSED"
	TypeAdjustmentNegative TransactionType = "ADJUSTMENT_NEGATIVE"
	TypeTransferOut        TransactionType = "TRANSFER_OUT"
)

var typeMultipliers = map[TransactionType]int{
	TypePurchase:           1,
	TypeDonation:           1,
	TypeReturn:             1,
	TypeFound:              1,
	TypeAdjustmentPositive: 1,
	TypeInitialStock:       1,
	TypeTransferIn:         1,
	TypeUsage:              -1,
	TypeDamaged:            -1,
	TypeLost:               -1,
	TypeDisposed:           -1,
	TypeAdjustmentNegative: -1,
	TypeTransferOut:        -1,
}

// Multiplier returns +1 for incoming types and -1 for outgoing types.
func (t TransactionType) Multiplier() int {
	return typeMultipliers[t]
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	_, ok := typeMultipliers[t]
	return ok
}

func (t TransactionType) Incoming() bool { return typeMultipliers[t] > 0 }
func (t TransactionType) Outgoing() bool { return typeMultipliers[t] < 0 }

// Transaction is one immutable ledger entry for a part. Once persisted, only
// the approval fields ever change.
type Transaction struct {
	ID              uuid.UUID           `json:"id"`
	PartID          uuid.UUID           `json:"part_id"`
	Type            TransactionType     `json:"transaction_type"`
	Quantity        int                 `json:"quantity"`
	UnitCost        decimal.NullDecimal `json:"unit_cost,omitempty"`
	TotalCost       decimal.NullDecimal `json:"total_cost,omitempty"`
	Reason          string              `json:"reason,omitempty"`
	ReferenceNumber string              `json:"reference_number,omitempty"`
	Vendor          string              `json:"vendor,omitempty"`
	ProjectID       uuid.NullUUID       `json:"project_id,omitempty"`
	TaskID          uuid.NullUUID       `json:"task_id,omitempty"`
	PerformedBy     uuid.NullUUID       `json:"performed_by,omitempty"`
	TransactionDate time.Time           `json:"transaction_date"`
	BalanceAfter    int                 `json:"balance_after"`
	Notes           string              `json:"notes,omitempty"`
	IsApproved      bool                `json:"is_approved"`
	ApprovedBy      string              `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time          `json:"approved_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

// EffectiveQuantityChange is the signed change this entry applies to stock.
func (t *Transaction) EffectiveQuantityChange() int {
	return t.Quantity * t.Type.Multiplier()
}

// ApprovalPolicy decides whether a freshly recorded transaction needs a human
// sign-off before it counts as approved.
type ApprovalPolicy func(t *Transaction) bool

var defaultApprovalThreshold = decimal.NewFromInt(500)

// DefaultApprovalPolicy flags high-value or bulk movements: total cost above
// 500 or more than 100 units in a single entry.
func DefaultApprovalPolicy(t *Transaction) bool {
	if t.TotalCost.Valid && t.TotalCost.Decimal.GreaterThan(defaultApprovalThreshold) {
		return true
	}
	return t.Quantity > 100
}

// CreateOptions carries the optional context attached to a new ledger entry.
type CreateOptions struct {
	UnitCost        decimal.NullDecimal
	Reason          string
	Vendor          string
	ReferenceNumber string
	Notes           string
	ProjectID       uuid.NullUUID
	TaskID          uuid.NullUUID
	PerformedBy     uuid.NullUUID
}

// BulkApproveFailure describes one id that could not be approved during a
// bulk approval.
type BulkApproveFailure struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

// BulkApproveResult reports the outcome of a bulk approval. Failures on some
// ids never roll back the ids that succeeded.
type BulkApproveResult struct {
	Approved []uuid.UUID          `json:"approved"`
	Failures []BulkApproveFailure `json:"failures,omitempty"`
}
