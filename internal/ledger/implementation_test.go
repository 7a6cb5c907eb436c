// internal/ledger/implementation_test.go
package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
	"pitstock/internal/storage/memory"
)

type fixture struct {
	store     *memory.Store
	ledger    ledger.Service
	inventory inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledgerSvc := ledger.NewService(store, nil, zerolog.Nop())
	return &fixture{
		store:     store,
		ledger:    ledgerSvc,
		inventory: inventory.NewService(store, ledgerSvc, zerolog.Nop()),
	}
}

func (f *fixture) createPart(t *testing.T, number string, quantity int) *inventory.Part {
	t.Helper()
	p, err := f.inventory.CreatePart(context.Background(), &inventory.Part{
		PartNumber:     number,
		Name:           "CIM Motor",
		Category:       inventory.CategoryElectronics,
		Unit:           "each",
		QuantityOnHand: quantity,
	})
	require.NoError(t, err)
	return p
}

func money(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestPrepare_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Prepare(uuid.Nil, ledger.TypePurchase, 1, ledger.CreateOptions{})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransaction)

	_, err = f.ledger.Prepare(uuid.New(), "SOMETHING_ELSE", 1, ledger.CreateOptions{})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransaction)

	_, err = f.ledger.Prepare(uuid.New(), ledger.TypePurchase, 0, ledger.CreateOptions{})
	assert.ErrorIs(t, err, ledger.ErrInvalidTransaction)
}

func TestPrepare_CostAndApproval(t *testing.T) {
	f := newFixture(t)
	partID := uuid.New()

	// Cheap and small: auto-approved.
	tx, err := f.ledger.Prepare(partID, ledger.TypePurchase, 10, ledger.CreateOptions{UnitCost: money("3.00")})
	require.NoError(t, err)
	assert.True(t, tx.IsApproved)
	require.True(t, tx.TotalCost.Valid)
	assert.True(t, tx.TotalCost.Decimal.Equal(decimal.RequireFromString("30")))

	// Over the cost threshold: held for review.
	tx, err = f.ledger.Prepare(partID, ledger.TypePurchase, 10, ledger.CreateOptions{UnitCost: money("75.00")})
	require.NoError(t, err)
	assert.False(t, tx.IsApproved)

	// Over the quantity threshold even without a price.
	tx, err = f.ledger.Prepare(partID, ledger.TypePurchase, 150, ledger.CreateOptions{})
	require.NoError(t, err)
	assert.False(t, tx.IsApproved)
	assert.False(t, tx.TotalCost.Valid)
}

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	part := f.createPart(t, "MO-0001", 10)
	// A 150-unit restock exceeds the quantity threshold and lands unapproved.
	_, err := f.inventory.Restock(ctx, part.ID, 150, decimal.NullDecimal{}, "VEX", "PO-7")
	require.NoError(t, err)

	pending, err := f.ledger.UnapprovedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := f.ledger.Approve(ctx, pending[0].ID, "mentor-kate")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, "mentor-kate", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	// Approval is one-way.
	_, err = f.ledger.Approve(ctx, pending[0].ID, "mentor-kate")
	assert.ErrorIs(t, err, ledger.ErrAlreadyApproved)

	_, err = f.ledger.Approve(ctx, uuid.New(), "mentor-kate")
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	_, err = f.ledger.Approve(ctx, pending[0].ID, "")
	assert.ErrorIs(t, err, ledger.ErrInvalidTransaction)

	count, err := f.ledger.CountUnapproved(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestBulkApprove_PartialSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	part := f.createPart(t, "MO-0001", 10)
	_, err := f.inventory.Restock(ctx, part.ID, 150, decimal.NullDecimal{}, "", "")
	require.NoError(t, err)
	_, err = f.inventory.Restock(ctx, part.ID, 200, decimal.NullDecimal{}, "", "")
	require.NoError(t, err)

	pending, err := f.ledger.UnapprovedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Pre-approve one of them so the bulk call hits a conflict.
	_, err = f.ledger.Approve(ctx, pending[0].ID, "mentor-kate")
	require.NoError(t, err)

	missing := uuid.New()
	result, err := f.ledger.BulkApprove(ctx, []uuid.UUID{pending[0].ID, pending[1].ID, missing}, "mentor-kate")
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{pending[1].ID}, result.Approved)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, pending[0].ID, result.Failures[0].TransactionID)
	assert.Contains(t, result.Failures[0].Reason, "already approved")
	assert.Equal(t, missing, result.Failures[1].TransactionID)
	assert.Contains(t, result.Failures[1].Reason, "not found")
}

func TestQuerySurface(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shaft := f.createPart(t, "DT-0001", 100)
	gear := f.createPart(t, "DT-0002", 50)
	projectID := uuid.New()
	member := uuid.New()

	_, err := f.inventory.Restock(ctx, shaft.ID, 10, money("60.00"), "AndyMark", "PO-55")
	require.NoError(t, err)
	_, err = f.inventory.UseParts(ctx, gear.ID, 5, inventory.UsageContext{
		ProjectID:   uuid.NullUUID{UUID: projectID, Valid: true},
		PerformedBy: uuid.NullUUID{UUID: member, Valid: true},
		Reason:      "Gearbox rebuild",
	})
	require.NoError(t, err)

	byPart, err := f.ledger.TransactionsByPart(ctx, shaft.ID)
	require.NoError(t, err)
	assert.Len(t, byPart, 2)

	byType, err := f.ledger.TransactionsByType(ctx, ledger.TypeUsage)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, gear.ID, byType[0].PartID)

	byProject, err := f.ledger.TransactionsByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, byProject, 1)

	byPerformer, err := f.ledger.TransactionsByPerformer(ctx, member)
	require.NoError(t, err)
	assert.Len(t, byPerformer, 1)

	byVendor, err := f.ledger.TransactionsByVendor(ctx, "AndyMark")
	require.NoError(t, err)
	assert.Len(t, byVendor, 1)

	byReference, err := f.ledger.TransactionsByReference(ctx, "PO-55")
	require.NoError(t, err)
	assert.Len(t, byReference, 1)

	byReason, err := f.ledger.SearchByReason(ctx, "gearbox")
	require.NoError(t, err)
	assert.Len(t, byReason, 1)

	highValue, err := f.ledger.HighValueTransactions(ctx, decimal.RequireFromString("500"))
	require.NoError(t, err)
	require.Len(t, highValue, 1)
	assert.Equal(t, ledger.TypePurchase, highValue[0].Type)

	recent, err := f.ledger.RecentTransactions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	// Newest first.
	assert.Equal(t, ledger.TypeUsage, recent[0].Type)
}

func TestTotalSpending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	part := f.createPart(t, "DT-0001", 0)
	_, err := f.inventory.Restock(ctx, part.ID, 10, money("2.50"), "", "")
	require.NoError(t, err)
	_, err = f.inventory.Restock(ctx, part.ID, 4, decimal.NullDecimal{}, "", "") // unpriced
	require.NoError(t, err)
	_, err = f.inventory.UseParts(ctx, part.ID, 3, inventory.UsageContext{})
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)
	total, err := f.ledger.TotalSpending(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.RequireFromString("25")), "got %s", total)

	// Outside the window there is no spending.
	total, err = f.ledger.TotalSpending(ctx, from.Add(-2*time.Hour), from)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestTransactionTypeDirections(t *testing.T) {
	incoming := []ledger.TransactionType{
		ledger.TypePurchase, ledger.TypeDonation, ledger.TypeReturn, ledger.TypeFound,
		ledger.TypeAdjustmentPositive, ledger.TypeInitialStock, ledger.TypeTransferIn,
	}
	outgoing := []ledger.TransactionType{
		ledger.TypeUsage, ledger.TypeDamaged, ledger.TypeLost, ledger.TypeDisposed,
		ledger.TypeAdjustmentNegative, ledger.TypeTransferOut,
	}
	for _, typ := range incoming {
		assert.True(t, typ.Incoming(), "%s", typ)
		assert.Equal(t, 1, typ.Multiplier())
	}
	for _, typ := range outgoing {
		assert.True(t, typ.Outgoing(), "%s", typ)
		assert.Equal(t, -1, typ.Multiplier())
	}
	assert.False(t, ledger.TransactionType("SHRINKAGE").Valid())
}
