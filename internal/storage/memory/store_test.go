// internal/storage/memory/store_test.go
package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
)

func seedPart(t *testing.T, s *Store, number string, quantity int) *inventory.Part {
	t.Helper()
	now := time.Now().UTC()
	p := &inventory.Part{
		ID:             uuid.New(),
		PartNumber:     number,
		Name:           "Test Part",
		Category:       inventory.CategoryOther,
		Unit:           "each",
		QuantityOnHand: quantity,
		CreatedAt:      now,
		UpdatedAt:      now,
		IsActive:       true,
	}
	require.NoError(t, s.InsertPart(context.Background(), p))
	return p
}

func seedUsage(t *testing.T, s *Store, partID uuid.UUID, quantity int) *ledger.Transaction {
	t.Helper()
	now := time.Now().UTC()
	entry := &ledger.Transaction{
		ID:              uuid.New(),
		PartID:          partID,
		Type:            ledger.TypeUsage,
		Quantity:        quantity,
		TransactionDate: now,
		CreatedAt:       now,
		IsApproved:      true,
	}
	_, persisted, err := s.ApplyMutation(context.Background(), partID, inventory.Mutation{Transaction: entry})
	require.NoError(t, err)
	return persisted
}

func TestListTransactions_NewestFirstWithLimit(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	part := seedPart(t, s, "T-1", 100)

	var last *ledger.Transaction
	for i := 0; i < 5; i++ {
		last = seedUsage(t, s, part.ID, 1)
	}

	all, err := s.ListTransactions(ctx, ledger.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, last.ID, all[0].ID)

	limited, err := s.ListTransactions(ctx, ledger.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, last.ID, limited[0].ID)
}

func TestApplyMutation_RejectsStaleSufficiency(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	part := seedPart(t, s, "T-1", 3)

	seedUsage(t, s, part.ID, 3)

	now := time.Now().UTC()
	_, _, err := s.ApplyMutation(ctx, part.ID, inventory.Mutation{Transaction: &ledger.Transaction{
		ID:              uuid.New(),
		PartID:          part.ID,
		Type:            ledger.TypeUsage,
		Quantity:        1,
		TransactionDate: now,
		CreatedAt:       now,
	}})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	stored, err := s.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.QuantityOnHand)
}

func TestDeleteTransaction_AdminCleanup(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	part := seedPart(t, s, "T-1", 10)
	entry := seedUsage(t, s, part.ID, 2)

	require.NoError(t, s.DeleteTransaction(ctx, entry.ID))

	_, err := s.GetTransaction(ctx, entry.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)

	all, err := s.ListTransactions(ctx, ledger.Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	err = s.DeleteTransaction(ctx, entry.ID)
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}

func TestStoreReturnsCopies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	part := seedPart(t, s, "T-1", 10)

	got, err := s.GetPart(ctx, part.ID)
	require.NoError(t, err)
	got.QuantityOnHand = 9999

	again, err := s.GetPart(ctx, part.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, again.QuantityOnHand, "mutating a returned part must not leak into the store")
}
