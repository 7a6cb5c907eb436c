// internal/storage/postgres/store_test.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
)

// setupTestStore connects to a local PostgreSQL instance and skips the test
// when none is reachable.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	pgUser := envOr("PGUSER", "pitstock")
	pgPassword := envOr("PGPASSWORD", "pitstock")
	pgHost := envOr("PGHOST", "localhost")
	pgPort := envOr("PGPORT", "5432")
	pgDB := envOr("PGDATABASE", "pitstock_test")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pgHost, pgPort, pgUser, pgPassword, pgDB)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("skipping postgres tests: could not connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func testPart(quantity int) *inventory.Part {
	now := time.Now().UTC()
	return &inventory.Part{
		ID:             uuid.New(),
		PartNumber:     "TEST-" + uuid.NewString(),
		Name:           "Churro",
		Category:       inventory.CategoryStructural,
		Unit:           "each",
		QuantityOnHand: quantity,
		CreatedAt:      now,
		UpdatedAt:      now,
		IsActive:       true,
	}
}

func usageEntry(partID uuid.UUID, quantity int) *ledger.Transaction {
	now := time.Now().UTC()
	return &ledger.Transaction{
		ID:              uuid.New(),
		PartID:          partID,
		Type:            ledger.TypeUsage,
		Quantity:        quantity,
		Reason:          "test usage",
		TransactionDate: now,
		CreatedAt:       now,
		IsApproved:      true,
	}
}

func TestPostgres_PartRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testPart(12)
	require.NoError(t, store.InsertPart(ctx, p))

	got, err := store.GetPart(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.PartNumber, got.PartNumber)
	assert.Equal(t, 12, got.QuantityOnHand)

	byNumber, err := store.GetPartByNumber(ctx, p.PartNumber)
	require.NoError(t, err)
	assert.Equal(t, p.ID, byNumber.ID)

	// Unique part numbers are enforced by the database.
	dup := testPart(0)
	dup.PartNumber = p.PartNumber
	err = store.InsertPart(ctx, dup)
	assert.ErrorIs(t, err, inventory.ErrDuplicatePartNumber)
}

func TestPostgres_ApplyMutation(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testPart(10)
	require.NoError(t, store.InsertPart(ctx, p))

	part, entry, err := store.ApplyMutation(ctx, p.ID, inventory.Mutation{
		Transaction: usageEntry(p.ID, 4),
		TouchUsed:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, part.QuantityOnHand)
	assert.Equal(t, 6, entry.BalanceAfter)
	assert.NotNil(t, part.LastUsedDate)

	// The guard refuses to go below zero and leaves no ledger entry behind.
	_, _, err = store.ApplyMutation(ctx, p.ID, inventory.Mutation{Transaction: usageEntry(p.ID, 7)})
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	entries, err := store.ListTransactions(ctx, ledger.Filter{
		PartID: uuid.NullUUID{UUID: p.ID, Valid: true},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, _, err = store.ApplyMutation(ctx, uuid.New(), inventory.Mutation{Transaction: usageEntry(uuid.New(), 1)})
	assert.ErrorIs(t, err, inventory.ErrPartNotFound)
}

func TestPostgres_MarkApprovedOneWay(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p := testPart(10)
	require.NoError(t, store.InsertPart(ctx, p))

	entry := usageEntry(p.ID, 1)
	entry.IsApproved = false
	_, persisted, err := store.ApplyMutation(ctx, p.ID, inventory.Mutation{Transaction: entry})
	require.NoError(t, err)

	require.NoError(t, store.MarkApproved(ctx, persisted.ID, "mentor-kate", time.Now().UTC()))

	got, err := store.GetTransaction(ctx, persisted.ID)
	require.NoError(t, err)
	assert.True(t, got.IsApproved)
	assert.Equal(t, "mentor-kate", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)

	err = store.MarkApproved(ctx, persisted.ID, "mentor-kate", time.Now().UTC())
	assert.ErrorIs(t, err, ledger.ErrAlreadyApproved)

	err = store.MarkApproved(ctx, uuid.New(), "mentor-kate", time.Now().UTC())
	assert.ErrorIs(t, err, ledger.ErrTransactionNotFound)
}
