// internal/storage/postgres/transactions.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pitstock/internal/ledger"
)

const transactionColumns = `id, part_id, type, quantity, unit_cost, total_cost,
	reason, reference_number, vendor, project_id, task_id, performed_by,
	transaction_date, balance_after, notes, is_approved, approved_by,
	approved_at, created_at`

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var (
		t          ledger.Transaction
		approvedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.PartID, &t.Type, &t.Quantity, &t.UnitCost, &t.TotalCost,
		&t.Reason, &t.ReferenceNumber, &t.Vendor, &t.ProjectID, &t.TaskID, &t.PerformedBy,
		&t.TransactionDate, &t.BalanceAfter, &t.Notes, &t.IsApproved, &t.ApprovedBy,
		&approvedAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if approvedAt.Valid {
		t.ApprovedAt = &approvedAt.Time
	}
	return &t, nil
}

// insertTransactionTx appends a ledger entry inside an open transaction. Only
// the mutation path calls this; the ledger has no standalone insert.
func insertTransactionTx(ctx context.Context, tx *sql.Tx, t *ledger.Transaction) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO part_transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19)
	`,
		t.ID, t.PartID, t.Type, t.Quantity, t.UnitCost, t.TotalCost,
		t.Reason, t.ReferenceNumber, t.Vendor, t.ProjectID, t.TaskID, t.PerformedBy,
		t.TransactionDate, t.BalanceAfter, t.Notes, t.IsApproved, t.ApprovedBy,
		nullTime(t.ApprovedAt), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM part_transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, f ledger.Filter) ([]*ledger.Transaction, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.PartID.Valid {
		conditions = append(conditions, "part_id = "+arg(f.PartID.UUID))
	}
	if f.Type != "" {
		conditions = append(conditions, "type = "+arg(f.Type))
	}
	if f.ProjectID.Valid {
		conditions = append(conditions, "project_id = "+arg(f.ProjectID.UUID))
	}
	if f.TaskID.Valid {
		conditions = append(conditions, "task_id = "+arg(f.TaskID.UUID))
	}
	if f.PerformedBy.Valid {
		conditions = append(conditions, "performed_by = "+arg(f.PerformedBy.UUID))
	}
	if f.From != nil {
		conditions = append(conditions, "transaction_date >= "+arg(*f.From))
	}
	if f.To != nil {
		conditions = append(conditions, "transaction_date <= "+arg(*f.To))
	}
	if f.OnlyUnapproved {
		conditions = append(conditions, "NOT is_approved")
	}
	if f.MinTotalCost.Valid {
		conditions = append(conditions, "total_cost >= "+arg(f.MinTotalCost.Decimal))
	}
	if f.Vendor != "" {
		conditions = append(conditions, "LOWER(vendor) = LOWER("+arg(f.Vendor)+")")
	}
	if f.ReferenceNumber != "" {
		conditions = append(conditions, "reference_number = "+arg(f.ReferenceNumber))
	}
	if f.ReasonContains != "" {
		conditions = append(conditions, "reason ILIKE "+arg("%"+f.ReasonContains+"%"))
	}

	query := `SELECT ` + transactionColumns + ` FROM part_transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY transaction_date DESC, created_at DESC"
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *Store) CountUnapproved(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM part_transactions WHERE NOT is_approved`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unapproved: %w", err)
	}
	return count, nil
}

func (s *Store) MarkApproved(ctx context.Context, id uuid.UUID, approvedBy string, approvedAt time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE part_transactions
		SET is_approved = TRUE, approved_by = $2, approved_at = $3
		WHERE id = $1 AND NOT is_approved
	`, id, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark approved: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM part_transactions WHERE id = $1)`, id).Scan(&exists); err != nil {
			return fmt.Errorf("mark approved: %w", err)
		}
		if !exists {
			return fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
		}
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrAlreadyApproved)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM part_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, ledger.ErrTransactionNotFound)
	}
	return nil
}
