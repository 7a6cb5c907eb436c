// internal/storage/postgres/parts.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
)

const partColumns = `id, part_number, name, description, category,
	quantity_on_hand, minimum_stock, safety_stock, optimal_stock, unit,
	unit_cost, vendor, vendor_part_number, storage_location, lead_time_days,
	notes, is_active, is_consumable, last_restock_date, last_used_date,
	created_at, updated_at`

func scanPart(row rowScanner) (*inventory.Part, error) {
	var (
		p           inventory.Part
		lastRestock sql.NullTime
		lastUsed    sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.PartNumber, &p.Name, &p.Description, &p.Category,
		&p.QuantityOnHand, &p.MinimumStock, &p.SafetyStock, &p.OptimalStock, &p.Unit,
		&p.UnitCost, &p.Vendor, &p.VendorPartNumber, &p.StorageLocation, &p.LeadTimeDays,
		&p.Notes, &p.IsActive, &p.IsConsumable, &lastRestock, &lastUsed,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastRestock.Valid {
		p.LastRestockDate = &lastRestock.Time
	}
	if lastUsed.Valid {
		p.LastUsedDate = &lastUsed.Time
	}
	return &p, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *Store) InsertPart(ctx context.Context, p *inventory.Part) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO parts (`+partColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
	`,
		p.ID, p.PartNumber, p.Name, p.Description, p.Category,
		p.QuantityOnHand, p.MinimumStock, p.SafetyStock, p.OptimalStock, p.Unit,
		p.UnitCost, p.Vendor, p.VendorPartNumber, p.StorageLocation, p.LeadTimeDays,
		p.Notes, p.IsActive, p.IsConsumable, nullTime(p.LastRestockDate), nullTime(p.LastUsedDate),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("part number %q: %w", p.PartNumber, inventory.ErrDuplicatePartNumber)
		}
		return fmt.Errorf("insert part: %w", err)
	}
	return nil
}

func (s *Store) GetPart(ctx context.Context, id uuid.UUID) (*inventory.Part, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, id)
	p, err := scanPart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get part: %w", err)
	}
	return p, nil
}

func (s *Store) GetPartByNumber(ctx context.Context, partNumber string) (*inventory.Part, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE part_number = $1`, partNumber)
	p, err := scanPart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("part number %q: %w", partNumber, inventory.ErrPartNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get part by number: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePart(ctx context.Context, p *inventory.Part) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE parts SET
			part_number = $2, name = $3, description = $4, category = $5,
			minimum_stock = $6, safety_stock = $7, optimal_stock = $8, unit = $9,
			unit_cost = $10, vendor = $11, vendor_part_number = $12,
			storage_location = $13, lead_time_days = $14, notes = $15,
			is_consumable = $16, updated_at = $17
		WHERE id = $1
	`,
		p.ID, p.PartNumber, p.Name, p.Description, p.Category,
		p.MinimumStock, p.SafetyStock, p.OptimalStock, p.Unit,
		p.UnitCost, p.Vendor, p.VendorPartNumber,
		p.StorageLocation, p.LeadTimeDays, p.Notes,
		p.IsConsumable, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("part number %q: %w", p.PartNumber, inventory.ErrDuplicatePartNumber)
		}
		return fmt.Errorf("update part: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update part: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("part %s: %w", p.ID, inventory.ErrPartNotFound)
	}
	return nil
}

func (s *Store) ListParts(ctx context.Context, f inventory.PartFilter) ([]*inventory.Part, error) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conditions = append(conditions, "is_active")
	}
	if f.Category != "" {
		conditions = append(conditions, "category = "+arg(f.Category))
	}
	if f.Search != "" {
		needle := arg("%" + f.Search + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE %s OR part_number ILIKE %s OR description ILIKE %s)", needle, needle, needle))
	}
	if f.Vendor != "" {
		conditions = append(conditions, "LOWER(vendor) = LOWER("+arg(f.Vendor)+")")
	}
	if f.StorageLocation != "" {
		conditions = append(conditions, "LOWER(storage_location) = LOWER("+arg(f.StorageLocation)+")")
	}
	if f.LowStock {
		conditions = append(conditions, "quantity_on_hand <= minimum_stock")
	}
	if f.CriticallyLow {
		conditions = append(conditions, "quantity_on_hand <= safety_stock")
	}
	if f.OutOfStock {
		conditions = append(conditions, "quantity_on_hand = 0")
	}
	if f.NeedsReorder {
		conditions = append(conditions,
			"(quantity_on_hand <= minimum_stock OR (lead_time_days > 0 AND quantity_on_hand <= minimum_stock + lead_time_days / 7))")
	}
	if f.UnusedSince != nil {
		conditions = append(conditions,
			"(last_used_date IS NULL OR last_used_date <= "+arg(*f.UnusedSince)+")")
	}
	if f.MinLeadTimeDays > 0 {
		conditions = append(conditions, "lead_time_days >= "+arg(f.MinLeadTimeDays))
	}

	query := `SELECT ` + partColumns + ` FROM parts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY part_number"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parts: %w", err)
	}
	defer rows.Close()

	parts := make([]*inventory.Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan part: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ApplyMutation writes the stock change and the ledger entry in one database
// transaction. The guarded UPDATE re-checks sufficiency against the current
// quantity, so two racing outgoing mutations can never both succeed past the
// available stock.
func (s *Store) ApplyMutation(ctx context.Context, partID uuid.UUID, m inventory.Mutation) (*inventory.Part, *ledger.Transaction, error) {
	t := *m.Transaction

	ctx, span := s.tracer.Start(ctx, "storage.apply_mutation",
		trace.WithAttributes(
			attribute.String("part.id", partID.String()),
			attribute.String("transaction.type", string(t.Type)),
			attribute.Int("transaction.quantity", t.Quantity),
		),
	)
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	delta := t.EffectiveQuantityChange()
	now := time.Now().UTC()

	var balanceAfter int
	err = tx.QueryRowContext(ctx, `
		UPDATE parts SET
			quantity_on_hand = quantity_on_hand + $2,
			updated_at = $3,
			last_restock_date = CASE WHEN $4 THEN $3 ELSE last_restock_date END,
			last_used_date = CASE WHEN $5 THEN $3 ELSE last_used_date END
		WHERE id = $1 AND quantity_on_hand + $2 >= 0
		RETURNING quantity_on_hand
	`, partID, delta, now, m.TouchRestock, m.TouchUsed).Scan(&balanceAfter)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the part is missing or the guard rejected the change.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM parts WHERE id = $1)`, partID).Scan(&exists); err != nil {
			return nil, nil, fmt.Errorf("check part existence: %w", err)
		}
		if !exists {
			return nil, nil, fmt.Errorf("part %s: %w", partID, inventory.ErrPartNotFound)
		}
		span.SetAttributes(attribute.Bool("stock.insufficient", true))
		return nil, nil, fmt.Errorf("part %s, need %d: %w", partID, t.Quantity, inventory.ErrInsufficientStock)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("update quantity: %w", err)
	}

	t.BalanceAfter = balanceAfter
	if err := insertTransactionTx(ctx, tx, &t); err != nil {
		return nil, nil, err
	}

	row := tx.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE id = $1`, partID)
	p, err := scanPart(row)
	if err != nil {
		return nil, nil, fmt.Errorf("reread part: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	span.SetAttributes(attribute.Int("balance.after", balanceAfter))
	return p, &t, nil
}

func (s *Store) SoftDeletePart(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE parts SET is_active = FALSE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("soft delete part: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete part: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	return nil
}

func (s *Store) DeletePart(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parts WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("part %s: %w", id, inventory.ErrPartHasHistory)
		}
		return fmt.Errorf("delete part: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete part: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("part %s: %w", id, inventory.ErrPartNotFound)
	}
	return nil
}
