// Package postgres is the production store. All three persistence boundaries
// (parts, ledger entries, requirements) share one database so the stock write
// and the ledger append can commit in a single transaction.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"pitstock/internal/inventory"
	"pitstock/internal/ledger"
	"pitstock/internal/planning"
)

type Store struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Interface compliance checks.
var (
	_ inventory.Store = (*Store)(nil)
	_ ledger.Store    = (*Store)(nil)
	_ planning.Store  = (*Store)(nil)
)

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer("pitstock/storage"),
	}
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS parts (
		id UUID PRIMARY KEY,
		part_number TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		quantity_on_hand INTEGER NOT NULL DEFAULT 0,
		minimum_stock INTEGER NOT NULL DEFAULT 0,
		safety_stock INTEGER NOT NULL DEFAULT 0,
		optimal_stock INTEGER NOT NULL DEFAULT 0,
		unit TEXT NOT NULL,
		unit_cost NUMERIC(12,4),
		vendor TEXT NOT NULL DEFAULT '',
		vendor_part_number TEXT NOT NULL DEFAULT '',
		storage_location TEXT NOT NULL DEFAULT '',
		lead_time_days INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		is_consumable BOOLEAN NOT NULL DEFAULT FALSE,
		last_restock_date TIMESTAMPTZ,
		last_used_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		CONSTRAINT parts_quantity_non_negative CHECK (quantity_on_hand >= 0)
	);

	CREATE TABLE IF NOT EXISTS part_transactions (
		id UUID PRIMARY KEY,
		part_id UUID NOT NULL REFERENCES parts(id),
		type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_cost NUMERIC(12,4),
		total_cost NUMERIC(12,4),
		reason TEXT NOT NULL DEFAULT '',
		reference_number TEXT NOT NULL DEFAULT '',
		vendor TEXT NOT NULL DEFAULT '',
		project_id UUID,
		task_id UUID,
		performed_by UUID,
		transaction_date TIMESTAMPTZ NOT NULL,
		balance_after INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		is_approved BOOLEAN NOT NULL DEFAULT FALSE,
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_part_transactions_part
		ON part_transactions(part_id, transaction_date DESC);
	CREATE INDEX IF NOT EXISTS idx_part_transactions_unapproved
		ON part_transactions(is_approved) WHERE NOT is_approved;

	CREATE TABLE IF NOT EXISTS part_requirements (
		id UUID PRIMARY KEY,
		part_id UUID NOT NULL REFERENCES parts(id),
		project_template_id UUID,
		task_template_id UUID,
		quantity_required INTEGER NOT NULL,
		minimum_quantity INTEGER NOT NULL DEFAULT 0,
		maximum_quantity INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL,
		is_critical BOOLEAN NOT NULL DEFAULT FALSE,
		is_optional BOOLEAN NOT NULL DEFAULT FALSE,
		build_phase TEXT NOT NULL DEFAULT 'ANY',
		estimated_cost NUMERIC(12,4),
		lead_time_days INTEGER NOT NULL DEFAULT 0,
		is_reusable BOOLEAN NOT NULL DEFAULT FALSE,
		preferred_vendor TEXT NOT NULL DEFAULT '',
		specifications TEXT NOT NULL DEFAULT '',
		alternatives TEXT NOT NULL DEFAULT '',
		usage_notes TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_part_requirements_project
		ON part_requirements(project_template_id) WHERE is_active;
	CREATE INDEX IF NOT EXISTS idx_part_requirements_task
		ON part_requirements(task_template_id) WHERE is_active;
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// rowScanner lets scan helpers work on both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
