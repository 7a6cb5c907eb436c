// internal/storage/postgres/requirements.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"pitstock/internal/planning"
)

const requirementColumns = `id, part_id, project_template_id, task_template_id,
	quantity_required, minimum_quantity, maximum_quantity, priority,
	is_critical, is_optional, build_phase, estimated_cost, lead_time_days,
	is_reusable, preferred_vendor, specifications, alternatives, usage_notes,
	is_active, created_at, updated_at`

// priorityRank orders listings CRITICAL first without a lookup table.
const priorityRank = `CASE priority
	WHEN 'CRITICAL' THEN 0 WHEN 'HIGH' THEN 1 WHEN 'MEDIUM' THEN 2
	WHEN 'LOW' THEN 3 ELSE 4 END`

func scanRequirement(row rowScanner) (*planning.Requirement, error) {
	var r planning.Requirement
	err := row.Scan(
		&r.ID, &r.PartID, &r.ProjectTemplateID, &r.TaskTemplateID,
		&r.QuantityRequired, &r.MinimumQuantity, &r.MaximumQuantity, &r.Priority,
		&r.IsCritical, &r.IsOptional, &r.BuildPhase, &r.EstimatedCost, &r.LeadTimeDays,
		&r.IsReusable, &r.PreferredVendor, &r.Specifications, &r.Alternatives, &r.UsageNotes,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) InsertRequirement(ctx context.Context, r *planning.Requirement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO part_requirements (`+requirementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21)
	`,
		r.ID, r.PartID, r.ProjectTemplateID, r.TaskTemplateID,
		r.QuantityRequired, r.MinimumQuantity, r.MaximumQuantity, r.Priority,
		r.IsCritical, r.IsOptional, r.BuildPhase, r.EstimatedCost, r.LeadTimeDays,
		r.IsReusable, r.PreferredVendor, r.Specifications, r.Alternatives, r.UsageNotes,
		r.IsActive, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert requirement: %w", err)
	}
	return nil
}

func (s *Store) GetRequirement(ctx context.Context, id uuid.UUID) (*planning.Requirement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+requirementColumns+` FROM part_requirements WHERE id = $1`, id)
	r, err := scanRequirement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("requirement %s: %w", id, planning.ErrRequirementNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get requirement: %w", err)
	}
	return r, nil
}

func (s *Store) UpdateRequirement(ctx context.Context, r *planning.Requirement) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE part_requirements SET
			part_id = $2, project_template_id = $3, task_template_id = $4,
			quantity_required = $5, minimum_quantity = $6, maximum_quantity = $7,
			priority = $8, is_critical = $9, is_optional = $10, build_phase = $11,
			estimated_cost = $12, lead_time_days = $13, is_reusable = $14,
			preferred_vendor = $15, specifications = $16, alternatives = $17,
			usage_notes = $18, is_active = $19, updated_at = $20
		WHERE id = $1
	`,
		r.ID, r.PartID, r.ProjectTemplateID, r.TaskTemplateID,
		r.QuantityRequired, r.MinimumQuantity, r.MaximumQuantity,
		r.Priority, r.IsCritical, r.IsOptional, r.BuildPhase,
		r.EstimatedCost, r.LeadTimeDays, r.IsReusable,
		r.PreferredVendor, r.Specifications, r.Alternatives,
		r.UsageNotes, r.IsActive, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update requirement: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s: %w", r.ID, planning.ErrRequirementNotFound)
	}
	return nil
}

func (s *Store) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM part_requirements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete requirement: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s: %w", id, planning.ErrRequirementNotFound)
	}
	return nil
}

func (s *Store) ListByProjectTemplate(ctx context.Context, templateID uuid.UUID) ([]*planning.Requirement, error) {
	return s.listRequirements(ctx,
		`SELECT `+requirementColumns+` FROM part_requirements
		WHERE is_active AND project_template_id = $1
		ORDER BY `+priorityRank+`, created_at`, templateID)
}

func (s *Store) ListByTaskTemplate(ctx context.Context, templateID uuid.UUID) ([]*planning.Requirement, error) {
	return s.listRequirements(ctx,
		`SELECT `+requirementColumns+` FROM part_requirements
		WHERE is_active AND task_template_id = $1
		ORDER BY `+priorityRank+`, created_at`, templateID)
}

func (s *Store) listRequirements(ctx context.Context, query string, args ...any) ([]*planning.Requirement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	defer rows.Close()

	requirements := make([]*planning.Requirement, 0)
	for rows.Next() {
		r, err := scanRequirement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		requirements = append(requirements, r)
	}
	return requirements, rows.Err()
}
