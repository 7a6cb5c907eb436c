// internal/planning/storage.go
package planning

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence boundary for part requirements. Listings return
// active requirements ordered by priority.
type Store interface {
	InsertRequirement(ctx context.Context, r *Requirement) error
	GetRequirement(ctx context.Context, id uuid.UUID) (*Requirement, error)
	UpdateRequirement(ctx context.Context, r *Requirement) error
	DeleteRequirement(ctx context.Context, id uuid.UUID) error

	ListByProjectTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
	ListByTaskTemplate(ctx context.Context, templateID uuid.UUID) ([]*Requirement, error)
}
