// internal/storage/memory/requirements.go
package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"pitstock/internal/planning"
)

func (s *Store) InsertRequirement(ctx context.Context, r *planning.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requirements[r.ID] = cloneRequirement(r)
	return nil
}

func (s *Store) GetRequirement(ctx context.Context, id uuid.UUID) (*planning.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requirements[id]
	if !ok {
		return nil, fmt.Errorf("requirement %s: %w", id, planning.ErrRequirementNotFound)
	}
	return cloneRequirement(r), nil
}

func (s *Store) UpdateRequirement(ctx context.Context, r *planning.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requirements[r.ID]; !ok {
		return fmt.Errorf("requirement %s: %w", r.ID, planning.ErrRequirementNotFound)
	}
	s.requirements[r.ID] = cloneRequirement(r)
	return nil
}

func (s *Store) DeleteRequirement(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requirements[id]; !ok {
		return fmt.Errorf("requirement %s: %w", id, planning.ErrRequirementNotFound)
	}
	delete(s.requirements, id)
	return nil
}

func (s *Store) ListByProjectTemplate(ctx context.Context, templateID uuid.UUID) ([]*planning.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*planning.Requirement, 0)
	for _, r := range s.requirements {
		if r.IsActive && r.ProjectTemplateID.Valid && r.ProjectTemplateID.UUID == templateID {
			result = append(result, cloneRequirement(r))
		}
	}
	sortByPriority(result)
	return result, nil
}

func (s *Store) ListByTaskTemplate(ctx context.Context, templateID uuid.UUID) ([]*planning.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*planning.Requirement, 0)
	for _, r := range s.requirements {
		if r.IsActive && r.TaskTemplateID.Valid && r.TaskTemplateID.UUID == templateID {
			result = append(result, cloneRequirement(r))
		}
	}
	sortByPriority(result)
	return result, nil
}

func sortByPriority(requirements []*planning.Requirement) {
	sort.SliceStable(requirements, func(i, j int) bool {
		a, b := requirements[i], requirements[j]
		if a.Priority.SortOrder() != b.Priority.SortOrder() {
			return a.Priority.SortOrder() < b.Priority.SortOrder()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
