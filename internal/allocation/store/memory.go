package store

import (
	"context"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/allocation/models"
)

// InMemory keeps allocations in process memory with the same uniqueness
// semantics the postgres store gets from its partial unique indexes.
type InMemory struct {
	mu          sync.RWMutex
	allocations map[id.AllocationID]*models.Allocation
}

func NewInMemory() *InMemory {
	return &InMemory{allocations: make(map[id.AllocationID]*models.Allocation)}
}

func (s *InMemory) Create(ctx context.Context, allocation *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.allocations {
		if other.ApplicationID == allocation.ApplicationID {
			return sentinel.ErrAlreadyUsed
		}
		if other.IsActive() && other.StudentID == allocation.StudentID {
			return sentinel.ErrAlreadyUsed
		}
		if other.IsActive() && other.BedID == allocation.BedID {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *allocation
	s.allocations[allocation.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allocation, ok := s.allocations[allocationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *allocation
	return &cp, nil
}

func (s *InMemory) FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.allocations {
		if a.IsActive() && a.StudentID == studentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) HasByApplication(ctx context.Context, applicationID id.ApplicationID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.allocations {
		if a.ApplicationID == applicationID {
			return true, nil
		}
	}
	return false, nil
}

// Complete flips an active allocation to completed; a non-active row means
// the caller's view is stale.
func (s *InMemory) Complete(ctx context.Context, allocation *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.allocations[allocation.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !stored.IsActive() {
		return sentinel.ErrInvalidState
	}
	cp := *allocation
	s.allocations[allocation.ID] = &cp
	return nil
}

// CountActiveByBeds recomputes a room's occupancy from allocation rows; the
// caller supplies the set of bed IDs in the room.
func (s *InMemory) CountActiveByBeds(ctx context.Context, bedIDs []id.BedID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inRoom := make(map[id.BedID]bool, len(bedIDs))
	for _, b := range bedIDs {
		inRoom[b] = true
	}
	count := 0
	for _, a := range s.allocations {
		if a.IsActive() && inRoom[a.BedID] {
			count++
		}
	}
	return count, nil
}
