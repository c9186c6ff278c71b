package store

import (
	"context"
	"strings"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/identity/models"
)

// InMemory keeps the identity registry in process memory. It backs unit
// tests and database-less runs with the same uniqueness semantics the
// postgres store gets from its constraints.
type InMemory struct {
	mu        sync.RWMutex
	students  map[id.StudentID]*models.Student
	guardians map[id.GuardianID]*models.Guardian
	wardens   map[id.WardenID]*models.Warden
	addresses map[id.AddressID]*models.Address
}

func NewInMemory() *InMemory {
	return &InMemory{
		students:  make(map[id.StudentID]*models.Student),
		guardians: make(map[id.GuardianID]*models.Guardian),
		wardens:   make(map[id.WardenID]*models.Warden),
		addresses: make(map[id.AddressID]*models.Address),
	}
}

func (s *InMemory) CreateStudentIfUnique(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.students {
		if other.Phone == student.Phone {
			return sentinel.ErrAlreadyUsed
		}
		if student.Email != "" && strings.EqualFold(other.Email, student.Email) {
			return sentinel.ErrAlreadyUsed
		}
		if other.GovtIDType == student.GovtIDType && other.GovtIDNumber == student.GovtIDNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *student
	s.students[student.ID] = &cp
	return nil
}

func (s *InMemory) FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	student, ok := s.students[studentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *student
	return &cp, nil
}

func (s *InMemory) SetStudentVerified(ctx context.Context, studentID id.StudentID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	student, ok := s.students[studentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	student.IsVerified = verified
	return nil
}

func (s *InMemory) DeleteStudent(ctx context.Context, studentID id.StudentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[studentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.students, studentID)
	return nil
}

func (s *InMemory) CreateGuardian(ctx context.Context, guardian *models.Guardian) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[guardian.StudentID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *guardian
	s.guardians[guardian.ID] = &cp
	return nil
}

func (s *InMemory) ListGuardians(ctx context.Context, studentID id.StudentID) ([]*models.Guardian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Guardian
	for _, g := range s.guardians {
		if g.StudentID == studentID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) DeleteGuardiansByStudent(ctx context.Context, studentID id.StudentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for gid, g := range s.guardians {
		if g.StudentID == studentID {
			delete(s.guardians, gid)
		}
	}
	return nil
}

func (s *InMemory) CreateWardenIfUnique(ctx context.Context, warden *models.Warden) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.wardens {
		if other.Phone == warden.Phone {
			return sentinel.ErrAlreadyUsed
		}
		if warden.Email != "" && strings.EqualFold(other.Email, warden.Email) {
			return sentinel.ErrAlreadyUsed
		}
		if other.GovtIDType == warden.GovtIDType && other.GovtIDNumber == warden.GovtIDNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *warden
	s.wardens[warden.ID] = &cp
	return nil
}

func (s *InMemory) FindWarden(ctx context.Context, wardenID id.WardenID) (*models.Warden, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	warden, ok := s.wardens[wardenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *warden
	return &cp, nil
}

func (s *InMemory) CreateAddress(ctx context.Context, address *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *address
	s.addresses[address.ID] = &cp
	return nil
}

func (s *InMemory) FindAddress(ctx context.Context, addressID id.AddressID) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	address, ok := s.addresses[addressID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *address
	return &cp, nil
}
