package store

import (
	"context"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/admission/models"
)

// InMemory keeps applications in process memory.
type InMemory struct {
	mu           sync.RWMutex
	applications map[id.ApplicationID]*models.Application
}

func NewInMemory() *InMemory {
	return &InMemory{applications: make(map[id.ApplicationID]*models.Application)}
}

func (s *InMemory) Create(ctx context.Context, application *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *application
	s.applications[application.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	application, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *application
	return &cp, nil
}

// Execute runs validate then mutate while holding the store lock, so the
// state checked is the state mutated.
func (s *InMemory) Execute(ctx context.Context, applicationID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	application, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(application); err != nil {
		return nil, err
	}
	mutate(application)
	cp := *application
	return &cp, nil
}

func (s *InMemory) ListByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Application
	for _, a := range s.applications {
		if a.StudentID == studentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
