package store

import (
	"context"
	"sort"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/incident/models"
)

// InMemory keeps complaints and the visitor log in process memory.
type InMemory struct {
	mu         sync.RWMutex
	complaints map[id.ComplaintID]*models.Complaint
	visitors   map[id.VisitorID]*models.Visitor
}

func NewInMemory() *InMemory {
	return &InMemory{
		complaints: make(map[id.ComplaintID]*models.Complaint),
		visitors:   make(map[id.VisitorID]*models.Visitor),
	}
}

func (s *InMemory) CreateComplaint(ctx context.Context, complaint *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *complaint
	s.complaints[complaint.ID] = &cp
	return nil
}

func (s *InMemory) FindComplaint(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	complaint, ok := s.complaints[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *complaint
	return &cp, nil
}

// ExecuteComplaint applies a lifecycle transition under the write lock.
func (s *InMemory) ExecuteComplaint(ctx context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	complaint, ok := s.complaints[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(complaint); err != nil {
		return nil, err
	}
	mutate(complaint)
	cp := *complaint
	return &cp, nil
}

func (s *InMemory) ListComplaintsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Complaint
	for _, c := range s.complaints {
		if c.HostelID == hostelID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemory) CreateVisitor(ctx context.Context, visitor *models.Visitor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *visitor
	s.visitors[visitor.ID] = &cp
	return nil
}

func (s *InMemory) FindVisitor(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	visitor, ok := s.visitors[visitorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *visitor
	return &cp, nil
}

// ExecuteVisitor applies the check-out under the write lock so two
// departures of the same visitor cannot interleave.
func (s *InMemory) ExecuteVisitor(ctx context.Context, visitorID id.VisitorID, validate func(*models.Visitor) error, mutate func(*models.Visitor)) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	visitor, ok := s.visitors[visitorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(visitor); err != nil {
		return nil, err
	}
	mutate(visitor)
	cp := *visitor
	return &cp, nil
}

func (s *InMemory) ListVisitorsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Visitor
	for _, v := range s.visitors {
		if v.StudentID == studentID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInTime.Before(out[j].CheckInTime)
	})
	return out, nil
}
