package store

import (
	"context"
	"sort"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/billing/models"
)

// InMemory keeps fee structures and payments in process memory.
type InMemory struct {
	mu       sync.RWMutex
	fees     map[id.FeeStructureID]*models.FeeStructure
	payments map[id.PaymentID]*models.Payment
}

func NewInMemory() *InMemory {
	return &InMemory{
		fees:     make(map[id.FeeStructureID]*models.FeeStructure),
		payments: make(map[id.PaymentID]*models.Payment),
	}
}

func (s *InMemory) CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.fees {
		if other.HostelID == fee.HostelID && other.EffectiveFrom.Equal(fee.EffectiveFrom) {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *fee
	s.fees[fee.ID] = &cp
	return nil
}

func (s *InMemory) ListFeesByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.FeeStructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.FeeStructure
	for _, f := range s.fees {
		if f.HostelID == hostelID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
	})
	return out, nil
}

func (s *InMemory) CreatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *payment
	s.payments[payment.ID] = &cp
	return nil
}

func (s *InMemory) FindPayment(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *payment
	return &cp, nil
}

// ExecutePayment applies a settle decision under the write lock so two
// settlements of the same payment cannot interleave.
func (s *InMemory) ExecutePayment(ctx context.Context, paymentID id.PaymentID, validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(payment); err != nil {
		return nil, err
	}
	mutate(payment)
	cp := *payment
	return &cp, nil
}

func (s *InMemory) ListPaymentsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}
