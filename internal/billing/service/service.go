// Package service implements billing: the fee time-series per hostel and the
// payment settle-once lifecycle.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/money"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/requestcontext"

	"hostelcore/internal/billing/models"
	"hostelcore/internal/events"
	facilitymodels "hostelcore/internal/facility/models"
	identitymodels "hostelcore/internal/identity/models"
	"hostelcore/internal/platform/metrics"
)

// FeeStore is the persistence boundary for the fee time-series. In
// production it is the Redis-fronted cache over the postgres store.
type FeeStore interface {
	CreateFeeStructure(ctx context.Context, fee *models.FeeStructure) error
	ListFeesByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.FeeStructure, error)
}

// PaymentStore is the persistence boundary for payments.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPayment(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	ExecutePayment(ctx context.Context, paymentID id.PaymentID, validate func(*models.Payment) error, mutate func(*models.Payment)) (*models.Payment, error)
	ListPaymentsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Payment, error)
}

// HostelDirectory verifies fee targets exist.
type HostelDirectory interface {
	FindHostel(ctx context.Context, hostelID id.HostelID) (*facilitymodels.Hostel, error)
}

// StudentDirectory verifies payment subjects exist.
type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID id.StudentID) (*identitymodels.Student, error)
}

// Emitter queues notifications without blocking the caller.
type Emitter interface {
	Emit(event events.Event)
}

// Service orchestrates fee management and payment settlement.
type Service struct {
	fees     FeeStore
	payments PaymentStore
	hostels  HostelDirectory
	students StudentDirectory
	emitter  Emitter
	metrics  *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(fees FeeStore, payments PaymentStore, hostels HostelDirectory, students StudentDirectory, emitter Emitter, opts ...Option) *Service {
	s := &Service{fees: fees, payments: payments, hostels: hostels, students: students, emitter: emitter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateFeeStructureRequest declares a new fee row for a hostel.
type CreateFeeStructureRequest struct {
	HostelID        id.HostelID
	MonthlyRent     money.Amount
	SecurityDeposit money.Amount
	MaintenanceFee  *money.Amount
	EffectiveFrom   time.Time
}

func (s *Service) CreateFeeStructure(ctx context.Context, req CreateFeeStructureRequest) (*models.FeeStructure, error) {
	if _, err := s.hostels.FindHostel(ctx, req.HostelID); err != nil {
		return nil, wrapLookupErr(err, "hostel")
	}
	fee, err := models.NewFeeStructure(
		id.FeeStructureID(uuid.New()), req.HostelID,
		req.MonthlyRent, req.SecurityDeposit, req.MaintenanceFee, req.EffectiveFrom,
	)
	if err != nil {
		return nil, err
	}
	if err := s.fees.CreateFeeStructure(ctx, fee); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "fee structure already exists for that effective date")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create fee structure")
	}
	return fee, nil
}

// ApplicableFee returns the fee row in force for a hostel on the given day:
// the row with the latest effective date not after that day.
func (s *Service) ApplicableFee(ctx context.Context, hostelID id.HostelID, day time.Time) (*models.FeeStructure, error) {
	if _, err := s.hostels.FindHostel(ctx, hostelID); err != nil {
		return nil, wrapLookupErr(err, "hostel")
	}
	fees, err := s.fees.ListFeesByHostel(ctx, hostelID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fee structures")
	}
	fee := models.ApplicableFee(fees, day)
	if fee == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no fee structure in force on that date")
	}
	return fee, nil
}

// RecordPaymentRequest opens a pending payment against a student.
type RecordPaymentRequest struct {
	StudentID    id.StudentID
	AllocationID *id.AllocationID
	Amount       money.Amount
	Type         models.PaymentType
}

func (s *Service) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if _, err := s.students.FindStudent(ctx, req.StudentID); err != nil {
		return nil, wrapLookupErr(err, "student")
	}
	payment, err := models.NewPayment(
		id.PaymentID(uuid.New()), req.StudentID, req.AllocationID, req.Amount, req.Type,
	)
	if err != nil {
		return nil, err
	}
	if err := s.payments.CreatePayment(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create payment")
	}
	return payment, nil
}

// MarkCompleted settles a pending payment successfully, recording the
// gateway reference and the settlement time.
func (s *Service) MarkCompleted(ctx context.Context, paymentID id.PaymentID, txReference string) (*models.Payment, error) {
	txReference = strings.TrimSpace(txReference)
	if txReference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "transaction reference is required")
	}
	now := requestcontext.Now(ctx)
	return s.settle(ctx, paymentID, events.TypePaymentCompleted, func(p *models.Payment) {
		p.ApplyCompletion(txReference, now)
	})
}

// MarkFailed settles a pending payment as failed.
func (s *Service) MarkFailed(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	return s.settle(ctx, paymentID, events.TypePaymentFailed, func(p *models.Payment) {
		p.ApplyFailure()
	})
}

func (s *Service) settle(ctx context.Context, paymentID id.PaymentID, eventType events.Type, mutate func(*models.Payment)) (*models.Payment, error) {
	payment, err := s.payments.ExecutePayment(ctx, paymentID,
		func(p *models.Payment) error {
			return p.CanSettle()
		},
		mutate,
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(events.Event{
			Type:       eventType,
			OccurredAt: requestcontext.Now(ctx),
			EntityID:   payment.ID.String(),
			Attributes: map[string]string{"student_id": payment.StudentID.String()},
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementPaymentsSettled(string(payment.Status))
	}
	return payment, nil
}

func (s *Service) GetPayment(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	payment, err := s.payments.FindPayment(ctx, paymentID)
	if err != nil {
		return nil, wrapLookupErr(err, "payment")
	}
	return payment, nil
}

func (s *Service) ListPaymentsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Payment, error) {
	return s.payments.ListPaymentsByStudent(ctx, studentID)
}

func wrapLookupErr(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, kind+" not found")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
