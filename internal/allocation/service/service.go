// Package service implements the allocation engine: the single writer for
// bed occupancy. Every mutation of an allocation, a bed's occupied flag or a
// room's occupancy counter happens inside one transaction here, so the
// capacity and exclusivity invariants hold at every commit point.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/platform/tx"
	"hostelcore/pkg/requestcontext"

	admissionmodels "hostelcore/internal/admission/models"
	"hostelcore/internal/allocation/models"
	"hostelcore/internal/events"
	facilitymodels "hostelcore/internal/facility/models"
	identitymodels "hostelcore/internal/identity/models"
	"hostelcore/internal/platform/metrics"
)

// Store is the persistence boundary for allocations.
type Store interface {
	Create(ctx context.Context, allocation *models.Allocation) error
	FindByID(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error)
	FindActiveByStudent(ctx context.Context, studentID id.StudentID) (*models.Allocation, error)
	HasByApplication(ctx context.Context, applicationID id.ApplicationID) (bool, error)
	Complete(ctx context.Context, allocation *models.Allocation) error
	CountActiveByBeds(ctx context.Context, bedIDs []id.BedID) (int, error)
}

// ApplicationStore is the slice of admissions the engine reads.
type ApplicationStore interface {
	FindByID(ctx context.Context, applicationID id.ApplicationID) (*admissionmodels.Application, error)
}

// StudentDirectory resolves the applicant for the gender check.
type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID id.StudentID) (*identitymodels.Student, error)
}

// BedFinder resolves a free bed in a hostel for an occupant, deterministic
// tie-break included. Gender mismatch and exhausted capacity surface here,
// before any state changes.
type BedFinder interface {
	FindAvailableBed(ctx context.Context, hostelID id.HostelID, gender identitymodels.Gender) (*facilitymodels.Bed, error)
}

// OccupancyStore mutates the derived occupancy caches. Both methods are
// guarded: flipping a bed that is already in the requested state reports
// sentinel.ErrInvalidState instead of silently double-counting.
type OccupancyStore interface {
	OccupyBed(ctx context.Context, bedID id.BedID) error
	ReleaseBed(ctx context.Context, bedID id.BedID) error
}

// Emitter queues notifications without blocking the caller.
type Emitter interface {
	Emit(event events.Event)
}

// Service is the allocation engine.
type Service struct {
	store        Store
	applications ApplicationStore
	students     StudentDirectory
	beds         BedFinder
	occupancy    OccupancyStore
	tx           tx.Runner
	emitter      Emitter
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, applications ApplicationStore, students StudentDirectory, beds BedFinder, occupancy OccupancyStore, runner tx.Runner, emitter Emitter, logger *slog.Logger, opts ...Option) *Service {
	if runner == nil {
		runner = tx.NewMutexRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:        store,
		applications: applications,
		students:     students,
		beds:         beds,
		occupancy:    occupancy,
		tx:           runner,
		emitter:      emitter,
		logger:       logger,
		tracer:       otel.Tracer("hostelcore/allocation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allocate consumes an approved application: it picks the hostel's first free
// bed, marks it occupied, bumps the room counter and opens an active
// allocation, all in one transaction. The order is deliberate: every check
// runs before the first mutation, so a rejected request leaves no trace.
func (s *Service) Allocate(ctx context.Context, applicationID id.ApplicationID) (*models.Allocation, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.Allocate",
		trace.WithAttributes(attribute.String("application.id", applicationID.String())))
	defer span.End()

	var allocation *models.Allocation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		application, err := s.applications.FindByID(ctx, applicationID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "application not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
		if !application.IsApproved() {
			return dErrors.New(dErrors.CodeInvalidTransition, "application is not approved")
		}
		if application.PreferredHostelID == nil {
			return dErrors.New(dErrors.CodeBadRequest, "application specifies no hostel")
		}

		used, err := s.store.HasByApplication(ctx, applicationID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
		if used {
			return dErrors.New(dErrors.CodeConflict, "application already produced an allocation")
		}

		student, err := s.students.FindStudent(ctx, application.StudentID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "student not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
		if _, err := s.store.FindActiveByStudent(ctx, student.ID); err == nil {
			return dErrors.New(dErrors.CodeAlreadyResident, "student already has an active allocation")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}

		bed, err := s.beds.FindAvailableBed(ctx, *application.PreferredHostelID, student.Gender)
		if err != nil {
			return err
		}

		// First mutation. A guarded-update failure past this point means the
		// free-bed view and the occupancy caches disagree.
		if err := s.occupancy.OccupyBed(ctx, bed.ID); err != nil {
			return s.invariantViolation(ctx, err, "occupy bed",
				slog.String("bed_id", bed.ID.String()))
		}

		allocation, err = models.NewAllocation(
			id.AllocationID(uuid.New()), student.ID, application.ID, bed.ID,
			requestcontext.Now(ctx), application.StayDurationMonths,
		)
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, allocation); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeConflict, "allocation conflicts with a concurrent one")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create allocation")
		}
		return nil
	})
	if err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeContention) {
			s.metrics.IncrementAllocationConflicts()
		}
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(events.Event{
			Type:       events.TypeAllocationCreated,
			OccurredAt: requestcontext.Now(ctx),
			EntityID:   allocation.ID.String(),
			Attributes: map[string]string{
				"student_id": allocation.StudentID.String(),
				"bed_id":     allocation.BedID.String(),
			},
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementAllocationsCreated()
	}
	return allocation, nil
}

// Checkout completes an active allocation and frees its bed in the same
// transaction. Completed allocations stay completed; a second checkout is
// rejected before anything is touched.
func (s *Service) Checkout(ctx context.Context, allocationID id.AllocationID, checkoutDate time.Time) (*models.Allocation, error) {
	ctx, span := s.tracer.Start(ctx, "allocation.Checkout",
		trace.WithAttributes(attribute.String("allocation.id", allocationID.String())))
	defer span.End()

	var allocation *models.Allocation
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		allocation, err = s.store.FindByID(ctx, allocationID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "allocation not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
		}
		if err := allocation.CanComplete(checkoutDate); err != nil {
			return err
		}
		allocation.ApplyCompletion(checkoutDate)

		if err := s.store.Complete(ctx, allocation); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeAlreadyCompleted, "allocation is already completed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete allocation")
		}
		if err := s.occupancy.ReleaseBed(ctx, allocation.BedID); err != nil {
			return s.invariantViolation(ctx, err, "release bed",
				slog.String("bed_id", allocation.BedID.String()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(events.Event{
			Type:       events.TypeAllocationCompleted,
			OccurredAt: requestcontext.Now(ctx),
			EntityID:   allocation.ID.String(),
			Attributes: map[string]string{"student_id": allocation.StudentID.String()},
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementCheckouts()
	}
	return allocation, nil
}

// ActiveByStudent returns the student's current stay, if any.
func (s *Service) ActiveByStudent(ctx context.Context, studentID id.StudentID) (*models.Allocation, error) {
	allocation, err := s.store.FindActiveByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "student has no active allocation")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return allocation, nil
}

// GetAllocation returns one allocation by ID.
func (s *Service) GetAllocation(ctx context.Context, allocationID id.AllocationID) (*models.Allocation, error) {
	allocation, err := s.store.FindByID(ctx, allocationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "allocation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return allocation, nil
}

// invariantViolation maps a guarded-update failure to the loud error it
// deserves. The enclosing transaction rolls back, so no corrupt state lands,
// but the disagreement between caches and rows is worth an operator's eyes.
func (s *Service) invariantViolation(ctx context.Context, err error, op string, attrs ...any) error {
	if errors.Is(err, sentinel.ErrInvalidState) {
		s.logger.ErrorContext(ctx, "occupancy cache disagrees with allocation state",
			append(attrs, slog.String("op", op))...)
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "occupancy state is inconsistent")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op+" failed")
}
