// Package service implements the admission workflow: application intake and
// moderation decisions. Approval is a moderation fact only; bed assignment is
// the allocation engine's separate, retryable act.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/requestcontext"

	"hostelcore/internal/admission/models"
	"hostelcore/internal/events"
	identitymodels "hostelcore/internal/identity/models"
	"hostelcore/internal/platform/metrics"
)

// Store is the persistence boundary for applications.
type Store interface {
	Create(ctx context.Context, application *models.Application) error
	FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	Execute(ctx context.Context, applicationID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error)
	ListByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Application, error)
}

// StudentDirectory is the slice of the identity registry admissions needs.
type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID id.StudentID) (*identitymodels.Student, error)
}

// Emitter queues notifications without blocking the caller.
type Emitter interface {
	Emit(event events.Event)
}

// Service orchestrates application intake and decisions.
type Service struct {
	store    Store
	students StudentDirectory
	emitter  Emitter
	metrics  *metrics.Metrics

	// requireVerified makes approve demand a verified student identity.
	requireVerified bool
}

type Option func(*Service)

func WithVerifiedApprovalPolicy() Option {
	return func(s *Service) { s.requireVerified = true }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, students StudentDirectory, emitter Emitter, opts ...Option) *Service {
	s := &Service{store: store, students: students, emitter: emitter}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitApplicationRequest carries a student's request for a bed.
type SubmitApplicationRequest struct {
	StudentID          id.StudentID
	PreferredHostelID  *id.HostelID
	StayDurationMonths int
}

func (s *Service) SubmitApplication(ctx context.Context, req SubmitApplicationRequest) (*models.Application, error) {
	if _, err := s.students.FindStudent(ctx, req.StudentID); err != nil {
		return nil, wrapStudentErr(err)
	}
	application, err := models.NewApplication(
		id.ApplicationID(uuid.New()), req.StudentID, req.PreferredHostelID,
		req.StayDurationMonths, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, application); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
	}
	return application, nil
}

func (s *Service) GetApplication(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	application, err := s.store.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
	}
	return application, nil
}

func (s *Service) ListByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Application, error) {
	return s.store.ListByStudent(ctx, studentID)
}

// Approve moves a pending or waitlisted application to approved. With the
// verified-approval policy on, the student must have passed identity
// verification first.
func (s *Service) Approve(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	if s.requireVerified {
		application, err := s.GetApplication(ctx, applicationID)
		if err != nil {
			return nil, err
		}
		student, err := s.students.FindStudent(ctx, application.StudentID)
		if err != nil {
			return nil, wrapStudentErr(err)
		}
		if !student.IsVerified {
			return nil, dErrors.New(dErrors.CodeConflict, "student identity is not verified")
		}
	}
	return s.decide(ctx, applicationID, models.StatusApproved)
}

// Reject moves a pending or waitlisted application to rejected.
func (s *Service) Reject(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	return s.decide(ctx, applicationID, models.StatusRejected)
}

// Waitlist moves a pending application to waitlisted.
func (s *Service) Waitlist(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	return s.decide(ctx, applicationID, models.StatusWaitlisted)
}

func (s *Service) decide(ctx context.Context, applicationID id.ApplicationID, next models.ApplicationStatus) (*models.Application, error) {
	application, err := s.store.Execute(ctx, applicationID,
		func(a *models.Application) error {
			return a.CanDecide(next)
		},
		func(a *models.Application) {
			a.ApplyDecision(next)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(events.Event{
			Type:       events.TypeApplicationDecided,
			OccurredAt: requestcontext.Now(ctx),
			EntityID:   application.ID.String(),
			Attributes: map[string]string{"status": string(application.Status)},
		})
	}
	if s.metrics != nil {
		s.metrics.IncrementApplicationsDecided(string(application.Status))
	}
	return application, nil
}

func wrapStudentErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "student not found")
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
