// Package service implements incident handling: the complaint lifecycle and
// the visitor log.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/requestcontext"

	"hostelcore/internal/events"
	facilitymodels "hostelcore/internal/facility/models"
	identitymodels "hostelcore/internal/identity/models"
	"hostelcore/internal/incident/models"
)

// Store is the persistence boundary for complaints and visitors.
type Store interface {
	CreateComplaint(ctx context.Context, complaint *models.Complaint) error
	FindComplaint(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	ExecuteComplaint(ctx context.Context, complaintID id.ComplaintID, validate func(*models.Complaint) error, mutate func(*models.Complaint)) (*models.Complaint, error)
	ListComplaintsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Complaint, error)
	CreateVisitor(ctx context.Context, visitor *models.Visitor) error
	FindVisitor(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error)
	ExecuteVisitor(ctx context.Context, visitorID id.VisitorID, validate func(*models.Visitor) error, mutate func(*models.Visitor)) (*models.Visitor, error)
	ListVisitorsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Visitor, error)
}

// StudentDirectory verifies the filing or hosting student exists.
type StudentDirectory interface {
	FindStudent(ctx context.Context, studentID id.StudentID) (*identitymodels.Student, error)
}

// HostelDirectory verifies the complaint target exists.
type HostelDirectory interface {
	FindHostel(ctx context.Context, hostelID id.HostelID) (*facilitymodels.Hostel, error)
}

// Emitter queues notifications without blocking the caller.
type Emitter interface {
	Emit(event events.Event)
}

// Service orchestrates complaints and the visitor log.
type Service struct {
	store    Store
	students StudentDirectory
	hostels  HostelDirectory
	emitter  Emitter
}

func New(store Store, students StudentDirectory, hostels HostelDirectory, emitter Emitter) *Service {
	return &Service{store: store, students: students, hostels: hostels, emitter: emitter}
}

// FileComplaintRequest opens a complaint against a hostel.
type FileComplaintRequest struct {
	StudentID   id.StudentID
	HostelID    id.HostelID
	Title       string
	Description string
}

func (s *Service) FileComplaint(ctx context.Context, req FileComplaintRequest) (*models.Complaint, error) {
	if _, err := s.students.FindStudent(ctx, req.StudentID); err != nil {
		return nil, wrapLookupErr(err, "student")
	}
	if _, err := s.hostels.FindHostel(ctx, req.HostelID); err != nil {
		return nil, wrapLookupErr(err, "hostel")
	}
	complaint, err := models.NewComplaint(
		id.ComplaintID(uuid.New()), req.StudentID, req.HostelID,
		req.Title, req.Description, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateComplaint(ctx, complaint); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create complaint")
	}
	return complaint, nil
}

// StartProgress moves an open complaint to in_progress.
func (s *Service) StartProgress(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	return s.transition(ctx, complaintID, models.ComplaintInProgress)
}

// Resolve closes a complaint, stamping the resolution time.
func (s *Service) Resolve(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	complaint, err := s.transition(ctx, complaintID, models.ComplaintResolved)
	if err != nil {
		return nil, err
	}
	if s.emitter != nil {
		s.emitter.Emit(events.Event{
			Type:       events.TypeComplaintResolved,
			OccurredAt: requestcontext.Now(ctx),
			EntityID:   complaint.ID.String(),
			Attributes: map[string]string{"student_id": complaint.StudentID.String()},
		})
	}
	return complaint, nil
}

func (s *Service) transition(ctx context.Context, complaintID id.ComplaintID, next models.ComplaintStatus) (*models.Complaint, error) {
	now := requestcontext.Now(ctx)
	complaint, err := s.store.ExecuteComplaint(ctx, complaintID,
		func(c *models.Complaint) error {
			return c.CanTransition(next)
		},
		func(c *models.Complaint) {
			c.ApplyTransition(next, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "complaint not found")
		}
		return nil, err
	}
	return complaint, nil
}

func (s *Service) GetComplaint(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	complaint, err := s.store.FindComplaint(ctx, complaintID)
	if err != nil {
		return nil, wrapLookupErr(err, "complaint")
	}
	return complaint, nil
}

func (s *Service) ListComplaintsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Complaint, error) {
	return s.store.ListComplaintsByHostel(ctx, hostelID)
}

// CheckInVisitorRequest logs a visitor's arrival for a student.
type CheckInVisitorRequest struct {
	StudentID id.StudentID
	Name      string
	Phone     string
	Relation  string
}

func (s *Service) CheckInVisitor(ctx context.Context, req CheckInVisitorRequest) (*models.Visitor, error) {
	if _, err := s.students.FindStudent(ctx, req.StudentID); err != nil {
		return nil, wrapLookupErr(err, "student")
	}
	visitor, err := models.NewVisitor(
		id.VisitorID(uuid.New()), req.StudentID,
		req.Name, req.Phone, req.Relation, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateVisitor(ctx, visitor); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create visitor entry")
	}
	return visitor, nil
}

// CheckOutVisitor records the visitor's departure, once.
func (s *Service) CheckOutVisitor(ctx context.Context, visitorID id.VisitorID) (*models.Visitor, error) {
	at := requestcontext.Now(ctx)
	visitor, err := s.store.ExecuteVisitor(ctx, visitorID,
		func(v *models.Visitor) error {
			return v.CanCheckOut(at)
		},
		func(v *models.Visitor) {
			v.ApplyCheckOut(at)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, err
	}
	return visitor, nil
}

func (s *Service) ListVisitorsByStudent(ctx context.Context, studentID id.StudentID) ([]*models.Visitor, error) {
	return s.store.ListVisitorsByStudent(ctx, studentID)
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
