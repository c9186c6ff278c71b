// Package service implements the identity registry: students, guardians,
// wardens and addresses, with uniqueness and the verification flag lifecycle.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/platform/tx"
	"hostelcore/pkg/requestcontext"

	"hostelcore/internal/identity/models"
)

// Store is the persistence boundary for the identity registry.
type Store interface {
	CreateStudentIfUnique(ctx context.Context, student *models.Student) error
	FindStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error)
	SetStudentVerified(ctx context.Context, studentID id.StudentID, verified bool) error
	DeleteStudent(ctx context.Context, studentID id.StudentID) error
	CreateGuardian(ctx context.Context, guardian *models.Guardian) error
	ListGuardians(ctx context.Context, studentID id.StudentID) ([]*models.Guardian, error)
	DeleteGuardiansByStudent(ctx context.Context, studentID id.StudentID) error
	CreateWardenIfUnique(ctx context.Context, warden *models.Warden) error
	FindWarden(ctx context.Context, wardenID id.WardenID) (*models.Warden, error)
	CreateAddress(ctx context.Context, address *models.Address) error
	FindAddress(ctx context.Context, addressID id.AddressID) (*models.Address, error)
}

// Service orchestrates identity registry operations.
type Service struct {
	store  Store
	tx     tx.Runner
	logger *slog.Logger
}

func New(store Store, runner tx.Runner, logger *slog.Logger) *Service {
	if runner == nil {
		runner = tx.NewMutexRunner()
	}
	return &Service{store: store, tx: runner, logger: logger}
}

// RegisterStudentRequest carries the semantic attributes of a new student.
type RegisterStudentRequest struct {
	FullName     string
	DateOfBirth  time.Time
	Gender       models.Gender
	Phone        string
	Email        string
	GovtIDType   models.GovtIDType
	GovtIDNumber string
	AddressID    *id.AddressID
}

func (s *Service) RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*models.Student, error) {
	student, err := models.NewStudent(
		id.StudentID(uuid.New()),
		strings.TrimSpace(req.FullName),
		req.DateOfBirth, req.Gender,
		strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email),
		req.GovtIDType, strings.TrimSpace(req.GovtIDNumber),
		req.AddressID,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateStudentIfUnique(ctx, student); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone, email or government id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register student")
	}
	return student, nil
}

func (s *Service) GetStudent(ctx context.Context, studentID id.StudentID) (*models.Student, error) {
	student, err := s.store.FindStudent(ctx, studentID)
	if err != nil {
		return nil, wrapLookupErr(err, "student")
	}
	return student, nil
}

// VerifyStudent records the outcome of the external identity verification.
func (s *Service) VerifyStudent(ctx context.Context, studentID id.StudentID) error {
	if err := s.store.SetStudentVerified(ctx, studentID, true); err != nil {
		return wrapLookupErr(err, "student")
	}
	return nil
}

// DeleteStudent removes a student and, in the same transaction, every
// guardian owned by it. Ownership cascade is policy here, not a storage
// trigger.
func (s *Service) DeleteStudent(ctx context.Context, studentID id.StudentID) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.DeleteGuardiansByStudent(txCtx, studentID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete guardians")
		}
		if err := s.store.DeleteStudent(txCtx, studentID); err != nil {
			return wrapLookupErr(err, "student")
		}
		return nil
	})
}

// AddGuardianRequest carries a guardian registration under one student.
type AddGuardianRequest struct {
	StudentID id.StudentID
	FullName  string
	Relation  string
	Phone     string
	AddressID *id.AddressID
}

func (s *Service) AddGuardian(ctx context.Context, req AddGuardianRequest) (*models.Guardian, error) {
	guardian, err := models.NewGuardian(
		id.GuardianID(uuid.New()), req.StudentID,
		strings.TrimSpace(req.FullName), strings.TrimSpace(req.Relation), strings.TrimSpace(req.Phone),
		req.AddressID,
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateGuardian(ctx, guardian); err != nil {
		return nil, wrapLookupErr(err, "student")
	}
	return guardian, nil
}

func (s *Service) ListGuardians(ctx context.Context, studentID id.StudentID) ([]*models.Guardian, error) {
	return s.store.ListGuardians(ctx, studentID)
}

// RegisterWardenRequest carries the semantic attributes of a new warden.
type RegisterWardenRequest struct {
	FullName     string
	Gender       models.Gender
	Phone        string
	Email        string
	GovtIDType   models.GovtIDType
	GovtIDNumber string
	AddressID    *id.AddressID
}

func (s *Service) RegisterWarden(ctx context.Context, req RegisterWardenRequest) (*models.Warden, error) {
	warden, err := models.NewWarden(
		id.WardenID(uuid.New()),
		strings.TrimSpace(req.FullName), req.Gender,
		strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email),
		req.GovtIDType, strings.TrimSpace(req.GovtIDNumber),
		req.AddressID,
		requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateWardenIfUnique(ctx, warden); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "phone, email or government id already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register warden")
	}
	return warden, nil
}

// CreateAddressRequest carries a postal address.
type CreateAddressRequest struct {
	Line1   string
	Line2   string
	City    string
	State   string
	Pincode string
	Country string
}

func (s *Service) CreateAddress(ctx context.Context, req CreateAddressRequest) (*models.Address, error) {
	address, err := models.NewAddress(
		id.AddressID(uuid.New()),
		strings.TrimSpace(req.Line1), strings.TrimSpace(req.Line2),
		strings.TrimSpace(req.City), strings.TrimSpace(req.State),
		strings.TrimSpace(req.Pincode), strings.TrimSpace(req.Country),
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateAddress(ctx, address); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create address")
	}
	return address, nil
}

func wrapLookupErr(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, kind+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
