// Package service implements the facility catalog: hostels, rooms, beds and
// the available-bed query the allocation engine consumes.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/facility/models"
	identitymodels "hostelcore/internal/identity/models"
)

// Store is the persistence boundary for the facility catalog.
type Store interface {
	CreateHostel(ctx context.Context, hostel *models.Hostel) error
	FindHostel(ctx context.Context, hostelID id.HostelID) (*models.Hostel, error)
	ListHostels(ctx context.Context) ([]*models.Hostel, error)
	SetWarden(ctx context.Context, hostelID id.HostelID, wardenID id.WardenID) error
	CreateRoom(ctx context.Context, room *models.Room) error
	FindRoom(ctx context.Context, roomID id.RoomID) (*models.Room, error)
	ListRoomsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Room, error)
	CreateBed(ctx context.Context, bed *models.Bed) error
	FindBed(ctx context.Context, bedID id.BedID) (*models.Bed, error)
	ListBedsByRoom(ctx context.Context, roomID id.RoomID) ([]*models.Bed, error)
	FindAvailableBed(ctx context.Context, hostelID id.HostelID) (*models.Bed, error)
}

// Service orchestrates catalog management and the free-bed view.
type Service struct {
	store Store
}

func New(store Store) *Service {
	return &Service{store: store}
}

// CreateHostelRequest declares a new building.
type CreateHostelRequest struct {
	Name       string
	GenderType models.HostelGender
	BedType    models.BedType
	ACType     models.ACType
	AddressID  *id.AddressID
	TotalRooms int
}

func (s *Service) CreateHostel(ctx context.Context, req CreateHostelRequest) (*models.Hostel, error) {
	hostel, err := models.NewHostel(
		id.HostelID(uuid.New()),
		strings.TrimSpace(req.Name),
		req.GenderType, req.BedType, req.ACType,
		req.AddressID, req.TotalRooms,
	)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateHostel(ctx, hostel); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create hostel")
	}
	return hostel, nil
}

func (s *Service) GetHostel(ctx context.Context, hostelID id.HostelID) (*models.Hostel, error) {
	hostel, err := s.store.FindHostel(ctx, hostelID)
	if err != nil {
		return nil, wrapLookupErr(err, "hostel")
	}
	return hostel, nil
}

func (s *Service) ListHostels(ctx context.Context) ([]*models.Hostel, error) {
	return s.store.ListHostels(ctx)
}

func (s *Service) AssignWarden(ctx context.Context, hostelID id.HostelID, wardenID id.WardenID) error {
	if err := s.store.SetWarden(ctx, hostelID, wardenID); err != nil {
		return wrapLookupErr(err, "hostel")
	}
	return nil
}

func (s *Service) AddRoom(ctx context.Context, hostelID id.HostelID, roomNumber string, capacity int) (*models.Room, error) {
	room, err := models.NewRoom(id.RoomID(uuid.New()), hostelID, strings.TrimSpace(roomNumber), capacity)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "room number already exists in hostel")
		}
		return nil, wrapLookupErr(err, "hostel")
	}
	return room, nil
}

func (s *Service) AddBed(ctx context.Context, roomID id.RoomID, bedNumber string) (*models.Bed, error) {
	bed, err := models.NewBed(id.BedID(uuid.New()), roomID, strings.TrimSpace(bedNumber))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateBed(ctx, bed); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "bed number already exists in room")
		}
		return nil, wrapLookupErr(err, "room")
	}
	return bed, nil
}

// FindAvailableBed resolves the free-bed view for an intended occupant.
// The hostel's gender type is checked against the occupant before any bed
// search so a mismatch never reaches selection. Deterministic tie-break:
// lowest room number, then lowest bed number.
func (s *Service) FindAvailableBed(ctx context.Context, hostelID id.HostelID, gender identitymodels.Gender) (*models.Bed, error) {
	hostel, err := s.store.FindHostel(ctx, hostelID)
	if err != nil {
		return nil, wrapLookupErr(err, "hostel")
	}
	if !hostel.GenderType.Accepts(gender) {
		return nil, dErrors.New(dErrors.CodeGenderMismatch, "hostel does not accept this gender")
	}
	bed, err := s.store.FindAvailableBed(ctx, hostelID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNoCapacity, "no free bed in hostel")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "bed search failed")
	}
	return bed, nil
}

func wrapLookupErr(err error, kind string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, kind+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}
