package store

import (
	"context"
	"sort"
	"sync"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/facility/models"
)

// InMemory keeps the facility catalog in process memory.
type InMemory struct {
	mu      sync.RWMutex
	hostels map[id.HostelID]*models.Hostel
	rooms   map[id.RoomID]*models.Room
	beds    map[id.BedID]*models.Bed
}

func NewInMemory() *InMemory {
	return &InMemory{
		hostels: make(map[id.HostelID]*models.Hostel),
		rooms:   make(map[id.RoomID]*models.Room),
		beds:    make(map[id.BedID]*models.Bed),
	}
}

func (s *InMemory) CreateHostel(ctx context.Context, hostel *models.Hostel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *hostel
	s.hostels[hostel.ID] = &cp
	return nil
}

func (s *InMemory) FindHostel(ctx context.Context, hostelID id.HostelID) (*models.Hostel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hostel, ok := s.hostels[hostelID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *hostel
	return &cp, nil
}

func (s *InMemory) ListHostels(ctx context.Context) ([]*models.Hostel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Hostel, 0, len(s.hostels))
	for _, h := range s.hostels {
		cp := *h
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) SetWarden(ctx context.Context, hostelID id.HostelID, wardenID id.WardenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	hostel, ok := s.hostels[hostelID]
	if !ok {
		return sentinel.ErrNotFound
	}
	hostel.WardenID = &wardenID
	return nil
}

func (s *InMemory) CreateRoom(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hostels[room.HostelID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, other := range s.rooms {
		if other.HostelID == room.HostelID && other.RoomNumber == room.RoomNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *room
	s.rooms[room.ID] = &cp
	return nil
}

func (s *InMemory) FindRoom(ctx context.Context, roomID id.RoomID) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *room
	return &cp, nil
}

func (s *InMemory) ListRoomsByHostel(ctx context.Context, hostelID id.HostelID) ([]*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Room
	for _, r := range s.rooms {
		if r.HostelID == hostelID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, nil
}

func (s *InMemory) CreateBed(ctx context.Context, bed *models.Bed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[bed.RoomID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, other := range s.beds {
		if other.RoomID == bed.RoomID && other.BedNumber == bed.BedNumber {
			return sentinel.ErrAlreadyUsed
		}
	}
	cp := *bed
	s.beds[bed.ID] = &cp
	return nil
}

func (s *InMemory) FindBed(ctx context.Context, bedID id.BedID) (*models.Bed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bed, ok := s.beds[bedID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *bed
	return &cp, nil
}

func (s *InMemory) ListBedsByRoom(ctx context.Context, roomID id.RoomID) ([]*models.Bed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Bed
	for _, b := range s.beds {
		if b.RoomID == roomID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BedNumber < out[j].BedNumber })
	return out, nil
}

// FindAvailableBed returns the first free bed in a room with spare capacity,
// ordered by room number then bed number so the choice is deterministic.
// Read-only: occupancy mutation belongs to the allocation engine.
func (s *InMemory) FindAvailableBed(ctx context.Context, hostelID id.HostelID) (*models.Bed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []*models.Room
	for _, r := range s.rooms {
		if r.HostelID == hostelID && r.CurrentOccupancy < r.Capacity {
			rooms = append(rooms, r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomNumber < rooms[j].RoomNumber })

	for _, room := range rooms {
		var beds []*models.Bed
		for _, b := range s.beds {
			if b.RoomID == room.ID && !b.IsOccupied {
				beds = append(beds, b)
			}
		}
		sort.Slice(beds, func(i, j int) bool { return beds[i].BedNumber < beds[j].BedNumber })
		if len(beds) > 0 {
			cp := *beds[0]
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// OccupyBed flips the bed flag and bumps the room counter as one unit.
// Returns ErrInvalidState when the cached state contradicts the caller's
// view; inside an allocation transaction that means derived state is
// corrupt.
func (s *InMemory) OccupyBed(ctx context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bed, ok := s.beds[bedID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if bed.IsOccupied {
		return sentinel.ErrInvalidState
	}
	room, ok := s.rooms[bed.RoomID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if room.CurrentOccupancy >= room.Capacity {
		return sentinel.ErrInvalidState
	}
	bed.IsOccupied = true
	room.CurrentOccupancy++
	return nil
}

// ReleaseBed is the inverse of OccupyBed with the same unit semantics.
func (s *InMemory) ReleaseBed(ctx context.Context, bedID id.BedID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bed, ok := s.beds[bedID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !bed.IsOccupied {
		return sentinel.ErrInvalidState
	}
	room, ok := s.rooms[bed.RoomID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if room.CurrentOccupancy <= 0 {
		return sentinel.ErrInvalidState
	}
	bed.IsOccupied = false
	room.CurrentOccupancy--
	return nil
}
