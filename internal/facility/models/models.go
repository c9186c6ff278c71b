// Package models holds the facility catalog entities: hostels, rooms, beds.
// Room.CurrentOccupancy and Bed.IsOccupied are derived caches owned by the
// allocation engine; nothing else may write them.
package models

import (
	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"

	identitymodels "hostelcore/internal/identity/models"
)

// HostelGender restricts who may live in a hostel.
type HostelGender string

const (
	HostelBoys  HostelGender = "boys"
	HostelGirls HostelGender = "girls"
)

func (g HostelGender) Valid() bool {
	return g == HostelBoys || g == HostelGirls
}

// Accepts reports whether a person of the given gender may be allocated a
// bed in a hostel of this type.
func (g HostelGender) Accepts(gender identitymodels.Gender) bool {
	switch g {
	case HostelBoys:
		return gender == identitymodels.GenderMale
	case HostelGirls:
		return gender == identitymodels.GenderFemale
	}
	return false
}

// BedType is the room configuration a hostel offers.
type BedType string

const (
	BedSingle BedType = "single"
	BedDouble BedType = "double"
)

func (t BedType) Valid() bool { return t == BedSingle || t == BedDouble }

// ACType distinguishes air-conditioned hostels.
type ACType string

const (
	ACTypeAC    ACType = "ac"
	ACTypeNonAC ACType = "non_ac"
)

func (t ACType) Valid() bool { return t == ACTypeAC || t == ACTypeNonAC }

// Hostel declares a building. TotalRooms is informational capacity; the
// authoritative capacity is the Room/Bed rows.
type Hostel struct {
	ID         id.HostelID   `json:"id"`
	Name       string        `json:"name"`
	GenderType HostelGender  `json:"gender_type"`
	BedType    BedType       `json:"bed_type"`
	ACType     ACType        `json:"ac_type"`
	AddressID  *id.AddressID `json:"address_id,omitempty"`
	WardenID   *id.WardenID  `json:"warden_id,omitempty"`
	TotalRooms int           `json:"total_rooms"`
}

func NewHostel(hostelID id.HostelID, name string, genderType HostelGender, bedType BedType, acType ACType, addressID *id.AddressID, totalRooms int) (*Hostel, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "hostel name is required")
	}
	if !genderType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "gender type must be boys or girls")
	}
	if !bedType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "bed type must be single or double")
	}
	if !acType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "ac type must be ac or non_ac")
	}
	if totalRooms < 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "total rooms must not be negative")
	}
	return &Hostel{
		ID:         hostelID,
		Name:       name,
		GenderType: genderType,
		BedType:    bedType,
		ACType:     acType,
		AddressID:  addressID,
		TotalRooms: totalRooms,
	}, nil
}

// Room belongs to exactly one hostel. CurrentOccupancy is a write-through
// cache of the count of occupied beds, mutated only alongside allocation
// writes.
type Room struct {
	ID               id.RoomID   `json:"id"`
	HostelID         id.HostelID `json:"hostel_id"`
	RoomNumber       string      `json:"room_number"`
	Capacity         int         `json:"capacity"`
	CurrentOccupancy int         `json:"current_occupancy"`
}

func NewRoom(roomID id.RoomID, hostelID id.HostelID, roomNumber string, capacity int) (*Room, error) {
	if roomNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "room number is required")
	}
	if capacity < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "room capacity must be at least 1")
	}
	return &Room{
		ID:         roomID,
		HostelID:   hostelID,
		RoomNumber: roomNumber,
		Capacity:   capacity,
	}, nil
}

// Bed belongs to exactly one room. IsOccupied mirrors the existence of an
// active allocation referencing the bed.
type Bed struct {
	ID         id.BedID  `json:"id"`
	RoomID     id.RoomID `json:"room_id"`
	BedNumber  string    `json:"bed_number"`
	IsOccupied bool      `json:"is_occupied"`
}

func NewBed(bedID id.BedID, roomID id.RoomID, bedNumber string) (*Bed, error) {
	if bedNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "bed number is required")
	}
	return &Bed{ID: bedID, RoomID: roomID, BedNumber: bedNumber}, nil
}
