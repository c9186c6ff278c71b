// Package domain defines typed identifiers for every entity. Distinct types
// make cross-entity ID mix-ups a compile error instead of a data corruption.
package domain

import (
	"github.com/google/uuid"

	dErrors "hostelcore/pkg/domain-errors"
)

type (
	AddressID      uuid.UUID
	StudentID      uuid.UUID
	GuardianID     uuid.UUID
	WardenID       uuid.UUID
	HostelID       uuid.UUID
	RoomID         uuid.UUID
	BedID          uuid.UUID
	ApplicationID  uuid.UUID
	AllocationID   uuid.UUID
	FeeStructureID uuid.UUID
	PaymentID      uuid.UUID
	ComplaintID    uuid.UUID
	VisitorID      uuid.UUID
)

func (id AddressID) String() string      { return uuid.UUID(id).String() }
func (id StudentID) String() string      { return uuid.UUID(id).String() }
func (id GuardianID) String() string     { return uuid.UUID(id).String() }
func (id WardenID) String() string       { return uuid.UUID(id).String() }
func (id HostelID) String() string       { return uuid.UUID(id).String() }
func (id RoomID) String() string         { return uuid.UUID(id).String() }
func (id BedID) String() string          { return uuid.UUID(id).String() }
func (id ApplicationID) String() string  { return uuid.UUID(id).String() }
func (id AllocationID) String() string   { return uuid.UUID(id).String() }
func (id FeeStructureID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string      { return uuid.UUID(id).String() }
func (id ComplaintID) String() string    { return uuid.UUID(id).String() }
func (id VisitorID) String() string      { return uuid.UUID(id).String() }

func (id StudentID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id HostelID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id BedID) IsZero() bool          { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AllocationID) IsZero() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AddressID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }
func (id WardenID) IsZero() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RoomID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id GuardianID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id FeeStructureID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id ComplaintID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id VisitorID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the trust-boundary invariant: IDs must be valid,
// non-empty, non-nil UUIDs.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id is required")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id must not be the nil UUID")
	}
	return u, nil
}

func ParseAddressID(raw string) (AddressID, error) {
	u, err := parseUUID(raw, "address")
	return AddressID(u), err
}

func ParseStudentID(raw string) (StudentID, error) {
	u, err := parseUUID(raw, "student")
	return StudentID(u), err
}

func ParseGuardianID(raw string) (GuardianID, error) {
	u, err := parseUUID(raw, "guardian")
	return GuardianID(u), err
}

func ParseWardenID(raw string) (WardenID, error) {
	u, err := parseUUID(raw, "warden")
	return WardenID(u), err
}

func ParseHostelID(raw string) (HostelID, error) {
	u, err := parseUUID(raw, "hostel")
	return HostelID(u), err
}

func ParseRoomID(raw string) (RoomID, error) {
	u, err := parseUUID(raw, "room")
	return RoomID(u), err
}

func ParseBedID(raw string) (BedID, error) {
	u, err := parseUUID(raw, "bed")
	return BedID(u), err
}

func ParseApplicationID(raw string) (ApplicationID, error) {
	u, err := parseUUID(raw, "application")
	return ApplicationID(u), err
}

func ParseAllocationID(raw string) (AllocationID, error) {
	u, err := parseUUID(raw, "allocation")
	return AllocationID(u), err
}

func ParseFeeStructureID(raw string) (FeeStructureID, error) {
	u, err := parseUUID(raw, "fee structure")
	return FeeStructureID(u), err
}

func ParsePaymentID(raw string) (PaymentID, error) {
	u, err := parseUUID(raw, "payment")
	return PaymentID(u), err
}

func ParseComplaintID(raw string) (ComplaintID, error) {
	u, err := parseUUID(raw, "complaint")
	return ComplaintID(u), err
}

func ParseVisitorID(raw string) (VisitorID, error) {
	u, err := parseUUID(raw, "visitor")
	return VisitorID(u), err
}
