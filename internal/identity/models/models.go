// Package models holds the identity registry entities: students, guardians,
// wardens and the postal addresses they reference.
package models

import (
	"time"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
)

// Gender of a person. Matched against a hostel's gender type during
// allocation.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// GovtIDType is the kind of government identity document on record.
type GovtIDType string

const (
	GovtIDAadhaar        GovtIDType = "aadhaar"
	GovtIDPassport       GovtIDType = "passport"
	GovtIDDrivingLicense GovtIDType = "driving_license"
)

func (t GovtIDType) Valid() bool {
	switch t {
	case GovtIDAadhaar, GovtIDPassport, GovtIDDrivingLicense:
		return true
	}
	return false
}

// Address is pure storage; the only rule is that required fields are present.
type Address struct {
	ID      id.AddressID `json:"id"`
	Line1   string       `json:"line1"`
	Line2   string       `json:"line2,omitempty"`
	City    string       `json:"city"`
	State   string       `json:"state"`
	Pincode string       `json:"pincode"`
	Country string       `json:"country"`
}

func NewAddress(addressID id.AddressID, line1, line2, city, state, pincode, country string) (*Address, error) {
	if line1 == "" || city == "" || state == "" || pincode == "" || country == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "address requires line1, city, state, pincode and country")
	}
	return &Address{
		ID:      addressID,
		Line1:   line1,
		Line2:   line2,
		City:    city,
		State:   state,
		Pincode: pincode,
		Country: country,
	}, nil
}

// Student is an identity registry aggregate.
//
// Invariants:
//   - Phone is globally unique; email unique when present
//   - (GovtIDType, GovtIDNumber) pair is globally unique
//   - IsVerified starts false and is flipped only by the external
//     verification action
type Student struct {
	ID           id.StudentID  `json:"id"`
	FullName     string        `json:"full_name"`
	DateOfBirth  time.Time     `json:"dob"`
	Gender       Gender        `json:"gender"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email,omitempty"`
	GovtIDType   GovtIDType    `json:"govt_id_type"`
	GovtIDNumber string        `json:"govt_id_number"`
	AddressID    *id.AddressID `json:"address_id,omitempty"`
	IsVerified   bool          `json:"is_verified"`
	CreatedAt    time.Time     `json:"created_at"`
}

func NewStudent(studentID id.StudentID, fullName string, dob time.Time, gender Gender, phone, email string, idType GovtIDType, idNumber string, addressID *id.AddressID, now time.Time) (*Student, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "student name is required")
	}
	if !gender.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "gender must be male or female")
	}
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	if !idType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown government id type")
	}
	if idNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "government id number is required")
	}
	if dob.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "date of birth is required")
	}
	return &Student{
		ID:           studentID,
		FullName:     fullName,
		DateOfBirth:  dob,
		Gender:       gender,
		Phone:        phone,
		Email:        email,
		GovtIDType:   idType,
		GovtIDNumber: idNumber,
		AddressID:    addressID,
		IsVerified:   false,
		CreatedAt:    now,
	}, nil
}

// Guardian belongs to exactly one student. Deleting the student removes its
// guardians in the same transaction.
type Guardian struct {
	ID        id.GuardianID `json:"id"`
	StudentID id.StudentID  `json:"student_id"`
	FullName  string        `json:"full_name"`
	Relation  string        `json:"relation"`
	Phone     string        `json:"phone"`
	AddressID *id.AddressID `json:"address_id,omitempty"`
}

func NewGuardian(guardianID id.GuardianID, studentID id.StudentID, fullName, relation, phone string, addressID *id.AddressID) (*Guardian, error) {
	if fullName == "" || relation == "" || phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "guardian requires name, relation and phone")
	}
	return &Guardian{
		ID:        guardianID,
		StudentID: studentID,
		FullName:  fullName,
		Relation:  relation,
		Phone:     phone,
		AddressID: addressID,
	}, nil
}

// Warden shares the person shape with Student minus verification and DOB.
type Warden struct {
	ID           id.WardenID   `json:"id"`
	FullName     string        `json:"full_name"`
	Gender       Gender        `json:"gender"`
	Phone        string        `json:"phone"`
	Email        string        `json:"email,omitempty"`
	GovtIDType   GovtIDType    `json:"govt_id_type"`
	GovtIDNumber string        `json:"govt_id_number"`
	AddressID    *id.AddressID `json:"address_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

func NewWarden(wardenID id.WardenID, fullName string, gender Gender, phone, email string, idType GovtIDType, idNumber string, addressID *id.AddressID, now time.Time) (*Warden, error) {
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "warden name is required")
	}
	if !gender.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "gender must be male or female")
	}
	if phone == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "phone is required")
	}
	if !idType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown government id type")
	}
	if idNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "government id number is required")
	}
	return &Warden{
		ID:           wardenID,
		FullName:     fullName,
		Gender:       gender,
		Phone:        phone,
		Email:        email,
		GovtIDType:   idType,
		GovtIDNumber: idNumber,
		AddressID:    addressID,
		CreatedAt:    now,
	}, nil
}
