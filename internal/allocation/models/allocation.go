// Package models holds the allocation aggregate: the record tying one
// student to one bed for a bounded stay.
package models

import (
	"time"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
)

// AllocationStatus is the stay lifecycle state.
type AllocationStatus string

const (
	StatusActive    AllocationStatus = "active"
	StatusCompleted AllocationStatus = "completed"
)

// Allocation is created active and transitions exactly once to completed on
// checkout. Completed allocations are immutable.
//
// Invariants:
//   - exactly one active allocation per bed and per student
//   - one allocation per application, ever
//   - actual/expected checkout dates never precede the check-in date
type Allocation struct {
	ID                   id.AllocationID  `json:"id"`
	StudentID            id.StudentID     `json:"student_id"`
	ApplicationID        id.ApplicationID `json:"application_id"`
	BedID                id.BedID         `json:"bed_id"`
	CheckInDate          time.Time        `json:"check_in_date"`
	ExpectedCheckoutDate *time.Time       `json:"expected_checkout_date,omitempty"`
	ActualCheckoutDate   *time.Time       `json:"actual_checkout_date,omitempty"`
	Status               AllocationStatus `json:"status"`
}

// NewAllocation opens an active stay. stayMonths derives the expected
// checkout date from the check-in date.
func NewAllocation(allocationID id.AllocationID, studentID id.StudentID, applicationID id.ApplicationID, bedID id.BedID, checkIn time.Time, stayMonths int) (*Allocation, error) {
	if stayMonths <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "stay duration must be at least one month")
	}
	checkIn = DateOnly(checkIn)
	expected := checkIn.AddDate(0, stayMonths, 0)
	return &Allocation{
		ID:                   allocationID,
		StudentID:            studentID,
		ApplicationID:        applicationID,
		BedID:                bedID,
		CheckInDate:          checkIn,
		ExpectedCheckoutDate: &expected,
		Status:               StatusActive,
	}, nil
}

func (a *Allocation) IsActive() bool {
	return a.Status == StatusActive
}

// CanComplete checks the checkout preconditions: the stay is still active
// and the checkout date does not precede check-in.
func (a *Allocation) CanComplete(checkoutDate time.Time) error {
	if a.Status != StatusActive {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "allocation is already completed")
	}
	if DateOnly(checkoutDate).Before(a.CheckInDate) {
		return dErrors.New(dErrors.CodeInvalidDate, "checkout date precedes check-in date")
	}
	return nil
}

// ApplyCompletion records the checkout. Call CanComplete first.
func (a *Allocation) ApplyCompletion(checkoutDate time.Time) {
	d := DateOnly(checkoutDate)
	a.Status = StatusCompleted
	a.ActualCheckoutDate = &d
}

// DateOnly truncates a timestamp to its calendar day in UTC. Allocation
// dates are days, not instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
