// Package models holds the admission workflow aggregate.
package models

import (
	"time"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
)

// ApplicationStatus is the moderation state of an application.
type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "pending"
	StatusApproved   ApplicationStatus = "approved"
	StatusRejected   ApplicationStatus = "rejected"
	StatusWaitlisted ApplicationStatus = "waitlisted"
)

// CanTransitionTo encodes the admission state machine:
//
//	pending    -> approved | rejected | waitlisted
//	waitlisted -> approved | rejected
//
// approved and rejected are terminal.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected || next == StatusWaitlisted
	case StatusWaitlisted:
		return next == StatusApproved || next == StatusRejected
	default:
		return false
	}
}

// Application is a student's request for a bed.
//
// Invariants:
//   - StayDurationMonths > 0
//   - Status transitions follow CanTransitionTo exactly
//   - Approval never implies allocation; the allocation engine acts
//     separately so a failed bed assignment stays retryable
type Application struct {
	ID                 id.ApplicationID  `json:"id"`
	StudentID          id.StudentID      `json:"student_id"`
	PreferredHostelID  *id.HostelID      `json:"preferred_hostel_id,omitempty"`
	StayDurationMonths int               `json:"stay_duration_months"`
	Status             ApplicationStatus `json:"status"`
	AppliedAt          time.Time         `json:"applied_at"`
}

func NewApplication(applicationID id.ApplicationID, studentID id.StudentID, preferredHostelID *id.HostelID, stayDurationMonths int, now time.Time) (*Application, error) {
	if stayDurationMonths <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "stay duration must be at least one month")
	}
	return &Application{
		ID:                 applicationID,
		StudentID:          studentID,
		PreferredHostelID:  preferredHostelID,
		StayDurationMonths: stayDurationMonths,
		Status:             StatusPending,
		AppliedAt:          now,
	}, nil
}

// CanDecide checks whether the application may move to the given status.
func (a *Application) CanDecide(next ApplicationStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move application from "+string(a.Status)+" to "+string(next))
	}
	return nil
}

// ApplyDecision records the transition. Call CanDecide first.
func (a *Application) ApplyDecision(next ApplicationStatus) {
	a.Status = next
}

// IsApproved reports whether the allocation engine may consume this
// application.
func (a *Application) IsApproved() bool {
	return a.Status == StatusApproved
}
