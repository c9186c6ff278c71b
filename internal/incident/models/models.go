// Package models holds the incident aggregates: complaints with a monotonic
// resolution lifecycle, and the visitor check-in log.
package models

import (
	"strings"
	"time"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
)

// ComplaintStatus is the handling state of a complaint.
type ComplaintStatus string

const (
	ComplaintOpen       ComplaintStatus = "open"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
)

// CanTransitionTo encodes the complaint state machine, strictly forward:
//
//	open -> in_progress -> resolved
//	open -> resolved
func (s ComplaintStatus) CanTransitionTo(next ComplaintStatus) bool {
	switch s {
	case ComplaintOpen:
		return next == ComplaintInProgress || next == ComplaintResolved
	case ComplaintInProgress:
		return next == ComplaintResolved
	default:
		return false
	}
}

// Complaint is a student's report against their hostel. ResolvedAt is set
// exactly when the complaint reaches resolved, never before, never cleared.
type Complaint struct {
	ID          id.ComplaintID  `json:"id"`
	StudentID   id.StudentID    `json:"student_id"`
	HostelID    id.HostelID     `json:"hostel_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      ComplaintStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ResolvedAt  *time.Time      `json:"resolved_at,omitempty"`
}

func NewComplaint(complaintID id.ComplaintID, studentID id.StudentID, hostelID id.HostelID, title, description string, now time.Time) (*Complaint, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "complaint title is required")
	}
	if description == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "complaint description is required")
	}
	return &Complaint{
		ID:          complaintID,
		StudentID:   studentID,
		HostelID:    hostelID,
		Title:       title,
		Description: description,
		Status:      ComplaintOpen,
		CreatedAt:   now,
	}, nil
}

// CanTransition checks whether the complaint may move to the given status.
func (c *Complaint) CanTransition(next ComplaintStatus) error {
	if !c.Status.CanTransitionTo(next) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"cannot move complaint from "+string(c.Status)+" to "+string(next))
	}
	return nil
}

// ApplyTransition records the move. Call CanTransition first.
func (c *Complaint) ApplyTransition(next ComplaintStatus, now time.Time) {
	c.Status = next
	if next == ComplaintResolved {
		c.ResolvedAt = &now
	}
}

// Visitor is one entry in the visitor log. CheckOutTime is written at most
// once and never precedes CheckInTime.
type Visitor struct {
	ID           id.VisitorID `json:"id"`
	StudentID    id.StudentID `json:"student_id"`
	VisitorName  string       `json:"visitor_name"`
	VisitorPhone string       `json:"visitor_phone,omitempty"`
	Relation     string       `json:"relation,omitempty"`
	CheckInTime  time.Time    `json:"check_in_time"`
	CheckOutTime *time.Time   `json:"check_out_time,omitempty"`
}

func NewVisitor(visitorID id.VisitorID, studentID id.StudentID, name, phone, relation string, checkIn time.Time) (*Visitor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "visitor name is required")
	}
	return &Visitor{
		ID:           visitorID,
		StudentID:    studentID,
		VisitorName:  name,
		VisitorPhone: strings.TrimSpace(phone),
		Relation:     strings.TrimSpace(relation),
		CheckInTime:  checkIn,
	}, nil
}

// CanCheckOut checks the departure preconditions: the visitor is still in
// the building and the departure time is not before arrival.
func (v *Visitor) CanCheckOut(at time.Time) error {
	if v.CheckOutTime != nil {
		return dErrors.New(dErrors.CodeAlreadyCompleted, "visitor is already checked out")
	}
	if at.Before(v.CheckInTime) {
		return dErrors.New(dErrors.CodeInvalidDate, "check-out time precedes check-in time")
	}
	return nil
}

// ApplyCheckOut records the departure. Call CanCheckOut first.
func (v *Visitor) ApplyCheckOut(at time.Time) {
	v.CheckOutTime = &at
}
