// Package models holds the billing aggregates: fee structures as a
// time-series of effective rates, and payments with a settle-once lifecycle.
package models

import (
	"time"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/money"
)

// PaymentType classifies what a payment covers.
type PaymentType string

const (
	PaymentRent    PaymentType = "rent"
	PaymentDeposit PaymentType = "deposit"
	PaymentFine    PaymentType = "fine"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentRent, PaymentDeposit, PaymentFine:
		return true
	}
	return false
}

// PaymentStatus is the settlement state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// FeeStructure is one row of a hostel's fee time-series. The rate that
// applies on a given day is the row with the latest EffectiveFrom not after
// that day; rows are never edited, only superseded.
type FeeStructure struct {
	ID              id.FeeStructureID `json:"id"`
	HostelID        id.HostelID       `json:"hostel_id"`
	MonthlyRent     money.Amount      `json:"monthly_rent"`
	SecurityDeposit money.Amount      `json:"security_deposit"`
	MaintenanceFee  *money.Amount     `json:"maintenance_fee,omitempty"`
	EffectiveFrom   time.Time         `json:"effective_from"`
}

func NewFeeStructure(feeID id.FeeStructureID, hostelID id.HostelID, monthlyRent, securityDeposit money.Amount, maintenanceFee *money.Amount, effectiveFrom time.Time) (*FeeStructure, error) {
	if !monthlyRent.IsPositive() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "monthly rent must be positive")
	}
	if securityDeposit.IsNegative() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "security deposit cannot be negative")
	}
	if maintenanceFee != nil && maintenanceFee.IsNegative() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "maintenance fee cannot be negative")
	}
	if effectiveFrom.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "effective-from date is required")
	}
	return &FeeStructure{
		ID:              feeID,
		HostelID:        hostelID,
		MonthlyRent:     monthlyRent,
		SecurityDeposit: securityDeposit,
		MaintenanceFee:  maintenanceFee,
		EffectiveFrom:   dateOnly(effectiveFrom),
	}, nil
}

// AppliesOn reports whether this row is in force on the given day, ignoring
// later rows. Callers pick the latest applicable row.
func (f *FeeStructure) AppliesOn(day time.Time) bool {
	return !f.EffectiveFrom.After(dateOnly(day))
}

// ApplicableFee selects the fee row in force on the given day from a
// hostel's time-series. Returns nil when no row has taken effect yet.
func ApplicableFee(fees []*FeeStructure, day time.Time) *FeeStructure {
	var best *FeeStructure
	for _, f := range fees {
		if !f.AppliesOn(day) {
			continue
		}
		if best == nil || f.EffectiveFrom.After(best.EffectiveFrom) {
			best = f
		}
	}
	return best
}

// Payment records money owed or received against a student, optionally tied
// to an allocation. It is created pending and settles exactly once, to
// completed or failed.
type Payment struct {
	ID           id.PaymentID     `json:"id"`
	StudentID    id.StudentID     `json:"student_id"`
	AllocationID *id.AllocationID `json:"allocation_id,omitempty"`
	Amount       money.Amount     `json:"amount"`
	Type         PaymentType      `json:"payment_type"`
	Status       PaymentStatus    `json:"payment_status"`
	PaymentDate  *time.Time       `json:"payment_date,omitempty"`
	TxReference  string           `json:"transaction_reference,omitempty"`
}

func NewPayment(paymentID id.PaymentID, studentID id.StudentID, allocationID *id.AllocationID, amount money.Amount, paymentType PaymentType) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "payment amount must be positive")
	}
	if !paymentType.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown payment type")
	}
	return &Payment{
		ID:           paymentID,
		StudentID:    studentID,
		AllocationID: allocationID,
		Amount:       amount,
		Type:         paymentType,
		Status:       PaymentPending,
	}, nil
}

// CanSettle checks that the payment is still pending.
func (p *Payment) CanSettle() error {
	if p.Status != PaymentPending {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"payment is already "+string(p.Status))
	}
	return nil
}

// ApplyCompletion settles the payment successfully. Call CanSettle first.
func (p *Payment) ApplyCompletion(txReference string, at time.Time) {
	p.Status = PaymentCompleted
	p.TxReference = txReference
	p.PaymentDate = &at
}

// ApplyFailure settles the payment as failed. Call CanSettle first.
func (p *Payment) ApplyFailure() {
	p.Status = PaymentFailed
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
