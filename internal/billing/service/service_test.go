package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/money"
	"hostelcore/pkg/requestcontext"

	billingstore "hostelcore/internal/billing/store"
	facilitymodels "hostelcore/internal/facility/models"
	facilitystore "hostelcore/internal/facility/store"
	identitymodels "hostelcore/internal/identity/models"
	identitystore "hostelcore/internal/identity/store"
)

type BillingSuite struct {
	suite.Suite
	ctx      context.Context
	identity *identitystore.InMemory
	facility *facilitystore.InMemory
	billing  *billingstore.InMemory
	svc      *Service

	hostelID  id.HostelID
	studentID id.StudentID
}

func (s *BillingSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC))

	s.identity = identitystore.NewInMemory()
	s.facility = facilitystore.NewInMemory()
	s.billing = billingstore.NewInMemory()
	s.svc = New(s.billing, s.billing, s.facility, s.identity, nil)

	hostel, err := facilitymodels.NewHostel(
		id.HostelID(uuid.New()), "South Block", facilitymodels.HostelGirls,
		facilitymodels.BedDouble, facilitymodels.ACTypeAC, nil, 20,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.facility.CreateHostel(s.ctx, hostel))
	s.hostelID = hostel.ID

	studentID := id.StudentID(uuid.New())
	student, err := identitymodels.NewStudent(
		studentID, "Test Student",
		time.Date(2005, 3, 10, 0, 0, 0, 0, time.UTC), identitymodels.GenderFemale,
		"9800000001", "", identitymodels.GovtIDAadhaar, uuid.NewString(),
		nil, time.Now(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.identity.CreateStudentIfUnique(s.ctx, student))
	s.studentID = studentID
}

func TestBillingSuite(t *testing.T) {
	suite.Run(t, new(BillingSuite))
}

func (s *BillingSuite) createFee(rent string, effectiveFrom time.Time) {
	_, err := s.svc.CreateFeeStructure(s.ctx, CreateFeeStructureRequest{
		HostelID:        s.hostelID,
		MonthlyRent:     money.MustParse(rent),
		SecurityDeposit: money.MustParse("12000"),
		EffectiveFrom:   effectiveFrom,
	})
	s.Require().NoError(err)
}

func (s *BillingSuite) TestApplicableFeeTimeSeries() {
	s.createFee("5000", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	s.createFee("6000", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	fee, err := s.svc.ApplicableFee(s.ctx, s.hostelID, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(money.MustParse("5000"), fee.MonthlyRent)

	fee, err = s.svc.ApplicableFee(s.ctx, s.hostelID, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Equal(money.MustParse("6000"), fee.MonthlyRent)

	_, err = s.svc.ApplicableFee(s.ctx, s.hostelID, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BillingSuite) TestDuplicateEffectiveDateRejected() {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.createFee("6000", jan)

	_, err := s.svc.CreateFeeStructure(s.ctx, CreateFeeStructureRequest{
		HostelID:        s.hostelID,
		MonthlyRent:     money.MustParse("6500"),
		SecurityDeposit: money.MustParse("12000"),
		EffectiveFrom:   jan,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *BillingSuite) TestFeeForUnknownHostelRejected() {
	_, err := s.svc.CreateFeeStructure(s.ctx, CreateFeeStructureRequest{
		HostelID:        id.HostelID(uuid.New()),
		MonthlyRent:     money.MustParse("6000"),
		SecurityDeposit: money.MustParse("12000"),
		EffectiveFrom:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BillingSuite) TestPaymentLifecycle() {
	payment, err := s.svc.RecordPayment(s.ctx, RecordPaymentRequest{
		StudentID: s.studentID,
		Amount:    money.MustParse("6000"),
		Type:      "rent",
	})
	s.Require().NoError(err)
	s.Equal("pending", string(payment.Status))

	settled, err := s.svc.MarkCompleted(s.ctx, payment.ID, "  TXN-42  ")
	s.Require().NoError(err)
	s.Equal("completed", string(settled.Status))
	s.Equal("TXN-42", settled.TxReference)
	s.Require().NotNil(settled.PaymentDate)
	s.Equal(time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), *settled.PaymentDate)

	// Settled means settled, in either direction.
	_, err = s.svc.MarkCompleted(s.ctx, payment.ID, "TXN-43")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.svc.MarkFailed(s.ctx, payment.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *BillingSuite) TestMarkCompletedRequiresReference() {
	payment, err := s.svc.RecordPayment(s.ctx, RecordPaymentRequest{
		StudentID: s.studentID,
		Amount:    money.MustParse("500"),
		Type:      "fine",
	})
	s.Require().NoError(err)

	_, err = s.svc.MarkCompleted(s.ctx, payment.ID, "   ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	// The rejected call must not consume the payment.
	got, err := s.svc.GetPayment(s.ctx, payment.ID)
	s.Require().NoError(err)
	s.Equal("pending", string(got.Status))
}

func (s *BillingSuite) TestMarkFailed() {
	payment, err := s.svc.RecordPayment(s.ctx, RecordPaymentRequest{
		StudentID: s.studentID,
		Amount:    money.MustParse("6000"),
		Type:      "deposit",
	})
	s.Require().NoError(err)

	failed, err := s.svc.MarkFailed(s.ctx, payment.ID)
	s.Require().NoError(err)
	s.Equal("failed", string(failed.Status))
	s.Nil(failed.PaymentDate)
}

func (s *BillingSuite) TestPaymentForUnknownStudentRejected() {
	_, err := s.svc.RecordPayment(s.ctx, RecordPaymentRequest{
		StudentID: id.StudentID(uuid.New()),
		Amount:    money.MustParse("6000"),
		Type:      "rent",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *BillingSuite) TestListPaymentsByStudent() {
	for _, amount := range []string{"6000", "500"} {
		_, err := s.svc.RecordPayment(s.ctx, RecordPaymentRequest{
			StudentID: s.studentID,
			Amount:    money.MustParse(amount),
			Type:      "rent",
		})
		s.Require().NoError(err)
	}

	payments, err := s.svc.ListPaymentsByStudent(s.ctx, s.studentID)
	s.Require().NoError(err)
	s.Len(payments, 2)
}
