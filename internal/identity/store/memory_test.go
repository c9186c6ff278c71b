package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"

	"hostelcore/internal/identity/models"
)

type IdentityStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemory
}

func (s *IdentityStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func TestIdentityStoreSuite(t *testing.T) {
	suite.Run(t, new(IdentityStoreSuite))
}

func (s *IdentityStoreSuite) newStudent(phone, email, govtID string) *models.Student {
	student, err := models.NewStudent(
		id.StudentID(uuid.New()), "Test Student",
		time.Date(2004, 6, 1, 0, 0, 0, 0, time.UTC), models.GenderMale,
		phone, email, models.GovtIDAadhaar, govtID,
		nil, time.Now(),
	)
	s.Require().NoError(err)
	return student
}

func (s *IdentityStoreSuite) TestStudentUniqueness() {
	first := s.newStudent("9800000001", "a@example.com", "AAAA-1111")
	s.Require().NoError(s.store.CreateStudentIfUnique(s.ctx, first))

	s.Run("duplicate phone", func() {
		dup := s.newStudent("9800000001", "b@example.com", "BBBB-2222")
		s.ErrorIs(s.store.CreateStudentIfUnique(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("duplicate email ignoring case", func() {
		dup := s.newStudent("9800000002", "A@Example.COM", "BBBB-2222")
		s.ErrorIs(s.store.CreateStudentIfUnique(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("duplicate government id", func() {
		dup := s.newStudent("9800000003", "c@example.com", "AAAA-1111")
		s.ErrorIs(s.store.CreateStudentIfUnique(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("distinct student is accepted", func() {
		other := s.newStudent("9800000004", "d@example.com", "CCCC-3333")
		s.NoError(s.store.CreateStudentIfUnique(s.ctx, other))
	})
}

func (s *IdentityStoreSuite) TestEmptyEmailNeverCollides() {
	first := s.newStudent("9800000001", "", "AAAA-1111")
	s.Require().NoError(s.store.CreateStudentIfUnique(s.ctx, first))

	second := s.newStudent("9800000002", "", "BBBB-2222")
	s.NoError(s.store.CreateStudentIfUnique(s.ctx, second))
}

func (s *IdentityStoreSuite) TestDeleteStudentCascadesGuardians() {
	student := s.newStudent("9800000001", "", "AAAA-1111")
	s.Require().NoError(s.store.CreateStudentIfUnique(s.ctx, student))

	guardian, err := models.NewGuardian(
		id.GuardianID(uuid.New()), student.ID, "A Parent", "father", "9800000009", nil,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateGuardian(s.ctx, guardian))

	s.Require().NoError(s.store.DeleteGuardiansByStudent(s.ctx, student.ID))
	s.Require().NoError(s.store.DeleteStudent(s.ctx, student.ID))

	_, err = s.store.FindStudent(s.ctx, student.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	guardians, err := s.store.ListGuardians(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Empty(guardians)
}

func (s *IdentityStoreSuite) TestVerifyStudent() {
	student := s.newStudent("9800000001", "", "AAAA-1111")
	s.Require().NoError(s.store.CreateStudentIfUnique(s.ctx, student))
	s.False(student.IsVerified)

	s.Require().NoError(s.store.SetStudentVerified(s.ctx, student.ID, true))

	got, err := s.store.FindStudent(s.ctx, student.ID)
	s.Require().NoError(err)
	s.True(got.IsVerified)

	s.ErrorIs(s.store.SetStudentVerified(s.ctx, id.StudentID(uuid.New()), true), sentinel.ErrNotFound)
}

func (s *IdentityStoreSuite) TestWardenUniqueness() {
	warden, err := models.NewWarden(
		id.WardenID(uuid.New()), "Head Warden", models.GenderFemale,
		"9800000005", "w@example.com", models.GovtIDAadhaar, "WWWW-1111",
		nil, time.Now(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateWardenIfUnique(s.ctx, warden))

	dup, err := models.NewWarden(
		id.WardenID(uuid.New()), "Other Warden", models.GenderMale,
		"9800000005", "x@example.com", models.GovtIDAadhaar, "WWWW-2222",
		nil, time.Now(),
	)
	s.Require().NoError(err)
	s.ErrorIs(s.store.CreateWardenIfUnique(s.ctx, dup), sentinel.ErrAlreadyUsed)
}
