package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
	"hostelcore/pkg/requestcontext"

	admissionmodels "hostelcore/internal/admission/models"
	admissionstore "hostelcore/internal/admission/store"
	allocationstore "hostelcore/internal/allocation/store"
	"hostelcore/internal/events"
	facilitymodels "hostelcore/internal/facility/models"
	facilityservice "hostelcore/internal/facility/service"
	facilitystore "hostelcore/internal/facility/store"
	identitymodels "hostelcore/internal/identity/models"
	identitystore "hostelcore/internal/identity/store"
)

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (e *recordingEmitter) Emit(event events.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *recordingEmitter) byType(t events.Type) []events.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []events.Event
	for _, ev := range e.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

type EngineSuite struct {
	suite.Suite
	ctx context.Context

	identity   *identitystore.InMemory
	facility   *facilitystore.InMemory
	admissions *admissionstore.InMemory
	store      *allocationstore.InMemory
	emitter    *recordingEmitter
	engine     *Service

	hostelID id.HostelID
}

func (s *EngineSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))

	s.identity = identitystore.NewInMemory()
	s.facility = facilitystore.NewInMemory()
	s.admissions = admissionstore.NewInMemory()
	s.store = allocationstore.NewInMemory()
	s.emitter = &recordingEmitter{}

	beds := facilityservice.New(s.facility)
	s.engine = New(s.store, s.admissions, s.identity, beds, s.facility, nil, s.emitter, nil)

	s.hostelID = s.addHostel(facilitymodels.HostelBoys)
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) addHostel(gender facilitymodels.HostelGender) id.HostelID {
	hostel, err := facilitymodels.NewHostel(
		id.HostelID(uuid.New()), "Test Block", gender,
		facilitymodels.BedSingle, facilitymodels.ACTypeNonAC, nil, 10,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.facility.CreateHostel(s.ctx, hostel))
	return hostel.ID
}

// addRoom creates a room with one bed per given bed number.
func (s *EngineSuite) addRoom(hostelID id.HostelID, roomNumber string, bedNumbers ...string) []id.BedID {
	room, err := facilitymodels.NewRoom(id.RoomID(uuid.New()), hostelID, roomNumber, len(bedNumbers))
	s.Require().NoError(err)
	s.Require().NoError(s.facility.CreateRoom(s.ctx, room))

	bedIDs := make([]id.BedID, 0, len(bedNumbers))
	for _, n := range bedNumbers {
		bed, err := facilitymodels.NewBed(id.BedID(uuid.New()), room.ID, n)
		s.Require().NoError(err)
		s.Require().NoError(s.facility.CreateBed(s.ctx, bed))
		bedIDs = append(bedIDs, bed.ID)
	}
	return bedIDs
}

func (s *EngineSuite) addStudent(gender identitymodels.Gender) id.StudentID {
	studentID := id.StudentID(uuid.New())
	student, err := identitymodels.NewStudent(
		studentID, "Test Student",
		time.Date(2004, 6, 1, 0, 0, 0, 0, time.UTC), gender,
		"98"+uuid.NewString()[:8], "",
		identitymodels.GovtIDAadhaar, uuid.NewString(),
		nil, time.Now(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.identity.CreateStudentIfUnique(s.ctx, student))
	return studentID
}

// approvedApplication seeds an application already decided approved.
func (s *EngineSuite) approvedApplication(studentID id.StudentID, hostelID id.HostelID, stayMonths int) id.ApplicationID {
	application, err := admissionmodels.NewApplication(
		id.ApplicationID(uuid.New()), studentID, &hostelID, stayMonths, time.Now(),
	)
	s.Require().NoError(err)
	application.ApplyDecision(admissionmodels.StatusApproved)
	s.Require().NoError(s.admissions.Create(s.ctx, application))
	return application.ID
}

func (s *EngineSuite) TestAllocateHappyPath() {
	s.addRoom(s.hostelID, "101", "A", "B")
	studentID := s.addStudent(identitymodels.GenderMale)
	applicationID := s.approvedApplication(studentID, s.hostelID, 12)

	allocation, err := s.engine.Allocate(s.ctx, applicationID)
	s.Require().NoError(err)
	s.Equal(studentID, allocation.StudentID)
	s.Equal(applicationID, allocation.ApplicationID)
	s.True(allocation.IsActive())
	s.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), allocation.CheckInDate)
	s.Require().NotNil(allocation.ExpectedCheckoutDate)
	s.Equal(time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC), *allocation.ExpectedCheckoutDate)

	bed, err := s.facility.FindBed(s.ctx, allocation.BedID)
	s.Require().NoError(err)
	s.True(bed.IsOccupied)

	room, err := s.facility.FindRoom(s.ctx, bed.RoomID)
	s.Require().NoError(err)
	s.Equal(1, room.CurrentOccupancy)

	s.Len(s.emitter.byType(events.TypeAllocationCreated), 1)
}

func (s *EngineSuite) TestAllocateDeterministicOrder() {
	// Room 102 created first; bed order must still follow room then bed
	// number, so 101/A is picked before anything else.
	s.addRoom(s.hostelID, "102", "A")
	beds101 := s.addRoom(s.hostelID, "101", "B", "A")

	studentID := s.addStudent(identitymodels.GenderMale)
	allocation, err := s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().NoError(err)
	s.Equal(beds101[1], allocation.BedID) // 101/A
}

func (s *EngineSuite) TestAllocateExhaustsCapacity() {
	s.addRoom(s.hostelID, "101", "A")

	first := s.addStudent(identitymodels.GenderMale)
	_, err := s.engine.Allocate(s.ctx, s.approvedApplication(first, s.hostelID, 6))
	s.Require().NoError(err)

	second := s.addStudent(identitymodels.GenderMale)
	_, err = s.engine.Allocate(s.ctx, s.approvedApplication(second, s.hostelID, 6))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNoCapacity))
}

func (s *EngineSuite) TestCheckoutFreesBedForReuse() {
	s.addRoom(s.hostelID, "101", "A")

	first := s.addStudent(identitymodels.GenderMale)
	allocation, err := s.engine.Allocate(s.ctx, s.approvedApplication(first, s.hostelID, 6))
	s.Require().NoError(err)

	completed, err := s.engine.Checkout(s.ctx, allocation.ID, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.False(completed.IsActive())
	s.Require().NotNil(completed.ActualCheckoutDate)

	bed, err := s.facility.FindBed(s.ctx, allocation.BedID)
	s.Require().NoError(err)
	s.False(bed.IsOccupied)

	// The freed bed is allocatable again.
	second := s.addStudent(identitymodels.GenderMale)
	again, err := s.engine.Allocate(s.ctx, s.approvedApplication(second, s.hostelID, 6))
	s.Require().NoError(err)
	s.Equal(allocation.BedID, again.BedID)

	s.Len(s.emitter.byType(events.TypeAllocationCompleted), 1)
}

func (s *EngineSuite) TestDoubleCheckoutRejected() {
	s.addRoom(s.hostelID, "101", "A")
	studentID := s.addStudent(identitymodels.GenderMale)
	allocation, err := s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().NoError(err)

	checkout := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	_, err = s.engine.Checkout(s.ctx, allocation.ID, checkout)
	s.Require().NoError(err)

	_, err = s.engine.Checkout(s.ctx, allocation.ID, checkout)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyCompleted))
}

func (s *EngineSuite) TestCheckoutBeforeCheckInRejected() {
	s.addRoom(s.hostelID, "101", "A")
	studentID := s.addStudent(identitymodels.GenderMale)
	allocation, err := s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().NoError(err)

	_, err = s.engine.Checkout(s.ctx, allocation.ID, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidDate))

	// The failed checkout changed nothing.
	current, err := s.engine.GetAllocation(s.ctx, allocation.ID)
	s.Require().NoError(err)
	s.True(current.IsActive())
}

func (s *EngineSuite) TestGenderMismatchLeavesNoTrace() {
	s.addRoom(s.hostelID, "101", "A")
	studentID := s.addStudent(identitymodels.GenderFemale)
	applicationID := s.approvedApplication(studentID, s.hostelID, 6)

	_, err := s.engine.Allocate(s.ctx, applicationID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeGenderMismatch))

	// No occupancy mutated, no allocation row written.
	rooms, err := s.facility.ListRoomsByHostel(s.ctx, s.hostelID)
	s.Require().NoError(err)
	s.Equal(0, rooms[0].CurrentOccupancy)
	used, err := s.store.HasByApplication(s.ctx, applicationID)
	s.Require().NoError(err)
	s.False(used)
}

func (s *EngineSuite) TestUnapprovedApplicationRejected() {
	s.addRoom(s.hostelID, "101", "A")
	studentID := s.addStudent(identitymodels.GenderMale)

	application, err := admissionmodels.NewApplication(
		id.ApplicationID(uuid.New()), studentID, &s.hostelID, 6, time.Now(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.admissions.Create(s.ctx, application))

	_, err = s.engine.Allocate(s.ctx, application.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *EngineSuite) TestApplicationWithoutHostelRejected() {
	studentID := s.addStudent(identitymodels.GenderMale)
	application, err := admissionmodels.NewApplication(
		id.ApplicationID(uuid.New()), studentID, nil, 6, time.Now(),
	)
	s.Require().NoError(err)
	application.ApplyDecision(admissionmodels.StatusApproved)
	s.Require().NoError(s.admissions.Create(s.ctx, application))

	_, err = s.engine.Allocate(s.ctx, application.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *EngineSuite) TestApplicationConsumedOnce() {
	s.addRoom(s.hostelID, "101", "A", "B")
	studentID := s.addStudent(identitymodels.GenderMale)
	applicationID := s.approvedApplication(studentID, s.hostelID, 6)

	allocation, err := s.engine.Allocate(s.ctx, applicationID)
	s.Require().NoError(err)

	// Even after checkout the application stays used up.
	_, err = s.engine.Checkout(s.ctx, allocation.ID, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)

	_, err = s.engine.Allocate(s.ctx, applicationID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestAlreadyResidentRejected() {
	s.addRoom(s.hostelID, "101", "A", "B")
	studentID := s.addStudent(identitymodels.GenderMale)

	_, err := s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().NoError(err)

	_, err = s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyResident))
}

func (s *EngineSuite) TestActiveByStudent() {
	s.addRoom(s.hostelID, "101", "A")
	studentID := s.addStudent(identitymodels.GenderMale)

	_, err := s.engine.ActiveByStudent(s.ctx, studentID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	allocation, err := s.engine.Allocate(s.ctx, s.approvedApplication(studentID, s.hostelID, 6))
	s.Require().NoError(err)

	active, err := s.engine.ActiveByStudent(s.ctx, studentID)
	s.Require().NoError(err)
	s.Equal(allocation.ID, active.ID)
}

// TestConcurrentAllocationSingleBed races many applicants at one bed:
// exactly one wins, everyone else observes a clean refusal, and occupancy
// ends consistent.
func (s *EngineSuite) TestConcurrentAllocationSingleBed() {
	s.addRoom(s.hostelID, "101", "A")

	const applicants = 16
	applicationIDs := make([]id.ApplicationID, applicants)
	for i := range applicationIDs {
		studentID := s.addStudent(identitymodels.GenderMale)
		applicationIDs[i] = s.approvedApplication(studentID, s.hostelID, 6)
	}

	var wg sync.WaitGroup
	errs := make([]error, applicants)
	for i := range applicationIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.engine.Allocate(s.ctx, applicationIDs[i])
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		s.True(dErrors.HasCode(err, dErrors.CodeNoCapacity) ||
			dErrors.HasCode(err, dErrors.CodeContention),
			"unexpected error: %v", err)
	}
	s.Equal(1, winners)

	rooms, err := s.facility.ListRoomsByHostel(s.ctx, s.hostelID)
	s.Require().NoError(err)
	s.Equal(1, rooms[0].CurrentOccupancy)
}
