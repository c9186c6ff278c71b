//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	id "hostelcore/pkg/domain"
	"hostelcore/pkg/platform/sentinel"
	"hostelcore/pkg/testutil/containers"

	"hostelcore/internal/facility/models"
)

type FacilityPostgresSuite struct {
	suite.Suite
	ctx   context.Context
	pg    *containers.PostgresContainer
	store *Postgres

	hostelID id.HostelID
}

func (s *FacilityPostgresSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *FacilityPostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(s.ctx))

	hostel, err := models.NewHostel(
		id.HostelID(uuid.New()), "North Block", models.HostelBoys,
		models.BedSingle, models.ACTypeNonAC, nil, 10,
	)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateHostel(s.ctx, hostel))
	s.hostelID = hostel.ID
}

func TestFacilityPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(FacilityPostgresSuite))
}

// Duplicate room and bed numbers hit the schema's unique indexes; the store
// must translate the driver error into ErrAlreadyUsed.
func (s *FacilityPostgresSuite) TestDuplicateRoomNumberRejected() {
	room, err := models.NewRoom(id.RoomID(uuid.New()), s.hostelID, "101", 2)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	dup, err := models.NewRoom(id.RoomID(uuid.New()), s.hostelID, "101", 2)
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.CreateRoom(s.ctx, dup), sentinel.ErrAlreadyUsed)
}

func (s *FacilityPostgresSuite) TestDuplicateBedNumberRejected() {
	room, err := models.NewRoom(id.RoomID(uuid.New()), s.hostelID, "101", 2)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateRoom(s.ctx, room))

	bed, err := models.NewBed(id.BedID(uuid.New()), room.ID, "A")
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateBed(s.ctx, bed))

	dup, err := models.NewBed(id.BedID(uuid.New()), room.ID, "A")
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.CreateBed(s.ctx, dup), sentinel.ErrAlreadyUsed)
}
