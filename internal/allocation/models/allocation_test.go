package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"
)

func newTestAllocation(t *testing.T, checkIn time.Time, stayMonths int) *Allocation {
	t.Helper()
	allocation, err := NewAllocation(
		id.AllocationID(uuid.New()), id.StudentID(uuid.New()),
		id.ApplicationID(uuid.New()), id.BedID(uuid.New()),
		checkIn, stayMonths,
	)
	require.NoError(t, err)
	return allocation
}

func TestNewAllocation(t *testing.T) {
	checkIn := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	t.Run("derives expected checkout from stay duration", func(t *testing.T) {
		allocation := newTestAllocation(t, checkIn, 12)
		assert.Equal(t, StatusActive, allocation.Status)
		assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), allocation.CheckInDate)
		require.NotNil(t, allocation.ExpectedCheckoutDate)
		assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), *allocation.ExpectedCheckoutDate)
		assert.Nil(t, allocation.ActualCheckoutDate)
	})

	t.Run("truncates check-in to the calendar day", func(t *testing.T) {
		allocation := newTestAllocation(t, time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC), 1)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), allocation.CheckInDate)
	})

	t.Run("rejects non-positive stay", func(t *testing.T) {
		_, err := NewAllocation(
			id.AllocationID(uuid.New()), id.StudentID(uuid.New()),
			id.ApplicationID(uuid.New()), id.BedID(uuid.New()),
			checkIn, 0,
		)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestCanComplete(t *testing.T) {
	checkIn := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	t.Run("same-day checkout is allowed", func(t *testing.T) {
		allocation := newTestAllocation(t, checkIn, 6)
		require.NoError(t, allocation.CanComplete(checkIn))
	})

	t.Run("checkout before check-in is rejected", func(t *testing.T) {
		allocation := newTestAllocation(t, checkIn, 6)
		err := allocation.CanComplete(checkIn.AddDate(0, 0, -1))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidDate))
	})

	t.Run("completed allocation cannot complete again", func(t *testing.T) {
		allocation := newTestAllocation(t, checkIn, 6)
		checkout := checkIn.AddDate(0, 3, 0)
		require.NoError(t, allocation.CanComplete(checkout))
		allocation.ApplyCompletion(checkout)

		assert.Equal(t, StatusCompleted, allocation.Status)
		require.NotNil(t, allocation.ActualCheckoutDate)
		assert.Equal(t, checkout, *allocation.ActualCheckoutDate)
		assert.False(t, allocation.IsActive())

		err := allocation.CanComplete(checkout.AddDate(0, 1, 0))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyCompleted))
	})
}
