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

// TestStatusTransitions covers the full decision matrix: pending may move
// anywhere, waitlisted may still be decided, approved and rejected are
// terminal.
func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusWaitlisted, true},
		{StatusWaitlisted, StatusApproved, true},
		{StatusWaitlisted, StatusRejected, true},
		{StatusWaitlisted, StatusWaitlisted, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusWaitlisted, false},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusWaitlisted, false},
		{StatusPending, StatusPending, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestNewApplication(t *testing.T) {
	studentID := id.StudentID(uuid.New())
	now := time.Now()

	t.Run("starts pending", func(t *testing.T) {
		application, err := NewApplication(id.ApplicationID(uuid.New()), studentID, nil, 12, now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, application.Status)
		assert.False(t, application.IsApproved())
	})

	t.Run("rejects non-positive stay duration", func(t *testing.T) {
		_, err := NewApplication(id.ApplicationID(uuid.New()), studentID, nil, 0, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = NewApplication(id.ApplicationID(uuid.New()), studentID, nil, -3, now)
		require.Error(t, err)
	})
}

func TestCanDecide(t *testing.T) {
	application, err := NewApplication(id.ApplicationID(uuid.New()), id.StudentID(uuid.New()), nil, 6, time.Now())
	require.NoError(t, err)

	require.NoError(t, application.CanDecide(StatusApproved))
	application.ApplyDecision(StatusApproved)
	assert.True(t, application.IsApproved())

	err = application.CanDecide(StatusRejected)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}
