package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Gates(t *testing.T) {
	tests := []struct {
		state State
		want  Gates
	}{
		{StateNotStarted, Gates{CanCheckIn: true}},
		{StateCheckedIn, Gates{CanCheckOut: true}},
		{StateCheckedOut, Gates{CanReCheckIn: true}},
		{StateReCheckedIn, Gates{CanReCheckOut: true}},
		{StateReCheckedOut, Gates{}},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Gates())
		})
	}
}

func TestState_Check(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		action  Action
		wantErr error
	}{
		{"check in from scratch", StateNotStarted, ActionCheckIn, nil},
		{"second check in", StateCheckedIn, ActionCheckIn, ErrAlreadyCheckedIn},
		{"check in after day complete", StateReCheckedOut, ActionCheckIn, ErrAlreadyCheckedIn},
		{"check out without check in", StateNotStarted, ActionCheckOut, ErrNoCheckInFound},
		{"check out", StateCheckedIn, ActionCheckOut, nil},
		{"second check out", StateCheckedOut, ActionCheckOut, ErrAlreadyCheckedOut},
		{"re check in without check in", StateNotStarted, ActionReCheckIn, ErrReCheckInNotAllowed},
		{"re check in while checked in", StateCheckedIn, ActionReCheckIn, ErrReCheckInNotAllowed},
		{"re check in", StateCheckedOut, ActionReCheckIn, nil},
		{"second re check in", StateReCheckedIn, ActionReCheckIn, ErrReCheckInNotAllowed},
		{"re check out without re check in", StateCheckedOut, ActionReCheckOut, ErrNoReCheckInFound},
		{"re check out", StateReCheckedIn, ActionReCheckOut, nil},
		{"second re check out", StateReCheckedOut, ActionReCheckOut, ErrAlreadyReCheckedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Check(tt.action)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestState_ReCheckInReason(t *testing.T) {
	err := StateCheckedIn.Check(ActionReCheckIn)
	assert.EqualError(t, err, "re-check-in not allowed: you must check out before re-checking in")
}

func TestAction_RequiresAndYields(t *testing.T) {
	assert.Equal(t, StateNotStarted, ActionCheckIn.Requires())
	assert.Equal(t, StateCheckedIn, ActionCheckIn.Yields())
	assert.Equal(t, StateReCheckedIn, ActionReCheckOut.Requires())
	assert.Equal(t, StateReCheckedOut, ActionReCheckOut.Yields())
}
