package attendance

import "fmt"

// State is the position of a daily record in the punch sequence. Its numeric value is
// the number of punches recorded so far.
type State int

const (
	StateNotStarted State = iota
	StateCheckedIn
	StateCheckedOut
	StateReCheckedIn
	StateReCheckedOut
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateCheckedIn:
		return "checked_in"
	case StateCheckedOut:
		return "checked_out"
	case StateReCheckedIn:
		return "re_checked_in"
	case StateReCheckedOut:
		return "re_checked_out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Action is a punch a user can record. Action n is only allowed from State n.
type Action int

const (
	ActionCheckIn Action = iota
	ActionCheckOut
	ActionReCheckIn
	ActionReCheckOut
)

func (a Action) String() string {
	switch a {
	case ActionCheckIn:
		return "check_in"
	case ActionCheckOut:
		return "check_out"
	case ActionReCheckIn:
		return "re_check_in"
	case ActionReCheckOut:
		return "re_check_out"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Requires is the state a record must be in for the action to be accepted.
func (a Action) Requires() State {
	return State(a)
}

// Yields is the state a record moves to once the action is recorded.
func (a Action) Yields() State {
	return State(a) + 1
}

// Allows reports whether action may be recorded from s.
func (s State) Allows(action Action) bool {
	return s == action.Requires()
}

// Check returns the domain error explaining why action is refused from s, or nil.
func (s State) Check(action Action) error {
	if s.Allows(action) {
		return nil
	}

	switch action {
	case ActionCheckIn:
		return ErrAlreadyCheckedIn
	case ActionCheckOut:
		if s == StateNotStarted {
			return ErrNoCheckInFound
		}
		return ErrAlreadyCheckedOut
	case ActionReCheckIn:
		switch s {
		case StateNotStarted:
			return fmt.Errorf("%w: you have not checked in today", ErrReCheckInNotAllowed)
		case StateCheckedIn:
			return fmt.Errorf("%w: you must check out before re-checking in", ErrReCheckInNotAllowed)
		default:
			return fmt.Errorf("%w: you have already re-checked in today", ErrReCheckInNotAllowed)
		}
	case ActionReCheckOut:
		if s < StateReCheckedIn {
			return ErrNoReCheckInFound
		}
		return ErrAlreadyReCheckedOut
	default:
		return fmt.Errorf("unknown attendance action %d", int(action))
	}
}

// Gates are the four action flags shown to clients.
type Gates struct {
	CanCheckIn    bool `json:"can_check_in"`
	CanCheckOut   bool `json:"can_check_out"`
	CanReCheckIn  bool `json:"can_re_check_in"`
	CanReCheckOut bool `json:"can_re_check_out"`
}

func (s State) Gates() Gates {
	return Gates{
		CanCheckIn:    s.Allows(ActionCheckIn),
		CanCheckOut:   s.Allows(ActionCheckOut),
		CanReCheckIn:  s.Allows(ActionReCheckIn),
		CanReCheckOut: s.Allows(ActionReCheckOut),
	}
}
