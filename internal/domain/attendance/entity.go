package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

const (
	StatusAbsent      = "absent"
	StatusPresent     = "present"
	StatusLate        = "late"
	StatusReCheckedIn = "re-checked-in"
)

// Punch is one timestamped attendance action.
type Punch struct {
	Time       time.Time
	Location   *string
	Latitude   *float64
	Longitude  *float64
	IPAddress  *string
	DeviceInfo *string
}

// Key identifies the single record a user owns for a calendar day.
type Key struct {
	UserID   string
	UserType user.UserType
	Date     time.Time
}

type Attendance struct {
	ID          string
	UserID      string
	UserType    user.UserType
	Date        time.Time
	IsLate      bool
	LateMinutes int
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// punches holds at most four entries in action order, so a later punch can never
	// exist without the ones before it.
	punches []Punch
}

// NewCheckIn starts the record for key with its check-in punch.
func NewCheckIn(id string, key Key, checkIn Punch, threshold LateThreshold) Attendance {
	isLate, lateMinutes := threshold.Lateness(checkIn.Time)
	return Attendance{
		ID:          id,
		UserID:      key.UserID,
		UserType:    key.UserType,
		Date:        key.Date,
		IsLate:      isLate,
		LateMinutes: lateMinutes,
		CreatedAt:   checkIn.Time,
		UpdatedAt:   checkIn.Time,
		punches:     []Punch{checkIn},
	}
}

func (a Attendance) Key() Key {
	return Key{UserID: a.UserID, UserType: a.UserType, Date: a.Date}
}

// RestorePunches loads stored punches in action order. Nil entries mark punches not
// yet recorded; a recorded punch after a missing one is rejected.
func (a *Attendance) RestorePunches(checkIn, checkOut, reCheckIn, reCheckOut *Punch) error {
	var punches []Punch
	gap := false
	for i, p := range []*Punch{checkIn, checkOut, reCheckIn, reCheckOut} {
		if p == nil {
			gap = true
			continue
		}
		if gap {
			return fmt.Errorf("%w: %s recorded without earlier punches", ErrCorruptTimeline, Action(i))
		}
		punches = append(punches, *p)
	}
	a.punches = punches
	return nil
}

// Apply records p for action when the current state allows it.
func (a *Attendance) Apply(action Action, p Punch) error {
	if err := a.State().Check(action); err != nil {
		return err
	}
	a.punches = append(a.punches, p)
	a.UpdatedAt = p.Time
	return nil
}

func (a Attendance) State() State {
	return State(len(a.punches))
}

// Punch returns the punch recorded for action, or nil.
func (a Attendance) Punch(action Action) *Punch {
	if int(action) < 0 || int(action) >= len(a.punches) {
		return nil
	}
	p := a.punches[action]
	return &p
}

func (a Attendance) CheckIn() *Punch    { return a.Punch(ActionCheckIn) }
func (a Attendance) CheckOut() *Punch   { return a.Punch(ActionCheckOut) }
func (a Attendance) ReCheckIn() *Punch  { return a.Punch(ActionReCheckIn) }
func (a Attendance) ReCheckOut() *Punch { return a.Punch(ActionReCheckOut) }

// FirstSessionHours is the fractional hours between check-in and check-out, 0 while open.
func (a Attendance) FirstSessionHours() float64 {
	return sessionHours(a.CheckIn(), a.CheckOut())
}

// SecondSessionHours is the fractional hours between re-check-in and re-check-out, 0 while open.
func (a Attendance) SecondSessionHours() float64 {
	return sessionHours(a.ReCheckIn(), a.ReCheckOut())
}

func (a Attendance) TotalHours() float64 {
	return a.FirstSessionHours() + a.SecondSessionHours()
}

// Status describes the record for reporting. It does not gate transitions.
func (a Attendance) Status() string {
	switch {
	case a.CheckIn() == nil:
		return StatusAbsent
	case a.State() == StateReCheckedIn:
		return StatusReCheckedIn
	case a.IsLate:
		return StatusLate
	default:
		return StatusPresent
	}
}

func sessionHours(in, out *Punch) float64 {
	if in == nil || out == nil {
		return 0
	}
	return float64(out.Time.Sub(in.Time).Milliseconds()) / float64(time.Hour.Milliseconds())
}

// LateThreshold is the time of day after which a check-in counts as late.
type LateThreshold struct {
	Hour   int
	Minute int
}

// ParseLateThreshold parses an HH:MM clock value.
func ParseLateThreshold(s string) (LateThreshold, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return LateThreshold{}, fmt.Errorf("invalid late threshold %q: %w", s, err)
	}
	return LateThreshold{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (l LateThreshold) String() string {
	return fmt.Sprintf("%02d:%02d", l.Hour, l.Minute)
}

// Lateness compares checkIn's time of day, in its own location, with the threshold.
// A check-in is late only when strictly after it; a started minute counts as a late minute,
// so a late record always carries at least one.
func (l LateThreshold) Lateness(checkIn time.Time) (bool, int) {
	limit := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), l.Hour, l.Minute, 0, 0, checkIn.Location())
	if !checkIn.After(limit) {
		return false, 0
	}
	return true, int(math.Ceil(checkIn.Sub(limit).Minutes()))
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
