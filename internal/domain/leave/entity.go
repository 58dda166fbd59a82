package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Blocking reports whether a request in this status reserves its dates.
func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusApproved
}

type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypePersonal  Type = "personal"
	TypeMaternity Type = "maternity"
	TypeUnpaid    Type = "unpaid"
	TypeOther     Type = "other"
)

var Types = []string{
	string(TypeAnnual),
	string(TypeSick),
	string(TypePersonal),
	string(TypeMaternity),
	string(TypeUnpaid),
	string(TypeOther),
}

type HalfDayType string

const (
	HalfDayMorning   HalfDayType = "morning"
	HalfDayAfternoon HalfDayType = "afternoon"
)

// LeaveRequest entity
type LeaveRequest struct {
	ID        string
	UserID    string
	UserType  user.UserType
	LeaveType Type

	FromDate time.Time
	ToDate   time.Time

	IsHalfDay   bool
	HalfDayType *HalfDayType
	TotalDays   float64
	WorkingDays float64

	Reason string
	Status Status

	ApprovedBy      *string
	ApprovedAt      *time.Time
	ApprovalNotes   *string
	RejectionReason *string

	CancelledBy *string
	CancelledAt *time.Time

	// DeductedDays is what approval actually took from the balance after clamping at zero.
	DeductedDays    float64
	SalaryDeduction float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the request's window intersects [from, to].
func (r LeaveRequest) Overlaps(from, to time.Time) bool {
	return !r.FromDate.After(to) && !r.ToDate.Before(from)
}

// Approve moves a pending request to approved.
func (r *LeaveRequest) Approve(approverID string, notes *string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusApproved
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.ApprovalNotes = notes
	r.UpdatedAt = now
	return nil
}

// Reject moves a pending request to rejected.
func (r *LeaveRequest) Reject(approverID string, reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrNotPending
	}
	r.Status = StatusRejected
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	r.RejectionReason = &reason
	r.UpdatedAt = now
	return nil
}

// Cancel withdraws a pending or approved request and clears its deductions.
// It returns the days to give back to the balance.
func (r *LeaveRequest) Cancel(by string, now time.Time) (float64, error) {
	if !r.Status.Blocking() {
		return 0, ErrNotCancellable
	}
	refund := 0.0
	if r.Status == StatusApproved {
		refund = r.DeductedDays
	}
	r.Status = StatusCancelled
	r.CancelledBy = &by
	r.CancelledAt = &now
	r.DeductedDays = 0
	r.SalaryDeduction = 0
	r.UpdatedAt = now
	return refund, nil
}

// CalculateTotalDays counts calendar days inclusively, or half a day for half-day leave.
func CalculateTotalDays(from, to time.Time, isHalfDay bool) float64 {
	if isHalfDay {
		return 0.5
	}
	return float64(daysBetween(from, to) + 1)
}

// CalculateBusinessDays counts Monday to Friday days inclusively, halved for half-day leave.
func CalculateBusinessDays(from, to time.Time, isHalfDay bool) (float64, error) {
	n, err := calendar.CountBusinessDays(from, to)
	if err != nil {
		return 0, err
	}
	days := float64(n)
	if isHalfDay {
		days *= 0.5
	}
	return days, nil
}

// daysBetween counts whole calendar days, ignoring DST shifts in the dates' location.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
