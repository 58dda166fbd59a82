package attendance

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

// AttendanceRepository defines data access methods for attendance records.
// Every mutation is a single conditional write so two concurrent punches for the same
// key cannot both succeed.
type AttendanceRepository interface {
	// GetByKey returns the record for the user's day, or nil when none exists yet.
	GetByKey(ctx context.Context, key Key) (*Attendance, error)

	// CreateCheckIn stores a new record holding only its check-in punch.
	// Returns ErrStateChanged when the day already has a check-in.
	CreateCheckIn(ctx context.Context, record Attendance) (Attendance, error)

	// RecordPunch stores p for action on the existing record, but only while the record
	// is in action.Requires(). Returns ErrStateChanged otherwise.
	RecordPunch(ctx context.Context, key Key, action Action, p Punch) (Attendance, error)

	// GetMyAttendance retrieves attendance records for a specific user
	GetMyAttendance(ctx context.Context, userID string, userType user.UserType, filter MyAttendanceFilter) ([]Attendance, int64, error)

	// ListByDateRange returns every record with from <= date <= to, ordered by date then user.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Attendance, error)
}
