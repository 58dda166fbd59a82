package attendance

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	CheckIn(ctx context.Context, identity user.Identity, req PunchRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, identity user.Identity, req PunchRequest) (AttendanceResponse, error)
	ReCheckIn(ctx context.Context, identity user.Identity, req PunchRequest) (AttendanceResponse, error)
	ReCheckOut(ctx context.Context, identity user.Identity, req PunchRequest) (AttendanceResponse, error)

	// GetToday returns today's record, if any, with the four action gates.
	GetToday(ctx context.Context, identity user.Identity) (TodayAttendanceResponse, error)

	// GetMyAttendance retrieves attendance records for the authenticated user
	GetMyAttendance(ctx context.Context, identity user.Identity, filter MyAttendanceFilter) (ListAttendanceResponse, error)

	// ListByDate retrieves every record of a day (admin)
	ListByDate(ctx context.Context, date string) ([]AttendanceResponse, error)

	// GenerateQRCode returns today's check-in QR code (admin)
	GenerateQRCode(ctx context.Context) (QRCodeResponse, error)
}
