package attendance

import "errors"

// Attendance domain errors
var (
	// Transition errors
	ErrAlreadyCheckedIn    = errors.New("you have already checked in today")
	ErrNoCheckInFound      = errors.New("no check-in found for today")
	ErrAlreadyCheckedOut   = errors.New("you have already checked out today")
	ErrReCheckInNotAllowed = errors.New("re-check-in not allowed")
	ErrNoReCheckInFound    = errors.New("no re-check-in found for today")
	ErrAlreadyReCheckedOut = errors.New("you have already re-checked out today")

	// Check-in policy errors
	ErrOutsideGeofence  = errors.New("you are outside the allowed check-in radius")
	ErrLocationRequired = errors.New("latitude and longitude are required to check in")
	ErrInvalidQRToken   = errors.New("invalid or expired attendance QR code")

	// ErrStateChanged is returned by repositories when a conditional update finds the
	// record no longer in the expected state.
	ErrStateChanged = errors.New("attendance record changed concurrently")
	// ErrCorruptTimeline is returned when stored punches skip a step.
	ErrCorruptTimeline = errors.New("attendance record has punches out of order")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
