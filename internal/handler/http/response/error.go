package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenRevoked):
		Unauthorized(w, err.Error())

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrInvalidUserType):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, user.ErrAdminPrivilegeRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrNoCheckInFound),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrReCheckInNotAllowed),
		errors.Is(err, attendance.ErrNoReCheckInFound),
		errors.Is(err, attendance.ErrAlreadyReCheckedOut),
		errors.Is(err, attendance.ErrLocationRequired),
		errors.Is(err, attendance.ErrStateChanged):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrOutsideGeofence),
		errors.Is(err, attendance.ErrInvalidQRToken):
		Forbidden(w, err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrOverlapConflict):
		Conflict(w, err.Error())
	case errors.Is(err, leave.ErrNotOwner):
		Forbidden(w, err.Error())
	case errors.Is(err, leave.ErrInvalidDate),
		errors.Is(err, leave.ErrPastDate),
		errors.Is(err, leave.ErrInvertedRange),
		errors.Is(err, leave.ErrNotPending),
		errors.Is(err, leave.ErrNotCancellable),
		errors.Is(err, leave.ErrStatusChanged),
		errors.Is(err, leave.ErrInvalidRejectionReason):
		BadRequest(w, err.Error(), nil)

	// Payroll and report errors
	case errors.Is(err, payroll.ErrInvalidDays),
		errors.Is(err, report.ErrInvalidFormat),
		errors.Is(err, report.ErrInvalidDateRange):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
