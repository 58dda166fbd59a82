package leave

import "errors"

var (
	// Submission errors
	ErrInvalidDate     = errors.New("invalid date, expected YYYY-MM-DD")
	ErrPastDate        = errors.New("leave cannot start in the past")
	ErrInvertedRange   = errors.New("to_date must not be before from_date")
	ErrOverlapConflict = errors.New("leave request overlaps an existing pending or approved request")

	// Workflow errors
	ErrLeaveNotFound          = errors.New("leave request not found")
	ErrNotPending             = errors.New("leave request is not pending")
	ErrNotCancellable         = errors.New("only pending or approved leave requests can be cancelled")
	ErrInvalidRejectionReason = errors.New("rejection reason must be between 5 and 500 characters")
	ErrNotOwner               = errors.New("you can only access your own leave requests")

	// ErrStatusChanged is returned by repositories when a conditional status update
	// finds the request no longer in the expected status.
	ErrStatusChanged = errors.New("leave request status changed concurrently")
)
