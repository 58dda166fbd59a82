package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

// LeaveRequestRepository - interface for leave requests storage
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// FindOverlapping returns one pending or approved request of userID whose window
	// intersects [from, to], or nil.
	FindOverlapping(ctx context.Context, userID string, from, to time.Time) (*LeaveRequest, error)

	// UpdateDecision persists status and decision fields, but only while the stored
	// status is still expected. Returns ErrStatusChanged otherwise.
	UpdateDecision(ctx context.Context, request LeaveRequest, expected Status) (LeaveRequest, error)

	// ListPending returns pending requests, newest first.
	ListPending(ctx context.Context) ([]LeaveRequest, error)

	// ListByDateRange returns requests intersecting [from, to], ordered by from date ascending.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]LeaveRequest, error)

	ListByUser(ctx context.Context, userID string, userType user.UserType, filter MyLeaveRequestFilter) ([]LeaveRequest, int64, error)
}
