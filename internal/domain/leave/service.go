package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

type LeaveService interface {
	RequestLeave(ctx context.Context, identity user.Identity, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, identity user.Identity, req ApproveRequestRequest) (LeaveRequestResponse, error)
	Reject(ctx context.Context, identity user.Identity, req RejectRequestRequest) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, identity user.Identity, requestID string) (LeaveRequestResponse, error)

	GetLeaveRequest(ctx context.Context, identity user.Identity, requestID string) (LeaveRequestResponse, error)
	GetPendingLeaves(ctx context.Context) ([]LeaveRequestResponse, error)
	GetLeavesByDateRange(ctx context.Context, from, to string) ([]LeaveRequestResponse, error)
	ListMyLeaveRequests(ctx context.Context, identity user.Identity, filter MyLeaveRequestFilter) (ListLeaveRequestResponse, error)
}
