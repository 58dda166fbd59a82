package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/google/uuid"
)

const maxCancelAttempts = 3

type LeaveServiceImpl struct {
	transactor database.Transactor
	leave.LeaveRequestRepository
	user.UserRepository
	events   *sse.Hub
	location *time.Location
	now      func() time.Time
}

// RequestLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) RequestLeave(ctx context.Context, identity user.Identity, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	fromDate, err := time.ParseInLocation("2006-01-02", req.FromDate, l.location)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("%w: from_date %q", leave.ErrInvalidDate, req.FromDate)
	}
	toDate, err := time.ParseInLocation("2006-01-02", req.ToDate, l.location)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("%w: to_date %q", leave.ErrInvalidDate, req.ToDate)
	}

	now := l.now().In(l.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, l.location)
	if fromDate.Before(today) {
		return leave.LeaveRequestResponse{}, leave.ErrPastDate
	}
	if toDate.Before(fromDate) {
		return leave.LeaveRequestResponse{}, leave.ErrInvertedRange
	}

	totalDays := leave.CalculateTotalDays(fromDate, toDate, req.IsHalfDay)
	workingDays, err := leave.CalculateBusinessDays(fromDate, toDate, req.IsHalfDay)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to count working days: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to generate leave request id: %w", err)
	}

	request := leave.LeaveRequest{
		ID:          id.String(),
		UserID:      identity.UserID,
		UserType:    identity.UserType,
		LeaveType:   leave.Type(req.LeaveType),
		FromDate:    fromDate,
		ToDate:      toDate,
		IsHalfDay:   req.IsHalfDay,
		TotalDays:   totalDays,
		WorkingDays: workingDays,
		Reason:      req.Reason,
		Status:      leave.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.HalfDayType != nil {
		halfDayType := leave.HalfDayType(*req.HalfDayType)
		request.HalfDayType = &halfDayType
	}

	var owner user.User
	var created leave.LeaveRequest
	err = l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// Serialise submissions of the same user so two overlapping requests cannot both
		// pass the overlap check.
		if err := l.UserRepository.LockForUpdate(ctx, identity.UserID); err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		owner, err = l.UserRepository.GetByID(ctx, identity.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		existing, err := l.LeaveRequestRepository.FindOverlapping(ctx, identity.UserID, fromDate, toDate)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: %s to %s (%s)", leave.ErrOverlapConflict,
				existing.FromDate.Format("2006-01-02"), existing.ToDate.Format("2006-01-02"), existing.Status)
		}

		if owner.HasLeaveBalance() {
			request.SalaryDeduction = payroll.CalculateSalaryDeduction(totalDays, owner.Salary, owner.LeaveBalance)
		}

		created, err = l.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	metrics.RecordLeaveRequest(string(created.LeaveType))
	resp := l.mapLeaveRequestToResponse(created, balanceOf(owner))
	l.events.Publish(sse.AdminTopic, sse.Event{Name: "leave.requested", Data: resp})
	return resp, nil
}

// Approve implements leave.LeaveService.
func (l *LeaveServiceImpl) Approve(ctx context.Context, identity user.Identity, req leave.ApproveRequestRequest) (leave.LeaveRequestResponse, error) {
	if !identity.IsAdmin() {
		return leave.LeaveRequestResponse{}, user.ErrAdminPrivilegeRequired
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	var approved leave.LeaveRequest
	var remaining *float64
	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, req.RequestID)
		if err != nil {
			return err
		}

		if err := request.Approve(identity.UserID, req.Notes, l.now()); err != nil {
			return err
		}

		owner, err := l.UserRepository.GetByID(ctx, request.UserID)
		if err != nil {
			return fmt.Errorf("failed to get leave owner: %w", err)
		}

		if owner.HasLeaveBalance() {
			before, err := l.UserRepository.DecrementLeaveBalance(ctx, owner.ID, request.TotalDays)
			if err != nil {
				return fmt.Errorf("failed to deduct leave balance: %w", err)
			}
			request.DeductedDays = math.Min(before, request.TotalDays)
			request.SalaryDeduction = payroll.CalculateSalaryDeduction(request.TotalDays, owner.Salary, before)
			after := math.Max(0, before-request.TotalDays)
			remaining = &after
		} else {
			request.SalaryDeduction = 0
		}

		approved, err = l.LeaveRequestRepository.UpdateDecision(ctx, request, leave.StatusPending)
		if err != nil {
			if errors.Is(err, leave.ErrStatusChanged) {
				return leave.ErrNotPending
			}
			return fmt.Errorf("failed to approve leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	slog.Info("leave request approved",
		"request_id", approved.ID,
		"user_id", approved.UserID,
		"approved_by", identity.UserID,
		"deducted_days", approved.DeductedDays,
		"salary_deduction", approved.SalaryDeduction,
	)
	metrics.RecordLeaveDecision(string(leave.StatusApproved))
	resp := l.mapLeaveRequestToResponse(approved, remaining)
	l.events.Publish(approved.UserID, sse.Event{Name: "leave.approved", Data: resp})
	return resp, nil
}

// Reject implements leave.LeaveService.
func (l *LeaveServiceImpl) Reject(ctx context.Context, identity user.Identity, req leave.RejectRequestRequest) (leave.LeaveRequestResponse, error) {
	if !identity.IsAdmin() {
		return leave.LeaveRequestResponse{}, user.ErrAdminPrivilegeRequired
	}
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.LeaveRequestRepository.GetByID(ctx, req.RequestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if err := request.Reject(identity.UserID, req.RejectionReason, l.now()); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	rejected, err := l.LeaveRequestRepository.UpdateDecision(ctx, request, leave.StatusPending)
	if err != nil {
		if errors.Is(err, leave.ErrStatusChanged) {
			return leave.LeaveRequestResponse{}, leave.ErrNotPending
		}
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to reject leave request: %w", err)
	}

	metrics.RecordLeaveDecision(string(leave.StatusRejected))
	resp := l.mapLeaveRequestToResponse(rejected, nil)
	l.events.Publish(rejected.UserID, sse.Event{Name: "leave.rejected", Data: resp})
	return resp, nil
}

// Cancel implements leave.LeaveService.
func (l *LeaveServiceImpl) Cancel(ctx context.Context, identity user.Identity, requestID string) (leave.LeaveRequestResponse, error) {
	var cancelled leave.LeaveRequest
	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
		if err != nil {
			return err
		}

		if request.UserID != identity.UserID && !identity.IsAdmin() {
			return leave.ErrNotOwner
		}

		// A decision can land between the read and the conditional update; retry against
		// the status that won.
		for attempt := 1; ; attempt++ {
			previous := request.Status
			refund, err := request.Cancel(identity.UserID, l.now())
			if err != nil {
				return err
			}

			cancelled, err = l.LeaveRequestRepository.UpdateDecision(ctx, request, previous)
			if err == nil {
				if refund > 0 {
					if err := l.UserRepository.IncrementLeaveBalance(ctx, request.UserID, refund); err != nil {
						return fmt.Errorf("failed to restore leave balance: %w", err)
					}
				}
				return nil
			}
			if !errors.Is(err, leave.ErrStatusChanged) {
				return fmt.Errorf("failed to cancel leave request: %w", err)
			}
			if attempt == maxCancelAttempts {
				return err
			}

			request, err = l.LeaveRequestRepository.GetByID(ctx, requestID)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	metrics.RecordLeaveDecision(string(leave.StatusCancelled))
	resp := l.mapLeaveRequestToResponse(cancelled, nil)
	event := sse.Event{Name: "leave.cancelled", Data: resp}
	if cancelled.UserID == identity.UserID {
		l.events.Publish(sse.AdminTopic, event)
	} else {
		l.events.Publish(cancelled.UserID, event)
	}
	return resp, nil
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, identity user.Identity, requestID string) (leave.LeaveRequestResponse, error) {
	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	// Employees may only read their own requests
	if request.UserID != identity.UserID && !identity.IsAdmin() {
		return leave.LeaveRequestResponse{}, leave.ErrNotOwner
	}

	return l.mapLeaveRequestToResponse(request, nil), nil
}

// GetPendingLeaves implements leave.LeaveService.
func (l *LeaveServiceImpl) GetPendingLeaves(ctx context.Context) ([]leave.LeaveRequestResponse, error) {
	requests, err := l.LeaveRequestRepository.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, l.mapLeaveRequestToResponse(r, nil))
	}
	return responses, nil
}

// GetLeavesByDateRange implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeavesByDateRange(ctx context.Context, from, to string) ([]leave.LeaveRequestResponse, error) {
	fromDate, err := time.ParseInLocation("2006-01-02", from, l.location)
	if err != nil {
		return nil, fmt.Errorf("%w: from %q", leave.ErrInvalidDate, from)
	}
	toDate, err := time.ParseInLocation("2006-01-02", to, l.location)
	if err != nil {
		return nil, fmt.Errorf("%w: to %q", leave.ErrInvalidDate, to)
	}
	if toDate.Before(fromDate) {
		return nil, leave.ErrInvertedRange
	}

	requests, err := l.LeaveRequestRepository.ListByDateRange(ctx, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests by date range: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, l.mapLeaveRequestToResponse(r, nil))
	}
	return responses, nil
}

// ListMyLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListMyLeaveRequests(ctx context.Context, identity user.Identity, filter leave.MyLeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	requests, total, err := l.LeaveRequestRepository.ListByUser(ctx, identity.UserID, identity.UserType, filter)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, l.mapLeaveRequestToResponse(r, nil))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min((filter.Page)*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return leave.ListLeaveRequestResponse{
		TotalCount:    total,
		Page:          filter.Page,
		Limit:         filter.Limit,
		TotalPages:    totalPages,
		Showing:       showing,
		LeaveRequests: responses,
	}, nil
}

func balanceOf(u user.User) *float64 {
	if !u.HasLeaveBalance() {
		return nil
	}
	balance := u.LeaveBalance
	return &balance
}

func (l *LeaveServiceImpl) formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(l.location).Format("2006-01-02 15:04:05")
	return &s
}

func (l *LeaveServiceImpl) mapLeaveRequestToResponse(r leave.LeaveRequest, balance *float64) leave.LeaveRequestResponse {
	var halfDayType *string
	if r.HalfDayType != nil {
		s := string(*r.HalfDayType)
		halfDayType = &s
	}

	return leave.LeaveRequestResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		UserType:        string(r.UserType),
		LeaveType:       string(r.LeaveType),
		FromDate:        r.FromDate.Format("2006-01-02"),
		ToDate:          r.ToDate.Format("2006-01-02"),
		IsHalfDay:       r.IsHalfDay,
		HalfDayType:     halfDayType,
		TotalDays:       r.TotalDays,
		WorkingDays:     r.WorkingDays,
		Reason:          r.Reason,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      l.formatTime(r.ApprovedAt),
		ApprovalNotes:   r.ApprovalNotes,
		RejectionReason: r.RejectionReason,
		CancelledBy:     r.CancelledBy,
		CancelledAt:     l.formatTime(r.CancelledAt),
		DeductedDays:    r.DeductedDays,
		SalaryDeduction: r.SalaryDeduction,
		LeaveBalance:    balance,
		CreatedAt:       r.CreatedAt.In(l.location).Format("2006-01-02 15:04:05"),
		UpdatedAt:       r.UpdatedAt.In(l.location).Format("2006-01-02 15:04:05"),
	}
}

func NewLeaveService(
	transactor database.Transactor,
	leaveRequestRepo leave.LeaveRequestRepository,
	userRepo user.UserRepository,
	events *sse.Hub,
	location *time.Location,
) leave.LeaveService {
	if location == nil {
		location = time.Local
	}
	return &LeaveServiceImpl{
		transactor:             transactor,
		LeaveRequestRepository: leaveRequestRepo,
		UserRepository:         userRepo,
		events:                 events,
		location:               location,
		now:                    time.Now,
	}
}
