package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	id, user_id, user_type, leave_type, from_date, to_date,
	is_half_day, half_day_type, total_days, working_days, reason, status,
	approved_by, approved_at, approval_notes, rejection_reason,
	cancelled_by, cancelled_at, deducted_days, salary_deduction,
	created_at, updated_at`

type leaveRequestRepositoryImpl struct {
	db       *database.DB
	location *time.Location
}

func NewLeaveRequestRepository(db *database.DB, location *time.Location) leave.LeaveRequestRepository {
	if location == nil {
		location = time.Local
	}
	return &leaveRequestRepositoryImpl{db: db, location: location}
}

func (r *leaveRequestRepositoryImpl) scan(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		req         leave.LeaveRequest
		halfDayType *string
	)
	err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.UserType,
		&req.LeaveType,
		&req.FromDate,
		&req.ToDate,
		&req.IsHalfDay,
		&halfDayType,
		&req.TotalDays,
		&req.WorkingDays,
		&req.Reason,
		&req.Status,
		&req.ApprovedBy,
		&req.ApprovedAt,
		&req.ApprovalNotes,
		&req.RejectionReason,
		&req.CancelledBy,
		&req.CancelledAt,
		&req.DeductedDays,
		&req.SalaryDeduction,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveNotFound
		}
		return leave.LeaveRequest{}, err
	}

	req.FromDate = localDate(req.FromDate, r.location)
	req.ToDate = localDate(req.ToDate, r.location)
	if halfDayType != nil {
		t := leave.HalfDayType(*halfDayType)
		req.HalfDayType = &t
	}
	return req, nil
}

func halfDayTypeArg(t *leave.HalfDayType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			id, user_id, user_type, leave_type, from_date, to_date,
			is_half_day, half_day_type, total_days, working_days, reason, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + leaveRequestColumns

	created, err := r.scan(q.QueryRow(ctx, query,
		request.ID,
		request.UserID,
		string(request.UserType),
		string(request.LeaveType),
		request.FromDate.Format(dateLayout),
		request.ToDate.Format(dateLayout),
		request.IsHalfDay,
		halfDayTypeArg(request.HalfDayType),
		request.TotalDays,
		request.WorkingDays,
		request.Reason,
		string(request.Status),
		request.CreatedAt,
		request.UpdatedAt,
	))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return created, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)
	return r.scan(q.QueryRow(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id))
}

// FindOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) FindOverlapping(ctx context.Context, userID string, from, to time.Time) (*leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE user_id = $1
		  AND status IN ($2, $3)
		  AND from_date <= $5
		  AND to_date >= $4
		ORDER BY from_date
		LIMIT 1`

	found, err := r.scan(q.QueryRow(ctx, query,
		userID,
		string(leave.StatusPending),
		string(leave.StatusApproved),
		from.Format(dateLayout),
		to.Format(dateLayout),
	))
	if err != nil {
		if errors.Is(err, leave.ErrLeaveNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find overlapping leave: %w", err)
	}
	return &found, nil
}

// UpdateDecision implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) UpdateDecision(ctx context.Context, request leave.LeaveRequest, expected leave.Status) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET status = $2,
			approved_by = $3,
			approved_at = $4,
			approval_notes = $5,
			rejection_reason = $6,
			cancelled_by = $7,
			cancelled_at = $8,
			deducted_days = $9,
			salary_deduction = $10,
			updated_at = $11
		WHERE id = $1 AND status = $12
		RETURNING ` + leaveRequestColumns

	updated, err := r.scan(q.QueryRow(ctx, query,
		request.ID,
		string(request.Status),
		request.ApprovedBy,
		request.ApprovedAt,
		request.ApprovalNotes,
		request.RejectionReason,
		request.CancelledBy,
		request.CancelledAt,
		request.DeductedDays,
		request.SalaryDeduction,
		request.UpdatedAt,
		string(expected),
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, leave.ErrLeaveNotFound) {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	// No row matched: either the request is gone or its status moved on.
	if _, getErr := r.GetByID(ctx, request.ID); getErr != nil {
		return leave.LeaveRequest{}, getErr
	}
	return leave.LeaveRequest{}, leave.ErrStatusChanged
}

// ListPending implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListPending(ctx context.Context) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE status = $1
		ORDER BY created_at DESC, id`

	return r.query(ctx, q, query, string(leave.StatusPending))
}

// ListByDateRange implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE from_date <= $2 AND to_date >= $1
		ORDER BY from_date, created_at`

	return r.query(ctx, q, query, from.Format(dateLayout), to.Format(dateLayout))
}

// ListByUser implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListByUser(ctx context.Context, userID string, userType user.UserType, filter leave.MyLeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "user_id = $1 AND user_type = $2"
	args := []interface{}{userID, string(userType)}
	argIdx := 3

	if filter.Status != nil && *filter.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.LeaveType != nil && *filter.LeaveType != "" {
		where += fmt.Sprintf(" AND leave_type = $%d", argIdx)
		args = append(args, *filter.LeaveType)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM leave_requests WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM leave_requests WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		leaveRequestColumns, where, argIdx, argIdx+1)
	args = append(args, limit, (max(filter.Page, 1)-1)*limit)

	requests, err := r.query(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *leaveRequestRepositoryImpl) query(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]leave.LeaveRequest, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	requests := make([]leave.LeaveRequest, 0)
	for rows.Next() {
		req, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave requests: %w", err)
	}
	return requests, nil
}
