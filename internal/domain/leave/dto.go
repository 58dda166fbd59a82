package leave

import (
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ========================================
// LEAVE REQUEST DTOs
// ========================================

type CreateLeaveRequestRequest struct {
	LeaveType   string  `json:"leave_type" validate:"required"`
	FromDate    string  `json:"from_date" validate:"required"` // YYYY-MM-DD
	ToDate      string  `json:"to_date" validate:"required"`   // YYYY-MM-DD
	Reason      string  `json:"reason" validate:"required,min=5,max=500"`
	IsHalfDay   bool    `json:"is_half_day"`
	HalfDayType *string `json:"half_day_type,omitempty"`
}

// Validate checks field presence and enums. Dates are parsed by the service so that an
// unparseable date surfaces as ErrInvalidDate.
func (r *CreateLeaveRequestRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)

	var errs validator.ValidationErrors
	if err := validator.Struct(r); err != nil {
		fieldErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		errs = append(errs, fieldErrs...)
	}

	if r.LeaveType != "" && !validator.IsInSlice(r.LeaveType, Types) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: " + strings.Join(Types, ", "),
		})
	}

	if r.IsHalfDay {
		if r.HalfDayType == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "half_day_type",
				Message: "half_day_type is required for half-day leave",
			})
		} else if *r.HalfDayType != string(HalfDayMorning) && *r.HalfDayType != string(HalfDayAfternoon) {
			errs = append(errs, validator.ValidationError{
				Field:   "half_day_type",
				Message: "half_day_type must be one of: morning, afternoon",
			})
		}
	} else if r.HalfDayType != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "half_day_type",
			Message: "half_day_type is only allowed for half-day leave",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ApproveRequestRequest struct {
	RequestID string  `json:"-"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (r *ApproveRequestRequest) Validate() error {
	if validator.IsEmpty(r.RequestID) {
		return validator.ValidationErrors{{Field: "id", Message: "id is required"}}
	}
	return validator.Struct(r)
}

type RejectRequestRequest struct {
	RequestID       string `json:"-"`
	RejectionReason string `json:"rejection_reason"`
}

func (r *RejectRequestRequest) Validate() error {
	if validator.IsEmpty(r.RequestID) {
		return validator.ValidationErrors{{Field: "id", Message: "id is required"}}
	}

	r.RejectionReason = strings.TrimSpace(r.RejectionReason)
	if n := len([]rune(r.RejectionReason)); n < 5 || n > 500 {
		return ErrInvalidRejectionReason
	}
	return nil
}

type LeaveRequestResponse struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	UserType        string   `json:"user_type"`
	LeaveType       string   `json:"leave_type"`
	FromDate        string   `json:"from_date"`
	ToDate          string   `json:"to_date"`
	IsHalfDay       bool     `json:"is_half_day"`
	HalfDayType     *string  `json:"half_day_type,omitempty"`
	TotalDays       float64  `json:"total_days"`
	WorkingDays     float64  `json:"working_days"`
	Reason          string   `json:"reason"`
	Status          string   `json:"status"`
	ApprovedBy      *string  `json:"approved_by,omitempty"`
	ApprovedAt      *string  `json:"approved_at,omitempty"`
	ApprovalNotes   *string  `json:"approval_notes,omitempty"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	CancelledBy     *string  `json:"cancelled_by,omitempty"`
	CancelledAt     *string  `json:"cancelled_at,omitempty"`
	DeductedDays    float64  `json:"deducted_days"`
	SalaryDeduction float64  `json:"salary_deduction"`
	LeaveBalance    *float64 `json:"leave_balance,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

type MyLeaveRequestFilter struct {
	Status    *string `json:"status,omitempty"`
	LeaveType *string `json:"leave_type,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *MyLeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		validStatuses := []string{string(StatusPending), string(StatusApproved), string(StatusRejected), string(StatusCancelled)}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: pending, approved, rejected, cancelled",
			})
		}
	}

	if f.LeaveType != nil && !validator.IsInSlice(*f.LeaveType, Types) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: " + strings.Join(Types, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListLeaveRequestResponse struct {
	TotalCount    int64                  `json:"total_count"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	TotalPages    int                    `json:"total_pages"`
	Showing       string                 `json:"showing"`
	LeaveRequests []LeaveRequestResponse `json:"leave_requests"`
}
