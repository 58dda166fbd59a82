package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV, FormatPDF:
		return Format(s), nil
	default:
		return "", ErrInvalidFormat
	}
}

// File is a rendered report ready to be streamed to the client.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ========================================
// MONTHLY ATTENDANCE REPORT
// ========================================

type MonthlyAttendanceReportRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *MonthlyAttendanceReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2020 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlyAttendanceReport struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	WorkDays    int    `json:"work_days"`
	GeneratedAt string `json:"generated_at"`

	Users []MonthlyAttendanceUser `json:"users"`
}

type MonthlyAttendanceUser struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"user_type"`

	Summary   AttendanceSummary    `json:"summary"`
	DailyLogs []AttendanceDailyLog `json:"daily_logs"`
}

type AttendanceSummary struct {
	TotalPresent     int     `json:"total_present"`
	TotalLateDays    int     `json:"total_late_days"`
	TotalLateMinutes int     `json:"total_late_minutes"`
	TotalReCheckIns  int     `json:"total_re_check_ins"`
	TotalWorkHours   float64 `json:"total_work_hours"`
	TotalLeaveDays   float64 `json:"total_leave_days"`
}

type AttendanceDailyLog struct {
	Date        string  `json:"date"`
	DayOfWeek   string  `json:"day_of_week"`
	CheckIn     *string `json:"check_in"`
	CheckOut    *string `json:"check_out"`
	ReCheckIn   *string `json:"re_check_in"`
	ReCheckOut  *string `json:"re_check_out"`
	Status      string  `json:"status"`
	LateMinutes int     `json:"late_minutes"`
	TotalHours  float64 `json:"total_hours"`
}

// ========================================
// LEAVE REPORT
// ========================================

type LeaveReportRequest struct {
	From string `json:"from"` // YYYY-MM-DD
	To   string `json:"to"`   // YYYY-MM-DD
}

func (r *LeaveReportRequest) Validate() (time.Time, time.Time, error) {
	var errs validator.ValidationErrors

	from, okFrom := validator.IsValidDate(r.From)
	if !okFrom {
		errs = append(errs, validator.ValidationError{
			Field:   "from",
			Message: "from must be in YYYY-MM-DD format",
		})
	}
	to, okTo := validator.IsValidDate(r.To)
	if !okTo {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: "to must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return time.Time{}, time.Time{}, errs
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

type LeaveReport struct {
	From                 string           `json:"from"`
	To                   string           `json:"to"`
	GeneratedAt          string           `json:"generated_at"`
	TotalRequests        int              `json:"total_requests"`
	TotalApprovedDays    float64          `json:"total_approved_days"`
	TotalSalaryDeduction float64          `json:"total_salary_deduction"`
	Rows                 []LeaveReportRow `json:"rows"`
}

type LeaveReportRow struct {
	RequestID       string  `json:"request_id"`
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	LeaveType       string  `json:"leave_type"`
	FromDate        string  `json:"from_date"`
	ToDate          string  `json:"to_date"`
	TotalDays       float64 `json:"total_days"`
	WorkingDays     float64 `json:"working_days"`
	Status          string  `json:"status"`
	SalaryDeduction float64 `json:"salary_deduction"`
}

// ========================================
// LEAVE BALANCE REPORT
// ========================================

type LeaveBalanceReport struct {
	GeneratedAt string            `json:"generated_at"`
	Rows        []LeaveBalanceRow `json:"rows"`
}

type LeaveBalanceRow struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	LeaveBalance float64 `json:"leave_balance"`
	Salary       float64 `json:"salary"`
	DailyRate    float64 `json:"daily_rate"`
}
