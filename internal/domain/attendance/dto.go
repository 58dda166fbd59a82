package attendance

import (
	"strings"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

// PunchRequest is the body of check-in, check-out, re-check-in and re-check-out.
type PunchRequest struct {
	Location   *string  `json:"location,omitempty" validate:"omitempty,max=255"`
	Latitude   *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude  *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	DeviceInfo *string  `json:"device_info,omitempty" validate:"omitempty,max=512"`
	QRToken    *string  `json:"qr_token,omitempty"`

	// Filled by the handler from the connection.
	IPAddress *string `json:"-"`
	UserAgent *string `json:"-"`
}

func (r *PunchRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		return validator.ValidationErrors{{
			Field:   "latitude",
			Message: "latitude and longitude must be sent together",
		}}
	}

	return nil
}

type PunchResponse struct {
	Time       string   `json:"time"`
	Location   *string  `json:"location,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	IPAddress  *string  `json:"ip_address,omitempty"`
	DeviceInfo *string  `json:"device_info,omitempty"`
}

type AttendanceResponse struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	UserType           string         `json:"user_type"`
	Date               string         `json:"date"`
	CheckIn            *PunchResponse `json:"check_in,omitempty"`
	CheckOut           *PunchResponse `json:"check_out,omitempty"`
	ReCheckIn          *PunchResponse `json:"re_check_in,omitempty"`
	ReCheckOut         *PunchResponse `json:"re_check_out,omitempty"`
	CheckInTime        *string        `json:"check_in_time,omitempty"`
	CheckOutTime       *string        `json:"check_out_time,omitempty"`
	ReCheckInTime      *string        `json:"re_check_in_time,omitempty"`
	ReCheckOutTime     *string        `json:"re_check_out_time,omitempty"`
	State              string         `json:"state"`
	Status             string         `json:"status"`
	IsLate             bool           `json:"is_late"`
	LateMinutes        int            `json:"late_minutes"`
	FirstSessionHours  float64        `json:"first_session_hours"`
	SecondSessionHours float64        `json:"second_session_hours"`
	TotalHours         float64        `json:"total_hours"`
	Gates
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type TodayAttendanceResponse struct {
	Date          string              `json:"date"`
	LateThreshold string              `json:"late_threshold"`
	Attendance    *AttendanceResponse `json:"attendance"`
	Gates
}

type QRCodeResponse struct {
	Image     string `json:"qr_code_image"`
	Token     string `json:"token"`
	Date      string `json:"date"`
	ExpiresAt string `json:"expires_at"`
}

type MyAttendanceFilter struct {
	// Search & Filter
	Date      *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status    *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, check_in_time
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	// Status validation
	if f.Status != nil {
		validStatuses := []string{StatusPresent, StatusLate, StatusReCheckedIn}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: present, late, re-checked-in",
			})
		}
	}

	// Date validation
	if f.Date != nil && *f.Date != "" {
		if _, valid := validator.IsValidDate(*f.Date); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}

	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	// Sort validation
	if f.SortBy != "" {
		validSortFields := []string{"date", "check_in_time"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, check_in_time",
			})
		}
	} else {
		f.SortBy = "date" // Default sort
	}

	if f.SortOrder != "" {
		f.SortOrder = strings.ToLower(f.SortOrder)
		validSortOrders := []string{"asc", "desc"}
		if !validator.IsInSlice(f.SortOrder, validSortOrders) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc" // Default descending (newest first)
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}
