package user

import (
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	UserType     string  `json:"user_type"`
	LeaveBalance float64 `json:"leave_balance"`
	Salary       float64 `json:"salary"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// CreateUserRequest represents request to create a new user
type CreateUserRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	Email        string  `json:"email" validate:"required,email,max=254"`
	Password     string  `json:"password" validate:"required,min=8,max=255"`
	UserType     string  `json:"user_type" validate:"required,oneof=admin employee"`
	LeaveBalance float64 `json:"leave_balance" validate:"gte=0"`
	Salary       float64 `json:"salary" validate:"gte=0"`
}

func (r *CreateUserRequest) Validate() error {
	if err := validator.Struct(r); err != nil {
		return err
	}

	if UserType(r.UserType) == UserTypeAdmin && r.LeaveBalance != 0 {
		return validator.ValidationErrors{{
			Field:   "leave_balance",
			Message: "admins do not carry a leave balance",
		}}
	}

	return nil
}

type UserFilter struct {
	UserType *string `json:"user_type,omitempty"`
	Page     int     `json:"page"`
	Limit    int     `json:"limit"`
}

func (f *UserFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.UserType != nil && !UserType(*f.UserType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "user_type",
			Message: "user_type must be admin or employee",
		})
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListUserResponse struct {
	TotalCount int64          `json:"total_count"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"total_pages"`
	Users      []UserResponse `json:"users"`
}
