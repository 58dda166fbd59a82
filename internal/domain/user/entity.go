package user

import "time"

type UserType string

const (
	UserTypeAdmin    UserType = "admin"
	UserTypeEmployee UserType = "employee"
)

func (t UserType) IsValid() bool {
	return t == UserTypeAdmin || t == UserTypeEmployee
}

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	UserType     UserType
	// LeaveBalance is the remaining paid leave in days. Admins carry no balance.
	LeaveBalance float64
	// Salary is the monthly base salary used for unpaid leave deductions.
	Salary    float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin checks if user is an administrator
func (u *User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}

// HasLeaveBalance reports whether leave approvals touch this user's balance.
func (u *User) HasLeaveBalance() bool {
	return u.UserType == UserTypeEmployee
}

// Identity is the authenticated subject of a request.
type Identity struct {
	UserID   string
	UserType UserType
	Email    string
}

func (i Identity) IsAdmin() bool {
	return i.UserType == UserTypeAdmin
}
