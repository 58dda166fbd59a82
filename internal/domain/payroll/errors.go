package payroll

import "errors"

var (
	ErrInvalidDays = errors.New("days must be greater than zero")
)
