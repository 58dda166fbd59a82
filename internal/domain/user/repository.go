package user

import (
	"context"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	List(ctx context.Context, filter UserFilter) ([]User, int64, error)
	ListAll(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)

	// LockForUpdate serialises writers on the user's records for the rest of the
	// enclosing transaction.
	LockForUpdate(ctx context.Context, id string) error

	// DecrementLeaveBalance atomically lowers an employee balance, clamped at zero,
	// and returns the balance held before the update.
	DecrementLeaveBalance(ctx context.Context, userID string, days float64) (before float64, err error)
	IncrementLeaveBalance(ctx context.Context, userID string, days float64) error
	// ResetLeaveBalances sets every employee balance to days and records year as done,
	// returning the number of users touched. A year already recorded fails with
	// ErrBalancesAlreadyReset and changes nothing. Run it inside a transaction.
	ResetLeaveBalances(ctx context.Context, days float64, year int) (int64, error)
}
