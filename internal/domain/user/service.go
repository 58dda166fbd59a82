package user

import "context"

type UserService interface {
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	List(ctx context.Context, filter UserFilter) (ListUserResponse, error)
	// EnsureAdmin creates the bootstrap admin when no user exists yet.
	EnsureAdmin(ctx context.Context, name, email, password string) error
}
