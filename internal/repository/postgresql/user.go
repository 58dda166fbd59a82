package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, user_type, leave_balance, salary, created_at, updated_at`

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.UserType,
		&u.LeaveBalance,
		&u.Salary,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (id, name, email, password_hash, user_type, leave_balance, salary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		newUser.ID,
		newUser.Name,
		newUser.Email,
		newUser.PasswordHash,
		string(newUser.UserType),
		newUser.LeaveBalance,
		newUser.Salary,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUserEmailExists
		}
		return user.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return created, nil
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)
	return scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)
	return scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// List implements user.UserRepository.
func (r *userRepositoryImpl) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.UserType != nil && *filter.UserType != "" {
		where += fmt.Sprintf(" AND user_type = $%d", argIdx)
		args = append(args, *filter.UserType)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		userColumns, where, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	users, err := r.queryUsers(ctx, q, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListAll implements user.UserRepository.
func (r *userRepositoryImpl) ListAll(ctx context.Context) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)
	return r.queryUsers(ctx, q, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
}

func (r *userRepositoryImpl) queryUsers(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]user.User, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Count implements user.UserRepository.
func (r *userRepositoryImpl) Count(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// LockForUpdate implements user.UserRepository.
func (r *userRepositoryImpl) LockForUpdate(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	var locked string
	err := q.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

// DecrementLeaveBalance implements user.UserRepository.
func (r *userRepositoryImpl) DecrementLeaveBalance(ctx context.Context, userID string, days float64) (float64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH prev AS (
			SELECT id, leave_balance FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET leave_balance = GREATEST(prev.leave_balance - $2, 0), updated_at = NOW()
		FROM prev
		WHERE u.id = prev.id
		RETURNING prev.leave_balance
	`

	var before float64
	if err := q.QueryRow(ctx, query, userID, days).Scan(&before); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, user.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to decrement leave balance: %w", err)
	}
	return before, nil
}

// IncrementLeaveBalance implements user.UserRepository.
func (r *userRepositoryImpl) IncrementLeaveBalance(ctx context.Context, userID string, days float64) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE users SET leave_balance = leave_balance + $2, updated_at = NOW() WHERE id = $1`, userID, days)
	if err != nil {
		return fmt.Errorf("failed to increment leave balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// ResetLeaveBalances implements user.UserRepository.
func (r *userRepositoryImpl) ResetLeaveBalances(ctx context.Context, days float64, year int) (int64, error) {
	q := GetQuerier(ctx, r.db)

	marker, err := q.Exec(ctx, `
		INSERT INTO leave_balance_resets (year, allowance) VALUES ($1, $2)
		ON CONFLICT (year) DO NOTHING`, year, days)
	if err != nil {
		return 0, fmt.Errorf("failed to record leave balance reset: %w", err)
	}
	if marker.RowsAffected() == 0 {
		return 0, user.ErrBalancesAlreadyReset
	}

	tag, err := q.Exec(ctx, `UPDATE users SET leave_balance = $1, updated_at = NOW() WHERE user_type = $2`, days, string(user.UserTypeEmployee))
	if err != nil {
		return 0, fmt.Errorf("failed to reset leave balances: %w", err)
	}

	if _, err := q.Exec(ctx, `UPDATE leave_balance_resets SET users_reset = $1 WHERE year = $2`, tag.RowsAffected(), year); err != nil {
		return 0, fmt.Errorf("failed to record leave balance reset: %w", err)
	}
	return tag.RowsAffected(), nil
}
