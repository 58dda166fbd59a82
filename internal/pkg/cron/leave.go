package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
)

// LeaveJobs holds the leave balance maintenance jobs.
type LeaveJobs struct {
	transactor database.Transactor
	userRepo   user.UserRepository
	allowance  float64
	location   *time.Location
	now        func() time.Time
}

func NewLeaveJobs(transactor database.Transactor, userRepo user.UserRepository, allowance float64, location *time.Location) *LeaveJobs {
	if location == nil {
		location = time.Local
	}
	return &LeaveJobs{
		transactor: transactor,
		userRepo:   userRepo,
		allowance:  allowance,
		location:   location,
		now:        time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler) {
	// Reset balances on January 1st (check every hour)
	scheduler.AddJob(
		"reset_annual_leave_balances",
		1*time.Hour,
		j.ResetAnnualLeaveBalances,
	)
}

// ResetAnnualLeaveBalances restores every employee balance to the annual allowance.
// It only acts during the first hour of January 1st. The store records the year with
// the reset, so restarts and other replicas skip a year that is already done.
func (j *LeaveJobs) ResetAnnualLeaveBalances(ctx context.Context) error {
	now := j.now().In(j.location)
	if now.Month() != time.January || now.Day() != 1 || now.Hour() != 0 {
		return nil
	}
	year := now.Year()

	var count int64
	err := j.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		count, err = j.userRepo.ResetLeaveBalances(ctx, j.allowance, year)
		return err
	})
	if errors.Is(err, user.ErrBalancesAlreadyReset) {
		slog.Debug("Cron: leave balances already reset", "year", year)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to reset leave balances: %w", err)
	}

	slog.Info("Cron: leave balances reset", "year", year, "allowance", j.allowance, "count", count)
	return nil
}
