package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRecorder keeps the reset years like the stores do and rolls a failed
// transaction back.
type resetRecorder struct {
	user.UserRepository
	calls []float64
	years map[int]bool
	err   error
}

func (r *resetRecorder) ResetLeaveBalances(ctx context.Context, days float64, year int) (int64, error) {
	if r.years[year] {
		return 0, user.ErrBalancesAlreadyReset
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.years == nil {
		r.years = make(map[int]bool)
	}
	r.years[year] = true
	r.calls = append(r.calls, days)
	return 3, nil
}

type inlineTransactor struct {
	runs int
}

func (t *inlineTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	return fn(ctx)
}

func TestResetAnnualLeaveBalances(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	tests := []struct {
		name      string
		now       time.Time
		wantReset bool
	}{
		{"new year first hour", time.Date(2031, 1, 1, 0, 20, 0, 0, jakarta), true},
		{"new year in UTC but not local", time.Date(2031, 1, 1, 0, 20, 0, 0, time.UTC), false},
		{"new year second hour", time.Date(2031, 1, 1, 1, 0, 0, 0, jakarta), false},
		{"ordinary day", time.Date(2031, 3, 1, 0, 10, 0, 0, jakarta), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &resetRecorder{}
			jobs := NewLeaveJobs(&inlineTransactor{}, repo, 12, jakarta)
			jobs.now = func() time.Time { return tt.now }

			require.NoError(t, jobs.ResetAnnualLeaveBalances(context.Background()))

			if tt.wantReset {
				assert.Equal(t, []float64{12}, repo.calls)
			} else {
				assert.Empty(t, repo.calls)
			}
		})
	}
}

func TestResetAnnualLeaveBalances_OncePerYear(t *testing.T) {
	repo := &resetRecorder{}
	tx := &inlineTransactor{}
	jobs := NewLeaveJobs(tx, repo, 12, time.UTC)
	jobs.now = func() time.Time { return time.Date(2031, 1, 1, 0, 5, 0, 0, time.UTC) }

	require.NoError(t, jobs.ResetAnnualLeaveBalances(context.Background()))
	require.NoError(t, jobs.ResetAnnualLeaveBalances(context.Background()))

	assert.Len(t, repo.calls, 1)
	assert.Equal(t, 2, tx.runs)
}

func TestResetAnnualLeaveBalances_SurvivesRestart(t *testing.T) {
	// Setup: the store already holds this year's reset from a previous process.
	repo := &resetRecorder{years: map[int]bool{2031: true}}
	jobs := NewLeaveJobs(&inlineTransactor{}, repo, 12, time.UTC)
	jobs.now = func() time.Time { return time.Date(2031, 1, 1, 0, 45, 0, 0, time.UTC) }

	// Act
	err := jobs.ResetAnnualLeaveBalances(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, repo.calls)

	jobs.now = func() time.Time { return time.Date(2032, 1, 1, 0, 5, 0, 0, time.UTC) }
	require.NoError(t, jobs.ResetAnnualLeaveBalances(context.Background()))
	assert.Equal(t, []float64{12}, repo.calls)
}

func TestResetAnnualLeaveBalances_Failure(t *testing.T) {
	repo := &resetRecorder{err: errors.New("db down")}
	jobs := NewLeaveJobs(&inlineTransactor{}, repo, 12, time.UTC)
	jobs.now = func() time.Time { return time.Date(2031, 1, 1, 0, 5, 0, 0, time.UTC) }

	err := jobs.ResetAnnualLeaveBalances(context.Background())
	assert.ErrorContains(t, err, "db down")

	// a failed run is retried on the next tick
	repo.err = nil
	require.NoError(t, jobs.ResetAnnualLeaveBalances(context.Background()))
	assert.Len(t, repo.calls, 1)
}

func TestScheduler_RunOnce(t *testing.T) {
	s := NewScheduler()
	var ran []string
	s.AddJob("a", time.Hour, func(ctx context.Context) error { ran = append(ran, "a"); return nil })
	s.AddJob("b", time.Hour, func(ctx context.Context) error { ran = append(ran, "b"); return errors.New("boom") })

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"a", "b"}, ran)
	assert.Equal(t, []string{"a", "b"}, s.Jobs())
}

func TestScheduler_StartStop(t *testing.T) {
	s := NewScheduler()
	done := make(chan struct{}, 1)
	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}
