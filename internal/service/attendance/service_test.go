package attendance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAttendanceRepo keeps records in memory and applies the same conditional write
// rules as the real stores.
type fakeAttendanceRepo struct {
	mu      sync.Mutex
	records map[string]attendance.Attendance
	// staleReads makes the next n GetByKey calls report no record.
	staleReads int
}

func newFakeAttendanceRepo() *fakeAttendanceRepo {
	return &fakeAttendanceRepo{records: make(map[string]attendance.Attendance)}
}

func keyString(k attendance.Key) string {
	return fmt.Sprintf("%s|%s|%s", k.UserID, k.UserType, k.Date.Format("2006-01-02"))
}

func (f *fakeAttendanceRepo) GetByKey(ctx context.Context, key attendance.Key) (*attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.staleReads > 0 {
		f.staleReads--
		return nil, nil
	}
	rec, ok := f.records[keyString(key)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeAttendanceRepo) CreateCheckIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyString(record.Key())
	if existing, ok := f.records[k]; ok && existing.State() != attendance.StateNotStarted {
		return attendance.Attendance{}, attendance.ErrStateChanged
	}
	f.records[k] = record
	return record, nil
}

func (f *fakeAttendanceRepo) RecordPunch(ctx context.Context, key attendance.Key, action attendance.Action, p attendance.Punch) (attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := keyString(key)
	rec, ok := f.records[k]
	if !ok || !rec.State().Allows(action) {
		return attendance.Attendance{}, attendance.ErrStateChanged
	}
	if err := rec.Apply(action, p); err != nil {
		return attendance.Attendance{}, err
	}
	f.records[k] = rec
	return rec, nil
}

func (f *fakeAttendanceRepo) GetMyAttendance(ctx context.Context, userID string, userType user.UserType, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if rec.UserID == userID && rec.UserType == userType {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, int64(len(out)), nil
}

func (f *fakeAttendanceRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Attendance
	for _, rec := range f.records {
		if !rec.Date.Before(from) && !rec.Date.After(to) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 6, 10, hour, minute, 0, 0, time.UTC)
}

var employee = user.Identity{UserID: "u-1", UserType: user.UserTypeEmployee, Email: "e@example.com"}

func newTestService(t *testing.T, opts Options) (*AttendanceServiceImpl, *fakeAttendanceRepo, *testClock) {
	t.Helper()
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LateThreshold == (attendance.LateThreshold{}) {
		opts.LateThreshold = attendance.LateThreshold{Hour: 9, Minute: 15}
	}
	repo := newFakeAttendanceRepo()
	clock := &testClock{now: at(9, 0)}
	svc := NewAttendanceService(repo, jwt.NewJWTService("test-secret", "1h"), opts).(*AttendanceServiceImpl)
	svc.now = clock.Now
	return svc, repo, clock
}

func TestAttendanceService_FullDay(t *testing.T) {
	// Setup
	svc, _, clock := newTestService(t, Options{})
	ctx := context.Background()

	// Act & Assert
	clock.Set(at(9, 30))
	resp, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)
	assert.True(t, resp.IsLate)
	assert.Equal(t, 15, resp.LateMinutes)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.Equal(t, "2030-06-10 09:30:00", *resp.CheckInTime)
	assert.True(t, resp.CanCheckOut)
	assert.False(t, resp.CanCheckIn)

	clock.Set(at(13, 0))
	resp, err = svc.CheckOut(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3.5, resp.FirstSessionHours)
	assert.True(t, resp.CanReCheckIn)

	clock.Set(at(14, 0))
	resp, err = svc.ReCheckIn(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusReCheckedIn, resp.Status)

	clock.Set(at(16, 0))
	resp, err = svc.ReCheckOut(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, resp.SecondSessionHours)
	assert.Equal(t, 5.5, resp.TotalHours)
	assert.Equal(t, attendance.Gates{}, resp.Gates)
}

func TestAttendanceService_TransitionErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("check out without check in", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})
		_, err := svc.CheckOut(ctx, employee, attendance.PunchRequest{})
		assert.ErrorIs(t, err, attendance.ErrNoCheckInFound)
	})

	t.Run("double check in", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})
		_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)
		_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	})

	t.Run("re check in while still checked in", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})
		_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)
		_, err = svc.ReCheckIn(ctx, employee, attendance.PunchRequest{})
		assert.ErrorIs(t, err, attendance.ErrReCheckInNotAllowed)
		assert.Contains(t, err.Error(), "check out before")
	})

	t.Run("re check out without re check in", func(t *testing.T) {
		svc, _, _ := newTestService(t, Options{})
		_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)
		_, err = svc.CheckOut(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)
		_, err = svc.ReCheckOut(ctx, employee, attendance.PunchRequest{})
		assert.ErrorIs(t, err, attendance.ErrNoReCheckInFound)
	})

	t.Run("new day starts fresh", func(t *testing.T) {
		svc, _, clock := newTestService(t, Options{})
		_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)

		clock.Set(at(9, 0).AddDate(0, 0, 1))
		_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		assert.NoError(t, err)
	})
}

func TestAttendanceService_LostRaceReportsTransitionError(t *testing.T) {
	// Setup
	svc, repo, _ := newTestService(t, Options{})
	ctx := context.Background()
	_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)

	// Act
	repo.staleReads = 1
	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{})

	// Assert
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
}

func TestAttendanceService_ConcurrentCheckIn(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	}
	assert.Equal(t, 1, succeeded)
}

func TestAttendanceService_GetToday(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	today, err := svc.GetToday(ctx, employee)
	require.NoError(t, err)
	assert.Nil(t, today.Attendance)
	assert.Equal(t, attendance.Gates{CanCheckIn: true}, today.Gates)
	assert.Equal(t, "09:15", today.LateThreshold)

	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)

	today, err = svc.GetToday(ctx, employee)
	require.NoError(t, err)
	require.NotNil(t, today.Attendance)
	assert.Equal(t, attendance.Gates{CanCheckOut: true}, today.Gates)
	assert.Equal(t, attendance.StatusPresent, today.Attendance.Status)
}

func TestAttendanceService_Geofence(t *testing.T) {
	fence := &geo.Fence{Latitude: -6.2, Longitude: 106.8166, RadiusMeters: 100}
	svc, _, _ := newTestService(t, Options{Fence: fence})
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	assert.ErrorIs(t, err, attendance.ErrLocationRequired)

	farLat, farLng := -6.3, 106.8166
	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{Latitude: &farLat, Longitude: &farLng})
	assert.ErrorIs(t, err, attendance.ErrOutsideGeofence)

	nearLat, nearLng := -6.2001, 106.8166
	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{Latitude: &nearLat, Longitude: &nearLng})
	assert.NoError(t, err)

	// Leaving the office is not fenced.
	_, err = svc.CheckOut(ctx, employee, attendance.PunchRequest{})
	assert.NoError(t, err)
}

func TestAttendanceService_QRCode(t *testing.T) {
	svc, _, _ := newTestService(t, Options{RequireQR: true})
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	assert.ErrorIs(t, err, attendance.ErrInvalidQRToken)

	bogus := "not-a-token"
	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{QRToken: &bogus})
	assert.ErrorIs(t, err, attendance.ErrInvalidQRToken)

	code, err := svc.GenerateQRCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2030-06-10", code.Date)
	assert.Contains(t, code.Image, "data:image/png;base64,")

	_, err = svc.CheckIn(ctx, employee, attendance.PunchRequest{QRToken: &code.Token})
	assert.NoError(t, err)
}

func TestAttendanceService_ListByDate(t *testing.T) {
	svc, _, _ := newTestService(t, Options{})
	ctx := context.Background()

	other := user.Identity{UserID: "u-2", UserType: user.UserTypeAdmin}
	_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, other, attendance.PunchRequest{})
	require.NoError(t, err)

	records, err := svc.ListByDate(ctx, "2030-06-10")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.ListByDate(ctx, "2030-06-11")
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = svc.ListByDate(ctx, "10/06/2030")
	assert.Error(t, err)
}

func TestAttendanceService_GetMyAttendance(t *testing.T) {
	svc, _, clock := newTestService(t, Options{})
	ctx := context.Background()

	empty, err := svc.GetMyAttendance(ctx, employee, attendance.MyAttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, "0 of 0", empty.Showing)

	for d := 0; d < 3; d++ {
		clock.Set(at(9, 0).AddDate(0, 0, d))
		_, err := svc.CheckIn(ctx, employee, attendance.PunchRequest{})
		require.NoError(t, err)
	}

	list, err := svc.GetMyAttendance(ctx, employee, attendance.MyAttendanceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.TotalCount)
	assert.Equal(t, "1-3 of 3", list.Showing)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, "2030-06-12", list.Attendances[0].Date)

	sameIDAdmin := user.Identity{UserID: employee.UserID, UserType: user.UserTypeAdmin}
	other, err := svc.GetMyAttendance(ctx, sameIDAdmin, attendance.MyAttendanceFilter{})
	require.NoError(t, err)
	assert.Zero(t, other.TotalCount)
}
