package leave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

// fakeTransactor serialises transactions and restores the fakes' state when fn fails.
type fakeTransactor struct {
	mu     sync.Mutex
	stores []interface{ snapshot() func() }
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var restores []func()
	for _, s := range t.stores {
		restores = append(restores, s.snapshot())
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

type fakeLeaveRepo struct {
	mu       sync.Mutex
	requests map[string]leave.LeaveRequest
	// failUpdate makes UpdateDecision return an error.
	failUpdate error
}

func newFakeLeaveRepo() *fakeLeaveRepo {
	return &fakeLeaveRepo{requests: make(map[string]leave.LeaveRequest)}
}

func (f *fakeLeaveRepo) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[string]leave.LeaveRequest, len(f.requests))
	for k, v := range f.requests {
		saved[k] = v
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = saved
	}
}

func (f *fakeLeaveRepo) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeLeaveRepo) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveNotFound
	}
	return r, nil
}

func (f *fakeLeaveRepo) FindOverlapping(ctx context.Context, userID string, from, to time.Time) (*leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.UserID == userID && r.Status.Blocking() && r.Overlaps(from, to) {
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeLeaveRepo) UpdateDecision(ctx context.Context, request leave.LeaveRequest, expected leave.Status) (leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return leave.LeaveRequest{}, f.failUpdate
	}
	stored, ok := f.requests[request.ID]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveNotFound
	}
	if stored.Status != expected {
		return leave.LeaveRequest{}, leave.ErrStatusChanged
	}
	f.requests[request.ID] = request
	return request, nil
}

func (f *fakeLeaveRepo) ListPending(ctx context.Context) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.requests {
		if r.Status == leave.StatusPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeLeaveRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.requests {
		if r.Overlaps(from, to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FromDate.Before(out[j].FromDate) })
	return out, nil
}

func (f *fakeLeaveRepo) ListByUser(ctx context.Context, userID string, userType user.UserType, filter leave.MyLeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, r := range f.requests {
		if r.UserID != userID || r.UserType != userType {
			continue
		}
		if filter.Status != nil && string(r.Status) != *filter.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, int64(len(out)), nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]user.User
}

func newFakeUserRepo(users ...user.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]user.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) snapshot() func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	saved := make(map[string]user.User, len(f.users))
	for k, v := range f.users {
		saved[k] = v
	}
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.users = saved
	}
}

func (f *fakeUserRepo) balance(id string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id].LeaveBalance
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, newUser user.User) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[newUser.ID] = newUser
	return newUser, nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter user.UserFilter) ([]user.User, int64, error) {
	all, _ := f.ListAll(ctx)
	return all, int64(len(all)), nil
}

func (f *fakeUserRepo) ListAll(ctx context.Context) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []user.User
	for _, u := range f.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.users)), nil
}

func (f *fakeUserRepo) LockForUpdate(ctx context.Context, id string) error {
	return nil
}

func (f *fakeUserRepo) DecrementLeaveBalance(ctx context.Context, userID string, days float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return 0, user.ErrUserNotFound
	}
	before := u.LeaveBalance
	u.LeaveBalance = max(0, before-days)
	f.users[userID] = u
	return before, nil
}

func (f *fakeUserRepo) IncrementLeaveBalance(ctx context.Context, userID string, days float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return user.ErrUserNotFound
	}
	u.LeaveBalance += days
	f.users[userID] = u
	return nil
}

func (f *fakeUserRepo) ResetLeaveBalances(ctx context.Context, days float64, year int) (int64, error) {
	return 0, errors.New("not used")
}

// staleReadLeaveRepo serves an outdated copy of one request for the first staleReads
// lookups, as a reader racing a concurrent decision would see it.
type staleReadLeaveRepo struct {
	*fakeLeaveRepo
	stale      leave.LeaveRequest
	staleReads int
}

func (s *staleReadLeaveRepo) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if id == s.stale.ID && s.staleReads != 0 {
		s.staleReads--
		return s.stale, nil
	}
	return s.fakeLeaveRepo.GetByID(ctx, id)
}
