package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateTotalDays(t *testing.T) {
	tests := []struct {
		name    string
		from    time.Time
		to      time.Time
		halfDay bool
		want    float64
	}{
		{"single day", day(2025, 6, 10), day(2025, 6, 10), false, 1},
		{"three consecutive days", day(2025, 6, 10), day(2025, 6, 12), false, 3},
		{"spans weekend", day(2025, 6, 13), day(2025, 6, 16), false, 4},
		{"half day", day(2025, 6, 10), day(2025, 6, 10), true, 0.5},
		{"across month end", day(2025, 1, 30), day(2025, 2, 2), false, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateTotalDays(tt.from, tt.to, tt.halfDay))
		})
	}
}

func TestCalculateBusinessDays(t *testing.T) {
	got, err := CalculateBusinessDays(day(2025, 6, 9), day(2025, 6, 15), false)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	got, err = CalculateBusinessDays(day(2025, 6, 13), day(2025, 6, 16), true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestLeaveRequest_Overlaps(t *testing.T) {
	existing := LeaveRequest{FromDate: day(2025, 6, 10), ToDate: day(2025, 6, 12)}

	assert.True(t, existing.Overlaps(day(2025, 6, 11), day(2025, 6, 13)))
	assert.True(t, existing.Overlaps(day(2025, 6, 12), day(2025, 6, 12)))
	assert.True(t, existing.Overlaps(day(2025, 6, 1), day(2025, 6, 30)))
	assert.False(t, existing.Overlaps(day(2025, 6, 13), day(2025, 6, 14)))
	assert.False(t, existing.Overlaps(day(2025, 6, 1), day(2025, 6, 9)))
}

func TestLeaveRequest_Transitions(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("approve pending", func(t *testing.T) {
		req := LeaveRequest{Status: StatusPending}
		require.NoError(t, req.Approve("admin-1", nil, now))
		assert.Equal(t, StatusApproved, req.Status)
		assert.Equal(t, "admin-1", *req.ApprovedBy)
		assert.Equal(t, now, *req.ApprovedAt)
	})

	t.Run("approve twice", func(t *testing.T) {
		req := LeaveRequest{Status: StatusApproved}
		assert.ErrorIs(t, req.Approve("admin-1", nil, now), ErrNotPending)
	})

	t.Run("reject approved", func(t *testing.T) {
		req := LeaveRequest{Status: StatusApproved}
		assert.ErrorIs(t, req.Reject("admin-1", "too busy", now), ErrNotPending)
	})

	t.Run("cancel approved refunds deducted days", func(t *testing.T) {
		req := LeaveRequest{Status: StatusApproved, TotalDays: 3, DeductedDays: 2, SalaryDeduction: 100}
		refund, err := req.Cancel("u-1", now)
		require.NoError(t, err)
		assert.Equal(t, 2.0, refund)
		assert.Equal(t, StatusCancelled, req.Status)
		assert.Zero(t, req.DeductedDays)
		assert.Zero(t, req.SalaryDeduction)
	})

	t.Run("cancel pending refunds nothing", func(t *testing.T) {
		req := LeaveRequest{Status: StatusPending, TotalDays: 3}
		refund, err := req.Cancel("u-1", now)
		require.NoError(t, err)
		assert.Zero(t, refund)
	})

	t.Run("cancel rejected", func(t *testing.T) {
		req := LeaveRequest{Status: StatusRejected}
		_, err := req.Cancel("u-1", now)
		assert.ErrorIs(t, err, ErrNotCancellable)
	})
}

func TestRejectRequestRequest_Validate(t *testing.T) {
	short := RejectRequestRequest{RequestID: "r-1", RejectionReason: "  no  "}
	assert.ErrorIs(t, short.Validate(), ErrInvalidRejectionReason)

	ok := RejectRequestRequest{RequestID: "r-1", RejectionReason: "team is short-staffed"}
	assert.NoError(t, ok.Validate())
}

func TestCreateLeaveRequestRequest_Validate(t *testing.T) {
	morning := "morning"
	valid := CreateLeaveRequestRequest{
		LeaveType:   "annual",
		FromDate:    "2025-06-10",
		ToDate:      "2025-06-10",
		Reason:      "family event",
		IsHalfDay:   true,
		HalfDayType: &morning,
	}
	assert.NoError(t, valid.Validate())

	invalid := CreateLeaveRequestRequest{LeaveType: "holiday", FromDate: "2025-06-10", ToDate: "2025-06-10", Reason: "abc", IsHalfDay: true}
	err := invalid.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leave_type")
	assert.Contains(t, err.Error(), "reason")
	assert.Contains(t, err.Error(), "half_day_type")
}
