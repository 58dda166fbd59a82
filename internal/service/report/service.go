package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

type ReportServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	leaveRepo      leave.LeaveRequestRepository
	userRepo       user.UserRepository
	location       *time.Location
	now            func() time.Time
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	leaveRepo leave.LeaveRequestRepository,
	userRepo user.UserRepository,
	location *time.Location,
) report.ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportServiceImpl{
		attendanceRepo: attendanceRepo,
		leaveRepo:      leaveRepo,
		userRepo:       userRepo,
		location:       location,
		now:            time.Now,
	}
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

func clockString(p *attendance.Punch, loc *time.Location) *string {
	if p == nil {
		return nil
	}
	s := p.Time.In(loc).Format("15:04:05")
	return &s
}

// GenerateMonthlyAttendanceReport generates the monthly attendance report
func (s *ReportServiceImpl) GenerateMonthlyAttendanceReport(ctx context.Context, req report.MonthlyAttendanceReportRequest) (report.MonthlyAttendanceReport, error) {
	// Validate request
	if err := req.Validate(); err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	// Calculate period dates
	periodStart := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, s.location)
	periodEnd := periodStart.AddDate(0, 1, -1)

	workDays, err := calendar.CountBusinessDays(periodStart, periodEnd)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to count work days: %w", err)
	}

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	records, err := s.attendanceRepo.ListByDateRange(ctx, periodStart, periodEnd)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to get attendance data: %w", err)
	}

	leaves, err := s.leaveRepo.ListByDateRange(ctx, periodStart, periodEnd)
	if err != nil {
		return report.MonthlyAttendanceReport{}, fmt.Errorf("failed to get leave data: %w", err)
	}

	recordsByUser := make(map[string][]attendance.Attendance)
	for _, rec := range records {
		recordsByUser[rec.UserID] = append(recordsByUser[rec.UserID], rec)
	}

	leaveDaysByUser := make(map[string]float64)
	for _, l := range leaves {
		if l.Status != leave.StatusApproved {
			continue
		}
		// Only the part of the leave inside the month counts.
		from, to := l.FromDate, l.ToDate
		if from.Before(periodStart) {
			from = periodStart
		}
		if to.After(periodEnd) {
			to = periodEnd
		}
		leaveDaysByUser[l.UserID] += leave.CalculateTotalDays(from, to, l.IsHalfDay)
	}

	rows := make([]report.MonthlyAttendanceUser, 0, len(users))
	for _, u := range users {
		userRecords := recordsByUser[u.ID]
		sort.Slice(userRecords, func(i, j int) bool { return userRecords[i].Date.Before(userRecords[j].Date) })

		row := report.MonthlyAttendanceUser{
			UserID:    u.ID,
			Name:      u.Name,
			Email:     u.Email,
			UserType:  string(u.UserType),
			DailyLogs: make([]report.AttendanceDailyLog, 0, len(userRecords)),
		}

		for _, rec := range userRecords {
			if rec.CheckIn() != nil {
				row.Summary.TotalPresent++
			}
			if rec.IsLate {
				row.Summary.TotalLateDays++
				row.Summary.TotalLateMinutes += rec.LateMinutes
			}
			if rec.ReCheckIn() != nil {
				row.Summary.TotalReCheckIns++
			}
			row.Summary.TotalWorkHours += rec.TotalHours()

			row.DailyLogs = append(row.DailyLogs, report.AttendanceDailyLog{
				Date:        rec.Date.Format("2006-01-02"),
				DayOfWeek:   rec.Date.Weekday().String(),
				CheckIn:     clockString(rec.CheckIn(), s.location),
				CheckOut:    clockString(rec.CheckOut(), s.location),
				ReCheckIn:   clockString(rec.ReCheckIn(), s.location),
				ReCheckOut:  clockString(rec.ReCheckOut(), s.location),
				Status:      rec.Status(),
				LateMinutes: rec.LateMinutes,
				TotalHours:  roundHours(rec.TotalHours()),
			})
		}
		row.Summary.TotalWorkHours = roundHours(row.Summary.TotalWorkHours)
		row.Summary.TotalLeaveDays = leaveDaysByUser[u.ID]

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	return report.MonthlyAttendanceReport{
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: periodStart.Format("2006-01-02"),
		PeriodEnd:   periodEnd.Format("2006-01-02"),
		WorkDays:    workDays,
		GeneratedAt: s.now().In(s.location).Format(time.RFC3339),
		Users:       rows,
	}, nil
}

// GenerateLeaveReport lists every leave request intersecting the range.
func (s *ReportServiceImpl) GenerateLeaveReport(ctx context.Context, req report.LeaveReportRequest) (report.LeaveReport, error) {
	from, to, err := req.Validate()
	if err != nil {
		return report.LeaveReport{}, err
	}
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, s.location)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, s.location)

	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return report.LeaveReport{}, fmt.Errorf("failed to list users: %w", err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	requests, err := s.leaveRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return report.LeaveReport{}, fmt.Errorf("failed to get leave data: %w", err)
	}

	result := report.LeaveReport{
		From:          from.Format("2006-01-02"),
		To:            to.Format("2006-01-02"),
		GeneratedAt:   s.now().In(s.location).Format(time.RFC3339),
		TotalRequests: len(requests),
		Rows:          make([]report.LeaveReportRow, 0, len(requests)),
	}

	for _, r := range requests {
		if r.Status == leave.StatusApproved {
			result.TotalApprovedDays += r.TotalDays
			result.TotalSalaryDeduction += r.SalaryDeduction
		}
		result.Rows = append(result.Rows, report.LeaveReportRow{
			RequestID:       r.ID,
			UserID:          r.UserID,
			Name:            names[r.UserID],
			LeaveType:       string(r.LeaveType),
			FromDate:        r.FromDate.Format("2006-01-02"),
			ToDate:          r.ToDate.Format("2006-01-02"),
			TotalDays:       r.TotalDays,
			WorkingDays:     r.WorkingDays,
			Status:          string(r.Status),
			SalaryDeduction: r.SalaryDeduction,
		})
	}
	result.TotalSalaryDeduction = math.Round(result.TotalSalaryDeduction*100) / 100

	return result, nil
}

// GenerateLeaveBalanceReport lists the remaining balance of every employee.
func (s *ReportServiceImpl) GenerateLeaveBalanceReport(ctx context.Context) (report.LeaveBalanceReport, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return report.LeaveBalanceReport{}, fmt.Errorf("failed to list users: %w", err)
	}

	rows := make([]report.LeaveBalanceRow, 0, len(users))
	for _, u := range users {
		if !u.HasLeaveBalance() {
			continue
		}
		rows = append(rows, report.LeaveBalanceRow{
			UserID:       u.ID,
			Name:         u.Name,
			Email:        u.Email,
			LeaveBalance: u.LeaveBalance,
			Salary:       u.Salary,
			DailyRate:    payroll.DailyRate(u.Salary),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	return report.LeaveBalanceReport{
		GeneratedAt: s.now().In(s.location).Format(time.RFC3339),
		Rows:        rows,
	}, nil
}
