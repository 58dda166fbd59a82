package report

import "context"

// ReportService defines the interface for report generation
type ReportService interface {
	GenerateMonthlyAttendanceReport(ctx context.Context, req MonthlyAttendanceReportRequest) (MonthlyAttendanceReport, error)
	GenerateLeaveReport(ctx context.Context, req LeaveReportRequest) (LeaveReport, error)
	GenerateLeaveBalanceReport(ctx context.Context) (LeaveBalanceReport, error)

	// Render turns a generated report into a CSV or PDF file.
	Render(report any, format Format) (File, error)
}
