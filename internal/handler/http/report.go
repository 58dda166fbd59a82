package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type ReportHandler interface {
	GetMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request)
	GetLeaveReport(w http.ResponseWriter, r *http.Request)
	GetLeaveBalanceReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// write sends result as JSON, or renders it as a file for csv and pdf.
func (h *reportHandlerImpl) write(w http.ResponseWriter, format report.Format, result any) {
	if format == report.FormatJSON {
		response.Success(w, result)
		return
	}

	file, err := h.reportService.Render(result, format)
	if err != nil {
		slog.Error("Failed to render report", "format", format, "error", err)
		response.HandleError(w, err)
		return
	}
	response.File(w, file.Filename, file.ContentType, file.Content)
}

// GetMonthlyAttendanceReport handles GET /reports/attendance
func (h *reportHandlerImpl) GetMonthlyAttendanceReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	// Parse query parameters
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "invalid month parameter", nil)
		return
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "invalid year parameter", nil)
		return
	}

	result, err := h.reportService.GenerateMonthlyAttendanceReport(ctx, report.MonthlyAttendanceReportRequest{
		Month: month,
		Year:  year,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.write(w, format, result)
}

// GetLeaveReport handles GET /reports/leave
func (h *reportHandlerImpl) GetLeaveReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.GenerateLeaveReport(r.Context(), report.LeaveReportRequest{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.write(w, format, result)
}

// GetLeaveBalanceReport handles GET /reports/leave-balances
func (h *reportHandlerImpl) GetLeaveBalanceReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.reportService.GenerateLeaveBalanceReport(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	h.write(w, format, result)
}
