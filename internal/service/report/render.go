package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/report"
	"github.com/jung-kurt/gofpdf"
)

// table is the flat form shared by the CSV and PDF renderers.
type table struct {
	filename string
	title    string
	subtitle string
	header   []string
	widths   []float64
	rows     [][]string
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatMoney(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func toTable(r any) (table, error) {
	switch rep := r.(type) {
	case report.MonthlyAttendanceReport:
		t := table{
			filename: fmt.Sprintf("attendance-%04d-%02d", rep.PeriodYear, rep.PeriodMonth),
			title:    fmt.Sprintf("Monthly Attendance %04d-%02d", rep.PeriodYear, rep.PeriodMonth),
			subtitle: fmt.Sprintf("%s to %s, %d work days", rep.PeriodStart, rep.PeriodEnd, rep.WorkDays),
			header:   []string{"Name", "Email", "Present", "Late Days", "Late Min", "Re-Check-Ins", "Hours", "Leave Days"},
			widths:   []float64{50, 70, 20, 22, 22, 26, 22, 25},
		}
		for _, u := range rep.Users {
			t.rows = append(t.rows, []string{
				u.Name,
				u.Email,
				strconv.Itoa(u.Summary.TotalPresent),
				strconv.Itoa(u.Summary.TotalLateDays),
				strconv.Itoa(u.Summary.TotalLateMinutes),
				strconv.Itoa(u.Summary.TotalReCheckIns),
				formatFloat(u.Summary.TotalWorkHours),
				formatFloat(u.Summary.TotalLeaveDays),
			})
		}
		return t, nil

	case report.LeaveReport:
		t := table{
			filename: fmt.Sprintf("leave-%s_%s", rep.From, rep.To),
			title:    "Leave Requests",
			subtitle: fmt.Sprintf("%s to %s, %d requests, %s approved days", rep.From, rep.To, rep.TotalRequests, formatFloat(rep.TotalApprovedDays)),
			header:   []string{"Name", "Type", "From", "To", "Days", "Working Days", "Status", "Deduction"},
			widths:   []float64{55, 25, 25, 25, 18, 26, 25, 35},
		}
		for _, row := range rep.Rows {
			t.rows = append(t.rows, []string{
				row.Name,
				row.LeaveType,
				row.FromDate,
				row.ToDate,
				formatFloat(row.TotalDays),
				formatFloat(row.WorkingDays),
				row.Status,
				formatMoney(row.SalaryDeduction),
			})
		}
		return t, nil

	case report.LeaveBalanceReport:
		t := table{
			filename: "leave-balances",
			title:    "Leave Balances",
			subtitle: "Generated " + rep.GeneratedAt,
			header:   []string{"Name", "Email", "Balance", "Salary", "Daily Rate"},
			widths:   []float64{60, 80, 30, 45, 40},
		}
		for _, row := range rep.Rows {
			t.rows = append(t.rows, []string{
				row.Name,
				row.Email,
				formatFloat(row.LeaveBalance),
				formatMoney(row.Salary),
				formatMoney(row.DailyRate),
			})
		}
		return t, nil

	default:
		return table{}, fmt.Errorf("%w: unsupported report %T", report.ErrReportGenerationFailed, r)
	}
}

// Render implements report.ReportService.
func (s *ReportServiceImpl) Render(r any, format report.Format) (report.File, error) {
	t, err := toTable(r)
	if err != nil {
		return report.File{}, err
	}

	switch format {
	case report.FormatCSV:
		content, err := renderCSV(t)
		if err != nil {
			return report.File{}, err
		}
		return report.File{Filename: t.filename + ".csv", ContentType: "text/csv", Content: content}, nil
	case report.FormatPDF:
		content, err := renderPDF(t)
		if err != nil {
			return report.File{}, err
		}
		return report.File{Filename: t.filename + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return report.File{}, report.ErrInvalidFormat
	}
}

func renderCSV(t table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(t.header); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}
	if err := writer.WriteAll(t.rows); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}
	return buf.Bytes(), nil
}

func renderPDF(t table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(t.title))
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 8, tr(t.subtitle))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range t.header {
		pdf.CellFormat(t.widths[i], 7, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.rows {
		for i, cell := range row {
			align := "L"
			if i >= 2 {
				align = "R"
			}
			pdf.CellFormat(t.widths[i], 6, tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}
	return buf.Bytes(), nil
}
