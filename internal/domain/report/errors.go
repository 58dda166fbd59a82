package report

import "errors"

var (
	ErrInvalidFormat          = errors.New("format must be one of: json, csv, pdf")
	ErrInvalidDateRange       = errors.New("end date must not be before start date")
	ErrReportGenerationFailed = errors.New("failed to generate report")
)
